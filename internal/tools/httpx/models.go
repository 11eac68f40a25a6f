// internal/tools/httpx/models.go
package httpx

import (
	"strings"

	"domscout/internal/core/domain"
)

// Response is one JSON line of `httpx -json` output.
// Only the fields the pipeline uses are decoded.
type Response struct {
	URL           string         `json:"url"`
	Input         string         `json:"input"`
	Host          string         `json:"host"`
	Path          string         `json:"path"`
	Title         string         `json:"title,omitempty"`
	StatusCode    FlexibleInt    `json:"status_code"`
	ContentLength FlexibleInt    `json:"content_length,omitempty"`
	ContentType   string         `json:"content_type,omitempty"`
	Webserver     FlexibleString `json:"webserver,omitempty"`
	Tech          []string       `json:"tech,omitempty"`
	Failed        bool           `json:"failed"`

	// Header is only present with -include-response-header. httpx
	// normalizes names to lower_snake_case.
	Header map[string]FlexibleString `json:"header,omitempty"`
}

// Endpoint converts the response into an EndpointRecord.
func (r *Response) Endpoint() *domain.EndpointRecord {
	rec := &domain.EndpointRecord{
		URL:           strings.TrimSpace(r.URL),
		StatusCode:    r.StatusCode.Int(),
		Title:         strings.TrimSpace(r.Title),
		Webserver:     strings.TrimSpace(r.Webserver.String()),
		ContentLength: r.ContentLength.Int(),
	}
	if len(r.Tech) > 0 {
		rec.Technologies = append([]string(nil), r.Tech...)
	}
	for name, value := range r.Header {
		rec.SetHeader(HeaderName(name), value.String())
	}
	return rec
}

// HeaderName converts httpx's snake_case header key back to its wire form
// (content_security_policy -> content-security-policy).
func HeaderName(key string) string {
	return strings.ReplaceAll(strings.ToLower(key), "_", "-")
}

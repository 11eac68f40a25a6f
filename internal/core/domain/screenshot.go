// internal/core/domain/screenshot.go
package domain

// Screenshot es una captura tomada por gowitness.
// Filename es relativo al directorio de screenshots (<scan_id>/<archivo>).
type Screenshot struct {
	URL        string            `json:"url" db:"url"`
	Filename   string            `json:"filename" db:"filename"`
	StatusCode int               `json:"status_code" db:"status_code"`
	Title      string            `json:"title" db:"title"`
	Headers    map[string]string `json:"headers"`
}

// Endpoint convierte la captura en un EndpointRecord para el scoring.
func (s Screenshot) Endpoint() *EndpointRecord {
	rec := &EndpointRecord{
		URL:        s.URL,
		StatusCode: s.StatusCode,
		Title:      s.Title,
		Screenshot: s.Filename,
	}
	for k, v := range s.Headers {
		rec.SetHeader(k, v)
	}
	return rec
}

// ScanStats son los contadores que acompañan a un Scan en la API.
type ScanStats struct {
	Subdomains  int `json:"subdomains" db:"subdomains"`
	AliveURLs   int `json:"alive_urls" db:"alive_urls"`
	Screenshots int `json:"screenshots" db:"screenshots"`
}

// ScanSummary es una fila del listado de scans recientes.
type ScanSummary struct {
	Scan
	SubdomainsCount int `json:"subdomains_count" db:"subdomains_count"`
	URLsCount       int `json:"urls_count" db:"urls_count"`
}

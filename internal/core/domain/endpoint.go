// internal/core/domain/endpoint.go
package domain

import (
	"sort"
	"strings"
)

// EndpointRecord es una URL descubierta con la metadata HTTP disponible.
// Headers usa claves en minúsculas.
type EndpointRecord struct {
	URL           string            `json:"url"`
	StatusCode    int               `json:"status_code,omitempty"`
	Title         string            `json:"title,omitempty"`
	Webserver     string            `json:"webserver,omitempty"`
	Technologies  []string          `json:"technologies,omitempty"`
	ContentLength int               `json:"content_length,omitempty"`
	Headers       map[string]string `json:"headers,omitempty"`
	Screenshot    string            `json:"screenshot,omitempty"`
	ROIScore      int               `json:"roi_score"`

	scored bool
}

// Header retorna el valor del header ignorando mayúsculas.
func (e *EndpointRecord) Header(name string) (string, bool) {
	if e.Headers == nil {
		return "", false
	}
	name = strings.ToLower(name)
	if v, ok := e.Headers[name]; ok {
		return v, true
	}
	for k, v := range e.Headers {
		if strings.ToLower(k) == name {
			return v, true
		}
	}
	return "", false
}

// SetHeader guarda un header normalizando el nombre.
func (e *EndpointRecord) SetHeader(name, value string) {
	if e.Headers == nil {
		e.Headers = make(map[string]string)
	}
	e.Headers[strings.ToLower(strings.TrimSpace(name))] = value
}

// Merge completa los campos vacíos de e con los de other (first-non-null-wins).
// El score no se toca: se calcula una sola vez.
func (e *EndpointRecord) Merge(other *EndpointRecord) {
	if other == nil {
		return
	}
	if e.StatusCode == 0 {
		e.StatusCode = other.StatusCode
	}
	if e.Title == "" {
		e.Title = other.Title
	}
	if e.Webserver == "" {
		e.Webserver = other.Webserver
	}
	if len(e.Technologies) == 0 && len(other.Technologies) > 0 {
		e.Technologies = append([]string(nil), other.Technologies...)
	}
	if e.ContentLength == 0 {
		e.ContentLength = other.ContentLength
	}
	if e.Screenshot == "" {
		e.Screenshot = other.Screenshot
	}
	for k, v := range other.Headers {
		if _, ok := e.Header(k); !ok {
			e.SetHeader(k, v)
		}
	}
}

// SetScore asigna el ROI score. Llamadas posteriores se ignoran.
func (e *EndpointRecord) SetScore(score int) bool {
	if e.scored {
		return false
	}
	e.ROIScore = score
	e.scored = true
	return true
}

// IsScored indica si el score ya fue asignado.
func (e *EndpointRecord) IsScored() bool {
	return e.scored
}

// ScoredResult es una entrada de scored_results.json.
type ScoredResult struct {
	URL        string `json:"url"`
	StatusCode int    `json:"status_code"`
	Title      string `json:"title"`
	ROIScore   int    `json:"roi_score"`
	Screenshot string `json:"screenshot"`
}

// ScoredResults convierte endpoints en resultados ordenados por score
// descendente y URL ascendente.
func ScoredResults(endpoints []*EndpointRecord) []ScoredResult {
	out := make([]ScoredResult, 0, len(endpoints))
	for _, e := range endpoints {
		if e == nil {
			continue
		}
		out = append(out, ScoredResult{
			URL:        e.URL,
			StatusCode: e.StatusCode,
			Title:      e.Title,
			ROIScore:   e.ROIScore,
			Screenshot: e.Screenshot,
		})
	}
	SortScored(out)
	return out
}

// SortScored ordena in-place por score desc, URL asc.
func SortScored(results []ScoredResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].ROIScore != results[j].ROIScore {
			return results[i].ROIScore > results[j].ROIScore
		}
		return results[i].URL < results[j].URL
	})
}

// EndpointSet agrupa EndpointRecords por URL con semántica de conjunto.
type EndpointSet struct {
	order []string
	byURL map[string]*EndpointRecord
}

// NewEndpointSet crea un set vacío.
func NewEndpointSet() *EndpointSet {
	return &EndpointSet{byURL: make(map[string]*EndpointRecord)}
}

// Add inserta rec o lo fusiona con el existente con la misma URL.
func (s *EndpointSet) Add(rec *EndpointRecord) {
	if rec == nil {
		return
	}
	key := strings.TrimSpace(rec.URL)
	if key == "" {
		return
	}
	if existing, ok := s.byURL[key]; ok {
		existing.Merge(rec)
		return
	}
	rec.URL = key
	s.byURL[key] = rec
	s.order = append(s.order, key)
}

// Get retorna el record de url.
func (s *EndpointSet) Get(url string) (*EndpointRecord, bool) {
	rec, ok := s.byURL[strings.TrimSpace(url)]
	return rec, ok
}

// Len retorna el número de URLs únicas.
func (s *EndpointSet) Len() int {
	return len(s.order)
}

// All retorna los records en orden de inserción.
func (s *EndpointSet) All() []*EndpointRecord {
	out := make([]*EndpointRecord, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.byURL[key])
	}
	return out
}

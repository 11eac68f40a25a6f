// internal/core/usecases/roi_service.go
package usecases

import (
	"fmt"
	"net/url"
	"strings"

	"domscout/internal/core/domain"
	"domscout/internal/platform/logx"
)

// Límites del ROI score.
const (
	ROIBaseScore = 50
	ROIMaxScore  = 250
)

// keywordBonus es una entrada de la tabla de paths interesantes.
type keywordBonus struct {
	keyword string
	bonus   int
}

// interestingPaths en orden de prioridad: solo suma la primera coincidencia.
var interestingPaths = []keywordBonus{
	{"api", 5},
	{"admin", 5},
	{"config", 4},
	{"settings", 3},
	{"account", 2},
	{"user", 2},
	{"login", 3},
	{"auth", 3},
	{"download", 2},
	{"upload", 2},
	{"search", 2},
}

var (
	cachingHeaders    = []string{"cache-control", "etag", "expires", "vary"}
	securityHeaders   = []string{"x-frame-options", "x-content-type-options", "strict-transport-security"}
	disclosureHeaders = []string{"x-powered-by", "server", "x-aspnet-version"}
)

// ROIService calcula el ROI score de cada endpoint. El cálculo es
// determinista y depende solo de los campos del record.
type ROIService struct {
	logger logx.Logger
}

// NewROIService crea el servicio de scoring.
func NewROIService(logger logx.Logger) *ROIService {
	if logger == nil {
		logger = logx.NewNop()
	}
	return &ROIService{logger: logger.With("component", "roi_service")}
}

// Score calcula el score de e en [ROIBaseScore, ROIMaxScore].
// Cualquier fallo interno retorna ROIBaseScore.
func (s *ROIService) Score(e *domain.EndpointRecord) (score int) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("scoring failed, using base score", "panic", fmt.Sprint(r))
			score = ROIBaseScore
		}
	}()
	if e == nil {
		return ROIBaseScore
	}
	return clampScore(ROIBaseScore + adjustments(e))
}

// ScoreAll asigna el score a cada endpoint todavía sin puntuar.
// Un record ya puntuado conserva su score.
func (s *ROIService) ScoreAll(endpoints []*domain.EndpointRecord) {
	for _, e := range endpoints {
		if e == nil || e.IsScored() {
			continue
		}
		e.SetScore(s.Score(e))
	}
}

func adjustments(e *domain.EndpointRecord) int {
	total := 0
	path := urlPath(e.URL)

	if depth := pathDepth(path); depth > 2 {
		total += min((depth-2)*2, 10)
	}
	if len(e.URL) > 100 {
		total += 5
	}
	total += keywordScore(path)
	total += statusScore(e.StatusCode)
	if len(e.Headers) > 0 {
		// sin headers capturados no hay nada que analizar
		total += headerScore(e)
	}
	total += cspScore(e)
	total += lengthScore(e.ContentLength)
	if strings.TrimSpace(e.Webserver) != "" {
		total += 2
	}
	return total
}

// urlPath retorna el path en minúsculas. Si la URL no parsea se usa el
// texto tras el host como aproximación.
func urlPath(raw string) string {
	raw = strings.TrimSpace(raw)
	if u, err := url.Parse(raw); err == nil && (u.Host != "" || u.Path != "") {
		return strings.ToLower(u.Path)
	}
	if i := strings.Index(raw, "://"); i >= 0 {
		raw = raw[i+3:]
	}
	if i := strings.IndexByte(raw, '/'); i >= 0 {
		return strings.ToLower(raw[i:])
	}
	return ""
}

func pathDepth(path string) int {
	depth := 0
	for _, seg := range strings.Split(path, "/") {
		if seg != "" {
			depth++
		}
	}
	return depth
}

func keywordScore(path string) int {
	for _, kw := range interestingPaths {
		if strings.Contains(path, kw.keyword) {
			return kw.bonus
		}
	}
	return 0
}

// statusScore aplica un único bracket, el primero que coincide.
func statusScore(code int) int {
	switch {
	case code == 404:
		return 50
	case code == 403:
		return 20
	case code == 401:
		return 15
	case code >= 500:
		return 15
	case code >= 400 && code <= 499:
		return 10
	default:
		return 0
	}
}

func headerScore(e *domain.EndpointRecord) int {
	total := 0
	if hasAny(e, cachingHeaders) {
		total += 10
	}

	missing := 0
	for _, h := range securityHeaders {
		if _, ok := e.Header(h); !ok {
			missing++
		}
	}
	if missing >= 2 {
		total += missing * 3
	}

	if hasAny(e, disclosureHeaders) {
		total += 3
	}
	return total
}

func cspScore(e *domain.EndpointRecord) int {
	csp, ok := e.Header("content-security-policy")
	if ok {
		if cspDomainCount(csp) > 10 {
			return 5
		}
		return 0
	}
	if e.StatusCode == 200 && e.ContentLength > 1000 {
		return 10
	}
	return 0
}

// cspDomainCount cuenta los hosts distintos que aparecen como fuentes en la política.
func cspDomainCount(policy string) int {
	hosts := make(map[string]struct{})
	for _, directive := range strings.Split(policy, ";") {
		fields := strings.Fields(directive)
		if len(fields) < 2 {
			continue
		}
		for _, src := range fields[1:] {
			if host := cspSourceHost(src); host != "" {
				hosts[host] = struct{}{}
			}
		}
	}
	return len(hosts)
}

func cspSourceHost(src string) string {
	src = strings.ToLower(strings.Trim(src, "'\""))
	if src == "" || strings.HasSuffix(src, ":") {
		// palabras clave ('self', 'none') o esquemas (https:, data:)
		return ""
	}
	if i := strings.Index(src, "://"); i >= 0 {
		src = src[i+3:]
	}
	if i := strings.IndexAny(src, "/?#"); i >= 0 {
		src = src[:i]
	}
	if i := strings.LastIndexByte(src, ':'); i >= 0 {
		src = src[:i]
	}
	src = strings.TrimPrefix(src, "*.")
	if !strings.Contains(src, ".") {
		return ""
	}
	return src
}

func lengthScore(length int) int {
	switch {
	case length > 100000:
		return 3
	case length > 50000:
		return 2
	case length > 10000:
		return 1
	default:
		return 0
	}
}

func hasAny(e *domain.EndpointRecord, names []string) bool {
	for _, name := range names {
		if _, ok := e.Header(name); ok {
			return true
		}
	}
	return false
}

func clampScore(score int) int {
	if score < ROIBaseScore {
		return ROIBaseScore
	}
	if score > ROIMaxScore {
		return ROIMaxScore
	}
	return score
}

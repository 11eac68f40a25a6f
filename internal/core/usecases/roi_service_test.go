// internal/core/usecases/roi_service_test.go
package usecases

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"domscout/internal/core/domain"
	"domscout/internal/platform/logx"
)

func fullExample() *domain.EndpointRecord {
	return &domain.EndpointRecord{
		URL:           "https://x.com/api/v1/users/list",
		StatusCode:    200,
		ContentLength: 150000,
		Webserver:     "nginx",
		Headers: map[string]string{
			"Cache-Control":             "no-cache",
			"X-Frame-Options":           "DENY",
			"X-Content-Type-Options":    "nosniff",
			"Strict-Transport-Security": "max-age=31536000",
		},
	}
}

func TestROIService_Examples(t *testing.T) {
	svc := NewROIService(logx.NewNop())

	t.Run("404 without headers", func(t *testing.T) {
		e := &domain.EndpointRecord{URL: "https://x.com/a", StatusCode: 404}
		assert.Equal(t, 100, svc.Score(e))
	})

	t.Run("full example", func(t *testing.T) {
		// 50 + 4 depth + 10 cache + 2 webserver + 3 length + 5 api + 10 no csp
		assert.Equal(t, 84, svc.Score(fullExample()))
	})

	t.Run("full example with server header", func(t *testing.T) {
		e := fullExample()
		e.SetHeader("Server", "nginx/1.25")
		assert.Equal(t, 87, svc.Score(e))
	})
}

func TestROIService_StatusBracketIsSingle(t *testing.T) {
	svc := NewROIService(nil)

	cases := map[int]int{
		200: 50,
		301: 50,
		400: 60,
		401: 65,
		403: 70,
		404: 100,
		418: 60,
		500: 65,
		503: 65,
	}
	for code, want := range cases {
		e := &domain.EndpointRecord{URL: "https://x.com/", StatusCode: code}
		assert.Equal(t, want, svc.Score(e), "status %d", code)
	}
}

func TestROIService_KeywordAppliesOnce(t *testing.T) {
	svc := NewROIService(nil)

	// api, admin, config, login y auth coinciden: solo cuenta api
	multi := &domain.EndpointRecord{URL: "https://x.com/apiadminconfigloginauth"}
	single := &domain.EndpointRecord{URL: "https://x.com/api"}
	assert.Equal(t, 55, svc.Score(multi))
	assert.Equal(t, svc.Score(single), svc.Score(multi))

	settings := &domain.EndpointRecord{URL: "https://x.com/settings"}
	assert.Equal(t, 53, svc.Score(settings))
}

func TestROIService_PathAndURLShape(t *testing.T) {
	svc := NewROIService(nil)

	assert.Equal(t, 50, svc.Score(&domain.EndpointRecord{URL: "https://x.com/a/b"}))
	assert.Equal(t, 52, svc.Score(&domain.EndpointRecord{URL: "https://x.com/a/b/c"}))
	// profundidad acotada a +10
	assert.Equal(t, 60, svc.Score(&domain.EndpointRecord{URL: "https://x.com/a/b/c/d/e/f/g/h/i/j"}))

	long := &domain.EndpointRecord{URL: "https://x.com/" + strings.Repeat("q", 120)}
	assert.Equal(t, 55, svc.Score(long))
}

func TestROIService_Headers(t *testing.T) {
	svc := NewROIService(nil)

	t.Run("missing security headers", func(t *testing.T) {
		e := &domain.EndpointRecord{URL: "https://x.com/", Headers: map[string]string{"X-Frame-Options": "DENY"}}
		// faltan 2: +6
		assert.Equal(t, 56, svc.Score(e))
	})

	t.Run("single missing header is not penalized", func(t *testing.T) {
		e := &domain.EndpointRecord{URL: "https://x.com/", Headers: map[string]string{
			"X-Frame-Options":        "DENY",
			"X-Content-Type-Options": "nosniff",
		}}
		assert.Equal(t, 50, svc.Score(e))
	})

	t.Run("disclosure", func(t *testing.T) {
		e := &domain.EndpointRecord{URL: "https://x.com/", Headers: map[string]string{"X-Powered-By": "PHP/8.1"}}
		// 3 ausentes (+9) y disclosure (+3)
		assert.Equal(t, 62, svc.Score(e))
	})
}

func TestROIService_CSP(t *testing.T) {
	svc := NewROIService(nil)
	secure := map[string]string{
		"X-Frame-Options":           "DENY",
		"X-Content-Type-Options":    "nosniff",
		"Strict-Transport-Security": "max-age=1",
	}

	hosts := make([]string, 0, 12)
	for i := 0; i < 12; i++ {
		hosts = append(hosts, "https://cdn"+string(rune('a'+i))+".example.com")
	}

	wide := &domain.EndpointRecord{URL: "https://x.com/", StatusCode: 200, Headers: copyHeaders(secure)}
	wide.SetHeader("Content-Security-Policy", "default-src 'self'; script-src "+strings.Join(hosts, " "))
	assert.Equal(t, 55, svc.Score(wide))

	narrow := &domain.EndpointRecord{URL: "https://x.com/", StatusCode: 200, ContentLength: 5000, Headers: copyHeaders(secure)}
	narrow.SetHeader("Content-Security-Policy", "default-src 'self' https://cdn.example.com")
	assert.Equal(t, 50, svc.Score(narrow))

	small := &domain.EndpointRecord{URL: "https://x.com/", StatusCode: 200, ContentLength: 500}
	assert.Equal(t, 50, svc.Score(small))
}

func TestROIService_BoundsAndDeterminism(t *testing.T) {
	svc := NewROIService(nil)

	inputs := []*domain.EndpointRecord{
		nil,
		{},
		{URL: "::not a url::", StatusCode: -1, ContentLength: -50},
		{URL: "%%%/admin/../../", StatusCode: 99999},
		{URL: strings.Repeat("/x", 500), StatusCode: 404, ContentLength: 1 << 30, Webserver: "x",
			Headers: map[string]string{"Server": "x", "Etag": "1"}},
	}
	for _, e := range inputs {
		first := svc.Score(e)
		assert.GreaterOrEqual(t, first, ROIBaseScore)
		assert.LessOrEqual(t, first, ROIMaxScore)
		assert.Equal(t, first, svc.Score(e))
	}
}

func TestROIService_ScoreAllKeepsExistingScore(t *testing.T) {
	svc := NewROIService(nil)

	scored := &domain.EndpointRecord{URL: "https://x.com/a", StatusCode: 404}
	scored.SetScore(77)
	fresh := &domain.EndpointRecord{URL: "https://x.com/a", StatusCode: 404}

	svc.ScoreAll([]*domain.EndpointRecord{scored, nil, fresh})
	assert.Equal(t, 77, scored.ROIScore)
	assert.Equal(t, 100, fresh.ROIScore)
	assert.True(t, fresh.IsScored())
}

func copyHeaders(h map[string]string) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}

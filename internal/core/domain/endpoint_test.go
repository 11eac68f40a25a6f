// internal/core/domain/endpoint_test.go
package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEndpointRecord_MergeFirstNonNullWins(t *testing.T) {
	first := &EndpointRecord{URL: "https://a.example.com", Title: "Home"}
	first.SetHeader("Server", "nginx")

	second := &EndpointRecord{
		URL:           "https://a.example.com",
		StatusCode:    200,
		Title:         "Other",
		Webserver:     "nginx/1.25",
		ContentLength: 512,
		Technologies:  []string{"PHP"},
		Headers:       map[string]string{"server": "apache", "etag": "x"},
	}

	first.Merge(second)

	assert.Equal(t, "Home", first.Title)
	assert.Equal(t, 200, first.StatusCode)
	assert.Equal(t, "nginx/1.25", first.Webserver)
	assert.Equal(t, 512, first.ContentLength)
	assert.Equal(t, []string{"PHP"}, first.Technologies)

	server, ok := first.Header("SERVER")
	require.True(t, ok)
	assert.Equal(t, "nginx", server)
	_, ok = first.Header("ETag")
	assert.True(t, ok)
}

func TestEndpointRecord_ScoreIsImmutable(t *testing.T) {
	rec := &EndpointRecord{URL: "https://x.com"}
	assert.True(t, rec.SetScore(100))
	assert.False(t, rec.SetScore(200))
	assert.Equal(t, 100, rec.ROIScore)
	assert.True(t, rec.IsScored())
}

func TestEndpointSet_CollapsesDuplicates(t *testing.T) {
	set := NewEndpointSet()
	set.Add(&EndpointRecord{URL: "https://b.example.com"})
	set.Add(&EndpointRecord{URL: " https://a.example.com "})
	set.Add(&EndpointRecord{URL: "https://b.example.com", StatusCode: 403})
	set.Add(&EndpointRecord{URL: "  "})
	set.Add(nil)

	require.Equal(t, 2, set.Len())
	b, ok := set.Get("https://b.example.com")
	require.True(t, ok)
	assert.Equal(t, 403, b.StatusCode)
	assert.Equal(t, "https://b.example.com", set.All()[0].URL)
	assert.Equal(t, "https://a.example.com", set.All()[1].URL)
}

func TestScoredResults_Ordering(t *testing.T) {
	endpoints := []*EndpointRecord{
		{URL: "https://c.example.com", ROIScore: 60},
		{URL: "https://b.example.com", ROIScore: 100},
		{URL: "https://a.example.com", ROIScore: 60},
		nil,
	}

	got := ScoredResults(endpoints)
	require.Len(t, got, 3)
	assert.Equal(t, "https://b.example.com", got[0].URL)
	assert.Equal(t, "https://a.example.com", got[1].URL)
	assert.Equal(t, "https://c.example.com", got[2].URL)
}

// internal/tools/httpx/parser.go
package httpx

import (
	"encoding/json"
	"strings"

	"domscout/internal/core/domain"
	"domscout/internal/platform/lines"
	"domscout/internal/platform/logx"
)

// ParseFile reads an httpx jsonl artifact. Malformed lines and records
// without url are skipped. A missing file yields no records.
func ParseFile(path string, logger logx.Logger) ([]*Response, error) {
	if logger == nil {
		logger = logx.NewNop()
	}

	var (
		records []*Response
		skipped int
	)
	err := lines.Each(path, func(line string) error {
		var resp Response
		if err := json.Unmarshal([]byte(line), &resp); err != nil {
			skipped++
			return nil
		}
		if strings.TrimSpace(resp.URL) == "" || resp.Failed {
			skipped++
			return nil
		}
		records = append(records, &resp)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if skipped > 0 {
		logger.Debug("skipped httpx lines", "path", path, "skipped", skipped)
	}
	return records, nil
}

// URLs returns the url of every record, in file order.
func URLs(records []*Response) []string {
	urls := make([]string, 0, len(records))
	for _, r := range records {
		urls = append(urls, strings.TrimSpace(r.URL))
	}
	return urls
}

// Endpoints converts records into endpoint records.
func Endpoints(records []*Response) []*domain.EndpointRecord {
	out := make([]*domain.EndpointRecord, 0, len(records))
	for _, r := range records {
		out = append(out, r.Endpoint())
	}
	return out
}

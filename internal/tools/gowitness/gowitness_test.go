// internal/tools/gowitness/gowitness_test.go
package gowitness

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"domscout/internal/core/domain"
	"domscout/internal/core/ports"
	"domscout/internal/testutil"
)

func createDB(t *testing.T, path string, stmts ...string) {
	t.Helper()
	db, err := sqlx.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()
	for _, stmt := range stmts {
		_, err := db.Exec(stmt)
		require.NoError(t, err, stmt)
	}
}

func createV3(t *testing.T, path string) {
	createDB(t, path,
		`CREATE TABLE results (id INTEGER PRIMARY KEY, url TEXT, final_url TEXT, response_code INTEGER,
			response_reason TEXT, title TEXT, filename TEXT)`,
		`CREATE TABLE headers (id INTEGER PRIMARY KEY, result_id INTEGER, key TEXT, value TEXT)`,
		`INSERT INTO results VALUES (1, 'https://a.example.com/admin', 'https://a.example.com/admin/', 403, 'Forbidden', 'Admin', 'https---a.example.com-admin.jpeg')`,
		`INSERT INTO results VALUES (2, 'https://b.example.com', NULL, 200, 'OK', NULL, '')`,
		`INSERT INTO results VALUES (3, 'https://c.example.com', NULL, NULL, NULL, 'C', '/abs/shots/c.jpeg')`,
		`INSERT INTO headers VALUES (1, 1, 'Server', 'nginx'), (2, 1, 'X-Frame-Options', 'DENY')`,
	)
}

func TestReadDB_V3(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gowitness.sqlite3")
	createV3(t, path)

	shots, err := ReadDB(context.Background(), path, "scan-1")
	require.NoError(t, err)
	require.Len(t, shots, 2)

	assert.Equal(t, "https://a.example.com/admin", shots[0].URL)
	assert.Equal(t, "scan-1/https---a.example.com-admin.jpeg", shots[0].Filename)
	assert.Equal(t, 403, shots[0].StatusCode)
	assert.Equal(t, "Admin", shots[0].Title)
	assert.Equal(t, map[string]string{"server": "nginx", "x-frame-options": "DENY"}, shots[0].Headers)

	assert.Equal(t, "scan-1/c.jpeg", shots[1].Filename)
	assert.Zero(t, shots[1].StatusCode)
	assert.Nil(t, shots[1].Headers)
}

func TestReadDB_V2Fallback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gowitness.sqlite3")
	createDB(t, path,
		`CREATE TABLE urls (id INTEGER PRIMARY KEY, url TEXT, final_url TEXT, response_code INTEGER,
			response_reason TEXT, proto TEXT, content_length INTEGER, title TEXT, filename TEXT)`,
		`INSERT INTO urls VALUES (7, 'http://old.example.com', NULL, 401, 'Unauthorized', 'HTTP/1.1', 0, 'Login', 'old.png')`,
	)

	shots, err := ReadDB(context.Background(), path, "scan-2")
	require.NoError(t, err)
	require.Len(t, shots, 1)
	assert.Equal(t, domain.Screenshot{
		URL:        "http://old.example.com",
		Filename:   "scan-2/old.png",
		StatusCode: 401,
		Title:      "Login",
	}, shots[0])
}

func TestReadDB_MissingAndUnknown(t *testing.T) {
	dir := t.TempDir()

	shots, err := ReadDB(context.Background(), filepath.Join(dir, "missing.sqlite3"), "s")
	require.NoError(t, err)
	assert.Empty(t, shots)

	path := filepath.Join(dir, "other.sqlite3")
	createDB(t, path, `CREATE TABLE something (id INTEGER)`)
	_, err = ReadDB(context.Background(), path, "s")
	assert.ErrorIs(t, err, domain.ErrUnsupportedSchema)
}

func newTestTool(t *testing.T, body string, chrome string) (*Gowitness, string) {
	t.Helper()
	bin := testutil.FakeBinary(t, "gowitness", body)
	cfg := ports.DefaultToolConfig()
	cfg.ExecPath = bin
	tool := New(nil, cfg, DefaultOptions())
	tool.findChrome = func() string { return chrome }
	return tool, bin
}

func TestGowitness_Invoke(t *testing.T) {
	tool, bin := newTestTool(t, "exit 0", "/usr/bin/chromium")

	dir := t.TempDir()
	in := ports.ToolInput{ScanID: "scan-1", Target: "example.com", WorkDir: filepath.Join(dir, "work"), ScreenshotsDir: filepath.Join(dir, "shots")}
	require.NoError(t, testutil.WriteLines(in.Path(domain.FileAliveServices), "https://a.example.com"))
	createV3(t, in.Path(domain.FileGowitnessDB))

	out, err := tool.Invoke(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 2, out.Count)
	assert.Equal(t, []string{"https://a.example.com/admin", "https://c.example.com"}, out.Results)
	require.Len(t, out.Artifacts, 1)
	assert.Equal(t, domain.SchemaSQLite, out.Artifacts[0].Schema)
	assert.DirExists(t, filepath.Join(in.ScreenshotsDir, "scan-1"))

	// urls.txt vacío: se usa alive_webservices.txt
	assert.Equal(t, []string{
		"scan", "file",
		"-f", in.Path(domain.FileAliveServices),
		"--threads", "20", "--delay", "2", "--timeout", "20",
		"--screenshot-path", filepath.Join(in.ScreenshotsDir, "scan-1") + string(filepath.Separator),
		"--db-path", in.Path(domain.FileGowitnessDB),
		"--chrome-path", "/usr/bin/chromium",
	}, testutil.BinaryArgs(t, bin))

	endpoints, err := tool.Endpoints(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, endpoints, 2)
	assert.Equal(t, "scan-1/https---a.example.com-admin.jpeg", endpoints[0].Screenshot)
	server, ok := endpoints[0].Header("server")
	assert.True(t, ok)
	assert.Equal(t, "nginx", server)
}

func TestGowitness_PrefersURLsFile(t *testing.T) {
	tool, _ := newTestTool(t, "exit 0", "")
	in := ports.ToolInput{ScanID: "s", WorkDir: t.TempDir()}
	require.NoError(t, testutil.WriteLines(in.Path(domain.FileURLs), "https://a.example.com/x"))
	require.NoError(t, testutil.WriteLines(in.Path(domain.FileAliveServices), "https://a.example.com"))

	assert.Equal(t, in.Path(domain.FileURLs), tool.inputFile(in))
	assert.NotContains(t, tool.buildArgs("f", "d", "db"), "--chrome-path")
}

func TestGowitness_ExitWithoutDBFails(t *testing.T) {
	tool, _ := newTestTool(t, "exit 1", "")
	dir := t.TempDir()
	in := ports.ToolInput{ScanID: "s", WorkDir: dir, ScreenshotsDir: filepath.Join(dir, "shots")}

	_, err := tool.Invoke(context.Background(), in)
	assert.True(t, domain.IsToolError(err, domain.ToolErrorExit))
}

func TestNew_DelayOptions(t *testing.T) {
	cfg := ports.DefaultToolConfig()

	assert.Equal(t, 0, New(nil, cfg, Options{Delay: 0}).opts.Delay)
	assert.Equal(t, DefaultOptions().Delay, New(nil, cfg, Options{Delay: -1}).opts.Delay)
	assert.Equal(t, 5, New(nil, cfg, Options{Delay: 5}).opts.Delay)
}

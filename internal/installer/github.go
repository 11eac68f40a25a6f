package installer

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"domscout/internal/platform/errors"
	"domscout/internal/platform/httpclient"
	"domscout/internal/platform/logx"
)

// GitHubRelease represents a GitHub release API response.
type GitHubRelease struct {
	TagName string `json:"tag_name"`
	Name    string `json:"name"`
	Assets  []struct {
		Name               string `json:"name"`
		BrowserDownloadURL string `json:"browser_download_url"`
	} `json:"assets"`
}

// Version returns the version string from the release tag.
func (r *GitHubRelease) Version() string {
	return strings.TrimPrefix(r.TagName, "v")
}

// GitHubProvider descarga binarios de releases de GitHub.
type GitHubProvider struct {
	client  *httpclient.Client
	token   string
	apiBase string
}

// NewGitHubProvider usa GITHUB_TOKEN si está definido (mayor rate limit).
func NewGitHubProvider(logger logx.Logger) *GitHubProvider {
	return &GitHubProvider{
		client: httpclient.New(httpclient.Config{
			Timeout:    5 * time.Minute,
			MaxRetries: 2,
		}, logger),
		token:   os.Getenv("GITHUB_TOKEN"),
		apiBase: "https://api.github.com",
	}
}

// WithAPIBase cambia la URL base de la API (tests).
func (g *GitHubProvider) WithAPIBase(base string) *GitHubProvider {
	g.apiBase = strings.TrimRight(base, "/")
	return g
}

func (g *GitHubProvider) headers() map[string]string {
	h := map[string]string{"Accept": "application/vnd.github+json"}
	if g.token != "" {
		h["Authorization"] = "token " + g.token
	}
	return h
}

// LatestRelease fetches the latest release information from GitHub.
func (g *GitHubProvider) LatestRelease(ctx context.Context, repo string) (*GitHubRelease, error) {
	body, err := g.client.Fetch(ctx, fmt.Sprintf("%s/repos/%s/releases/latest", g.apiBase, repo), g.headers())
	if err != nil {
		return nil, errors.Wrapf(err, "fetch latest release of %s", repo)
	}
	var release GitHubRelease
	if err := json.Unmarshal(body, &release); err != nil {
		return nil, errors.Wrap(err, "decode release")
	}
	return &release, nil
}

// Download guarda url en dest.
func (g *GitHubProvider) Download(ctx context.Context, url, dest string) error {
	h := g.headers()
	h["Accept"] = "application/octet-stream"
	body, err := g.client.Fetch(ctx, url, h)
	if err != nil {
		return errors.Wrap(err, "download asset")
	}
	if err := os.WriteFile(dest, body, 0o644); err != nil {
		return errors.Wrap(err, "write asset")
	}
	return nil
}

// FindAsset retorna el primer asset cuyo nombre coincide con pattern (glob).
func FindAsset(release *GitHubRelease, pattern string) (name, url string, err error) {
	for _, asset := range release.Assets {
		if ok, _ := filepath.Match(pattern, asset.Name); ok {
			return asset.Name, asset.BrowserDownloadURL, nil
		}
	}
	return "", "", fmt.Errorf("no asset matching pattern %s found", pattern)
}

// Extract descomprime archive (.zip, .tar.gz o .tgz) en destDir.
func Extract(archive, destDir string) error {
	switch {
	case strings.HasSuffix(archive, ".zip"):
		return extractZip(archive, destDir)
	case strings.HasSuffix(archive, ".tar.gz"), strings.HasSuffix(archive, ".tgz"):
		return extractTarGz(archive, destDir)
	default:
		return fmt.Errorf("unsupported archive format: %s", filepath.Base(archive))
	}
}

// safeJoin rechaza entradas que escapan de destDir.
func safeJoin(destDir, name string) (string, error) {
	target := filepath.Join(destDir, name)
	rel, err := filepath.Rel(destDir, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive entry %q escapes destination", name)
	}
	return target, nil
}

func extractZip(zipPath, destDir string) error {
	reader, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("failed to open zip: %w", err)
	}
	defer reader.Close()

	for _, file := range reader.File {
		path, err := safeJoin(destDir, file.Name)
		if err != nil {
			return err
		}
		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(path, 0o755); err != nil {
				return fmt.Errorf("failed to create directory: %w", err)
			}
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return fmt.Errorf("failed to open file in zip: %w", err)
		}
		err = writeFile(path, rc, file.Mode())
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func extractTarGz(tarGzPath, destDir string) error {
	f, err := os.Open(tarGzPath)
	if err != nil {
		return fmt.Errorf("failed to open tar.gz: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read tar header: %w", err)
		}
		path, err := safeJoin(destDir, header.Name)
		if err != nil {
			return err
		}
		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(path, 0o755); err != nil {
				return fmt.Errorf("failed to create directory: %w", err)
			}
		case tar.TypeReg:
			if err := writeFile(path, tr, os.FileMode(header.Mode)); err != nil {
				return err
			}
		}
	}
}

func writeFile(path string, r io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	out, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.Perm()|0o600)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return fmt.Errorf("failed to extract file: %w", err)
	}
	return out.Close()
}

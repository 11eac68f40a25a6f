// internal/tools/common/chrome.go
package common

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

var linuxChromeBinaries = []string{
	"google-chrome",
	"google-chrome-stable",
	"chromium",
	"chromium-browser",
}

const macChromeApp = "Applications/Google Chrome.app/Contents/MacOS/Google Chrome"

// FindChrome returns the path of a Chrome/Chromium binary, or "" when none is
// installed. gowitness falls back to its own lookup in that case.
func FindChrome() string {
	return findChrome(runtime.GOOS, exec.LookPath, fileExists)
}

func findChrome(goos string, lookPath func(string) (string, error), exists func(string) bool) string {
	switch goos {
	case "linux":
		for _, name := range linuxChromeBinaries {
			if path, err := lookPath(name); err == nil {
				return path
			}
		}
	case "darwin":
		candidates := []string{"/" + macChromeApp}
		if home, err := os.UserHomeDir(); err == nil {
			candidates = append(candidates, filepath.Join(home, macChromeApp))
		}
		for _, path := range candidates {
			if exists(path) {
				return path
			}
		}
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

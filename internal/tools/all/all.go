// internal/tools/all/all.go
// Package all registers every tool adapter in the global registry.
package all

import (
	// Tool adapters (auto-register via init())
	_ "domscout/internal/tools/assetfinder"
	_ "domscout/internal/tools/crtsh"
	_ "domscout/internal/tools/dnsx"
	_ "domscout/internal/tools/findomain"
	_ "domscout/internal/tools/gau"
	_ "domscout/internal/tools/gospider"
	_ "domscout/internal/tools/gowitness"
	_ "domscout/internal/tools/httpx"
	_ "domscout/internal/tools/subfinder"
	_ "domscout/internal/tools/sublist3r"
)

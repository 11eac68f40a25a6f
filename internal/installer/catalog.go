package installer

import "sort"

// DefaultCatalog lista cómo obtener el binario de cada herramienta.
func DefaultCatalog() map[string]Dependency {
	deps := []Dependency{
		{Tool: "subfinder", Binaries: []string{"subfinder"}, Method: MethodGo,
			Package: "github.com/projectdiscovery/subfinder/v2/cmd/subfinder"},
		{Tool: "assetfinder", Binaries: []string{"assetfinder"}, Method: MethodGo,
			Package: "github.com/tomnomnom/assetfinder"},
		{Tool: "dnsx", Binaries: []string{"dnsx"}, Method: MethodGo,
			Package: "github.com/projectdiscovery/dnsx/cmd/dnsx"},
		{Tool: "httpx", Binaries: []string{"httpx-toolkit", "httpx"}, Method: MethodGo,
			Package: "github.com/projectdiscovery/httpx/cmd/httpx"},
		{Tool: "gau", Binaries: []string{"gau"}, Method: MethodGo,
			Package: "github.com/lc/gau/v2/cmd/gau"},
		{Tool: "gospider", Binaries: []string{"gospider"}, Method: MethodGo,
			Package: "github.com/jaeles-project/gospider"},
		{Tool: "gowitness", Binaries: []string{"gowitness"}, Method: MethodGo,
			Package: "github.com/sensepost/gowitness"},
		{Tool: "sublist3r", Binaries: []string{"sublist3r"}, Method: MethodPip,
			Package: "sublist3r"},
		{Tool: "crtsh", Binaries: []string{"curl"}, Method: MethodSystem,
			Package: "curl"},
		{
			Tool:       "findomain",
			Binaries:   []string{"findomain"},
			Method:     MethodGitHub,
			Repo:       "Findomain/Findomain",
			BinaryName: "findomain",
			AssetPatterns: map[string]string{
				"linux_amd64":  "findomain-linux.zip",
				"linux_arm64":  "findomain-aarch64.zip",
				"darwin_amd64": "findomain-osx-x86_64.zip",
				"darwin_arm64": "findomain-osx-arm64.zip",
			},
		},
	}

	out := make(map[string]Dependency, len(deps))
	for _, d := range deps {
		out[d.Tool] = d
	}
	return out
}

// Select retorna las dependencias de tools en orden alfabético.
// Herramientas sin entrada en el catálogo se ignoran.
func Select(catalog map[string]Dependency, tools []string) []Dependency {
	out := make([]Dependency, 0, len(tools))
	for _, name := range tools {
		if dep, ok := catalog[name]; ok {
			out = append(out, dep)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tool < out[j].Tool })
	return out
}

// internal/platform/ui/ascii.go
package ui

// BannerCompact se muestra al iniciar el CLI en terminales anchas
const BannerCompact = `
╔════════════════════════════════════════════════════════════╗
║                                                            ║
║   ██████╗  ██████╗ ███╗   ███╗███████╗ ██████╗ ██████╗     ║
║   ██╔══██╗██╔═══██╗████╗ ████║██╔════╝██╔════╝██╔═══██╗    ║
║   ██║  ██║██║   ██║██╔████╔██║███████╗██║     ██║   ██║    ║
║   ██║  ██║██║   ██║██║╚██╔╝██║╚════██║██║     ██║   ██║    ║
║   ██████╔╝╚██████╔╝██║ ╚═╝ ██║███████║╚██████╗╚██████╔╝    ║
║   ╚═════╝  ╚═════╝ ╚═╝     ╚═╝╚══════╝ ╚═════╝ ╚═════╝     ║
║                                                            ║
║              Attack surface recon pipeline                 ║
║                                                            ║
╚════════════════════════════════════════════════════════════╝
`

// BannerMinimal para terminales pequeñas
const BannerMinimal = `
╔═══════════════════════════════════════╗
║    DOMSCOUT                           ║
║    Attack surface recon pipeline      ║
╚═══════════════════════════════════════╝
`

// GetBanner retorna el banner apropiado según el ancho del terminal
func GetBanner(terminalWidth int) string {
	if terminalWidth < 80 {
		return BannerMinimal
	}
	return BannerCompact
}

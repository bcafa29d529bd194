package theme

import "github.com/charmbracelet/lipgloss"

// Palette is the terminal rendition of a theme.
type Palette struct {
	Base    lipgloss.Color
	Surface lipgloss.Color
	Text    lipgloss.Color
	Muted   lipgloss.Color
	Accent  lipgloss.Color
	Online  lipgloss.Color
	Dark    bool
}

var (
	darkPalette = Palette{
		Base:    "#1e1e2e",
		Surface: "#313244",
		Text:    "#cdd6f4",
		Muted:   "#7f849c",
		Accent:  "#cba6f7",
		Online:  "#a6e3a1",
		Dark:    true,
	}
	lightPalette = Palette{
		Base:    "#eff1f5",
		Surface: "#ccd0da",
		Text:    "#4c4f69",
		Muted:   "#8c8fa1",
		Accent:  "#8839ef",
		Online:  "#40a02b",
	}
)

var darkThemes = map[string]bool{
	"dark": true, "synthwave": true, "halloween": true, "forest": true,
	"black": true, "luxury": true, "dracula": true, "business": true,
	"night": true, "coffee": true, "dim": true, "sunset": true,
}

// accents overrides the accent color for themes with a strong identity.
var accents = map[string]lipgloss.Color{
	"coffee":    "#db924b",
	"dracula":   "#ff79c6",
	"cupcake":   "#65c3c8",
	"bumblebee": "#e0a82e",
	"emerald":   "#66cc8a",
	"synthwave": "#e779c1",
	"cyberpunk": "#ff7598",
	"valentine": "#e96d7b",
	"halloween": "#f28c18",
	"forest":    "#1eb854",
	"nord":      "#5e81ac",
	"sunset":    "#ff865b",
}

// PaletteFor maps a theme id to a palette. Ids outside Themes get the
// default palette and ok=false; the id itself is still shown to the user.
func PaletteFor(id string) (p Palette, ok bool) {
	if !Valid(id) {
		p, _ = PaletteFor(Default)
		return p, false
	}
	p = lightPalette
	if darkThemes[id] {
		p = darkPalette
	}
	if c, found := accents[id]; found {
		p.Accent = c
	}
	return p, true
}

package ui

import (
	"image/color"

	"gazer/internal/settings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// viewerTheme wraps an existing theme, reduces padding and paints the
// background with the configured viewer color.
type viewerTheme struct {
	fyne.Theme
	background color.Color
}

var _ fyne.Theme = (*viewerTheme)(nil)

// Size overrides the default theme size for padding.
func (t *viewerTheme) Size(name fyne.ThemeSizeName) float32 {
	if name == theme.SizeNamePadding {
		return 1.0
	}
	return t.Theme.Size(name)
}

func (t *viewerTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	if name == theme.ColorNameBackground && t.background != nil {
		return t.background
	}
	return t.Theme.Color(name, variant)
}

// NewViewerTheme creates a theme based on baseTheme using bg as the window background.
func NewViewerTheme(baseTheme fyne.Theme, bg settings.Color) fyne.Theme {
	return &viewerTheme{Theme: baseTheme, background: toColor(bg)}
}

func toColor(c settings.Color) color.Color {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: 0xff}
}

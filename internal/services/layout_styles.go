package services

import (
	"strconv"
	"strings"

	"go-invoice-service/internal/models"
)

type rgb struct{ R, G, B int }

var (
	white     = rgb{255, 255, 255}
	black     = rgb{0, 0, 0}
	lightGrey = rgb{248, 249, 250}
	midGrey   = rgb{100, 100, 100}
)

// layoutStyle is everything that differs between layouts.
// Content never lives here.
type layoutStyle struct {
	FontFamily    string
	TitleSize     float64
	BodySize      float64
	TitleAlign    string // L, C or R
	HeaderBand    bool   // filled primary band behind the title
	HeaderRule    bool   // primary rule below the header
	TableBorder   string // gofpdf border spec for item cells
	HeaderFill    bool
	ZebraRows     bool
	TotalFill     bool
	PartiesSplit  bool // company and customer side by side
	UppercaseHead bool

	// html
	CSSFont   string
	CSSRadius string

	defaultColors models.TemplateColors
}

var layoutStyles = map[models.Layout]layoutStyle{
	models.LayoutModern: {
		FontFamily:    "Helvetica",
		TitleSize:     24,
		BodySize:      10,
		TitleAlign:    "L",
		HeaderBand:    true,
		TableBorder:   "",
		HeaderFill:    true,
		ZebraRows:     true,
		TotalFill:     true,
		PartiesSplit:  true,
		UppercaseHead: true,
		CSSFont:       "'Helvetica Neue', Arial, sans-serif",
		CSSRadius:     "8px",
		defaultColors: models.TemplateColors{Primary: "#2563eb", Secondary: "#64748b", Accent: "#f59e0b"},
	},
	models.LayoutClassic: {
		FontFamily:    "Times",
		TitleSize:     26,
		BodySize:      11,
		TitleAlign:    "C",
		HeaderRule:    true,
		TableBorder:   "1",
		HeaderFill:    false,
		TotalFill:     false,
		PartiesSplit:  false,
		CSSFont:       "Georgia, 'Times New Roman', serif",
		CSSRadius:     "0",
		defaultColors: models.TemplateColors{Primary: "#1f2937", Secondary: "#4b5563", Accent: "#92400e"},
	},
	models.LayoutMinimal: {
		FontFamily:    "Helvetica",
		TitleSize:     18,
		BodySize:      9,
		TitleAlign:    "L",
		TableBorder:   "B",
		PartiesSplit:  true,
		CSSFont:       "Arial, sans-serif",
		CSSRadius:     "0",
		defaultColors: models.TemplateColors{Primary: "#111827", Secondary: "#6b7280", Accent: "#9ca3af"},
	},
	models.LayoutProfessional: {
		FontFamily:    "Arial",
		TitleSize:     22,
		BodySize:      10,
		TitleAlign:    "R",
		HeaderRule:    true,
		TableBorder:   "1",
		HeaderFill:    true,
		ZebraRows:     true,
		TotalFill:     true,
		PartiesSplit:  true,
		UppercaseHead: true,
		CSSFont:       "Arial, Helvetica, sans-serif",
		CSSRadius:     "4px",
		defaultColors: models.TemplateColors{Primary: "#0f172a", Secondary: "#334155", Accent: "#0ea5e9"},
	},
}

// styleFor returns the style of a layout; unknown layouts render as modern
func styleFor(layout models.Layout) layoutStyle {
	if style, ok := layoutStyles[layout]; ok {
		return style
	}
	return layoutStyles[models.LayoutModern]
}

// resolvedColors fills missing or invalid template colors from the layout defaults
func (s layoutStyle) resolvedColors(colors models.TemplateColors) models.TemplateColors {
	if _, ok := parseHexColor(colors.Primary); !ok {
		colors.Primary = s.defaultColors.Primary
	}
	if _, ok := parseHexColor(colors.Secondary); !ok {
		colors.Secondary = s.defaultColors.Secondary
	}
	if _, ok := parseHexColor(colors.Accent); !ok {
		colors.Accent = s.defaultColors.Accent
	}
	return colors
}

// parseHexColor parses #rgb or #rrggbb
func parseHexColor(hex string) (rgb, bool) {
	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return rgb{}, false
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return rgb{}, false
	}
	return rgb{R: int(v >> 16 & 0xff), G: int(v >> 8 & 0xff), B: int(v & 0xff)}, true
}

func mustColor(hex string, fallback rgb) rgb {
	if c, ok := parseHexColor(hex); ok {
		return c
	}
	return fallback
}

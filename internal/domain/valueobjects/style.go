package valueobjects

import (
	"slices"
	"strings"
)

type Style string

const (
	Casual     Style = "Casual"
	Business   Style = "Business"
	NightOut   Style = "Night Out"
	Streetwear Style = "Streetwear"
	Minimalist Style = "Minimalist"
	Bohemian   Style = "Bohemian"
	Sporty     Style = "Sporty"
)

// InitialBatchSize is how many catalog styles the first generation requests.
const InitialBatchSize = 3

// 生成順を兼ねるスタイルカタログ
var catalog = []Style{
	Casual,
	Business,
	NightOut,
	Streetwear,
	Minimalist,
	Bohemian,
	Sporty,
}

func Catalog() []Style {
	return slices.Clone(catalog)
}

func CatalogSize() int {
	return len(catalog)
}

func InitialStyles() []Style {
	return slices.Clone(catalog[:InitialBatchSize])
}

// StyleAt returns the catalog entry at index i.
func StyleAt(i int) (Style, bool) {
	if i < 0 || i >= len(catalog) {
		return "", false
	}
	return catalog[i], true
}

func ParseStyle(s string) (Style, bool) {
	for _, style := range catalog {
		if strings.EqualFold(string(style), s) {
			return style, true
		}
	}
	return "", false
}

func (s Style) String() string {
	return string(s)
}

// Slug is used in download file names, e.g. "night-out".
func (s Style) Slug() string {
	return strings.ReplaceAll(strings.ToLower(string(s)), " ", "-")
}

package overlay

import (
	"fmt"
	"strings"
)

// Style is the caption presentation mode handed to the renderer untouched.
type Style string

const (
	StyleBottomCenter Style = "bottom-center"
	StyleTopBar       Style = "top-bar"

	DefaultStyle = StyleBottomCenter
)

// Styles lists every supported style.
func Styles() []Style {
	return []Style{StyleBottomCenter, StyleTopBar}
}

// ParseStyle matches value case-insensitively. An empty value yields DefaultStyle.
func ParseStyle(value string) (Style, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return DefaultStyle, nil
	}
	for _, style := range Styles() {
		if string(style) == normalized {
			return style, nil
		}
	}
	return "", fmt.Errorf("unknown caption style %q (want bottom-center or top-bar)", value)
}

func (s Style) String() string {
	return string(s)
}

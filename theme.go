package iteria

// ThemeKind is the editor's color theme class
type ThemeKind int

const (
	ThemeLight ThemeKind = iota + 1
	ThemeDark
	ThemeHighContrast
)

// ThemeChangeNotice is shown when the theme class changes under a live panel
const ThemeChangeNotice = "Theme type change detected. Please close and reopen the panel."

func (k ThemeKind) String() string {
	switch k {
	case ThemeLight:
		return "light"
	case ThemeDark:
		return "dark"
	case ThemeHighContrast:
		return "high-contrast"
	default:
		return "unknown"
	}
}

// PageTheme maps a theme kind to the stylesheet variant of the tree editor page.
// High contrast uses the dark sheet.
func (k ThemeKind) PageTheme() string {
	if k == ThemeLight {
		return "light"
	}
	return "dark"
}

// ParseThemeKind parses the names accepted in configuration
func ParseThemeKind(s string) (ThemeKind, bool) {
	switch s {
	case "light":
		return ThemeLight, true
	case "dark":
		return ThemeDark, true
	case "high-contrast", "highcontrast":
		return ThemeHighContrast, true
	default:
		return 0, false
	}
}

package enums

// Language selects the locale used when rendering customer mail.
type Language string

const (
	LanguageItalian Language = "it"
	LanguageEnglish Language = "en"
)

// String implements fmt.Stringer.
func (l Language) String() string {
	return string(l)
}

// IsValid reports whether the value is a known Language.
func (l Language) IsValid() bool {
	switch l {
	case LanguageItalian, LanguageEnglish:
		return true
	default:
		return false
	}
}

// OrDefault falls back to Italian for unknown or empty values.
func (l Language) OrDefault() Language {
	switch l {
	case LanguageItalian, LanguageEnglish:
		return l
	default:
		return LanguageItalian
	}
}

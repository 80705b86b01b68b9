package config

import "log/slog"

const (
	LangEN = "en"
	LangES = "es"
)

// GetLocaleConfig maps a configured language to a supported one.
func GetLocaleConfig(lang string) string {
	switch lang {
	case LangEN, LangES:
		return lang
	default:
		slog.Warn("unsupported language, falling back to English", "language", lang)
		return LangEN
	}
}

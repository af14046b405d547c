// Package localization holds the notification text templates, one JSON file
// per language under locales/.
package localization

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"strings"
)

const DefaultLanguage = "en"

// Template keys.
const (
	KeyConnectionRequest  = "notification.connection_request"
	KeyConnectionAccepted = "notification.connection_accepted"
	KeyUnknownSender      = "notification.unknown_sender"
)

//go:embed locales/*.json
var bundled embed.FS

// Localizer manages the translations for the application. It is read-only
// once loaded and safe for concurrent use.
type Localizer struct {
	translations map[string]map[string]string
}

// NewLocalizer loads the bundled translations.
func NewLocalizer() (*Localizer, error) {
	sub, err := fs.Sub(bundled, "locales")
	if err != nil {
		return nil, err
	}
	return NewLocalizerFS(sub)
}

// NewLocalizerFS loads every <lang>.json file at the root of fsys.
func NewLocalizerFS(fsys fs.FS) (*Localizer, error) {
	l := &Localizer{
		translations: make(map[string]map[string]string),
	}

	files, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read localization directory: %w", err)
	}

	for _, file := range files {
		if file.IsDir() || path.Ext(file.Name()) != ".json" {
			continue
		}

		data, err := fs.ReadFile(fsys, file.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read localization file %s: %w", file.Name(), err)
		}

		var translations map[string]string
		if err := json.Unmarshal(data, &translations); err != nil {
			return nil, fmt.Errorf("failed to parse localization file %s: %w", file.Name(), err)
		}

		l.translations[strings.TrimSuffix(file.Name(), ".json")] = translations
	}

	return l, nil
}

// GetString returns the string for key in lang, falling back to English and
// then to the key itself.
func (l *Localizer) GetString(lang, key string) string {
	if value, ok := l.translations[lang][key]; ok {
		return value
	}
	if value, ok := l.translations[DefaultLanguage][key]; ok {
		return value
	}
	return key
}

// Format fills the template for key with args.
func (l *Localizer) Format(lang, key string, args ...any) string {
	return fmt.Sprintf(l.GetString(lang, key), args...)
}

// HasLanguage reports whether translations for lang were loaded.
func (l *Localizer) HasLanguage(lang string) bool {
	_, ok := l.translations[lang]
	return ok
}

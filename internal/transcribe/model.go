package transcribe

import (
	"fmt"
	"sort"
	"strings"
)

const (
	// DefaultModel balances speed and accuracy for most audio.
	DefaultModel = "base"
	// AutoLanguage asks the engine to detect the spoken language.
	AutoLanguage = "auto"
)

// modelSizes are the named tiers the engine accepts, smallest to largest.
// Larger models improve accuracy at the cost of processing time.
var modelSizes = map[string]struct{}{
	"tiny":   {},
	"base":   {},
	"small":  {},
	"medium": {},
	"large":  {},
}

// languageCodes are the short codes offered by the selectable UI, plus auto.
var languageCodes = map[string]struct{}{
	AutoLanguage: {},
	"ja":         {},
	"en":         {},
	"zh":         {},
	"de":         {},
	"fr":         {},
	"es":         {},
	"ko":         {},
	"ru":         {},
}

func ModelNames() []string {
	names := make([]string, 0, len(modelSizes))
	for name := range modelSizes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func ValidateModel(name string) error {
	if _, ok := modelSizes[name]; !ok {
		return fmt.Errorf("unknown model %q (known models: %s)", name, strings.Join(ModelNames(), ", "))
	}
	return nil
}

// NormalizeLanguage lowercases and trims a language code; blank means auto.
func NormalizeLanguage(input string) string {
	trimmed := strings.TrimSpace(strings.ToLower(input))
	if trimmed == "" {
		return AutoLanguage
	}
	return trimmed
}

func ValidateLanguage(code string) error {
	if _, ok := languageCodes[NormalizeLanguage(code)]; !ok {
		return fmt.Errorf("unknown language %q", code)
	}
	return nil
}

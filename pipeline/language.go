package pipeline

import (
	"strings"

	"github.com/pemistahl/lingua-go"
)

// DefaultLanguages is the detection set used unless the host asks for more.
// Building a detector over every language costs far more memory than the
// pipeline needs.
var DefaultLanguages = []lingua.Language{
	lingua.Portuguese,
	lingua.English,
	lingua.Spanish,
	lingua.French,
	lingua.German,
	lingua.Italian,
}

// LanguageDetector names the natural language of a piece of text. It is
// expensive to build, so the host constructs one and shares it.
type LanguageDetector struct {
	detector lingua.LanguageDetector
}

func NewLanguageDetector(languages ...lingua.Language) *LanguageDetector {
	if len(languages) == 0 {
		languages = DefaultLanguages
	}
	detector := lingua.NewLanguageDetectorBuilder().
		FromLanguages(languages...).
		Build()
	return &LanguageDetector{detector: detector}
}

// Detect returns the English name of the language ("Portuguese"), or false
// when the text is too short or ambiguous.
func (d *LanguageDetector) Detect(text string) (string, bool) {
	if d == nil || strings.TrimSpace(text) == "" {
		return "", false
	}
	language, ok := d.detector.DetectLanguageOf(text)
	if !ok {
		return "", false
	}
	return titleCase(language.String()), true
}

// titleCase normalises language names to "Portuguese" casing.
func titleCase(name string) string {
	if name == "" {
		return name
	}
	lower := strings.ToLower(name)
	return strings.ToUpper(lower[:1]) + lower[1:]
}

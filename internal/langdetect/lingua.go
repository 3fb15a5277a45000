// Package langdetect checks downloaded translations against their target locale.
package langdetect

import (
	"strings"
	"sync"
	"unicode"

	lingua "github.com/pemistahl/lingua-go"

	"horse.fit/smartlingzd/internal/locale"
)

// minLetters is the smallest sample lingua is asked to classify.
const minLetters = 6

var (
	buildOnce sync.Once
	detector  lingua.LanguageDetector
)

// DetectISO6391 returns the two-letter code of the language text is written in,
// or "" when the sample is too short or ambiguous.
func DetectISO6391(text string) string {
	sample := strings.TrimSpace(text)
	if letters(sample) < minLetters {
		return ""
	}

	language, found := languageDetector().DetectLanguageOf(sample)
	if !found {
		return ""
	}
	code := strings.ToLower(language.IsoCode639_1().String())
	if len(code) != 2 {
		return ""
	}
	return code
}

// Matches reports whether text reads as the language of localeTag. An
// inconclusive detection counts as a match; detected is "" in that case.
func Matches(text, localeTag string) (ok bool, detected string) {
	want := locale.PrimaryCode(localeTag)
	if want == "" {
		return true, ""
	}
	if detected = DetectISO6391(text); detected == "" {
		return true, ""
	}
	return detected == want, detected
}

func letters(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			n++
		}
	}
	return n
}

func languageDetector() lingua.LanguageDetector {
	buildOnce.Do(func() {
		detector = lingua.NewLanguageDetectorBuilder().
			FromAllLanguages().
			WithPreloadedLanguageModels().
			Build()
	})
	return detector
}

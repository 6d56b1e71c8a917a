package classify

import (
	"strings"
	"unicode"

	"github.com/smartprep/mcq-engine/internal/config"
	"github.com/smartprep/mcq-engine/internal/core/domain"
)

// Heuristic detects chunk language by script ratio and subject by keyword
// density. Classification is advisory: ambiguous input falls back to the
// defaults instead of failing.
type Heuristic struct {
	profiles          config.Profiles
	languageThreshold float64
}

func NewHeuristic(profiles config.Profiles, languageThreshold float64) *Heuristic {
	if languageThreshold <= 0 {
		languageThreshold = 0.3
	}
	return &Heuristic{profiles: profiles, languageThreshold: languageThreshold}
}

func (h *Heuristic) Classify(text string) domain.Classification {
	return domain.Classification{
		Language: h.detectLanguage(text),
		Subject:  h.detectSubject(text),
	}
}

// detectLanguage counts Devanagari letters against all letters. Crossing
// the ratio threshold marks the chunk Hindi, otherwise English.
func (h *Heuristic) detectLanguage(text string) domain.Language {
	var letters, devanagari int
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if unicode.Is(unicode.Devanagari, r) {
			devanagari++
		}
	}
	if letters == 0 {
		return domain.LanguageEnglish
	}
	if float64(devanagari)/float64(letters) >= h.languageThreshold {
		return domain.LanguageHindi
	}
	return domain.LanguageEnglish
}

// detectSubject scores each subject profile by keyword occurrences in the
// lowercased text. The top scorer wins; a zero score or a tie between top
// scorers yields the general subject.
func (h *Heuristic) detectSubject(text string) domain.Subject {
	lowered := strings.ToLower(text)

	best := domain.SubjectGeneral
	bestScore := 0
	tied := false
	for _, profile := range h.profiles.Subjects {
		score := 0
		for _, keyword := range profile.Keywords {
			score += strings.Count(lowered, strings.ToLower(keyword))
		}
		switch {
		case score > bestScore:
			best = domain.Subject(profile.Name)
			bestScore = score
			tied = false
		case score == bestScore && score > 0:
			tied = true
		}
	}
	if bestScore == 0 || tied {
		return domain.SubjectGeneral
	}
	return best
}

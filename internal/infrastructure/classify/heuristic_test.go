package classify

import (
	"testing"

	"github.com/smartprep/mcq-engine/internal/config"
	"github.com/smartprep/mcq-engine/internal/core/domain"
)

func newTestHeuristic() *Heuristic {
	return NewHeuristic(config.DefaultProfiles(), 0.3)
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		name string
		text string
		want domain.Language
	}{
		{name: "english prose", text: "The derivative of a polynomial is straightforward.", want: domain.LanguageEnglish},
		{name: "hindi prose", text: "यह एक हिंदी वाक्य है जो देवनागरी में लिखा गया है।", want: domain.LanguageHindi},
		{name: "mixed mostly english", text: "The word नमस्ते appears once in this long English sentence about greetings.", want: domain.LanguageEnglish},
		{name: "numbers only", text: "123 456 789", want: domain.LanguageEnglish},
		{name: "empty", text: "", want: domain.LanguageEnglish},
	}

	h := newTestHeuristic()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := h.Classify(tt.text).Language; got != tt.want {
				t.Fatalf("language = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDetectSubject(t *testing.T) {
	tests := []struct {
		name string
		text string
		want domain.Subject
	}{
		{
			name: "mathematics",
			text: "Solve the equation using the theorem about the integral of a polynomial.",
			want: domain.SubjectMathematics,
		},
		{
			name: "physics",
			text: "The velocity and acceleration of the body determine its momentum and energy.",
			want: domain.SubjectPhysics,
		},
		{
			name: "chemistry",
			text: "The acid reacts with the base, and the reaction transfers an electron.",
			want: domain.SubjectChemistry,
		},
		{
			name: "no keywords",
			text: "The history of the region spans several centuries of trade.",
			want: domain.SubjectGeneral,
		},
		{
			name: "tie resolves to general",
			text: "The equation describes the velocity.",
			want: domain.SubjectGeneral,
		},
	}

	h := newTestHeuristic()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := h.Classify(tt.text).Subject; got != tt.want {
				t.Fatalf("subject = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestClassifyNeverBlocks(t *testing.T) {
	h := newTestHeuristic()
	cls := h.Classify("")
	if cls.Language == "" || cls.Subject == "" {
		t.Fatalf("classification must always return defaults, got %+v", cls)
	}
}

package domain

type Language string

const (
	LanguageEnglish Language = "english"
	LanguageHindi   Language = "hindi"
	// LanguageAuto leaves detection to the classifier.
	LanguageAuto Language = "auto"
)

type Subject string

const (
	SubjectGeneral     Subject = "general"
	SubjectMathematics Subject = "mathematics"
	SubjectPhysics     Subject = "physics"
	SubjectChemistry   Subject = "chemistry"
	// SubjectAuto leaves detection to the classifier.
	SubjectAuto Subject = "auto"
)

// Classification is advisory input to prompt construction. It never blocks
// the pipeline: an unclassifiable chunk proceeds with defaults.
type Classification struct {
	Language Language `json:"language"`
	Subject  Subject  `json:"subject"`
}

// IsExact reports whether a subject requires strict subject-fit validation
// of generated questions.
func (s Subject) IsExact() bool {
	switch s {
	case SubjectMathematics, SubjectPhysics, SubjectChemistry:
		return true
	default:
		return false
	}
}

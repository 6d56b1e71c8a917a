package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SubjectProfile carries the tuning data for one subject: the keyword set
// used by the classifier and the prompt rules enforced during generation.
type SubjectProfile struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
	Rules    []string `yaml:"rules"`
}

// LanguageProfile carries the script name and prompt rules for one
// generation language.
type LanguageProfile struct {
	Name   string   `yaml:"name"`
	Script string   `yaml:"script"`
	Rules  []string `yaml:"rules"`
}

// Profiles is the externalized classification and prompt tuning data.
// Keyword lists and thresholds are product tuning, not structure, so they
// load from a YAML file with these compiled-in defaults.
type Profiles struct {
	Subjects  []SubjectProfile  `yaml:"subjects"`
	Languages []LanguageProfile `yaml:"languages"`
}

func DefaultProfiles() Profiles {
	return Profiles{
		Subjects: []SubjectProfile{
			{
				Name: "mathematics",
				Keywords: []string{
					"equation", "theorem", "integral", "derivative", "matrix",
					"polynomial", "geometry", "algebra", "trigonometry", "probability",
				},
				Rules: []string{
					"Use plain ASCII notation for all expressions (x^2, sqrt(x), pi).",
					"Never ask about exam instructions, marking schemes, or question paper structure.",
					"Every option must be a concrete value or expression, not a meta statement.",
				},
			},
			{
				Name: "physics",
				Keywords: []string{
					"velocity", "acceleration", "force", "energy", "momentum",
					"electric", "magnetic", "quantum", "thermodynamics", "optics",
				},
				Rules: []string{
					"State units explicitly in the stem and options.",
					"Never ask about exam instructions or administrative details.",
				},
			},
			{
				Name: "chemistry",
				Keywords: []string{
					"molecule", "reaction", "acid", "base", "electron",
					"compound", "oxidation", "organic", "periodic", "bond",
				},
				Rules: []string{
					"Write chemical formulas in plain text (H2O, CO2).",
					"Never ask about exam instructions or administrative details.",
				},
			},
		},
		Languages: []LanguageProfile{
			{
				Name:   "english",
				Script: "latin",
				Rules: []string{
					"Generate all questions, options, and explanations in English.",
				},
			},
			{
				Name:   "hindi",
				Script: "devanagari",
				Rules: []string{
					"Generate all questions, options, and explanations in Hindi using Devanagari script.",
					"Do not transliterate Hindi into Latin script.",
				},
			},
		},
	}
}

// LoadProfiles reads a YAML profile file, falling back to defaults when the
// path is empty. Sections missing from the file keep their defaults.
func LoadProfiles(path string) (Profiles, error) {
	profiles := DefaultProfiles()
	if path == "" {
		return profiles, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Profiles{}, fmt.Errorf("read profiles file: %w", err)
	}

	var loaded Profiles
	if err := yaml.Unmarshal(raw, &loaded); err != nil {
		return Profiles{}, fmt.Errorf("parse profiles yaml: %w", err)
	}
	if len(loaded.Subjects) > 0 {
		profiles.Subjects = loaded.Subjects
	}
	if len(loaded.Languages) > 0 {
		profiles.Languages = loaded.Languages
	}
	return profiles, nil
}

// Subject returns the profile for a subject name, nil when unknown.
func (p Profiles) Subject(name string) *SubjectProfile {
	for i := range p.Subjects {
		if p.Subjects[i].Name == name {
			return &p.Subjects[i]
		}
	}
	return nil
}

// Language returns the profile for a language name, nil when unknown.
func (p Profiles) Language(name string) *LanguageProfile {
	for i := range p.Languages {
		if p.Languages[i].Name == name {
			return &p.Languages[i]
		}
	}
	return nil
}

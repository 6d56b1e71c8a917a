package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultProfilesCoverCoreSubjects(t *testing.T) {
	p := DefaultProfiles()
	for _, name := range []string{"mathematics", "physics", "chemistry"} {
		profile := p.Subject(name)
		if profile == nil {
			t.Fatalf("missing subject profile %q", name)
		}
		if len(profile.Keywords) == 0 {
			t.Fatalf("subject %q has no keywords", name)
		}
	}
	for _, name := range []string{"english", "hindi"} {
		if p.Language(name) == nil {
			t.Fatalf("missing language profile %q", name)
		}
	}
}

func TestLoadProfilesEmptyPathUsesDefaults(t *testing.T) {
	p, err := LoadProfiles("")
	if err != nil {
		t.Fatalf("LoadProfiles error = %v", err)
	}
	if p.Subject("mathematics") == nil {
		t.Fatal("defaults missing after empty-path load")
	}
}

func TestLoadProfilesOverridesSubjects(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	content := `
subjects:
  - name: biology
    keywords: [cell, enzyme, dna]
    rules:
      - Use standard biological nomenclature.
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp profiles: %v", err)
	}

	p, err := LoadProfiles(path)
	if err != nil {
		t.Fatalf("LoadProfiles error = %v", err)
	}
	if p.Subject("biology") == nil {
		t.Fatal("loaded subject missing")
	}
	if p.Subject("mathematics") != nil {
		t.Fatal("file subjects must replace defaults entirely")
	}
	// Languages absent from the file keep their defaults.
	if p.Language("hindi") == nil {
		t.Fatal("default languages lost")
	}
}

func TestLoadProfilesMissingFile(t *testing.T) {
	if _, err := LoadProfiles("/nonexistent/profiles.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestSubjectLookupUnknown(t *testing.T) {
	p := DefaultProfiles()
	if p.Subject("astrology") != nil {
		t.Fatal("unknown subject must return nil")
	}
}

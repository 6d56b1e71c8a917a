package domain

import "testing"

func TestStructurallyValid(t *testing.T) {
	valid := Question{
		Stem:         "What is 2+2?",
		Options:      []string{"3", "4", "5", "6"},
		CorrectIndex: 1,
	}

	tests := []struct {
		name   string
		mutate func(q Question) Question
		want   bool
	}{
		{name: "valid", mutate: func(q Question) Question { return q }, want: true},
		{name: "empty stem", mutate: func(q Question) Question { q.Stem = ""; return q }, want: false},
		{name: "three options", mutate: func(q Question) Question { q.Options = q.Options[:3]; return q }, want: false},
		{name: "five options", mutate: func(q Question) Question { q.Options = append(q.Options, "7"); return q }, want: false},
		{name: "negative index", mutate: func(q Question) Question { q.CorrectIndex = -1; return q }, want: false},
		{name: "index out of range", mutate: func(q Question) Question { q.CorrectIndex = 4; return q }, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.mutate(valid).StructurallyValid(); got != tt.want {
				t.Fatalf("StructurallyValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCorrectAnswer(t *testing.T) {
	q := Question{Options: []string{"a", "b", "c", "d"}, CorrectIndex: 2}
	if got := q.CorrectAnswer(); got != "c" {
		t.Fatalf("CorrectAnswer() = %q, want %q", got, "c")
	}
	q.CorrectIndex = 9
	if got := q.CorrectAnswer(); got != "" {
		t.Fatalf("CorrectAnswer() = %q, want empty", got)
	}
}

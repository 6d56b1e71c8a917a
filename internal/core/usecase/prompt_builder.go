package usecase

import (
	"fmt"
	"strings"

	"github.com/smartprep/mcq-engine/internal/config"
	"github.com/smartprep/mcq-engine/internal/core/domain"
)

// PromptBuilder assembles generation prompts from the request, the resolved
// classification, and the context chunks. Subject and language rules come
// from the loaded profiles so tuning stays out of the code.
type PromptBuilder struct {
	profiles config.Profiles
}

func NewPromptBuilder(profiles config.Profiles) *PromptBuilder {
	return &PromptBuilder{profiles: profiles}
}

var archetypes = []struct {
	kind   domain.Archetype
	weight int
	hint   string
}{
	{domain.ArchetypeFactual, 4, "direct factual questions answerable from a single statement in the material"},
	{domain.ArchetypeExcerpt, 3, "questions quoting a short excerpt from the material and asking about it"},
	{domain.ArchetypeScenario, 3, "condition or scenario questions applying a concept from the material"},
}

var interrogatives = []string{"what", "how", "where", "why", "when"}

func (b *PromptBuilder) Build(req domain.GenerationRequest, cls domain.Classification, chunks []domain.Chunk) domain.GenerationPrompt {
	count := req.NumQuestions
	if count < 1 {
		count = 1
	}

	var instructions strings.Builder
	fmt.Fprintf(&instructions, "Generate exactly %d multiple-choice questions from the study material below.\n", count)
	instructions.WriteString("Each question must have exactly 4 options with exactly one correct answer.\n")
	instructions.WriteString(difficultyInstructions(req.Difficulty))
	instructions.WriteString("\n")

	if profile := b.profiles.Subject(string(cls.Subject)); profile != nil {
		for _, rule := range profile.Rules {
			instructions.WriteString("- " + rule + "\n")
		}
	}
	if profile := b.profiles.Language(string(cls.Language)); profile != nil {
		for _, rule := range profile.Rules {
			instructions.WriteString("- " + rule + "\n")
		}
	}
	if req.TopicScope == domain.ScopeSpecific && req.Topic != "" {
		fmt.Fprintf(&instructions, "- Focus every question on the topic: %s.\n", req.Topic)
	}
	if len(req.Keywords) > 0 {
		fmt.Fprintf(&instructions, "- Prefer material related to: %s.\n", strings.Join(req.Keywords, ", "))
	}

	instructions.WriteString(archetypeInstructions(count))
	instructions.WriteString(outputContract)

	seqs := make([]int, 0, len(chunks))
	var context strings.Builder
	for i, chunk := range chunks {
		if i > 0 {
			context.WriteString("\n\n")
		}
		fmt.Fprintf(&context, "[Section %d, page %d]\n%s", i+1, chunk.Page, chunk.Text)
		seqs = append(seqs, chunk.Seq)
	}

	return domain.GenerationPrompt{
		System:       systemPrompt,
		Instructions: instructions.String(),
		Context:      context.String(),
		Count:        count,
		Difficulty:   req.Difficulty,
		Language:     cls.Language,
		Subject:      cls.Subject,
		SourceChunks: seqs,
	}
}

const systemPrompt = "You are an expert exam question writer. You write precise, " +
	"unambiguous multiple-choice questions strictly grounded in the provided study material."

const outputContract = `Return ONLY a JSON array. Each element:
{"question": "...", "options": ["...","...","...","..."], "correct_answer_index": 0, "explanation": "...", "topic_tags": ["..."], "marks": 1}
No prose before or after the array.
`

func difficultyInstructions(d domain.Difficulty) string {
	switch d {
	case domain.DifficultyEasy:
		return "Difficulty: easy. Test recall of definitions and directly stated facts."
	case domain.DifficultyHard:
		return "Difficulty: hard. Require multi-step reasoning or combining several parts of the material."
	default:
		return "Difficulty: medium. Test understanding and application of single concepts."
	}
}

// archetypeInstructions declares the question-style distribution. Large
// counts get explicit quotas; small counts get a proportional mix so the
// model is not forced into impossible quotas.
func archetypeInstructions(count int) string {
	var sb strings.Builder
	if count >= len(archetypes)*2 {
		totalWeight := 0
		for _, a := range archetypes {
			totalWeight += a.weight
		}
		sb.WriteString("Distribute question styles:\n")
		remaining := count
		for i, a := range archetypes {
			share := count * a.weight / totalWeight
			if i == len(archetypes)-1 {
				share = remaining
			}
			if share < 1 {
				share = 1
			}
			remaining -= share
			fmt.Fprintf(&sb, "- about %d %s\n", share, a.hint)
		}
	} else {
		sb.WriteString("Mix question styles proportionally across: ")
		hints := make([]string, 0, len(archetypes))
		for _, a := range archetypes {
			hints = append(hints, a.hint)
		}
		sb.WriteString(strings.Join(hints, "; "))
		sb.WriteString(".\n")
	}
	if count >= len(interrogatives) {
		fmt.Fprintf(&sb, "Vary interrogative forms across questions (%s).\n", strings.Join(interrogatives, ", "))
	}
	return sb.String()
}

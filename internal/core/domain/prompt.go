package domain

// Archetype is a question construction style the prompt builder distributes
// generated questions across.
type Archetype string

const (
	ArchetypeFactual  Archetype = "direct-factual"
	ArchetypeExcerpt  Archetype = "context-excerpt"
	ArchetypeScenario Archetype = "condition-scenario"
)

// GenerationPrompt is the assembled request handed to a generation strategy.
// Both strategies consume the same shape so they stay interchangeable.
type GenerationPrompt struct {
	System       string
	Instructions string
	Context      string
	Count        int
	Difficulty   Difficulty
	Language     Language
	Subject      Subject
	// SourceChunks records the sequence indices of the chunks the context
	// was assembled from, for provenance on the produced questions.
	SourceChunks []int
}

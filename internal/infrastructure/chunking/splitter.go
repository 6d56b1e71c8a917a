package chunking

import "strings"

// Splitter breaks text into chunks of roughly ChunkSize characters while
// preserving sentence boundaries, carrying OverlapWords words of context
// between consecutive chunks.
type Splitter struct {
	ChunkSize    int
	OverlapWords int
}

func NewSplitter(chunkSize, overlapWords int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 500
	}
	if overlapWords < 0 {
		overlapWords = 0
	}
	return &Splitter{
		ChunkSize:    chunkSize,
		OverlapWords: overlapWords,
	}
}

// sentenceEnders includes the Devanagari danda so Hindi prose splits on
// sentence boundaries too.
var sentenceEnders = []string{". ", "! ", "? ", "।", "\n"}

func (s *Splitter) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	sentences := splitSentences(text)
	out := make([]string, 0, len(text)/s.ChunkSize+1)
	var current strings.Builder

	flush := func() string {
		chunk := strings.TrimSpace(current.String())
		current.Reset()
		if chunk != "" {
			out = append(out, chunk)
		}
		return chunk
	}

	for _, sentence := range sentences {
		if current.Len() > 0 && current.Len()+len(sentence)+1 > s.ChunkSize {
			previous := flush()
			if overlap := tailWords(previous, s.OverlapWords); overlap != "" {
				current.WriteString(overlap)
				current.WriteByte(' ')
			}
		}
		current.WriteString(sentence)
		current.WriteByte(' ')
	}
	flush()

	return out
}

func splitSentences(text string) []string {
	parts := []string{text}
	for _, ender := range sentenceEnders {
		next := make([]string, 0, len(parts))
		for _, part := range parts {
			pieces := strings.Split(part, ender)
			terminator := strings.TrimSpace(ender)
			for i, piece := range pieces {
				piece = strings.TrimSpace(piece)
				if piece == "" {
					continue
				}
				if i < len(pieces)-1 && terminator != "" {
					piece += terminator
				}
				next = append(next, piece)
			}
		}
		parts = next
	}
	return parts
}

func tailWords(text string, n int) string {
	if n <= 0 || text == "" {
		return ""
	}
	words := strings.Fields(text)
	if len(words) <= n {
		return text
	}
	return strings.Join(words[len(words)-n:], " ")
}

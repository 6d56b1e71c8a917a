package chunking

import (
	"strings"
	"testing"
)

func TestSplitEmpty(t *testing.T) {
	s := NewSplitter(100, 5)
	if got := s.Split("   "); got != nil {
		t.Fatalf("Split(blank) = %v, want nil", got)
	}
}

func TestSplitShortTextSingleChunk(t *testing.T) {
	s := NewSplitter(500, 10)
	chunks := s.Split("One sentence. Another sentence.")
	if len(chunks) != 1 {
		t.Fatalf("len(chunks) = %d, want 1", len(chunks))
	}
}

func TestSplitPreservesSentenceBoundaries(t *testing.T) {
	s := NewSplitter(40, 0)
	text := "First sentence here. Second sentence here. Third sentence here."
	chunks := s.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for _, chunk := range chunks {
		if strings.HasPrefix(chunk, "entence") {
			t.Fatalf("chunk starts mid-word: %q", chunk)
		}
	}
}

func TestSplitCarriesOverlapWords(t *testing.T) {
	s := NewSplitter(40, 2)
	text := "Alpha beta gamma delta epsilon. Zeta eta theta iota kappa."
	chunks := s.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	if !strings.Contains(chunks[1], "delta epsilon") {
		t.Fatalf("second chunk missing overlap words: %q", chunks[1])
	}
}

func TestSplitHindiDanda(t *testing.T) {
	s := NewSplitter(30, 0)
	text := "यह पहला वाक्य है। यह दूसरा वाक्य है। यह तीसरा वाक्य है।"
	chunks := s.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected danda-based splitting, got %d chunks", len(chunks))
	}
}

func TestSplitDeterministic(t *testing.T) {
	s := NewSplitter(50, 3)
	text := "Repeatable input one. Repeatable input two. Repeatable input three. Repeatable input four."
	first := s.Split(text)
	second := s.Split(text)
	if len(first) != len(second) {
		t.Fatalf("chunk counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("chunk %d differs: %q vs %q", i, first[i], second[i])
		}
	}
}

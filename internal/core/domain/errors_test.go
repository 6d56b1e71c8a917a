package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestWrapErrorPreservesKind(t *testing.T) {
	cause := fmt.Errorf("boom")
	err := WrapError(ErrEmbedding, "embed chunk", cause)

	if !IsKind(err, ErrEmbedding) {
		t.Fatal("expected wrapped error to match ErrEmbedding")
	}
	if !errors.Is(err, cause) {
		t.Fatal("expected wrapped error to match the cause")
	}
	if IsKind(err, ErrGenerationCall) {
		t.Fatal("unexpected kind match")
	}
}

func TestWrapErrorNil(t *testing.T) {
	if err := WrapError(ErrEmbedding, "noop", nil); err != nil {
		t.Fatalf("WrapError(nil) = %v, want nil", err)
	}
}

func TestPartialBatchError(t *testing.T) {
	err := &PartialBatchError{Failed: map[int]error{
		3: fmt.Errorf("timeout"),
		1: fmt.Errorf("rate limited"),
	}}

	if !IsKind(err, ErrEmbedding) {
		t.Fatal("PartialBatchError must unwrap to ErrEmbedding")
	}
	msg := err.Error()
	if !strings.Contains(msg, "item 1") || !strings.Contains(msg, "item 3") {
		t.Fatalf("error message missing item indices: %q", msg)
	}
	if strings.Index(msg, "item 1") > strings.Index(msg, "item 3") {
		t.Fatalf("item indices not sorted: %q", msg)
	}
}

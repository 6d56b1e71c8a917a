package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// PageSet is a parsed page specification such as "1-10" or "3,7,12-15".
// Pages are 1-based. A nil *PageSet admits every page.
type PageSet struct {
	pages map[int]struct{}
}

// ParsePages parses a page specification. An empty spec returns nil (all
// pages). Malformed specs fail rather than silently widening the range, so
// the downstream cost bound stays deterministic.
func ParsePages(spec string) (*PageSet, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, nil
	}

	pages := make(map[int]struct{})
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if from, to, ok := strings.Cut(part, "-"); ok {
			start, err := strconv.Atoi(strings.TrimSpace(from))
			if err != nil {
				return nil, fmt.Errorf("parse page range %q: %w", part, err)
			}
			end, err := strconv.Atoi(strings.TrimSpace(to))
			if err != nil {
				return nil, fmt.Errorf("parse page range %q: %w", part, err)
			}
			if start < 1 || end < start {
				return nil, fmt.Errorf("invalid page range %q", part)
			}
			for p := start; p <= end; p++ {
				pages[p] = struct{}{}
			}
			continue
		}
		p, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("parse page %q: %w", part, err)
		}
		if p < 1 {
			return nil, fmt.Errorf("invalid page %q", part)
		}
		pages[p] = struct{}{}
	}
	if len(pages) == 0 {
		return nil, nil
	}
	return &PageSet{pages: pages}, nil
}

// Contains reports whether page is admitted. A nil set admits all pages.
func (s *PageSet) Contains(page int) bool {
	if s == nil {
		return true
	}
	_, ok := s.pages[page]
	return ok
}

// Len returns the number of admitted pages, 0 meaning unrestricted.
func (s *PageSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.pages)
}

// Pages returns the admitted pages in ascending order, nil when
// unrestricted.
func (s *PageSet) Pages() []int {
	if s == nil {
		return nil
	}
	out := make([]int, 0, len(s.pages))
	for p := range s.pages {
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}

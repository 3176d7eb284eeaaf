package puzzle

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"
)

// Corpus is the permanent, append-only record of every name ever used as an
// answer or alias. Entries are case-folded.
type Corpus interface {
	// ListAll returns every recorded name, most recently used first.
	ListAll(ctx context.Context) ([]string, error)
	Contains(ctx context.Context, name string) (bool, error)
	// RecordAll stores names used by the puzzle of date. Already-present names
	// are no-ops.
	RecordAll(ctx context.Context, names []string, date time.Time) error
}

// FoldName is the corpus key for a name.
func FoldName(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// NameSet is an in-memory snapshot of the corpus for duplicate checks.
type NameSet map[string]struct{}

func NewNameSet(names []string) NameSet {
	s := make(NameSet, len(names))
	for _, n := range names {
		if k := FoldName(n); k != "" {
			s[k] = struct{}{}
		}
	}
	return s
}

func (s NameSet) Contains(name string) bool {
	_, ok := s[FoldName(name)]
	return ok
}

// AnyOf returns the first of names present in the set.
func (s NameSet) AnyOf(names []string) (string, bool) {
	for _, n := range names {
		if s.Contains(n) {
			return n, true
		}
	}
	return "", false
}

// MemoryCorpus is a process-local Corpus, used for dry runs.
type MemoryCorpus struct {
	mu    sync.RWMutex
	names []string
	set   NameSet
}

func NewMemoryCorpus(seed ...string) *MemoryCorpus {
	m := &MemoryCorpus{set: NameSet{}}
	_ = m.RecordAll(context.Background(), seed, time.Time{})
	return m
}

func (m *MemoryCorpus) ListAll(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.names))
	for i, n := range m.names {
		out[len(m.names)-1-i] = n
	}
	return out, nil
}

func (m *MemoryCorpus) Contains(_ context.Context, name string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.set.Contains(name), nil
}

func (m *MemoryCorpus) RecordAll(_ context.Context, names []string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range names {
		k := FoldName(n)
		if k == "" {
			continue
		}
		if _, ok := m.set[k]; ok {
			continue
		}
		m.set[k] = struct{}{}
		m.names = append(m.names, k)
	}
	return nil
}

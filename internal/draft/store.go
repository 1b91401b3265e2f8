// Package draft holds the flashcards a user has entered but not yet synced.
package draft

import (
	"fmt"
	"sync"

	"github.com/conorfennell/studybuddy/internal/domain"
)

// Entry is a draft together with the sequence number the store assigned to it.
// Sequence numbers are internal bookkeeping; callers address drafts by position.
type Entry struct {
	Seq   uint64
	Draft domain.Draft
}

// Journal persists store mutations so drafts survive a restart.
type Journal interface {
	Append(e Entry) error
	Delete(seqs ...uint64) error
	Reset() error
	Load() ([]Entry, error)
}

// Store is the ordered sequence of pending drafts for one editing session.
type Store struct {
	mu      sync.Mutex
	entries []Entry
	nextSeq uint64
	journal Journal
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{nextSeq: 1}
}

// Open returns a store that writes every mutation through to j and starts
// with the drafts j already holds.
func Open(j Journal) (*Store, error) {
	entries, err := j.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load draft journal: %w", err)
	}

	s := &Store{entries: entries, nextSeq: 1, journal: j}
	for _, e := range entries {
		if e.Seq >= s.nextSeq {
			s.nextSeq = e.Seq + 1
		}
	}
	return s, nil
}

// Add appends d to the end of the sequence. The caller validates d first;
// the store accepts duplicates.
func (s *Store) Add(d domain.Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := Entry{Seq: s.nextSeq, Draft: d}
	if s.journal != nil {
		if err := s.journal.Append(e); err != nil {
			return fmt.Errorf("failed to journal draft: %w", err)
		}
	}
	s.nextSeq++
	s.entries = append(s.entries, e)
	return nil
}

// RemoveAt removes the draft at index. An out-of-range index is a no-op.
func (s *Store) RemoveAt(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.entries) {
		return nil
	}

	if s.journal != nil {
		if err := s.journal.Delete(s.entries[index].Seq); err != nil {
			return fmt.Errorf("failed to journal removal: %w", err)
		}
	}
	s.entries = append(s.entries[:index:index], s.entries[index+1:]...)
	return nil
}

// Clear empties the store.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.journal != nil {
		if err := s.journal.Reset(); err != nil {
			return fmt.Errorf("failed to reset draft journal: %w", err)
		}
	}
	s.entries = nil
	return nil
}

// Len reports how many drafts are pending.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// List returns a copy of the pending drafts in insertion order.
func (s *Store) List() []domain.Draft {
	s.mu.Lock()
	defer s.mu.Unlock()

	drafts := make([]domain.Draft, len(s.entries))
	for i, e := range s.entries {
		drafts[i] = e.Draft
	}
	return drafts
}

// Snapshot captures the current contents for a sync.
func (s *Store) Snapshot() Batch {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]Entry, len(s.entries))
	copy(entries, s.entries)
	return Batch{entries: entries}
}

// Commit drops every entry of b that is still in the store. Drafts added
// after the snapshot was taken stay. When nothing changed in between, Commit
// leaves the store empty.
func (s *Store) Commit(b Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	synced := make(map[uint64]bool, len(b.entries))
	for _, e := range b.entries {
		synced[e.Seq] = true
	}

	var kept []Entry
	for _, e := range s.entries {
		if !synced[e.Seq] {
			kept = append(kept, e)
		}
	}

	if s.journal != nil {
		var err error
		if len(kept) == 0 {
			err = s.journal.Reset()
		} else {
			err = s.journal.Delete(b.seqs()...)
		}
		if err != nil {
			return fmt.Errorf("failed to journal synced drafts: %w", err)
		}
	}
	s.entries = kept
	return nil
}

// Batch is an immutable snapshot of the store taken for one sync.
type Batch struct {
	entries []Entry
}

// Len reports the number of drafts in the batch.
func (b Batch) Len() int {
	return len(b.entries)
}

// Drafts returns the drafts of the batch in insertion order.
func (b Batch) Drafts() []domain.Draft {
	drafts := make([]domain.Draft, len(b.entries))
	for i, e := range b.entries {
		drafts[i] = e.Draft
	}
	return drafts
}

func (b Batch) seqs() []uint64 {
	seqs := make([]uint64, len(b.entries))
	for i, e := range b.entries {
		seqs[i] = e.Seq
	}
	return seqs
}

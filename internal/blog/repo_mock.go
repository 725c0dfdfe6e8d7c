package blog

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

var _ entriesRepo = (*repoMock)(nil)

type repoMock struct {
	Entries map[string]*Entry
	mutex   sync.Mutex
}

func newRepoMock() *repoMock {
	return &repoMock{
		Entries: make(map[string]*Entry),
	}
}

func (r *repoMock) Add(_ context.Context, entry *Entry) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if entry.ID != "" {
		return &ValidationError{Field: "id", Reason: "must not be set for new entries"}
	}
	if entry.Status == "" {
		entry.Status = StatusDraft
	}
	if entry.LastEditDate == "" {
		entry.LastEditDate = DefaultLastEditDate
	}
	if err := entry.Validate(); err != nil {
		return err
	}

	entry.ID = uuid.NewString()
	r.Entries[entry.ID] = entry
	return nil
}

func (r *repoMock) Update(_ context.Context, entry *Entry) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if err := entry.Validate(); err != nil {
		return err
	}

	if _, ok := r.Entries[entry.ID]; !ok {
		return ErrEntryNotFound
	}

	r.Entries[entry.ID] = entry
	return nil
}

func (r *repoMock) Delete(_ context.Context, id string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.Entries[id]; !ok {
		return ErrEntryNotFound
	}

	delete(r.Entries, id)
	return nil
}

func (r *repoMock) ListVisible(_ context.Context, includeDrafts bool) ([]*Entry, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var entries []*Entry
	for id := range r.Entries {
		entry := r.Entries[id]
		if !includeDrafts && entry.Status != StatusPublished {
			continue
		}
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Title == entries[j].Title {
			return entries[i].ID < entries[j].ID
		}
		return entries[i].Title < entries[j].Title
	})

	return entries, nil
}

func (r *repoMock) Get(_ context.Context, id string) (*Entry, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	entry, ok := r.Entries[id]
	if !ok {
		return nil, ErrEntryNotFound
	}
	return entry, nil
}

func (r *repoMock) EntriesCount(_ context.Context) (int, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return len(r.Entries), nil
}

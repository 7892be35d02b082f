package operations

import (
	"fmt"
	"sort"
	"sync"

	"costsheet/pkg/contracts/domain"
)

// RunStore persists run records.
type RunStore interface {
	Create(run domain.Run) error
	Get(id string) (domain.Run, error)
	Update(id string, fn func(*domain.Run)) (domain.Run, error)
	List(limit int) []domain.Run
}

// MemoryRunStore keeps at most limit runs. When full, the oldest finished
// run is evicted; active runs are never evicted.
type MemoryRunStore struct {
	mu    sync.RWMutex
	runs  map[string]*domain.Run
	order []string
	limit int
}

// NewMemoryRunStore creates a store holding up to limit runs.
func NewMemoryRunStore(limit int) *MemoryRunStore {
	if limit <= 0 {
		limit = 20
	}
	return &MemoryRunStore{
		runs:  make(map[string]*domain.Run),
		limit: limit,
	}
}

// Create stores a new run.
func (s *MemoryRunStore) Create(run domain.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[run.ID]; exists {
		return fmt.Errorf("run %s already exists", run.ID)
	}

	s.runs[run.ID] = &run
	s.order = append(s.order, run.ID)
	s.evict()
	return nil
}

// Get returns a copy of the run.
func (s *MemoryRunStore) Get(id string) (domain.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, exists := s.runs[id]
	if !exists {
		return domain.Run{}, ErrRunNotFound
	}
	return clone(*run), nil
}

// Update applies fn to the stored run under the store lock and returns a copy
// of the result.
func (s *MemoryRunStore) Update(id string, fn func(*domain.Run)) (domain.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, exists := s.runs[id]
	if !exists {
		return domain.Run{}, ErrRunNotFound
	}
	fn(run)
	out := clone(*run)
	s.evict()
	return out, nil
}

// List returns up to limit runs, newest first. A limit of zero returns all.
func (s *MemoryRunStore) List(limit int) []domain.Run {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Run, 0, len(s.runs))
	for _, run := range s.runs {
		out = append(out, clone(*run))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (s *MemoryRunStore) evict() {
	for len(s.runs) > s.limit {
		victim := -1
		for i, id := range s.order {
			if s.runs[id].Status.IsTerminal() {
				victim = i
				break
			}
		}
		if victim < 0 {
			return
		}
		delete(s.runs, s.order[victim])
		s.order = append(s.order[:victim], s.order[victim+1:]...)
	}
}

func clone(run domain.Run) domain.Run {
	run.Steps = append([]domain.StepRecord(nil), run.Steps...)
	if run.Summary != nil {
		summary := *run.Summary
		summary.Values = append([]float64{}, summary.Values...)
		run.Summary = &summary
	}
	return run
}

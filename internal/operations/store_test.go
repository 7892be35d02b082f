package operations

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"costsheet/pkg/contracts/domain"
)

func newRun(id string, status domain.RunStatus, created time.Time) domain.Run {
	return domain.Run{ID: id, Status: status, CreatedAt: created, Steps: []domain.StepRecord{}}
}

func TestMemoryRunStoreCRUD(t *testing.T) {
	s := NewMemoryRunStore(5)
	now := time.Now()

	require.NoError(t, s.Create(newRun("a", domain.RunPending, now)))
	assert.Error(t, s.Create(newRun("a", domain.RunPending, now)))

	updated, err := s.Update("a", func(r *domain.Run) {
		r.Status = domain.RunCompleted
		r.Summary = &domain.CostSummary{Values: []float64{1, 2}}
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RunCompleted, updated.Status)

	got, err := s.Get("a")
	require.NoError(t, err)
	got.Summary.Values[0] = 99

	again, _ := s.Get("a")
	assert.Equal(t, 1.0, again.Summary.Values[0], "Get must return a copy")

	_, err = s.Get("missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
	_, err = s.Update("missing", func(*domain.Run) {})
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestMemoryRunStoreEvictsOldestFinished(t *testing.T) {
	s := NewMemoryRunStore(3)
	base := time.Now()

	require.NoError(t, s.Create(newRun("active", domain.RunRunning, base)))
	for i := 1; i <= 4; i++ {
		require.NoError(t, s.Create(newRun(fmt.Sprintf("done-%d", i), domain.RunCompleted, base.Add(time.Duration(i)*time.Second))))
	}

	runs := s.List(0)
	require.Len(t, runs, 3)
	ids := []string{runs[0].ID, runs[1].ID, runs[2].ID}
	assert.Equal(t, []string{"done-4", "done-3", "active"}, ids)

	assert.Len(t, s.List(2), 2)
}

func TestMemoryRunStoreKeepsActiveRuns(t *testing.T) {
	s := NewMemoryRunStore(1)
	now := time.Now()

	require.NoError(t, s.Create(newRun("one", domain.RunRunning, now)))
	require.NoError(t, s.Create(newRun("two", domain.RunRunning, now.Add(time.Second))))
	assert.Len(t, s.List(0), 2)

	_, err := s.Update("one", func(r *domain.Run) { r.Status = domain.RunFailed })
	require.NoError(t, err)

	_, err = s.Get("one")
	assert.ErrorIs(t, err, ErrRunNotFound)
	assert.Len(t, s.List(0), 1)
}

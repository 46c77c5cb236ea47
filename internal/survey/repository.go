package survey

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Submission is one completed survey.
type Submission struct {
	ID        string    `db:"id"`
	UserID    int64     `db:"user_id"`
	Name      string    `db:"name"`
	Age       int       `db:"age"`
	Gender    Gender    `db:"gender"`
	CreatedAt time.Time `db:"created_at"`
}

// Repository stores submissions.
type Repository interface {
	Save(ctx context.Context, s Submission) error
	Count(ctx context.Context) (int, error)
	// Recent returns up to limit submissions, newest first.
	Recent(ctx context.Context, limit int) ([]Submission, error)
}

// MemoryRepository keeps submissions in process memory.
type MemoryRepository struct {
	mu    sync.RWMutex
	items []Submission
}

// NewMemoryRepository returns an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

// Save appends s.
func (r *MemoryRepository) Save(_ context.Context, s Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, s)
	return nil
}

// Count returns the number of stored submissions.
func (r *MemoryRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items), nil
}

// Recent returns the newest submissions first.
func (r *MemoryRepository) Recent(_ context.Context, limit int) ([]Submission, error) {
	r.mu.RLock()
	out := make([]Submission, len(r.items))
	copy(out, r.items)
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

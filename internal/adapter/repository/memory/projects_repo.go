package memory

import (
	"context"
	"sync"

	"github.com/iho/assetledger/internal/domain"
)

// ProjectsRepository keeps the projects workspace in memory.
type ProjectsRepository struct {
	mu   sync.RWMutex
	book *domain.ProjectBook
}

// NewProjectsRepository creates a new ProjectsRepository seeded with book.
func NewProjectsRepository(book *domain.ProjectBook) *ProjectsRepository {
	if book == nil {
		book = &domain.ProjectBook{}
	}
	return &ProjectsRepository{book: cloneBook(book)}
}

// Load returns a deep copy of the book.
func (r *ProjectsRepository) Load(_ context.Context) (*domain.ProjectBook, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneBook(r.book), nil
}

// Save replaces the stored book with a copy of book.
func (r *ProjectsRepository) Save(_ context.Context, book *domain.ProjectBook) error {
	c := cloneBook(book)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.book = c
	return nil
}

func cloneBook(b *domain.ProjectBook) *domain.ProjectBook {
	return &domain.ProjectBook{
		Projects:    cloneAll(b.Projects),
		Milestones:  cloneMilestones(b.Milestones),
		Resources:   cloneAll(b.Resources),
		Assignments: cloneAll(b.Assignments),
		Timesheets:  cloneAll(b.Timesheets),
		Expenses:    cloneAll(b.Expenses),
	}
}

func cloneAll[T any](in []*T) []*T {
	out := make([]*T, len(in))
	for i, v := range in {
		c := *v
		out[i] = &c
	}
	return out
}

func cloneMilestones(in []*domain.Milestone) []*domain.Milestone {
	out := cloneAll(in)
	for _, m := range out {
		if m.Actual != nil {
			a := *m.Actual
			m.Actual = &a
		}
	}
	return out
}

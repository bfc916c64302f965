package repository

import (
	"context"
	"sync"

	"loan-eligibility/domain"
)

// DecisionRepositoryMemory is an in-memory implementation of DecisionRepository.
type DecisionRepositoryMemory struct {
	mu     sync.Mutex
	nextID int64
	data   []domain.DecisionRecord
}

// NewDecisionRepositoryMemory creates a new in-memory decision repository.
func NewDecisionRepositoryMemory() *DecisionRepositoryMemory {
	return &DecisionRepositoryMemory{
		data: []domain.DecisionRecord{},
	}
}

// Save stores the decision in memory and assigns it an id.
func (r *DecisionRepositoryMemory) Save(
	_ context.Context,
	record domain.DecisionRecord,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	record.ID = r.nextID
	r.data = append(r.data, record)
	return nil
}

func (r *DecisionRepositoryMemory) List(
	_ context.Context,
	limit int,
) ([]domain.DecisionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit <= 0 || limit > len(r.data) {
		limit = len(r.data)
	}

	out := make([]domain.DecisionRecord, 0, limit)
	for i := len(r.data) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.data[i])
	}
	return out, nil
}

package repository

import (
	"context"

	"loan-eligibility/domain"
)

type DecisionRepository interface {
	Save(ctx context.Context, record domain.DecisionRecord) error
	// List returns up to limit records, newest first.
	List(ctx context.Context, limit int) ([]domain.DecisionRecord, error)
}

package hg

import (
	"database/sql"
	"fmt"
	"time"
)

// Operation is a recorded CLI run.
type Operation struct {
	ID         int64
	StartedAt  time.Time
	FinishedAt sql.NullTime
	Operation  string
	Parameters string
	Status     string
	Added      int64
	Removed    int64
	Total      int64
}

// History records operations in the local run history.
type History interface {
	CreateOperation(operation, parameters string) (*Operation, error)
	FinishOperation(id int64, status string, added, removed, total int64) error
	// ListOperations returns the most recent operations, newest first.
	ListOperations(limit int) ([]*Operation, error)
	Close() error
}

// GetHistory returns the most recent operations, ordered newest first.
func (s *HGService) GetHistory(limit int) ([]*Operation, error) {
	if s.history == nil {
		return nil, fmt.Errorf("no history configured")
	}
	ops, err := s.history.ListOperations(limit)
	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	return ops, nil
}

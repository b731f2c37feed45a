package app

// Operation tracks a CLI run that changes stored state. Operations are
// created in memory with ID=0; only state-changing commands persist them in
// the run history, which assigns the ID.
type Operation struct {
	ID         int64
	Operation  string
	Parameters string
	Status     string // "success" or "error"
	Added      int64
	Removed    int64
	Total      int64
}

// NewOperation creates a new in-memory operation.
func NewOperation(operation, parameters string) *Operation {
	return &Operation{
		Operation:  operation,
		Parameters: parameters,
		Status:     "success",
	}
}

// Persisted returns true if this operation has been saved to the run history.
func (op *Operation) Persisted() bool {
	return op.ID != 0
}

// Fail marks the operation as failed if err is non-nil and returns err.
func (op *Operation) Fail(err error) error {
	if err != nil {
		op.Status = "error"
	}
	return err
}

// Count adds to the counters stored with the operation.
func (op *Operation) Count(added, removed, total int) {
	op.Added += int64(added)
	op.Removed += int64(removed)
	op.Total += int64(total)
}

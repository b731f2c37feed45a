package hg

import "errors"

var (
	// ErrNotFound is returned by storage backends and stores for absent names.
	ErrNotFound = errors.New("not found")

	// ErrNoChange is returned by a merge that has nothing to add or remove.
	// Callers treat it as a successful no-op.
	ErrNoChange = errors.New("no changes")

	// ErrNoJournal is returned when none of the requested journals could be read.
	ErrNoJournal = errors.New("no readable journal")
)

package hg

import "time"

// Clock abstracts time retrieval so business logic is deterministic in tests.
type Clock interface {
	Now() time.Time
}

// RealClock returns the actual current time.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// OperationID formats t as the identifier of a CLI run in log lines,
// e.g. "20240115T103000Z".
func OperationID(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

// JournalID formats t with nanoseconds so that updates within one second
// get distinct journals, e.g. "20240115T103000.000000000Z". Ids sort in
// time order.
func JournalID(t time.Time) string {
	return t.UTC().Format("20060102T150405.000000000Z")
}

package report

import "slices"

// Reporter receives outcomes as they are classified.
type Reporter interface {
	Begin(file string)
	Outcome(rec Record)
	Pending(path []string)
	End(sum Summary)
	LoadFailed(file string, err error)
	NoTests(file string)
}

// Aggregator is the result set of one file run.
// It is owned by a single run and not safe for concurrent use.
type Aggregator struct {
	reporter Reporter
	passes   []Record
	fails    []Record
	errors   []Record
	ordered  []Record
	pending  [][]string
	updated  int
	removed  int
}

// NewAggregator creates an aggregator streaming to r. r may be nil.
func NewAggregator(r Reporter) *Aggregator {
	return &Aggregator{reporter: r}
}

// Record appends rec to the sequence matching its outcome and streams it.
func (a *Aggregator) Record(rec Record) {
	rec.Path = slices.Clone(rec.Path)
	switch rec.Outcome {
	case Pass:
		a.passes = append(a.passes, rec)
	case Fail:
		a.fails = append(a.fails, rec)
	default:
		rec.Outcome = Error
		a.errors = append(a.errors, rec)
	}
	a.ordered = append(a.ordered, rec)
	if a.reporter != nil {
		a.reporter.Outcome(rec)
	}
}

// Pending reports a declared but unexecuted spec. No record is created.
func (a *Aggregator) Pending(path []string) {
	path = slices.Clone(path)
	a.pending = append(a.pending, path)
	if a.reporter != nil {
		a.reporter.Pending(path)
	}
}

// SetSnapshotStats attaches the flush statistics.
func (a *Aggregator) SetSnapshotStats(updated, removed int) {
	a.updated = updated
	a.removed = removed
}

// Summary tallies the result set without side effects.
func (a *Aggregator) Summary() Summary {
	return Summary{
		Passed:  len(a.passes),
		Failed:  len(a.fails),
		Errors:  len(a.errors),
		Pending: len(a.pending),
		Updated: a.updated,
		Removed: a.removed,
	}
}

// Records returns the records of one outcome, in classification order.
func (a *Aggregator) Records(o Outcome) []Record {
	switch o {
	case Pass:
		return slices.Clone(a.passes)
	case Fail:
		return slices.Clone(a.fails)
	default:
		return slices.Clone(a.errors)
	}
}

// All returns every record in classification order.
func (a *Aggregator) All() []Record {
	return slices.Clone(a.ordered)
}

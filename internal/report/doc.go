// Package report aggregates test outcomes and renders them.
//
// Every outcome is classified exactly once, by whoever calls
// Aggregator.Record. The aggregator streams the record to its Reporter at
// that moment and keeps it for the final Summary, so the live output and the
// summary can never disagree about a record.
package report

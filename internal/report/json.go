package report

import (
	"encoding/json"
	"io"
)

// Document is the JSON rendering of one file run.
// The envelope mirrors the CLI response format: status, data, error.
type Document struct {
	Status string         `json:"status"` // "ok" or "error"
	Data   DocumentData   `json:"data"`
	Error  *DocumentError `json:"error,omitempty"`
}

// DocumentData is the payload of a Document.
type DocumentData struct {
	File    string     `json:"file"`
	Records []Record   `json:"records"`
	Pending [][]string `json:"pending,omitempty"`
	Summary *Summary   `json:"summary,omitempty"`
}

// DocumentError describes why a run did not produce results.
type DocumentError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes used in Document.Error.
const (
	CodeLoadFailed   = "E_LOAD_FAILED"
	CodeNoTests      = "E_NO_TESTS"
	CodeTestsFailed  = "E_TEST_FAILED"
	CodeTestsErrored = "E_TEST_ERRORED"
)

// JSONReporter buffers a run and writes one indented Document when it ends.
type JSONReporter struct {
	w   io.Writer
	doc Document
}

// NewJSONReporter creates a JSON reporter writing to w.
func NewJSONReporter(w io.Writer) *JSONReporter {
	return &JSONReporter{w: w}
}

func (r *JSONReporter) Begin(file string) {
	r.doc = Document{Status: "ok", Data: DocumentData{File: file, Records: []Record{}}}
}

func (r *JSONReporter) Outcome(rec Record) {
	r.doc.Data.Records = append(r.doc.Data.Records, rec)
}

func (r *JSONReporter) Pending(path []string) {
	r.doc.Data.Pending = append(r.doc.Data.Pending, path)
}

func (r *JSONReporter) End(sum Summary) {
	r.doc.Data.Summary = &sum
	switch sum.Signal() {
	case SignalErrors:
		r.fail(CodeTestsErrored, "one or more suites raised errors")
	case SignalFailures:
		r.fail(CodeTestsFailed, "one or more specs failed")
	}
	r.write()
}

func (r *JSONReporter) LoadFailed(file string, err error) {
	r.doc.Data.File = file
	r.fail(CodeLoadFailed, err.Error())
	r.write()
}

func (r *JSONReporter) NoTests(file string) {
	r.doc.Data.File = file
	r.fail(CodeNoTests, "no tests found")
	r.write()
}

func (r *JSONReporter) fail(code, msg string) {
	r.doc.Status = "error"
	r.doc.Error = &DocumentError{Code: code, Message: msg}
}

func (r *JSONReporter) write() {
	if r.doc.Data.Records == nil {
		r.doc.Data.Records = []Record{}
	}
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(r.doc)
}

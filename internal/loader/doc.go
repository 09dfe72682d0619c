// Package loader turns a test file path into an engine.Unit.
//
// Go cannot compile source at run time, so two kinds of test file are
// supported:
//
//   - Scenario files (.yaml, .yml, .cue) are declarative suites parsed by
//     ScenarioLoader. CUE files are evaluated first, so expressions such as
//     `actual: 1 + 1` are computed at load time.
//   - Compiled units are Go functions registered in a Registry under a
//     name or path, typically from an init function or a custom main.
//
// Multi combines both, dispatching on the file extension.
//
// # Scenario Format
//
//	tests:
//	  - describe: math
//	    body:
//	      - before_each: [{log: setup}]
//	      - it: adds
//	        steps:
//	          - {assert: equals, actual: 2, expected: 2}
//	          - {assert: match_snapshot, actual: "Success  : 1"}
//	      - pending: later
//
// Each item sets exactly one of describe, it, pending, before_each or
// after_each. Steps are assert (with actual, optional expected, and not),
// fail, panic or log. Hooks accept only log and panic steps.
package loader

package engine

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/google/go-cmp/cmp"

	"github.com/roach88/specrun/internal/canon"
	"github.com/roach88/specrun/internal/snapshot"
)

// Predicate is a named assertion usable through T.Expect and T.ExpectNot.
//
// Positive and Negative are failure templates for the plain and negated
// forms. Each receives the rendered actual and expected values, in that
// order. A template with a single %s receives only the actual value.
type Predicate struct {
	Name     string
	Positive string
	Negative string
	Test     func(c *Call) bool
}

// Call is the state of one predicate evaluation. Test may adjust the
// rendered values or replace the failure message outright.
type Call struct {
	T       *T
	Actual  any
	Args    []any
	Negated bool

	ActualText   string
	ExpectedText string

	// Message replaces the rendered template when set.
	Message string
	// Detail is appended to the rendered template.
	Detail string
	// Final makes Test's result the outcome, ignoring negation.
	Final bool
}

// RegisterPredicate adds p to the run's registry, replacing any predicate
// with the same name.
func (rc *RunContext) RegisterPredicate(p Predicate) error {
	if p.Name == "" {
		return errors.New("predicate has no name")
	}
	if p.Test == nil {
		return fmt.Errorf("predicate %q has no test", p.Name)
	}
	rc.predicates[p.Name] = p
	return nil
}

// evaluate runs the predicate and returns the failure message when it does not hold.
func (p Predicate) evaluate(t *T, negated bool, actual any, args []any) (string, bool) {
	c := &Call{
		T:          t,
		Actual:     actual,
		Args:       args,
		Negated:    negated,
		ActualText: render(actual),
	}
	if len(args) > 0 {
		c.ExpectedText = render(args[0])
	}

	ok := p.Test(c)
	if !c.Final && negated {
		ok = !ok
	}
	if ok {
		return "", true
	}
	if c.Message != "" {
		return c.Message, false
	}

	tmpl := p.Positive
	if negated {
		tmpl = p.Negative
	}
	var msg string
	if strings.Count(tmpl, "%s") < 2 {
		msg = fmt.Sprintf(tmpl, c.ActualText)
	} else {
		msg = fmt.Sprintf(tmpl, c.ActualText, c.ExpectedText)
	}
	if c.Detail != "" {
		msg += "\n" + c.Detail
	}
	return msg, false
}

func render(v any) string {
	if s, err := canon.MarshalString(v); err == nil {
		return s
	}
	return fmt.Sprintf("%#v", v)
}

var matchSnapshot = Predicate{
	Name:     "match_snapshot",
	Positive: "Expected objects to match snapshot.\nPassed in:\n%s\nExpected:\n%s",
	Negative: "Expected objects to not match snapshot.\nPassed in:\n%s\nExpected:\n%s",
	Test: func(c *Call) bool {
		rc := c.T.rc
		if rc.snapshots == nil {
			panic(errors.New("snapshot assertions need a snapshot session"))
		}
		res, err := rc.snapshots.Check(rc.snapshotKey(), c.Actual)
		if err != nil {
			panic(err)
		}
		c.ActualText = res.Actual
		if rc.snapshots.Mode() == snapshot.ModeUpdate {
			c.Final = true
			return true
		}
		if res.Missing {
			c.Final = true
			c.Message = res.MissingMessage(rc.updateEnv)
			return false
		}
		c.ExpectedText = res.Expected
		return res.Match
	},
}

func hostPredicates() []Predicate {
	return []Predicate{
		{
			Name:     "equals",
			Positive: "Expected objects to be equal.\nPassed in:\n%s\nExpected:\n%s",
			Negative: "Expected objects to not be equal.\nPassed in:\n%s\nExpected:\n%s",
			Test:     testEquals,
		},
		{
			Name:     "truthy",
			Positive: "Expected to be truthy, but value was:\n%s",
			Negative: "Expected to not be truthy, but value was:\n%s",
			Test: func(c *Call) bool {
				return truthy(c.Actual)
			},
		},
		{
			Name:     "contains",
			Positive: "Expected value to contain element.\nPassed in:\n%s\nExpected:\n%s",
			Negative: "Expected value to not contain element.\nPassed in:\n%s\nExpected:\n%s",
			Test:     testContains,
		},
	}
}

func testEquals(c *Call) bool {
	if len(c.Args) == 0 {
		panic(errors.New("equals needs an expected value"))
	}
	expected := c.Args[0]
	if equal(c.Actual, expected) {
		return true
	}
	if diff := safeDiff(expected, c.Actual); diff != "" {
		c.Detail = "Diff (-expected +actual):\n" + diff
	}
	return false
}

// equal compares with go-cmp, falling back to canonical serialization so
// that values decoded by different parsers (int vs float64) compare by value.
func equal(a, b any) bool {
	if safeEqual(a, b) {
		return true
	}
	sa, errA := canon.MarshalString(a)
	sb, errB := canon.MarshalString(b)
	return errA == nil && errB == nil && sa == sb
}

func safeEqual(a, b any) (eq bool) {
	defer func() {
		if recover() != nil {
			eq = false
		}
	}()
	return cmp.Equal(a, b)
}

func safeDiff(a, b any) (diff string) {
	defer func() {
		if recover() != nil {
			diff = ""
		}
	}()
	return cmp.Diff(a, b)
}

// truthy treats only nil and false as false.
func truthy(v any) bool {
	if v == nil {
		return false
	}
	if b, ok := v.(bool); ok {
		return b
	}
	return true
}

func testContains(c *Call) bool {
	if len(c.Args) == 0 {
		panic(errors.New("contains needs an element"))
	}
	elem := c.Args[0]
	if s, ok := c.Actual.(string); ok {
		sub, ok := elem.(string)
		return ok && strings.Contains(s, sub)
	}

	rv := reflect.ValueOf(c.Actual)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if equal(rv.Index(i).Interface(), elem) {
				return true
			}
		}
	case reflect.Map:
		iter := rv.MapRange()
		for iter.Next() {
			if equal(iter.Key().Interface(), elem) {
				return true
			}
		}
	}
	return false
}

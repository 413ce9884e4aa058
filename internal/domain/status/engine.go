// Package status evaluates ordered rule tables that fold item statuses into
// one overall document status.
package status

// Rule pairs a predicate over the input with the status it yields.
type Rule[In any, S comparable] struct {
	Name   string
	Match  func(In) bool
	Result S
}

// Table is an ordered list of rules. The first matching rule wins.
type Table[In any, S comparable] []Rule[In, S]

// Derive returns the result of the first rule that matches in, or prior when
// no rule matches.
func (t Table[In, S]) Derive(in In, prior S) S {
	s, _ := t.Evaluate(in, prior)
	return s
}

// Evaluate is Derive that also reports which rule matched. The name is empty
// when the prior status was kept.
func (t Table[In, S]) Evaluate(in In, prior S) (S, string) {
	for _, r := range t {
		if r.Match(in) {
			return r.Result, r.Name
		}
	}
	return prior, ""
}

// All reports whether every element satisfies pred. It is true for an empty slice.
func All[T any](items []T, pred func(T) bool) bool {
	for _, it := range items {
		if !pred(it) {
			return false
		}
	}
	return true
}

// Any reports whether at least one element satisfies pred.
func Any[T any](items []T, pred func(T) bool) bool {
	for _, it := range items {
		if pred(it) {
			return true
		}
	}
	return false
}

// Is returns a predicate matching values equal to one of want.
func Is[T comparable](want ...T) func(T) bool {
	return func(v T) bool {
		for _, w := range want {
			if v == w {
				return true
			}
		}
		return false
	}
}

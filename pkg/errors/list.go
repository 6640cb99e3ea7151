package errors

import (
	"errors"
	"fmt"
	"strings"
)

// List aggregates every failure found in one validation pass.
// It implements Unwrap() []error so errors.As can reach each item.
type List struct {
	Errors []*Error
}

// Add appends e to the list. Nil errors are ignored.
func (l *List) Add(e *Error) {
	if e != nil {
		l.Errors = append(l.Errors, e)
	}
}

// Len returns the number of collected errors.
func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return len(l.Errors)
}

// Err returns nil for an empty list, the single item for a one-item list,
// and the list itself otherwise.
func (l *List) Err() error {
	switch l.Len() {
	case 0:
		return nil
	case 1:
		return l.Errors[0]
	default:
		return l
	}
}

// Error implements the error interface.
func (l *List) Error() string {
	if l.Len() == 1 {
		return l.Errors[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d validation errors:", len(l.Errors))
	for _, e := range l.Errors {
		b.WriteString("\n  - ")
		b.WriteString(e.Error())
	}
	return b.String()
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (l *List) Unwrap() []error {
	errs := make([]error, len(l.Errors))
	for i, e := range l.Errors {
		errs[i] = e
	}
	return errs
}

// Flatten returns the individual *Error values carried by err.
// A List yields its items, a single *Error yields itself, anything else
// yields nil.
func Flatten(err error) []*Error {
	if err == nil {
		return nil
	}
	var l *List
	if errors.As(err, &l) {
		return l.Errors
	}
	var e *Error
	if errors.As(err, &e) {
		return []*Error{e}
	}
	return nil
}

// Package errkind attaches an operation name and a sentinel kind to errors.
//
// Packages declare their sentinel kinds in errors.go and wrap failures with
// NewKind / WrapKind so callers can branch with errors.Is on the kind while
// still seeing the underlying cause.
package errkind

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error is an error tagged with the operation that produced it.
type Error struct {
	Op     string
	Kind   error
	Err    error
	Fields map[string]string
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	switch {
	case e.Kind != nil && e.Err != nil:
		fmt.Fprintf(&b, "%v: %v", e.Kind, e.Err)
	case e.Kind != nil:
		b.WriteString(e.Kind.Error())
	case e.Err != nil:
		b.WriteString(e.Err.Error())
	default:
		b.WriteString("unknown error")
	}
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" [")
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(k)
			b.WriteByte('=')
			b.WriteString(e.Fields[k])
		}
		b.WriteByte(']')
	}
	return b.String()
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// NewKind returns an error of the given kind without an underlying cause.
func NewKind(op string, kind error) error {
	return &Error{Op: op, Kind: kind}
}

// WrapKind tags err with kind. A nil err still yields a kind error.
func WrapKind(op string, kind, err error) error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// Wrap records op on err. Returns nil when err is nil.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// With returns a copy of err carrying an extra key/value pair. Non-errkind
// errors are wrapped first.
func With(err error, key, value string) error {
	if err == nil {
		return nil
	}
	var src *Error
	if !errors.As(err, &src) {
		src = &Error{Err: err}
	}
	cp := *src
	cp.Fields = make(map[string]string, len(src.Fields)+1)
	for k, v := range src.Fields {
		cp.Fields[k] = v
	}
	cp.Fields[key] = value
	return &cp
}

// Field returns the value recorded under key anywhere in err's chain.
func Field(err error, key string) (string, bool) {
	var e *Error
	for err != nil {
		if !errors.As(err, &e) {
			return "", false
		}
		if v, ok := e.Fields[key]; ok {
			return v, true
		}
		err = e.Err
	}
	return "", false
}

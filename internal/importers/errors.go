package importers

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies why an import did not succeed.
type ErrorKind string

const (
	KindParse           ErrorKind = "parse"
	KindValidation      ErrorKind = "validation"
	KindDuplicate       ErrorKind = "duplicate"
	KindInvalidImporter ErrorKind = "invalid_importer"
	KindStorage         ErrorKind = "storage"
)

// Sentinels for errors.Is. Every *Error matches exactly one of them.
var (
	ErrParse           = errors.New("package could not be parsed")
	ErrValidation      = errors.New("package failed validation")
	ErrDuplicate       = errors.New("package already imported")
	ErrInvalidImporter = errors.New("importer is not a valid account")
	ErrStorage         = errors.New("package could not be stored")
)

var sentinels = map[ErrorKind]error{
	KindParse:           ErrParse,
	KindValidation:      ErrValidation,
	KindDuplicate:       ErrDuplicate,
	KindInvalidImporter: ErrInvalidImporter,
	KindStorage:         ErrStorage,
}

// Violation is one failed validation rule. Field uses JSON property paths,
// e.g. "package.modules[0].questions[1].score".
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v Violation) String() string {
	if v.Field == "" {
		return v.Message
	}
	return v.Field + ": " + v.Message
}

// Error is the typed failure returned by every stage of the pipeline.
type Error struct {
	Kind       ErrorKind
	Message    string
	Violations []Violation
	Cause      error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if len(e.Violations) > 0 {
		b.WriteString(": ")
		for i, v := range e.Violations {
			if i > 0 {
				b.WriteString("; ")
			}
			b.WriteString(v.String())
		}
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s, ok := sentinels[e.Kind]; ok {
		errs = append(errs, s)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// Code returns the error kind as a plain string.
func (e *Error) Code() string {
	return string(e.Kind)
}

func newError(kind ErrorKind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// KindOf returns the kind of err, or "" when err did not come from the pipeline.
func KindOf(err error) ErrorKind {
	var ie *Error
	if errors.As(err, &ie) {
		return ie.Kind
	}
	return ""
}

package analyzer

import (
	"errors"
	"net/http"
)

var (
	ErrNoURL  = errors.New("No URL provided")
	ErrNoText = errors.New("Failed to extract text")
)

// Kind classifies why an analysis failed.
type Kind int

const (
	InputError Kind = iota + 1
	RenderFault
	ExtractionEmpty
	ClassifierFault
)

func (k Kind) String() string {
	switch k {
	case InputError:
		return "input_error"
	case RenderFault:
		return "render_fault"
	case ExtractionEmpty:
		return "extraction_empty"
	case ClassifierFault:
		return "classifier_fault"
	default:
		return "unknown"
	}
}

// HTTPStatus maps the kind onto the status the request boundary reports.
func (k Kind) HTTPStatus() int {
	switch k {
	case InputError:
		return http.StatusBadRequest
	case ExtractionEmpty:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Error is the only error type Analyze returns.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of err, or 0 when err is not an *Error.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return 0
}

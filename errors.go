package contractsteps

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyProps is returned when a template is resolved without properties.
	ErrEmptyProps = errors.New("empty template properties")

	// ErrEmptyAddress is returned when a request is built without base address.
	ErrEmptyAddress = errors.New("empty base address")

	// ErrEmptyPath is returned when a request is built without path.
	ErrEmptyPath = errors.New("empty request path")

	// ErrUnsupportedMethod is returned for non-standard HTTP methods.
	ErrUnsupportedMethod = errors.New("unsupported http method")

	// ErrInvalidJSONExpectation is returned when expected value of JSON body condition is not a valid JSON5.
	ErrInvalidJSONExpectation = errors.New("invalid JSON expectation")

	errUnknownStatusCode    = errors.New("unknown http status")
	errMalformedHeaderMatch = errors.New("malformed header expectation, `Name: value` expected")
)

// TemplateResolutionError reports placeholders that have no property value.
type TemplateResolutionError struct {
	// Key is the first unresolved placeholder.
	Key string

	// Keys lists all unresolved placeholders in order of appearance.
	Keys []string
}

func (e *TemplateResolutionError) Error() string {
	if len(e.Keys) > 1 {
		return "unresolved template placeholders: #[" + strings.Join(e.Keys, "], #[") + "]"
	}

	return "unresolved template placeholder: #[" + e.Key + "]"
}

// BuilderFinalizedError is returned when a finalized request builder or a sent request is reused.
type BuilderFinalizedError struct {
	Op string
}

func (e *BuilderFinalizedError) Error() string {
	return "request is already finalized, " + e.Op + " is not allowed"
}

// UnsupportedConditionError is returned for unknown match conditions.
type UnsupportedConditionError struct {
	Condition Condition
}

func (e *UnsupportedConditionError) Error() string {
	return "unsupported match condition: " + e.Condition.String()
}

// NoResponseError reports a transport failure, no response was obtained.
type NoResponseError struct {
	Method string
	URL    string
	Err    error
}

func (e *NoResponseError) Error() string {
	if e.Method == "" && e.URL == "" {
		return fmt.Sprintf("no response: %v", e.Err)
	}

	return fmt.Sprintf("no response for %s %s: %v", e.Method, e.URL, e.Err)
}

func (e *NoResponseError) Unwrap() error {
	return e.Err
}

// MissingScenarioPropertyError is returned when required scenario property is absent.
type MissingScenarioPropertyError struct {
	Key string
}

func (e *MissingScenarioPropertyError) Error() string {
	return "missing scenario property: " + e.Key
}

// AssertionFailure is a failed comparison of response and expectation.
//
// It is a reportable test failure, not a fault of the system under test or of this package.
type AssertionFailure struct {
	Condition Condition
	Expected  string
	Actual    string

	// Details is an optional explanation, for example a JSON diff.
	Details string
}

func (e *AssertionFailure) Error() string {
	msg := fmt.Sprintf("assertion failed for %s, expected: %q, actual: %q", e.Condition, e.Expected, e.Actual)

	if e.Details != "" {
		msg += ": " + e.Details
	}

	return msg
}

package contractsteps

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/swaggest/assertjson"
	"github.com/swaggest/assertjson/json5"
)

// Condition selects comparison strategy of response and expected value.
type Condition int

// Match conditions.
const (
	// MatchHTTPResponseByBody requires response body to contain expected value.
	MatchHTTPResponseByBody Condition = iota + 1

	// DoNotMatchHTTPResponseByBody requires response body to not contain expected value.
	DoNotMatchHTTPResponseByBody

	// MatchHTTPResponseByStatus requires response status to be equal to expected code or phrase.
	MatchHTTPResponseByStatus

	// DoNotMatchHTTPResponseByStatus requires response status to differ from expected code or phrase.
	DoNotMatchHTTPResponseByStatus

	// MatchHTTPResponseByHeader requires response header to contain expected value, expectation is `Name: value`.
	MatchHTTPResponseByHeader

	// DoNotMatchHTTPResponseByHeader requires response header to not contain expected value.
	DoNotMatchHTTPResponseByHeader

	// MatchHTTPResponseByJSONBody requires response body to be structurally equal to expected JSON5.
	//
	// Expected values set to "<ignore-diff>" are not compared.
	MatchHTTPResponseByJSONBody
)

var conditionNames = map[Condition]string{
	MatchHTTPResponseByBody:        "MATCH_HTTP_RESPONSE_BY_BODY",
	DoNotMatchHTTPResponseByBody:   "DO_NOT_MATCH_HTTP_RESPONSE_BY_BODY",
	MatchHTTPResponseByStatus:      "MATCH_HTTP_RESPONSE_BY_STATUS",
	DoNotMatchHTTPResponseByStatus: "DO_NOT_MATCH_HTTP_RESPONSE_BY_STATUS",
	MatchHTTPResponseByHeader:      "MATCH_HTTP_RESPONSE_BY_HEADER",
	DoNotMatchHTTPResponseByHeader: "DO_NOT_MATCH_HTTP_RESPONSE_BY_HEADER",
	MatchHTTPResponseByJSONBody:    "MATCH_HTTP_RESPONSE_BY_JSON_BODY",
}

func (c Condition) String() string {
	if n, ok := conditionNames[c]; ok {
		return n
	}

	return "Condition(" + strconv.Itoa(int(c)) + ")"
}

// Negated tells if condition succeeds on mismatch.
func (c Condition) Negated() bool {
	return c == DoNotMatchHTTPResponseByBody ||
		c == DoNotMatchHTTPResponseByStatus ||
		c == DoNotMatchHTTPResponseByHeader
}

// Outcome is a result of response comparison.
type Outcome struct {
	Condition Condition
	Expected  string
	Actual    string
	Passed    bool

	details string
}

// Err returns nil for passed outcome or *AssertionFailure otherwise.
func (o Outcome) Err() error {
	if o.Passed {
		return nil
	}

	return &AssertionFailure{
		Condition: o.Condition,
		Expected:  o.Expected,
		Actual:    o.Actual,
		Details:   o.details,
	}
}

// Compare checks response against expected value with condition.
//
// Body conditions use substring containment rather than full equality, so that incidental
// formatting of the response (whitespace, field order, extra fields) does not fail the check.
// This favors false positives of short expectations, use MatchHTTPResponseByJSONBody for strict checks.
// Empty expected value only matches empty body.
//
// Missing response is reported with *NoResponseError and unknown condition with *UnsupportedConditionError,
// both are distinct from a failed outcome.
func Compare(resp *Response, expected string, cond Condition) (Outcome, error) {
	out := Outcome{Condition: cond, Expected: expected}

	if _, ok := conditionNames[cond]; !ok {
		return out, &UnsupportedConditionError{Condition: cond}
	}

	if resp == nil {
		return out, &NoResponseError{Err: fmt.Errorf("missing response for %s", cond)}
	}

	var (
		matched bool
		err     error
	)

	switch cond {
	case MatchHTTPResponseByBody, DoNotMatchHTTPResponseByBody:
		out.Actual = resp.Body
		matched = contains(resp.Body, expected)
	case MatchHTTPResponseByStatus, DoNotMatchHTTPResponseByStatus:
		out.Actual = strconv.Itoa(resp.StatusCode)
		matched, err = matchStatus(resp.StatusCode, expected)
	case MatchHTTPResponseByHeader, DoNotMatchHTTPResponseByHeader:
		out.Actual, matched, err = matchHeader(resp.Header, expected)
	case MatchHTTPResponseByJSONBody:
		out.Actual = resp.Body
		out.details, err = diffJSON(resp.Body, expected)
		matched = err == nil && out.details == ""
	}

	if err != nil {
		return out, err
	}

	out.Passed = matched != cond.Negated()

	return out, nil
}

func contains(subject, expected string) bool {
	if expected == "" {
		return subject == ""
	}

	return strings.Contains(subject, expected)
}

func matchStatus(actual int, expected string) (bool, error) {
	code, err := statusCode(strings.TrimSpace(expected))
	if err != nil {
		return false, err
	}

	return actual == code, nil
}

func matchHeader(header http.Header, expected string) (string, bool, error) {
	name, value, found := strings.Cut(expected, ":")
	name = strings.TrimSpace(name)

	if !found || name == "" {
		return "", false, fmt.Errorf("%w: %q", errMalformedHeaderMatch, expected)
	}

	actual := header.Get(name)

	if _, ok := header[http.CanonicalHeaderKey(name)]; !ok {
		return actual, false, nil
	}

	return actual, contains(actual, strings.TrimSpace(value)), nil
}

func diffJSON(actual, expected string) (string, error) {
	exp := []byte(expected)

	if json5.Valid(exp) {
		var err error

		if exp, err = json5.Downgrade(exp); err != nil {
			return "", fmt.Errorf("failed to downgrade JSON5 to JSON: %w", err)
		}
	}

	if !json.Valid(exp) {
		return "", fmt.Errorf("%w: %q", ErrInvalidJSONExpectation, expected)
	}

	c := assertjson.Comparer{IgnoreDiff: assertjson.IgnoreDiff}

	if err := c.FailNotEqual(exp, []byte(actual)); err != nil {
		return err.Error(), nil
	}

	return "", nil
}

func statusCode(statusOrCode string) (int, error) {
	code, err := strconv.Atoi(statusOrCode)
	if err != nil {
		code = statusMap[statusOrCode]
	}

	if code == 0 {
		return 0, fmt.Errorf("%w: %q", errUnknownStatusCode, statusOrCode)
	}

	return code, nil
}

var statusMap = initStatusMap()

func initStatusMap() map[string]int {
	m := make(map[string]int)

	for i := 100; i < 599; i++ {
		status := http.StatusText(i)
		if status != "" {
			m[status] = i
		}
	}

	return m
}

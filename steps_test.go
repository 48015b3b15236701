package contractsteps_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/bool64/httpmock"
	"github.com/cucumber/godog"
	"github.com/godogx/contractsteps"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const createdAlice = `{"name":"Alice","job":"Engineer","id":"42","createdAt":"2026-10-14T00:00:00Z"}`

func expectCreate(mock *httpmock.Server, token, body, response string) {
	mock.Expect(httpmock.Expectation{
		Method:     http.MethodPost,
		RequestURI: contractsteps.UsersPath,
		RequestHeader: map[string]string{
			"Authorization": token,
			"Content-Type":  "application/json",
		},
		RequestBody:  []byte(body),
		Status:       http.StatusCreated,
		ResponseBody: []byte(response),
		ResponseHeader: map[string]string{
			"Content-Type": "application/json",
		},
	})
}

func TestSteps_RegisterSteps(t *testing.T) {
	mock, srvURL := httpmock.NewServer()
	mock.OnError = func(err error) {
		require.NoError(t, err)
	}

	defer mock.Close()

	alice := `{"name": "Alice", "job": "Engineer"}`

	expectCreate(mock, "Bearer secret", alice, createdAlice)
	expectCreate(mock, "Bearer secret", alice, createdAlice)
	expectCreate(mock, "Bearer secret", alice, createdAlice)
	expectCreate(mock, "Bearer secret", alice, createdAlice)
	expectCreate(mock, "Bearer from-file", `{"name":"X"}`, `{"name":"X","id":"43"}`)
	expectCreate(mock, "Bearer secret", `{"name":"Y"}`, `{"name":"Y","id":"44"}`)

	steps := contractsteps.NewSteps(func(s *contractsteps.Steps) {
		s.Logger = zaptest.NewLogger(t)
		s.Properties = map[string]string{
			contractsteps.DefaultAddressKey: srvURL,
		}
	})

	out := bytes.NewBuffer(nil)

	suite := godog.TestSuite{
		ScenarioInitializer: func(s *godog.ScenarioContext) {
			steps.RegisterSteps(s)
		},
		Options: &godog.Options{
			Output:   out,
			Format:   "pretty",
			NoColors: true,
			Strict:   true,
			Paths:    []string{"_testdata/CreateUser.feature"},
		},
	}

	if !assert.Equal(t, 0, suite.Run()) {
		fmt.Println(out.String())
	}

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSteps_RegisterSteps_failures(t *testing.T) {
	mock, srvURL := httpmock.NewServer()
	mock.OnError = func(err error) {
		require.NoError(t, err)
	}

	defer mock.Close()

	// Only the second scenario reaches the service.
	expectCreate(mock, "Bearer secret", `{"name": "Alice", "job": "Engineer"}`, createdAlice)

	steps := contractsteps.NewSteps(func(s *contractsteps.Steps) {
		s.Properties = map[string]string{
			contractsteps.DefaultAddressKey: srvURL,
		}
	})

	out := bytes.NewBuffer(nil)

	suite := godog.TestSuite{
		ScenarioInitializer: func(s *godog.ScenarioContext) {
			steps.RegisterSteps(s)
		},
		Options: &godog.Options{
			Output:   out,
			Format:   "pretty",
			NoColors: true,
			Strict:   true,
			Paths:    []string{"_testdata/CreateUserFail.feature"},
		},
	}

	assert.Equal(t, 1, suite.Run())
	require.NoError(t, mock.ExpectationsWereMet())
	assert.Contains(t, out.String(), "missing scenario property: token")
	assert.Contains(t, out.String(), `assertion failed for MATCH_HTTP_RESPONSE_BY_BODY, expected: "Bob"`)
}

func runFeature(t *testing.T, steps *contractsteps.Steps, feature string) (int, string) {
	t.Helper()

	out := bytes.NewBuffer(nil)

	suite := godog.TestSuite{
		ScenarioInitializer: func(s *godog.ScenarioContext) {
			steps.RegisterSteps(s)
		},
		Options: &godog.Options{
			Output:   out,
			Format:   "pretty",
			NoColors: true,
			Strict:   true,
			FeatureContents: []godog.Feature{
				{Name: t.Name() + ".feature", Contents: []byte(feature)},
			},
		},
	}

	return suite.Run(), out.String()
}

func TestSteps_missingProperty(t *testing.T) {
	calls := 0
	steps := contractsteps.NewSteps(func(s *contractsteps.Steps) {
		s.Transport = contractsteps.TransportFunc(
			func(ctx context.Context, req *contractsteps.Request) (*contractsteps.Response, error) {
				calls++

				return &contractsteps.Response{StatusCode: http.StatusCreated}, nil
			})
	})

	status, out := runFeature(t, steps, `
Feature: Missing properties
  Scenario: Missing token
    Given scenario property "reqresin.address" is "localhost"
    Then Create user with name=Alice, job=Engineer and check response=Alice

  Scenario: Missing address
    Given scenario property "token" is "Bearer abc"
    Then Create user with request={"name":"X"} and check response=X
`)

	assert.Equal(t, 1, status)
	assert.Equal(t, 0, calls)
	assert.Contains(t, out, "missing scenario property: token")
	assert.Contains(t, out, "missing scenario property: reqresin.address")
}

func TestSteps_rawRequest(t *testing.T) {
	var sent []*contractsteps.Request

	steps := contractsteps.NewSteps(func(s *contractsteps.Steps) {
		s.Properties = map[string]string{"reqresin.address": "users.local", "token": "Bearer abc"}
		s.Transport = contractsteps.TransportFunc(
			func(ctx context.Context, req *contractsteps.Request) (*contractsteps.Response, error) {
				sent = append(sent, req)

				return &contractsteps.Response{StatusCode: http.StatusCreated, Body: req.Body}, nil
			})
	})

	status, out := runFeature(t, steps, `
Feature: Raw request
  Scenario: Raw request bypasses template
    Then Create user with request={"name":"X", "job": "#[job]"} and check response=X
`)

	require.Equal(t, 0, status, out)
	require.Len(t, sent, 1)
	assert.Equal(t, `{"name":"X", "job": "#[job]"}`, sent[0].Body)
	assert.Equal(t, "http://users.local/api/users", sent[0].URL())
	assert.Equal(t, "Bearer abc", sent[0].Header()["Authorization"])
}

func TestSteps_ExecuteAndCompare(t *testing.T) {
	transportErr := errors.New("connection refused")

	steps := contractsteps.NewSteps(func(s *contractsteps.Steps) {
		s.Transport = contractsteps.TransportFunc(
			func(ctx context.Context, req *contractsteps.Request) (*contractsteps.Response, error) {
				if req.Header()["Authorization"] == "fail" {
					return nil, transportErr
				}

				return &contractsteps.Response{StatusCode: http.StatusCreated, Body: req.Body}, nil
			})
	})

	users := contractsteps.NewUserService()
	ctx := context.Background()

	require.NoError(t, steps.ExecuteAndCompare(ctx, users.PrepareCreate("localhost", "Alice", "Engineer", "t"),
		"Alice", contractsteps.MatchHTTPResponseByBody))
	require.NoError(t, steps.ExecuteAndCompare(ctx, users.PrepareCreate("localhost", "Alice", "Engineer", "t"),
		"Bob", contractsteps.DoNotMatchHTTPResponseByBody))

	err := steps.ExecuteAndCompare(ctx, users.PrepareCreate("localhost", "Alice", "Engineer", "t"),
		"Bob", contractsteps.MatchHTTPResponseByBody)

	var af *contractsteps.AssertionFailure

	require.True(t, errors.As(err, &af))
	assert.Equal(t, `{"name": "Alice", "job": "Engineer"}`, af.Actual)

	err = steps.ExecuteAndCompare(ctx, users.PrepareCreate("localhost", "Alice", "Engineer", "fail"),
		"Alice", contractsteps.MatchHTTPResponseByBody)

	var nre *contractsteps.NoResponseError

	require.True(t, errors.As(err, &nre))
	assert.ErrorIs(t, err, transportErr)
	assert.False(t, errors.As(err, &af))

	err = steps.ExecuteAndCompare(ctx, users.PrepareCreate("", "Alice", "Engineer", "t"),
		"Alice", contractsteps.MatchHTTPResponseByBody)
	assert.ErrorIs(t, err, contractsteps.ErrEmptyAddress)
}

func TestNewSteps_defaultTransport(t *testing.T) {
	logger := zaptest.NewLogger(t)

	steps := contractsteps.NewSteps(func(s *contractsteps.Steps) {
		s.Logger = logger
	})

	tr, ok := steps.Transport.(*contractsteps.HTTPTransport)
	require.True(t, ok)
	assert.Same(t, logger, tr.Logger)
	assert.Same(t, http.DefaultClient, tr.Client)

	steps = contractsteps.NewSteps(func(s *contractsteps.Steps) {
		s.Transport = nil
		s.Logger = nil
	})

	require.NotNil(t, steps.Logger)
	tr, ok = steps.Transport.(*contractsteps.HTTPTransport)
	require.True(t, ok)
	assert.Same(t, steps.Logger, tr.Logger)
}

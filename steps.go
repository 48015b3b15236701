package contractsteps

import (
	"context"
	"fmt"
	"net/http"

	"github.com/cucumber/godog"
	"github.com/swaggest/assertjson/json5"
	"go.uber.org/zap"
)

// Default scenario property keys.
const (
	DefaultAddressKey = "reqresin.address"
	DefaultTokenKey   = "token"
)

// NewSteps creates an instance of step-driven user service contract checks.
//
// If options do not set Transport, HTTPTransport with default client and Steps.Logger is used.
func NewSteps(options ...func(*Steps)) *Steps {
	s := Steps{
		Users:      NewUserService(),
		Logger:     zap.NewNop(),
		AddressKey: DefaultAddressKey,
		TokenKey:   DefaultTokenKey,
	}

	for _, o := range options {
		o(&s)
	}

	if s.Logger == nil {
		s.Logger = zap.NewNop()
	}

	if s.Transport == nil {
		s.Transport = &HTTPTransport{Client: http.DefaultClient, Logger: s.Logger}
	}

	return &s
}

// Steps binds scenario phrases to user service requests and response checks.
//
// Steps is not modified after construction and can serve concurrent scenarios,
// scenario state is carried by context.
type Steps struct {
	Transport Transport
	Users     UserService
	Logger    *zap.Logger

	// Properties are default scenario properties, they are set before each scenario.
	Properties map[string]string

	AddressKey string
	TokenKey   string
}

type step struct {
	pattern string
	handler interface{}
}

func (s *Steps) table() []step {
	return []step{
		{`^scenario property "([^"]*)" is "([^"]*)"$`, s.scenarioPropertyIs},
		{`^scenario properties are loaded from file "([^"]*)"$`, s.scenarioPropertiesAreLoadedFromFile},

		{`^Create user with name=(.*?), job=(.*?) and check response=(.*)$`, s.createUserAndCompare},
		{`^Create user with name=(.*?), job=(.*?) and check response!=(.*)$`, s.createUserAndCompareNegative},
		{`^Create user with name=(.*?), job=(.*?) and check response status=(.*)$`, s.createUserAndCompareStatus},
		{`^Create user with name=(.*?), job=(.*?) and check response matches JSON$`, s.createUserAndCompareJSON},
		{`^Create user with request=(.*) and check response=(.*)$`, s.createUserWithRequestAndCompare},
		{`^Create user with request body and check response=(.*)$`, s.createUserWithRequestBodyAndCompare},
	}
}

// RegisterSteps adds user service steps to godog scenario context.
//
// Scenario Properties
//
// Target address and authorization token are read from scenario properties, keys are configured
// with Steps.AddressKey and Steps.TokenKey (`reqresin.address` and `token` by default).
// Steps.Properties are applied before each scenario, properties can also be set with steps.
//
//	Given scenario property "reqresin.address" is "localhost:8080"
//	And scenario property "token" is "Bearer abc"
//
// Or loaded from a YAML file, nested keys are joined with dots.
//
//	Given scenario properties are loaded from file "_testdata/properties.yaml"
//
// Missing address or token fails the step before request is sent.
//
// User Creation
//
// User can be created with name and job, request body is resolved from
// `{"name": "#[name]", "job": "#[job]"}`. Response body is then checked to contain expected value.
//
//	Then Create user with name=Alice, job=Engineer and check response="name":"Alice"
//
// Or to not contain it.
//
//	Then Create user with name=Alice, job=Engineer and check response!=Bob
//
// Response status can be checked with phrase or numeric code.
//
//	Then Create user with name=Alice, job=Engineer and check response status=Created
//
// Response body can be checked as JSON5 document, values set to `"<ignore-diff>"` are not compared.
//
//	Then Create user with name=Alice, job=Engineer and check response matches JSON
//	"""
//	{"name":"Alice","job":"Engineer","id":"<ignore-diff>"}
//	"""
//
// Request body can be sent as is, without template.
//
//	Then Create user with request={"name":"X"} and check response=X
//
// Or with a doc string, valid JSON5 is converted to JSON before use.
//
//	Then Create user with request body and check response=X
//	"""
//	// Comments are allowed.
//	{"name":"X"}
//	"""
func (s *Steps) RegisterSteps(sc *godog.ScenarioContext) {
	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		for k, v := range s.Properties {
			ctx = SetProperty(ctx, k, v)
		}

		return ctx, nil
	})

	for _, st := range s.table() {
		sc.Step(st.pattern, st.handler)
	}
}

func (s *Steps) scenarioPropertyIs(ctx context.Context, key, value string) (context.Context, error) {
	return SetProperty(ctx, key, value), nil
}

func (s *Steps) scenarioPropertiesAreLoadedFromFile(ctx context.Context, filePath string) (context.Context, error) {
	props, err := LoadProperties(filePath)
	if err != nil {
		return ctx, err
	}

	for k, v := range props {
		ctx = SetProperty(ctx, k, v)
	}

	return ctx, nil
}

// scenario resolves target address and token of current scenario.
func (s *Steps) scenario(ctx context.Context) (*Scenario, error) {
	_, props := PropsFromContext(ctx)

	values, err := props.Require(s.AddressKey, s.TokenKey)
	if err != nil {
		return nil, err
	}

	return &Scenario{Address: values[0], Token: values[1]}, nil
}

func (s *Steps) createUserAndCompare(ctx context.Context, name, job, expected string) error {
	return s.createUser(ctx, name, job, expected, MatchHTTPResponseByBody)
}

func (s *Steps) createUserAndCompareNegative(ctx context.Context, name, job, expected string) error {
	return s.createUser(ctx, name, job, expected, DoNotMatchHTTPResponseByBody)
}

func (s *Steps) createUserAndCompareStatus(ctx context.Context, name, job, expected string) error {
	return s.createUser(ctx, name, job, expected, MatchHTTPResponseByStatus)
}

func (s *Steps) createUserAndCompareJSON(ctx context.Context, name, job string, expected *godog.DocString) error {
	return s.createUser(ctx, name, job, expected.Content, MatchHTTPResponseByJSONBody)
}

func (s *Steps) createUser(ctx context.Context, name, job, expected string, cond Condition) error {
	sc, err := s.scenario(ctx)
	if err != nil {
		return err
	}

	return s.ExecuteAndCompare(ctx, s.Users.PrepareCreate(sc.Address, name, job, sc.Token), expected, cond)
}

func (s *Steps) createUserWithRequestAndCompare(ctx context.Context, request, expected string) error {
	sc, err := s.scenario(ctx)
	if err != nil {
		return err
	}

	return s.ExecuteAndCompare(ctx, s.Users.PrepareCreateRaw(sc.Address, request, sc.Token), expected, MatchHTTPResponseByBody)
}

func (s *Steps) createUserWithRequestBodyAndCompare(ctx context.Context, expected string, bodyDoc *godog.DocString) error {
	sc, err := s.scenario(ctx)
	if err != nil {
		return err
	}

	body, err := loadBody(bodyDoc.Content)
	if err != nil {
		return err
	}

	return s.ExecuteAndCompare(ctx, s.Users.PrepareCreateRaw(sc.Address, body, sc.Token), expected, MatchHTTPResponseByBody)
}

// ExecuteAndCompare builds request, sends it and checks response with condition.
//
// Failed check is returned as *AssertionFailure.
func (s *Steps) ExecuteAndCompare(ctx context.Context, b *RequestBuilder, expected string, cond Condition) error {
	req, err := b.Build()
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := Send(ctx, s.Transport, req)
	if err != nil {
		return err
	}

	out, err := Compare(resp, expected, cond)
	if err != nil {
		return err
	}

	if !out.Passed && s.Logger != nil {
		s.Logger.Info("response check failed",
			zap.String("condition", cond.String()),
			zap.String("method", req.Method),
			zap.String("url", req.URL()),
			zap.Int("status", resp.StatusCode))
	}

	return out.Err()
}

func loadBody(body string) (string, error) {
	b := []byte(body)

	if json5.Valid(b) {
		var err error

		if b, err = json5.Downgrade(b); err != nil {
			return "", fmt.Errorf("failed to downgrade JSON5 to JSON: %w", err)
		}
	}

	return string(b), nil
}

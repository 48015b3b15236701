package contractsteps

import (
	"fmt"
	"net/http"
	"strings"
)

var standardMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodHead:    true,
	http.MethodPost:    true,
	http.MethodPut:     true,
	http.MethodPatch:   true,
	http.MethodDelete:  true,
	http.MethodConnect: true,
	http.MethodOptions: true,
	http.MethodTrace:   true,
}

// Request is a resolved HTTP request ready to be sent.
//
// Fields are read-only, headers are only available as a copy.
type Request struct {
	Address string
	Path    string
	Method  string
	Body    string

	header map[string]string
	sent   bool
}

// Header returns a copy of request headers with canonical keys.
func (r *Request) Header() map[string]string {
	return copyHeader(r.header)
}

func copyHeader(h map[string]string) map[string]string {
	res := make(map[string]string, len(h))
	for k, v := range h {
		res[k] = v
	}

	return res
}

// URL returns absolute request URL.
func (r *Request) URL() string {
	return r.Address + r.Path
}

// RequestBuilder composes a Request.
//
// Builder is single-use and must not be shared, after successful Build any call fails
// with *BuilderFinalizedError, available with Err and Build.
// The first configuration error is retained.
type RequestBuilder struct {
	address string
	path    string
	method  string
	header  map[string]string
	body    string

	err       error
	finalized bool
}

// NewRequestBuilder creates an instance of request builder.
func NewRequestBuilder() *RequestBuilder {
	return &RequestBuilder{
		header: make(map[string]string),
	}
}

func (b *RequestBuilder) mutable(op string) bool {
	if b.finalized {
		if b.err == nil {
			b.err = &BuilderFinalizedError{Op: op}
		}

		return false
	}

	return b.err == nil
}

// Err returns the first configuration error or *BuilderFinalizedError of a call after Build.
func (b *RequestBuilder) Err() error {
	return b.err
}

// Address sets base address, `http://` is assumed when scheme is missing.
func (b *RequestBuilder) Address(address string) *RequestBuilder {
	if b.mutable("address") {
		b.address = address
	}

	return b
}

// Path sets request path.
func (b *RequestBuilder) Path(path string) *RequestBuilder {
	if b.mutable("path") {
		b.path = path
	}

	return b
}

// Method sets HTTP method.
func (b *RequestBuilder) Method(method string) *RequestBuilder {
	if b.mutable("method") {
		b.method = strings.ToUpper(method)
	}

	return b
}

// Header sets request header, later calls for the same key override earlier ones.
func (b *RequestBuilder) Header(key, value string) *RequestBuilder {
	if b.mutable("header") {
		b.header[http.CanonicalHeaderKey(key)] = value
	}

	return b
}

// Body sets raw request body.
func (b *RequestBuilder) Body(body string) *RequestBuilder {
	if b.mutable("body") {
		b.body = body
	}

	return b
}

// BodyTemplate sets request body resolved from template with ReplaceProps.
func (b *RequestBuilder) BodyTemplate(template string, props Props) *RequestBuilder {
	return b.bodyTemplate(template, props, ReplaceProps)
}

// JSONBodyTemplate sets request body resolved from template with ReplaceJSONProps.
func (b *RequestBuilder) JSONBodyTemplate(template string, props Props) *RequestBuilder {
	return b.bodyTemplate(template, props, ReplaceJSONProps)
}

func (b *RequestBuilder) bodyTemplate(template string, props Props, replace func(string, Props) (string, error)) *RequestBuilder {
	if !b.mutable("body") {
		return b
	}

	body, err := replace(template, props)
	if err != nil {
		b.err = fmt.Errorf("failed to resolve body template: %w", err)

		return b
	}

	b.body = body

	return b
}

// Build validates configuration and finalizes the builder.
func (b *RequestBuilder) Build() (*Request, error) {
	if b.finalized {
		if b.err == nil {
			b.err = &BuilderFinalizedError{Op: "build"}
		}

		return nil, b.err
	}

	if b.err != nil {
		return nil, b.err
	}

	address := strings.TrimSpace(b.address)
	if address == "" {
		return nil, ErrEmptyAddress
	}

	if !strings.HasPrefix(address, "http://") && !strings.HasPrefix(address, "https://") {
		address = "http://" + address
	}

	address = strings.TrimRight(address, "/")

	path := b.path
	if path == "" {
		return nil, ErrEmptyPath
	}

	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	if !standardMethods[b.method] {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMethod, b.method)
	}

	b.finalized = true

	return &Request{
		Address: address,
		Path:    path,
		Method:  b.method,
		Body:    b.body,
		header:  copyHeader(b.header),
	}, nil
}

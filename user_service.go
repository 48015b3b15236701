package contractsteps

import "net/http"

const (
	// UsersPath is a path of user creation endpoint.
	UsersPath = "/api/users"

	// RequestBodyTemplate is a body of user creation request.
	RequestBodyTemplate = `{"name": "#[name]", "job": "#[job]"}`
)

// RestService describes defaults of an HTTP service, independently of godog.
type RestService struct {
	DefaultPath    string
	DefaultHeaders map[string]string
}

// Builder returns request builder with service defaults.
func (s RestService) Builder() *RequestBuilder {
	b := NewRequestBuilder().Path(s.DefaultPath)

	for k, v := range s.DefaultHeaders {
		b.Header(k, v)
	}

	return b
}

// UserService describes user management endpoints.
type UserService struct {
	RestService
}

// NewUserService creates user service description with JSON defaults.
func NewUserService() UserService {
	return UserService{
		RestService: RestService{
			DefaultPath: UsersPath,
			DefaultHeaders: map[string]string{
				"Content-Type": "application/json",
			},
		},
	}
}

// PrepareCreate prepares user creation request with body resolved from name and job.
func (s UserService) PrepareCreate(address, name, job, token string) *RequestBuilder {
	return s.prepareCreate(address, token).
		JSONBodyTemplate(RequestBodyTemplate, Props{"name": name, "job": job})
}

// PrepareCreateRaw prepares user creation request with verbatim body.
func (s UserService) PrepareCreateRaw(address, requestBody, token string) *RequestBuilder {
	return s.prepareCreate(address, token).Body(requestBody)
}

func (s UserService) prepareCreate(address, token string) *RequestBuilder {
	return s.Builder().
		Address(address).
		Path(UsersPath).
		Method(http.MethodPost).
		Header("Authorization", token)
}

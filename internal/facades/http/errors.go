package http

import "fmt"

// maxErrorBody caps how much of a response body ends up in an error message.
const maxErrorBody = 256

// ConfigurationError is returned when the transport of a client cannot be built.
type ConfigurationError struct {
	Err error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("realtime client configuration: %v", e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// RequestError is returned when the HTTP exchange failed or completed with a
// non-2xx status. Err is set for transport failures, StatusCode and Body otherwise.
type RequestError struct {
	URL        string
	StatusCode int
	Body       []byte
	Err        error
}

func (e *RequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("request %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("request %s: unexpected status %d: %s", e.URL, e.StatusCode, truncate(e.Body))
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// DecodeError is returned when a response body does not match the expected shape.
type DecodeError struct {
	URL  string
	Body []byte
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func truncate(body []byte) string {
	if len(body) > maxErrorBody {
		return string(body[:maxErrorBody]) + "..."
	}
	return string(body)
}

package envelope

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// APIError is returned for responses with a status of 400 or above. Body
// holds the decoded error body, or the raw text when it was not JSON.
type APIError struct {
	StatusCode int
	Method     string
	URL        string
	Body       any
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.StatusCode, e.Message())
}

// Message returns the body message, or DefaultMessage.
func (e *APIError) Message() string {
	return ExtractMessage(e.Body)
}

// Errors returns the body field errors.
func (e *APIError) Errors() []string {
	return ExtractErrors(e.Body)
}

// IsUnauthorized reports a 401, which means the session token expired.
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// NewAPIError builds an APIError from a raw response body.
func NewAPIError(statusCode int, method, url string, body []byte) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Method:     method,
		URL:        url,
		Body:       decodeLoose(body),
	}
}

// APIErrorMessage picks the message to show the user for err: the first field
// error, then the body message unless it is the generic DefaultMessage, then
// fallback.
func APIErrorMessage(err error, fallback string) string {
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr == nil {
		return fallback
	}
	if errs := apiErr.Errors(); len(errs) > 0 && errs[0] != "" {
		return errs[0]
	}
	if msg := apiErr.Message(); msg != DefaultMessage {
		return msg
	}
	return fallback
}

// Decode unwraps a JSON body with ExtractData and decodes the payload into T.
// An empty body yields the zero value.
func Decode[T any](body []byte) (T, error) {
	var out T
	err := DecodeInto(body, &out)
	return out, err
}

// DecodeInto is Decode for a caller supplied pointer. out is left untouched
// when the body or its payload is empty.
func DecodeInto(body []byte, out any) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	var raw any
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}

	inner := ExtractData(raw)
	if inner == nil {
		return nil
	}
	b, err := json.Marshal(inner)
	if err != nil {
		return fmt.Errorf("re-encode payload: %w", err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}

// decodeLoose decodes JSON when it can and falls back to the trimmed text.
func decodeLoose(body []byte) any {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil
	}
	var v any
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return string(trimmed)
	}
	return v
}

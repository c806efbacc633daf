// Package envelope normalizes the response and error bodies returned by the
// finance backend.
//
// Backends wrap their payload in different ways: {"dados": ...},
// {"data": ...}, a transport wrapper around either of those, or no wrapper at
// all. Messages and field errors come in portuguese or english spellings. The
// functions here resolve those shapes with a fixed priority list and never
// fail on an unexpected shape; they degrade to documented defaults instead.
package envelope

import (
	"fmt"
)

// DefaultMessage is returned by ExtractMessage when the body carries no message.
const DefaultMessage = "Ocorreu um erro inesperado."

// Field names in priority order.
const (
	fieldData     = "data"
	fieldDados    = "dados"
	fieldMensagem = "mensagem"
	fieldMessage  = "message"
	fieldErros    = "erros"
	fieldErrors   = "errors"
)

// Envelope is the static shape of a wrapped body, for callers that decode
// into a struct instead of going through the extractors.
type Envelope[T any] struct {
	Sucesso  *bool    `json:"sucesso,omitempty"`
	Mensagem string   `json:"mensagem,omitempty"`
	Message  string   `json:"message,omitempty"`
	Dados    *T       `json:"dados,omitempty"`
	Data     *T       `json:"data,omitempty"`
	Erros    []string `json:"erros,omitempty"`
	Errors   []string `json:"errors,omitempty"`
}

// Payload returns the wrapped value, preferring dados over data.
func (e Envelope[T]) Payload() (T, bool) {
	if e.Dados != nil {
		return *e.Dados, true
	}
	if e.Data != nil {
		return *e.Data, true
	}
	var zero T
	return zero, false
}

// unwrapTransport peels an outer {"data": ...} wrapper when its value is set.
func unwrapTransport(payload any) any {
	obj, ok := payload.(map[string]any)
	if !ok {
		return payload
	}
	if inner, ok := obj[fieldData]; ok && inner != nil {
		return inner
	}
	return payload
}

// ExtractData returns the innermost payload of a body. It tries "dados", then
// "data", then returns the value itself. A nil payload is returned unchanged.
func ExtractData(payload any) any {
	if payload == nil {
		return nil
	}
	data := unwrapTransport(payload)
	obj, ok := data.(map[string]any)
	if !ok {
		return data
	}
	if v, ok := obj[fieldDados]; ok {
		return v
	}
	if v, ok := obj[fieldData]; ok {
		return v
	}
	return data
}

// ExtractMessage returns "mensagem", then "message", then DefaultMessage.
func ExtractMessage(payload any) string {
	obj, ok := unwrapTransport(payload).(map[string]any)
	if !ok {
		return DefaultMessage
	}
	for _, field := range []string{fieldMensagem, fieldMessage} {
		if s, ok := obj[field].(string); ok && s != "" {
			return s
		}
	}
	return DefaultMessage
}

// ExtractErrors returns the field errors under "erros" or "errors". A single
// string becomes a one element slice; anything else yields an empty slice.
func ExtractErrors(payload any) []string {
	obj, ok := unwrapTransport(payload).(map[string]any)
	if !ok {
		return []string{}
	}

	raw, ok := obj[fieldErros]
	if !ok || raw == nil {
		raw = obj[fieldErrors]
	}

	switch v := raw.(type) {
	case string:
		return []string{v}
	case []string:
		return append([]string{}, v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if item == nil {
				continue
			}
			if s, ok := item.(string); ok {
				out = append(out, s)
				continue
			}
			out = append(out, fmt.Sprint(item))
		}
		return out
	default:
		return []string{}
	}
}

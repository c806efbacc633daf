package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldSuccess    = "success"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldRouteKey   = "route_key"
	FieldBaseURL    = "base_url"
	FieldCandidate  = "candidate"
	FieldURL        = "url"
	FieldSource     = "source"
	FieldStore      = "store"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentResolver = "resolver"
	ComponentClient   = "client"
	ComponentStorage  = "storage"
	ComponentCache    = "cache"
	ComponentAMQP     = "amqp"
	ComponentDiag     = "diag"
	ComponentWorker   = "worker"
	ComponentBackend  = "backend"
)

// Operations defines standard operation names
const (
	OpProbe      = "probe"
	OpInvalidate = "invalidate"
	OpReset      = "reset"
	OpPublish    = "publish"
	OpRequest    = "request"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithRoute adds the route key and the base URL it is resolved against
func (f LogFields) WithRoute(key, baseURL string) LogFields {
	f[FieldRouteKey] = key
	f[FieldBaseURL] = baseURL
	return f
}

// WithHTTPRequest adds HTTP request fields
func (f LogFields) WithHTTPRequest(method, path string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	return f
}

// WithHTTPResponse adds HTTP response fields
func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = statusCode > 0 && statusCode < 400
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// RequestIDHeader carries the request id in both directions
const RequestIDHeader = "X-Request-ID"

// cloudTraceHeader is set by Google front ends as TRACE_ID/SPAN_ID;o=OPTIONS
const cloudTraceHeader = "X-Cloud-Trace-Context"

const maxRequestIDLen = 128

type requestIDKey struct{}

// RequestID tags every request with an id that ends up in the response
// header and in every log line. A well-formed caller id is kept. Otherwise
// the Cloud trace id is reused, so collection logs line up with the trace of
// a Cloud Scheduler or Cloud Run invocation. A uuid is the fallback.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(RequestIDHeader)
			if !validRequestID(id) {
				id = traceID(r.Header.Get(cloudTraceHeader))
			}
			if id == "" {
				id = uuid.NewString()
			}

			w.Header().Set(RequestIDHeader, id)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
		})
	}
}

// GetRequestID returns the id RequestID assigned to r, or ""
func GetRequestID(r *http.Request) string {
	id, _ := r.Context().Value(requestIDKey{}).(string)
	return id
}

func traceID(header string) string {
	id, _, _ := strings.Cut(header, "/")
	if !validRequestID(id) {
		return ""
	}
	return id
}

// validRequestID rejects ids that could break log lines or headers
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '_', c == '.', c == ':':
		default:
			return false
		}
	}
	return true
}

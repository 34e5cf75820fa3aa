package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/LizBugFree/network-monitor-demo/internal/pkg/errors"
	"github.com/LizBugFree/network-monitor-demo/internal/pkg/logger"
	"github.com/LizBugFree/network-monitor-demo/internal/pkg/utils"
)

// Recovery returns a middleware that turns a panic into a 500 response
func Recovery(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.WithFields(map[string]interface{}{
						"error":      rec,
						"stack":      string(debug.Stack()),
						"method":     r.Method,
						"path":       r.URL.Path,
						"request_id": GetRequestID(r),
					}).Error("Panic recovered")

					utils.WriteError(w, errors.Internal("Internal server error", fmt.Errorf("panic: %v", rec)))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

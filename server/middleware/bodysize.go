package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/kbukum/canvasflow/util"
)

const defaultMaxBodySize = 25 << 20

// BodySizeLimit rejects requests whose declared Content-Length exceeds
// maxSize ("10MB", "512KB") and caps the rest with http.MaxBytesReader, so
// chunked uploads fail on read instead.
func BodySizeLimit(maxSize string) Middleware {
	limit := util.ParseSize(maxSize, defaultMaxBodySize)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Connection", "close")
				w.WriteHeader(http.StatusRequestEntityTooLarge)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"error": fmt.Sprintf("Request body exceeds %s", maxSize),
				})
				return
			}
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}

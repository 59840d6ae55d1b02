package metrics

import (
	"fmt"
	"net/http"
	"time"
)

type RequestSample struct {
	Path      string
	Method    string
	Status    int
	Latency   time.Duration
	Timestamp time.Time
}

func (s RequestSample) String() string {
	return fmt.Sprintf("%s %s status=%d duration=%s", s.Method, s.Path, s.Status, s.Latency)
}

// StatusRecorder captures the status code written by a handler.
type StatusRecorder struct {
	http.ResponseWriter
	Status int
}

func NewStatusRecorder(w http.ResponseWriter) *StatusRecorder {
	return &StatusRecorder{ResponseWriter: w, Status: http.StatusOK}
}

func (r *StatusRecorder) WriteHeader(status int) {
	r.Status = status
	r.ResponseWriter.WriteHeader(status)
}

// Observe runs next and reports a sample once it returns.
func Observe(next http.Handler, report func(RequestSample)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := NewStatusRecorder(w)
		next.ServeHTTP(rec, r)
		report(RequestSample{
			Path:      r.URL.Path,
			Method:    r.Method,
			Status:    rec.Status,
			Latency:   time.Since(start),
			Timestamp: start,
		})
	})
}

package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
)

// Middleware returns an interceptor that records request counts and latency
// in the aggregator. It invokes the next handler synchronously and never
// alters the response; an unwritten status counts as 200. It composes with
// any other net/http middleware in either order.
func (a *Aggregator) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			timer := a.RecordRequestStart(req.Method, req.URL.Path)
			recorder := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(recorder, req)
			status := recorder.status
			if status == 0 {
				status = http.StatusOK
			}
			timer.Finish(status)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if sr.status == 0 {
		sr.status = http.StatusOK
	}
	return sr.ResponseWriter.Write(b)
}

func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (sr *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := sr.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, errors.New("hijacker not supported")
}

package logship

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"

	"github.com/google/uuid"
)

// maxBodyCapture bounds how much of a request or response body one log line
// carries.
const maxBodyCapture = 4096

// Middleware returns an interceptor that emits one structured log line per
// request: method, path, whether an Authorization header was present, the
// request and response bodies, status, and elapsed time. It invokes the next
// handler synchronously and never alters the response. It composes with any
// other net/http middleware in either order.
func (s *Shipper) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			start := s.now()
			requestBody := captureRequestBody(req)
			recorder := &bodyRecorder{ResponseWriter: w, limit: maxBodyCapture}
			next.ServeHTTP(recorder, req)

			status := recorder.status
			if status == 0 {
				status = http.StatusOK
			}
			level := "info"
			switch {
			case status >= http.StatusInternalServerError:
				level = "error"
			case status >= http.StatusBadRequest:
				level = "warn"
			}
			s.Send(level, "http", "http request", map[string]any{
				"request_id":    uuid.NewString(),
				"method":        req.Method,
				"path":          req.URL.Path,
				"authorized":    req.Header.Get("Authorization") != "",
				"status":        status,
				"duration_ms":   s.now().Sub(start).Milliseconds(),
				"request_body":  requestBody,
				"response_body": decodeBody(recorder.buf.Bytes()),
			})
		})
	}
}

// captureRequestBody reads up to maxBodyCapture bytes of the body and
// restores req.Body so the handler still sees the full stream.
func captureRequestBody(req *http.Request) any {
	if req.Body == nil || req.Body == http.NoBody {
		return nil
	}
	buf := make([]byte, maxBodyCapture)
	n, _ := io.ReadFull(req.Body, buf)
	captured := buf[:n]
	rest := req.Body
	req.Body = readCloser{
		Reader: io.MultiReader(bytes.NewReader(captured), rest),
		Closer: rest,
	}
	return decodeBody(captured)
}

// decodeBody returns the JSON value of a captured body when it parses, so the
// sanitizer can walk it; otherwise the raw text.
func decodeBody(captured []byte) any {
	if len(captured) == 0 {
		return nil
	}
	var value any
	if err := json.Unmarshal(captured, &value); err == nil {
		return value
	}
	return string(captured)
}

type readCloser struct {
	io.Reader
	io.Closer
}

type bodyRecorder struct {
	http.ResponseWriter
	status int
	limit  int
	buf    bytes.Buffer
}

func (br *bodyRecorder) WriteHeader(code int) {
	br.status = code
	br.ResponseWriter.WriteHeader(code)
}

func (br *bodyRecorder) Write(b []byte) (int, error) {
	if br.status == 0 {
		br.status = http.StatusOK
	}
	if remaining := br.limit - br.buf.Len(); remaining > 0 {
		chunk := b
		if len(chunk) > remaining {
			chunk = chunk[:remaining]
		}
		br.buf.Write(chunk)
	}
	return br.ResponseWriter.Write(b)
}

func (br *bodyRecorder) Flush() {
	if f, ok := br.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (br *bodyRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := br.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, errors.New("hijacker not supported")
}

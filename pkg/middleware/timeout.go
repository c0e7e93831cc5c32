package middleware

import (
	"bytes"
	"context"
	"net/http"
	"sync"
	"time"

	apperrors "itemshare/pkg/errors"
	httputil "itemshare/pkg/http"
)

// bufferedWriter holds the handler's response until the middleware decides
// whether it or the timeout answers the request.
type bufferedWriter struct {
	mu       sync.Mutex
	header   http.Header
	body     bytes.Buffer
	status   int
	timedOut bool
}

func (bw *bufferedWriter) Header() http.Header {
	return bw.header
}

func (bw *bufferedWriter) WriteHeader(code int) {
	bw.mu.Lock()
	defer bw.mu.Unlock()
	if bw.timedOut || bw.status != 0 {
		return
	}
	bw.status = code
}

func (bw *bufferedWriter) Write(b []byte) (int, error) {
	bw.mu.Lock()
	defer bw.mu.Unlock()
	if bw.timedOut {
		return 0, http.ErrHandlerTimeout
	}
	if bw.status == 0 {
		bw.status = http.StatusOK
	}
	return bw.body.Write(b)
}

// RequestTimeout bounds each request by timeout and answers 504 when the
// handler overruns. Panics in the handler are re-raised on the serving
// goroutine so Recovery still sees them.
func RequestTimeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if timeout <= 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			bw := &bufferedWriter{header: make(http.Header)}
			done := make(chan struct{})
			panicked := make(chan any, 1)

			go func() {
				defer func() {
					if p := recover(); p != nil {
						panicked <- p
					}
				}()
				next.ServeHTTP(bw, r.WithContext(ctx))
				close(done)
			}()

			select {
			case p := <-panicked:
				panic(p)
			case <-done:
				bw.mu.Lock()
				defer bw.mu.Unlock()
				dst := w.Header()
				for name, values := range bw.header {
					dst[name] = values
				}
				if bw.status == 0 {
					bw.status = http.StatusOK
				}
				w.WriteHeader(bw.status)
				_, _ = w.Write(bw.body.Bytes())
			case <-ctx.Done():
				bw.mu.Lock()
				bw.timedOut = true
				bw.mu.Unlock()
				_ = httputil.WriteError(w, apperrors.Timeout("Request timed out"))
			}
		})
	}
}

package transport

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/rhuss/vdbconsole/pkg/api"
)

// Recovery returns middleware that catches panics in the handler and
// converts them to server error responses. The server continues to
// accept new requests after a panic is recovered.
func Recovery() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w}
			defer func() {
				p := recover()
				if p == nil {
					return
				}
				if p == http.ErrAbortHandler {
					panic(p)
				}
				slog.Error("handler panic", "path", r.URL.Path, "panic", p)
				if !rec.written() {
					WriteAPIError(rec, api.NewServerError(fmt.Sprintf("internal server error: %v", p)))
				}
			}()
			next.ServeHTTP(rec, r)
		})
	}
}

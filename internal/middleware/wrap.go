package middleware

import (
	"fmt"
	"html"
	"net/http"
)

// ResponseRecorder wraps ResponseWriter, captures the status code, and can
// run a hook just before the first byte or header is written. The session
// layer uses the hook to set its cookie while headers are still mutable.
type ResponseRecorder struct {
	http.ResponseWriter
	status      int
	wrote       bool
	beforeWrite func(http.ResponseWriter)
}

func NewResponseRecorder(w http.ResponseWriter) *ResponseRecorder {
	return &ResponseRecorder{ResponseWriter: w, status: http.StatusOK}
}

// SetBeforeWrite registers fn to run once, right before the response starts.
func (rw *ResponseRecorder) SetBeforeWrite(fn func(http.ResponseWriter)) {
	rw.beforeWrite = fn
}

func (rw *ResponseRecorder) WriteHeader(statusCode int) {
	rw.start()
	rw.status = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

func (rw *ResponseRecorder) Write(b []byte) (int, error) {
	rw.start()
	return rw.ResponseWriter.Write(b)
}

func (rw *ResponseRecorder) start() {
	if rw.wrote {
		return
	}
	rw.wrote = true
	if rw.beforeWrite != nil {
		rw.beforeWrite(rw.ResponseWriter)
	}
}

func (rw *ResponseRecorder) Status() int { return rw.status }

// Wrote reports whether the response has started.
func (rw *ResponseRecorder) Wrote() bool { return rw.wrote }

// denyRequest rejects a request with the given status. Fragment requests get
// the message in the same errors-list markup the page templates render, so an
// htmx swap target shows it in place; full navigations get a plain text error.
func denyRequest(w http.ResponseWriter, r *http.Request, code int, msg string) {
	if IsFragment(r.Context()) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(code)
		_, _ = fmt.Fprintf(w, `<ul class="errors"><li>%s</li></ul>`, html.EscapeString(msg))
		return
	}
	http.Error(w, msg, code)
}

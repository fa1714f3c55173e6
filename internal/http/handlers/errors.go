package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"runtime"
	"strconv"
	"strings"

	"pilex/internal/http/middleware"
	"pilex/internal/http/render"
)

// ErrorPageTitle is the title of the diagnostic page.
const ErrorPageTitle = "An error has occured!"

// HandlerFunc is an http.HandlerFunc that returns its error to Handle.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// StatusError carries the HTTP status of a handler error and the frame that
// raised it.
type StatusError struct {
	Code  int
	Err   error
	Frame runtime.Frame
}

func (e *StatusError) Error() string { return e.Err.Error() }

func (e *StatusError) Unwrap() error { return e.Err }

func withStatus(code int, err error) *StatusError {
	return &StatusError{Code: code, Err: err, Frame: callerFrame(2)}
}

// NotFound marks err as a 404.
func NotFound(err error) error {
	return withStatus(http.StatusNotFound, err)
}

// BadRequest marks err as a 400.
func BadRequest(err error) error {
	return withStatus(http.StatusBadRequest, err)
}

// callerFrame returns the frame skip levels above its caller.
func callerFrame(skip int) runtime.Frame {
	pcs := make([]uintptr, 1)
	if runtime.Callers(skip+2, pcs) == 0 {
		return runtime.Frame{}
	}
	frame, _ := runtime.CallersFrames(pcs).Next()
	return frame
}

// panicFrame returns the frame that panicked. It must be called from the
// deferred function that recovered.
func panicFrame() runtime.Frame {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(1, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	panicking := false
	for {
		frame, more := frames.Next()
		if frame.Function == "runtime.gopanic" {
			panicking = true
		} else if panicking && !strings.HasPrefix(frame.Function, "runtime.") {
			return frame
		}
		if !more {
			return runtime.Frame{}
		}
	}
}

// handlerFrame describes the entry of fn, used when an error carries no frame.
func handlerFrame(fn HandlerFunc) runtime.Frame {
	f := runtime.FuncForPC(reflect.ValueOf(fn).Pointer())
	if f == nil {
		return runtime.Frame{}
	}
	file, line := f.FileLine(f.Entry())
	return runtime.Frame{Function: f.Name(), File: file, Line: line}
}

func formatFrame(f runtime.Frame) string {
	if f.Function == "" {
		return ""
	}
	return fmt.Sprintf("%s (%s:%d)", f.Function, f.File, f.Line)
}

// ErrorInfo is what the diagnostic page shows and the error record logs.
type ErrorInfo struct {
	Class   string
	Message string
	Code    string
	Trace   string
}

func rootCause(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}

func errorInfo(err error, fallback runtime.Frame) (ErrorInfo, int) {
	code := http.StatusInternalServerError
	frame := fallback

	var se *StatusError
	if errors.As(err, &se) {
		code = se.Code
		if se.Frame.Function != "" {
			frame = se.Frame
		}
	}

	return ErrorInfo{
		Class:   fmt.Sprintf("%T", rootCause(err)),
		Message: err.Error(),
		Code:    strconv.Itoa(code),
		Trace:   formatFrame(frame),
	}, code
}

// Handle adapts fn to http.Handler. Returned errors and panics are logged as
// one error record and rendered as the diagnostic page.
func (d *Deps) Handle(fn HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				if v == http.ErrAbortHandler {
					panic(v)
				}
				info := ErrorInfo{
					Class:   fmt.Sprintf("%T", v),
					Message: fmt.Sprint(v),
					Code:    strconv.Itoa(http.StatusInternalServerError),
					Trace:   formatFrame(panicFrame()),
				}
				d.fail(w, r, http.StatusInternalServerError, info)
			}
		}()

		if err := fn(w, r); err != nil {
			info, code := errorInfo(err, handlerFrame(fn))
			d.fail(w, r, code, info)
		}
	})
}

func (d *Deps) fail(w http.ResponseWriter, r *http.Request, code int, info ErrorInfo) {
	d.Logger.Error("request failed",
		slog.String("request_id", middleware.RequestIDFrom(r.Context())),
		slog.String("class", info.Class),
		slog.String("message", info.Message),
		slog.String("code", info.Code),
		slog.String("trace", info.Trace),
		slog.String("path", r.URL.Path),
	)

	page := render.Page{Title: ErrorPageTitle, Data: info}
	if err := d.Renderer.Render(w, code, render.PageError, page); err != nil {
		http.Error(w, ErrorPageTitle, code)
	}
}

package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/ErlanBelekov/stockbetting/internal/domain"
	"github.com/ErlanBelekov/stockbetting/internal/requestid"
	"github.com/gin-gonic/gin/render"
)

const (
	errNotFound       = "Not Found"
	errValidation     = "Validation Error"
	errInternal       = "Internal Server Error"
	fallbackMessage   = "An unexpected error occurred"
	contentTypeHeader = "Content-Type"
)

// ErrorEnvelope is the only body shape clients see for failed requests.
type ErrorEnvelope struct {
	Path      string    `json:"path"`
	Status    int       `json:"status"`
	Error     string    `json:"error"`
	Message   *string   `json:"message"`
	Details   []string  `json:"details"`
	Timestamp time.Time `json:"timestamp"`
	TraceID   *string   `json:"traceId"`
}

// panicError carries a recovered panic value through the error path.
type panicError struct {
	value any
	stack []byte
}

func (p *panicError) Error() string { return fmt.Sprint(p.value) }

// ErrorTranslation is the outer failure boundary. It turns returned errors,
// panics, and bare error statuses into exactly one ErrorEnvelope.
type ErrorTranslation struct {
	logger *slog.Logger
	now    func() time.Time
}

func NewErrorTranslation(logger *slog.Logger) *ErrorTranslation {
	return &ErrorTranslation{
		logger: logger.With("component", "error_translation"),
		now:    time.Now,
	}
}

func (s *ErrorTranslation) Name() string { return "error_translation" }

func (s *ErrorTranslation) Serve(ex *Exchange, next Next) error {
	err := callRecovering(ex, next)

	if err != nil {
		status, title, details := classify(err)
		msg := err.Error()
		if msg == "" {
			msg = fallbackMessage
		}
		s.write(ex, status, title, &msg, details)
		s.logAfterFlush(ex, err)
		return nil
	}

	if ex.Status() >= http.StatusBadRequest && ex.BodyLen() == 0 {
		s.write(ex, ex.Status(), http.StatusText(ex.Status()), nil, nil)
	}
	return nil
}

func callRecovering(ex *Exchange, next Next) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			err = &panicError{value: rec, stack: debug.Stack()}
		}
	}()
	return next(ex)
}

// classify maps an error onto status, error title and details.
func classify(err error) (int, string, []string) {
	var (
		notFound   *domain.NotFoundError
		validation *domain.ValidationError
	)
	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound, errNotFound, nil
	case errors.As(err, &validation):
		return http.StatusBadRequest, errValidation, validation.Details
	case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized), nil
	default:
		return http.StatusInternalServerError, errInternal, nil
	}
}

func (s *ErrorTranslation) write(ex *Exchange, status int, title string, msg *string, details []string) {
	env := ErrorEnvelope{
		Path:      ex.Request.URL.Path,
		Status:    status,
		Error:     title,
		Message:   msg,
		Details:   details,
		Timestamp: s.now().UTC(),
	}
	if env.Details == nil {
		env.Details = []string{}
	}
	if trace := ex.Request.Header.Get(requestid.TraceHeader); trace != "" {
		env.TraceID = &trace
	}

	ex.ResetBody()
	ex.SetStatus(status)
	ex.Header().Del(contentTypeHeader)
	if err := (render.JSON{Data: env}).Render(ex); err != nil {
		s.logger.ErrorContext(ex.Request.Context(), "render error envelope", "error", err)
	}
}

// logAfterFlush defers the error log until the response is on the wire.
func (s *ErrorTranslation) logAfterFlush(ex *Exchange, err error) {
	r := ex.Request
	ex.AfterFlush(func() {
		attrs := []any{
			"method", r.Method,
			"uri", r.URL.RequestURI(),
			"error", err.Error(),
		}
		var pe *panicError
		if errors.As(err, &pe) {
			attrs = append(attrs, "panic", true, "stack", string(pe.stack))
		}
		s.logger.ErrorContext(r.Context(), "request failed", attrs...)
	})
}

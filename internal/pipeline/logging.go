package pipeline

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ErlanBelekov/stockbetting/internal/requestid"
)

var redactedHeaders = map[string]struct{}{
	"Authorization": {},
	"Cookie":        {},
	"Set-Cookie":    {},
}

// RequestLogging assigns the correlation id, captures the request body and
// logs one entry before and one after the rest of the chain. The second
// entry is deferred so it is written on every exit path.
type RequestLogging struct {
	logger *slog.Logger
	newID  func() string
	now    func() time.Time
}

func NewRequestLogging(logger *slog.Logger) *RequestLogging {
	return &RequestLogging{
		logger: logger.With("component", "request_logging"),
		newID:  requestid.New,
		now:    time.Now,
	}
}

func (s *RequestLogging) Name() string { return "request_logging" }

func (s *RequestLogging) Serve(ex *Exchange, next Next) error {
	id := s.newID()
	ex.requestID = id
	ex.Header().Set(requestid.Header, id)

	r := ex.Request
	ctx := requestid.WithRequestID(r.Context(), id)
	ctx = requestid.WithTraceID(ctx, r.Header.Get(requestid.TraceHeader))
	ex.Request = r.WithContext(ctx)

	start := s.now()
	captureErr := ex.CaptureRequestBody()

	s.logger.InfoContext(ctx, "incoming request",
		"method", r.Method,
		"uri", r.URL.RequestURI(),
		"headers", headerMap(r.Header),
		"body_bytes", len(ex.RequestBody()),
	)

	defer func() {
		s.logger.InfoContext(ctx, "outgoing response",
			"status", ex.Status(),
			"duration", s.now().Sub(start),
			"headers", headerMap(ex.Header()),
			"body_bytes", ex.BodyLen(),
		)
	}()

	if captureErr != nil {
		return captureErr
	}
	return next(ex)
}

// headerMap flattens h for logging, joining repeated values and hiding
// credentials.
func headerMap(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		if _, secret := redactedHeaders[http.CanonicalHeaderKey(k)]; secret {
			out[k] = "[REDACTED]"
			continue
		}
		out[k] = strings.Join(v, ", ")
	}
	return out
}

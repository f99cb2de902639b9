package pipeline

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/ErlanBelekov/stockbetting/internal/domain"
)

const defaultMaxBody int64 = 1 << 20

// Exchange is the request-scoped buffer shared by every stage. The response
// status and body stay in memory until the pipeline commits them to the real
// writer, which happens exactly once. Headers live in the real writer's
// header map, which stays mutable until commit.
//
// An Exchange is owned by a single request goroutine and is not safe for
// concurrent use.
type Exchange struct {
	Request *http.Request

	w           http.ResponseWriter
	status      int
	body        bytes.Buffer
	headerNow   bool
	requestBody []byte
	captured    bool
	maxBody     int64
	requestID   string

	committed  bool
	afterFlush []func()
}

func newExchange(w http.ResponseWriter, r *http.Request, maxBody int64) *Exchange {
	if maxBody <= 0 {
		maxBody = defaultMaxBody
	}
	return &Exchange{
		Request: r,
		w:       w,
		status:  http.StatusOK,
		maxBody: maxBody,
	}
}

// Header returns the response header map.
func (x *Exchange) Header() http.Header { return x.w.Header() }

// WriteHeader records the status code. Like gin's writer, the status can be
// changed until body bytes have been buffered.
func (x *Exchange) WriteHeader(code int) {
	if code <= 0 || x.body.Len() > 0 {
		return
	}
	x.status = code
}

func (x *Exchange) Write(b []byte) (int, error) {
	if x.committed {
		return 0, errors.New("pipeline: write after commit")
	}
	return x.body.Write(b)
}

func (x *Exchange) WriteString(s string) (int, error) {
	if x.committed {
		return 0, errors.New("pipeline: write after commit")
	}
	return x.body.WriteString(s)
}

// Status returns the currently buffered status code.
func (x *Exchange) Status() int { return x.status }

// SetStatus overrides the status regardless of buffered body bytes. Stages
// use it; handlers go through WriteHeader.
func (x *Exchange) SetStatus(code int) { x.status = code }

// BodyLen reports how many response bytes are buffered.
func (x *Exchange) BodyLen() int { return x.body.Len() }

// ResponseBody returns the buffered response bytes. The slice is only valid
// until the next write.
func (x *Exchange) ResponseBody() []byte { return x.body.Bytes() }

// ResetBody drops any buffered response bytes.
func (x *Exchange) ResetBody() {
	x.body.Reset()
	x.headerNow = false
}

// RequestID returns the correlation id assigned by the logging stage.
func (x *Exchange) RequestID() string { return x.requestID }

// RequestBody returns the captured request body, or nil if nothing has been
// captured yet.
func (x *Exchange) RequestBody() []byte { return x.requestBody }

// CaptureRequestBody reads the request body into memory, up to the
// exchange's limit, and replaces Request.Body with a re-readable copy.
// Calling it again is a no-op.
func (x *Exchange) CaptureRequestBody() error {
	if x.captured {
		return nil
	}
	x.captured = true

	r := x.Request
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, x.maxBody+1))
	_ = r.Body.Close()
	if err != nil {
		return fmt.Errorf("read request body: %w", err)
	}
	if int64(len(data)) > x.maxBody {
		return domain.NewValidation(fmt.Sprintf("request body exceeds %d bytes", x.maxBody))
	}

	x.requestBody = data
	r.Body = io.NopCloser(bytes.NewReader(data))
	r.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}
	return nil
}

// AfterFlush registers fn to run once the response has been committed.
func (x *Exchange) AfterFlush(fn func()) {
	x.afterFlush = append(x.afterFlush, fn)
}

// Committed reports whether the response has been handed to the client.
func (x *Exchange) Committed() bool { return x.committed }

// commit writes status and body to the real writer. Only the first call has
// any effect.
func (x *Exchange) commit() error {
	if x.committed {
		return nil
	}
	x.committed = true

	x.w.WriteHeader(x.status)
	var err error
	if x.body.Len() > 0 && bodyAllowed(x.status) {
		_, err = x.w.Write(x.body.Bytes())
	}

	for _, fn := range x.afterFlush {
		fn()
	}
	return err
}

func bodyAllowed(status int) bool {
	switch {
	case status >= 100 && status <= 199:
		return false
	case status == http.StatusNoContent, status == http.StatusNotModified:
		return false
	}
	return true
}

// The methods below complete gin.ResponseWriter so an Exchange can stand in
// for gin's writer while route handlers run.

// Written reports whether a handler has started a response.
func (x *Exchange) Written() bool { return x.headerNow || x.body.Len() > 0 }

// WriteHeaderNow marks the headers as sent. Nothing reaches the client
// before commit.
func (x *Exchange) WriteHeaderNow() { x.headerNow = true }

// Size mirrors gin: -1 until something has been written.
func (x *Exchange) Size() int {
	if !x.Written() {
		return -1
	}
	return x.body.Len()
}

// Flush is a no-op; the body is only released at commit.
func (x *Exchange) Flush() {}

func (x *Exchange) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := x.w.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("pipeline: underlying ResponseWriter does not implement http.Hijacker")
	}
	return h.Hijack()
}

//nolint:staticcheck // gin.ResponseWriter still embeds http.CloseNotifier.
func (x *Exchange) CloseNotify() <-chan bool {
	if cn, ok := x.w.(http.CloseNotifier); ok {
		return cn.CloseNotify()
	}
	return make(chan bool)
}

func (x *Exchange) Pusher() http.Pusher {
	if p, ok := x.w.(http.Pusher); ok {
		return p
	}
	return nil
}

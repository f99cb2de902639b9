// Package pipeline runs every API request through a fixed, ordered list of
// stages around a buffered Exchange. The driver owns the Exchange: it creates
// it on entry and commits it to the client once, after the last stage
// returns.
package pipeline

import (
	"log/slog"
	"net/http"
)

// Next invokes the remainder of the chain.
type Next func(ex *Exchange) error

// Handler terminates the chain. Failures are returned, not written.
type Handler func(ex *Exchange) error

// Stage is one link of the chain. A stage either calls next exactly once or
// returns without calling it to stop the request.
type Stage interface {
	Name() string
	Serve(ex *Exchange, next Next) error
}

type Pipeline struct {
	stages  []Stage
	maxBody int64
}

type Option func(*Pipeline)

// WithMaxBody caps the request body buffered by CaptureRequestBody.
func WithMaxBody(n int64) Option {
	return func(p *Pipeline) { p.maxBody = n }
}

// New builds a pipeline that runs stages in the given order, first stage
// outermost.
func New(stages []Stage, opts ...Option) *Pipeline {
	p := &Pipeline{maxBody: defaultMaxBody}
	for _, s := range stages {
		if s != nil {
			p.stages = append(p.stages, s)
		}
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Default returns the production ordering: security headers, error
// translation, method validation, request logging.
func Default(logger *slog.Logger, opts ...Option) *Pipeline {
	return New([]Stage{
		Security{},
		NewErrorTranslation(logger),
		MethodValidation{},
		NewRequestLogging(logger),
	}, opts...)
}

// Stages lists stage names in execution order.
func (p *Pipeline) Stages() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name()
	}
	return names
}

// Serve runs the request through every stage and h, then commits the
// response. An error that escapes all stages becomes a bare 500.
func (p *Pipeline) Serve(w http.ResponseWriter, r *http.Request, h Handler) {
	ex := newExchange(w, r, p.maxBody)
	p.serve(ex, h)
}

func (p *Pipeline) serve(ex *Exchange, h Handler) {
	if err := p.run(ex, 0, h); err != nil {
		ex.ResetBody()
		ex.SetStatus(http.StatusInternalServerError)
	}
	_ = ex.commit()
}

func (p *Pipeline) run(ex *Exchange, i int, h Handler) error {
	if i == len(p.stages) {
		return h(ex)
	}
	return p.stages[i].Serve(ex, func(ex *Exchange) error {
		return p.run(ex, i+1, h)
	})
}

// Wrap adapts a plain http.Handler as the terminal handler.
func (p *Pipeline) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p.Serve(w, r, func(ex *Exchange) error {
			next.ServeHTTP(ex, ex.Request)
			return nil
		})
	})
}

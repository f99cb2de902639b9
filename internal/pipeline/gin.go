package pipeline

import (
	"github.com/gin-gonic/gin"
)

var _ gin.ResponseWriter = (*Exchange)(nil)

// Gin mounts the pipeline as gin middleware. Route handlers run as the
// terminal handler with the Exchange standing in for c.Writer, and report
// failures through c.Error instead of writing error bodies themselves.
func (p *Pipeline) Gin() gin.HandlerFunc {
	return func(c *gin.Context) {
		orig := c.Writer
		ex := newExchange(orig, c.Request, p.maxBody)
		// gin presets 404/405 before running NoRoute/NoMethod handlers.
		ex.status = orig.Status()

		c.Writer = ex
		p.serve(ex, func(ex *Exchange) error {
			c.Request = ex.Request
			c.Next()
			if last := c.Errors.Last(); last != nil {
				return last.Err
			}
			return nil
		})
		c.Writer = orig
		c.Abort()
	}
}

package pipeline

// securityHeaders are set on every response, error responses included.
var securityHeaders = []struct{ name, value string }{
	{"X-Content-Type-Options", "nosniff"},
	{"X-Frame-Options", "DENY"},
	{"X-XSS-Protection", "1; mode=block"},
	{"Strict-Transport-Security", "max-age=31536000; includeSubDomains"},
	{"Referrer-Policy", "strict-origin-when-cross-origin"},
	{"Permissions-Policy", "camera=(), microphone=(), geolocation=()"},
	{"Cache-Control", "no-store, max-age=0"},
}

// Security sets hardening headers and always continues.
type Security struct{}

func (Security) Name() string { return "security" }

func (Security) Serve(ex *Exchange, next Next) error {
	h := ex.Header()
	for _, sh := range securityHeaders {
		h.Set(sh.name, sh.value)
	}
	return next(ex)
}

package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ErlanBelekov/stockbetting/internal/auth"
	"github.com/ErlanBelekov/stockbetting/internal/domain"
	"github.com/ErlanBelekov/stockbetting/internal/pipeline"
	"github.com/ErlanBelekov/stockbetting/internal/transport/http/handler"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeAuthUsecase implements the unexported authUsecaser interface via method matching.
type fakeAuthUsecase struct {
	login    func(ctx context.Context, username, password string) (auth.Token, error)
	register func(ctx context.Context, username, password string) (*domain.User, error)
}

func (f *fakeAuthUsecase) Login(ctx context.Context, username, password string) (auth.Token, error) {
	return f.login(ctx, username, password)
}

func (f *fakeAuthUsecase) Register(ctx context.Context, username, password string) (*domain.User, error) {
	return f.register(ctx, username, password)
}

// newTestEngine mounts the handler behind the production pipeline so error
// bodies are the real envelopes.
func newTestEngine(uc *fakeAuthUsecase) *gin.Engine {
	h := handler.NewAuthHandler(uc, testLogger())

	r := gin.New()
	r.Use(pipeline.Default(testLogger()).Gin())
	r.POST("/api/auth/login", h.Login)
	r.POST("/api/auth/register", h.Register)
	return r
}

func postJSON(r http.Handler, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Path    string   `json:"path"`
	Status  int      `json:"status"`
	Error   string   `json:"error"`
	Message *string  `json:"message"`
	Details []string `json:"details"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body %q)", err, w.Body.String())
	}
	return env
}

// ---- Login ----

func TestLogin_InvalidJSON_Returns400(t *testing.T) {
	w := postJSON(newTestEngine(&fakeAuthUsecase{}), "/api/auth/login", `{bad json}`)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if env := decodeEnvelope(t, w); env.Error != "Validation Error" {
		t.Errorf("error = %q, want Validation Error", env.Error)
	}
}

func TestLogin_MissingFields_Returns400WithDetails(t *testing.T) {
	w := postJSON(newTestEngine(&fakeAuthUsecase{}), "/api/auth/login", `{}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	env := decodeEnvelope(t, w)
	want := map[string]bool{"username is required": true, "password is required": true}
	if len(env.Details) != len(want) {
		t.Fatalf("details = %v", env.Details)
	}
	for _, d := range env.Details {
		if !want[d] {
			t.Errorf("unexpected detail %q", d)
		}
	}
}

func TestLogin_BadCredentials_Returns401(t *testing.T) {
	uc := &fakeAuthUsecase{
		login: func(_ context.Context, _, _ string) (auth.Token, error) {
			return auth.Token{}, domain.ErrInvalidCredentials
		},
	}
	w := postJSON(newTestEngine(uc), "/api/auth/login", `{"username":"alice","password":"nope"}`)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
	if env := decodeEnvelope(t, w); env.Path != "/api/auth/login" {
		t.Errorf("path = %q", env.Path)
	}
}

func TestLogin_UsecaseError_Returns500(t *testing.T) {
	uc := &fakeAuthUsecase{
		login: func(_ context.Context, _, _ string) (auth.Token, error) {
			return auth.Token{}, errors.New("find user: db down")
		},
	}
	w := postJSON(newTestEngine(uc), "/api/auth/login", `{"username":"alice","password":"pw"}`)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestLogin_Success_Returns200WithToken(t *testing.T) {
	const fakeJWT = "header.payload.signature"
	exp := time.Date(2025, 1, 23, 16, 0, 0, 0, time.UTC)
	uc := &fakeAuthUsecase{
		login: func(_ context.Context, username, password string) (auth.Token, error) {
			if username != "alice" || password != "pw" {
				return auth.Token{}, domain.ErrInvalidCredentials
			}
			return auth.Token{Value: fakeJWT, Subject: "user-1", ExpiresAt: exp}, nil
		},
	}
	w := postJSON(newTestEngine(uc), "/api/auth/login", `{"username":"alice","password":"pw"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body struct {
		Token     string    `json:"token"`
		TokenType string    `json:"tokenType"`
		ExpiresAt time.Time `json:"expiresAt"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Token != fakeJWT || body.TokenType != "Bearer" || !body.ExpiresAt.Equal(exp) {
		t.Errorf("body = %+v", body)
	}
}

// ---- Register ----

func TestRegister_Success_Returns201(t *testing.T) {
	uc := &fakeAuthUsecase{
		register: func(_ context.Context, username, _ string) (*domain.User, error) {
			return &domain.User{ID: "user-2", Username: username}, nil
		},
	}
	w := postJSON(newTestEngine(uc), "/api/auth/register", `{"username":"carol","password":"pw"}`)

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"success":true`) {
		t.Errorf("body = %q", w.Body.String())
	}
}

func TestRegister_UsernameTaken_Returns400(t *testing.T) {
	uc := &fakeAuthUsecase{
		register: func(_ context.Context, _, _ string) (*domain.User, error) {
			return nil, &domain.ValidationError{Message: "Username already taken", Err: domain.ErrUsernameTaken}
		},
	}
	w := postJSON(newTestEngine(uc), "/api/auth/register", `{"username":"alice","password":"pw"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	env := decodeEnvelope(t, w)
	if env.Message == nil || *env.Message != "Username already taken" {
		t.Errorf("message = %v", env.Message)
	}
}

func TestRegister_PasswordTooLong_Returns400(t *testing.T) {
	body := `{"username":"carol","password":"` + strings.Repeat("x", 73) + `"}`
	w := postJSON(newTestEngine(&fakeAuthUsecase{}), "/api/auth/register", body)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

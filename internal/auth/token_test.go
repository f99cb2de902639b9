package auth_test

import (
	"sync"
	"testing"
	"time"

	"github.com/ErlanBelekov/stockbetting/internal/auth"
	"github.com/ErlanBelekov/stockbetting/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "token-test-secret-at-least-32-chars!"

var alice = domain.User{ID: "user-1", Username: "alice"}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

func newService(t *testing.T, ttl time.Duration, clock *fakeClock) *auth.TokenService {
	t.Helper()
	svc, err := auth.NewTokenService([]byte(testKey), ttl, auth.WithClock(clock.Now))
	require.NoError(t, err)
	return svc
}

func TestNewTokenService_RejectsBadInput(t *testing.T) {
	_, err := auth.NewTokenService(nil, time.Hour)
	assert.Error(t, err)

	_, err = auth.NewTokenService([]byte(testKey), 0)
	assert.Error(t, err)
}

func TestIssue_ExpiryIsIssuedAtPlusTTL(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 2, 3, 4, 5, 600, time.UTC)}
	svc := newService(t, 30*time.Minute, clock)

	tok, err := svc.Issue(alice)
	require.NoError(t, err)

	assert.NotEmpty(t, tok.Value)
	assert.Equal(t, alice.ID, tok.Subject)
	assert.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), tok.IssuedAt)
	assert.Equal(t, tok.IssuedAt.Add(30*time.Minute), tok.ExpiresAt)
}

func TestIssueVerify_RoundTrip(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	svc := newService(t, time.Hour, clock)

	tok, err := svc.Issue(alice)
	require.NoError(t, err)

	v := svc.Verify(tok.Value)
	assert.True(t, v.Valid)
	assert.Equal(t, alice.ID, v.UserID)
}

func TestIssue_SameInstantTokensVerifyIndependently(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	svc := newService(t, time.Hour, clock)

	first, err := svc.Issue(alice)
	require.NoError(t, err)
	second, err := svc.Issue(alice)
	require.NoError(t, err)

	for _, tok := range []auth.Token{first, second} {
		v := svc.Verify(tok.Value)
		assert.True(t, v.Valid)
		assert.Equal(t, alice.ID, v.UserID)
	}
}

func TestVerify_ExpiryBoundary(t *testing.T) {
	start := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := &fakeClock{t: start}
	svc := newService(t, time.Minute, clock)

	tok, err := svc.Issue(alice)
	require.NoError(t, err)

	clock.Set(tok.ExpiresAt.Add(-time.Second))
	assert.True(t, svc.Verify(tok.Value).Valid, "one second before expiry")

	clock.Set(tok.ExpiresAt)
	assert.False(t, svc.Verify(tok.Value).Valid, "exactly at expiry")

	clock.Set(tok.ExpiresAt.Add(time.Nanosecond))
	v := svc.Verify(tok.Value)
	assert.False(t, v.Valid, "after expiry")
	assert.Empty(t, v.UserID)
}

func TestVerify_WrongKey(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	svc := newService(t, time.Hour, clock)

	other, err := auth.NewTokenService([]byte("different-key-that-is-32-chars!!"), time.Hour, auth.WithClock(clock.Now))
	require.NoError(t, err)

	tok, err := other.Issue(alice)
	require.NoError(t, err)

	assert.False(t, svc.Verify(tok.Value).Valid)
}

func TestVerify_Malformed(t *testing.T) {
	svc := newService(t, time.Hour, &fakeClock{t: time.Now()})

	for _, raw := range []string{"", "not.a.jwt", "a.b", "Bearer x.y.z"} {
		assert.False(t, svc.Verify(raw).Valid, "raw=%q", raw)
	}
}

func TestVerify_RejectsNoneAlgorithm(t *testing.T) {
	now := time.Now()
	svc := newService(t, time.Hour, &fakeClock{t: now})

	claims := jwt.RegisteredClaims{
		Subject:   alice.ID,
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	assert.False(t, svc.Verify(raw).Valid)
}

func TestVerify_RequiresExpiry(t *testing.T) {
	svc := newService(t, time.Hour, &fakeClock{t: time.Now()})

	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: alice.ID}).
		SignedString([]byte(testKey))
	require.NoError(t, err)

	assert.False(t, svc.Verify(raw).Valid)
}

func TestVerify_RequiresSubject(t *testing.T) {
	now := time.Now()
	svc := newService(t, time.Hour, &fakeClock{t: now})

	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}).SignedString([]byte(testKey))
	require.NoError(t, err)

	assert.False(t, svc.Verify(raw).Valid)
}

func TestVerify_ConcurrentCalls(t *testing.T) {
	svc := newService(t, time.Hour, &fakeClock{t: time.Now()})
	tok, err := svc.Issue(alice)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !svc.Verify(tok.Value).Valid {
				t.Error("concurrent verify failed")
			}
		}()
	}
	wg.Wait()
}

package auth

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/item-service/internal/domain"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func newTestManager(t *testing.T, clock *fakeClock) *TokenManager {
	t.Helper()
	tm, err := NewTokenManager("test-secret", "HS256", WithClock(clock.Now))
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}
	return tm
}

func TestIssueAndVerify(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	tm := newTestManager(t, clock)

	token, err := tm.Issue(domain.TierReadWrite, 5)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if want := clock.Now().Add(5 * time.Minute); !token.ExpiresAt.Equal(want) {
		t.Errorf("ExpiresAt = %v, want %v", token.ExpiresAt, want)
	}

	claims, err := tm.Verify(token.Value)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Permissions != domain.TierReadWrite {
		t.Errorf("Permissions = %q, want read_write", claims.Permissions)
	}
}

func TestVerifyExpiry(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	tm := newTestManager(t, clock)

	token, err := tm.Issue(domain.TierFullAccess, 5)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	clock.Advance(5*time.Minute - time.Second)
	if _, err := tm.Verify(token.Value); err != nil {
		t.Fatalf("token should still be valid one second before expiry: %v", err)
	}

	clock.Advance(time.Second)
	if _, err := tm.Verify(token.Value); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("Verify at expiry = %v, want ErrTokenExpired", err)
	}
}

func TestIssueRejectsNonPositiveTTL(t *testing.T) {
	tm := newTestManager(t, &fakeClock{now: time.Now()})
	for _, ttl := range []int{0, -1} {
		if _, err := tm.Issue(domain.TierReadOnly, ttl); !errors.Is(err, ErrInvalidTTL) {
			t.Errorf("Issue(ttl=%d) = %v, want ErrInvalidTTL", ttl, err)
		}
	}
}

func TestIssueTTLUpperBound(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	tm := newTestManager(t, clock)

	longest, err := tm.Issue(domain.TierReadOnly, int(MaxTTLMinutes))
	if err != nil {
		t.Fatalf("Issue(MaxTTLMinutes): %v", err)
	}
	if !longest.ExpiresAt.After(clock.Now()) {
		t.Fatalf("ExpiresAt = %v, not after issue time", longest.ExpiresAt)
	}
	if _, err := tm.Verify(longest.Value); err != nil {
		t.Fatalf("Verify longest-lived token: %v", err)
	}

	for _, ttl := range []int{int(MaxTTLMinutes) + 1, 200000000} {
		if _, err := tm.Issue(domain.TierReadOnly, ttl); !errors.Is(err, ErrTTLTooLarge) {
			t.Errorf("Issue(ttl=%d) = %v, want ErrTTLTooLarge", ttl, err)
		}
	}
}

func TestIssueRejectsUnknownTier(t *testing.T) {
	tm := newTestManager(t, &fakeClock{now: time.Now()})
	if _, err := tm.Issue(domain.Tier("admin"), 5); !errors.Is(err, ErrUnknownTier) {
		t.Fatalf("Issue(admin) = %v, want ErrUnknownTier", err)
	}
}

func TestVerifyRejectsForeignTokens(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	tm := newTestManager(t, clock)
	exp := jwt.NewNumericDate(clock.Now().Add(time.Hour))

	sign := func(method jwt.SigningMethod, secret string, claims jwt.Claims) string {
		t.Helper()
		s, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return s
	}

	tests := []struct {
		name string
		raw  string
	}{
		{"garbage", "not-a-jwt"},
		{"wrong secret", sign(jwt.SigningMethodHS256, "other", &Claims{Permissions: domain.TierFullAccess, RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: exp}})},
		{"wrong algorithm", sign(jwt.SigningMethodHS512, "test-secret", &Claims{Permissions: domain.TierFullAccess, RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: exp}})},
		{"missing exp", sign(jwt.SigningMethodHS256, "test-secret", &Claims{Permissions: domain.TierFullAccess})},
		{"unknown tier", sign(jwt.SigningMethodHS256, "test-secret", &Claims{Permissions: "root", RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: exp}})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tm.Verify(tt.raw)
			if !errors.Is(err, ErrTokenMalformed) {
				t.Fatalf("Verify = %v, want ErrTokenMalformed", err)
			}
		})
	}
}

func TestVerifyRejectsTamperedPayload(t *testing.T) {
	tm := newTestManager(t, &fakeClock{now: time.Now()})
	token, err := tm.Issue(domain.TierReadOnly, 5)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	parts := strings.Split(token.Value, ".")
	other, err := tm.Issue(domain.TierFullAccess, 5)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	parts[1] = strings.Split(other.Value, ".")[1]
	if _, err := tm.Verify(strings.Join(parts, ".")); err == nil {
		t.Fatal("tampered token verified")
	}
}

func TestNewTokenManagerRejectsAsymmetricAlgorithm(t *testing.T) {
	if _, err := NewTokenManager("secret", "RS256"); err == nil {
		t.Fatal("expected error for RS256")
	}
	if _, err := NewTokenManager("", "HS256"); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

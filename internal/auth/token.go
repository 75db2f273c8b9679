package auth

import (
	"errors"
	"fmt"
	"math"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/item-service/internal/domain"
)

// Verification failures. Callers outside this package must not render them differently.
var (
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenMalformed = errors.New("token malformed or signature invalid")
	ErrInvalidTTL     = errors.New("ttl must be positive")
	ErrTTLTooLarge    = errors.New("ttl exceeds the representable lifetime")
	ErrUnknownTier    = errors.New("unknown permission tier")
)

// MaxTTLMinutes is the longest lifetime Issue accepts. Larger values would
// overflow time.Duration and produce a token that is already expired.
const MaxTTLMinutes = math.MaxInt64 / int64(time.Minute)

// TokenManager issues and verifies tier-bearing JWTs.
type TokenManager struct {
	secret []byte
	method jwt.SigningMethod
	now    func() time.Time
}

// Option customizes a TokenManager.
type Option func(*TokenManager)

// WithClock replaces the wall clock used for issuing and verifying.
func WithClock(now func() time.Time) Option {
	return func(tm *TokenManager) { tm.now = now }
}

// NewTokenManager builds a new manager for an HMAC algorithm (HS256, HS384, HS512).
func NewTokenManager(secret, algorithm string, opts ...Option) (*TokenManager, error) {
	method, ok := jwt.GetSigningMethod(algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", algorithm)
	}
	if secret == "" {
		return nil, errors.New("signing secret must not be empty")
	}
	tm := &TokenManager{secret: []byte(secret), method: method, now: time.Now}
	for _, opt := range opts {
		opt(tm)
	}
	return tm, nil
}

// Claims describes the JWT payload.
type Claims struct {
	Permissions domain.Tier `json:"permissions"`
	jwt.RegisteredClaims
}

// Issue signs a token for tier that expires ttlMinutes from now.
func (tm *TokenManager) Issue(tier domain.Tier, ttlMinutes int) (*domain.Token, error) {
	if ttlMinutes <= 0 {
		return nil, ErrInvalidTTL
	}
	if int64(ttlMinutes) > MaxTTLMinutes {
		return nil, ErrTTLTooLarge
	}
	if !tier.Valid() {
		return nil, ErrUnknownTier
	}
	issuedAt := tm.now().UTC()
	expiresAt := issuedAt.Add(time.Duration(ttlMinutes) * time.Minute)
	claims := &Claims{
		Permissions: tier,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
		},
	}

	signed, err := jwt.NewWithClaims(tm.method, claims).SignedString(tm.secret)
	if err != nil {
		return nil, err
	}
	return &domain.Token{Value: signed, Tier: tier, ExpiresAt: expiresAt, IssuedAt: issuedAt}, nil
}

// Verify validates signature, algorithm, and expiry and returns the claims.
// The token is accepted only while now is strictly before exp.
func (tm *TokenManager) Verify(raw string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(raw, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return tm.secret, nil
	},
		jwt.WithValidMethods([]string{tm.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(tm.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrTokenMalformed
	}
	if !claims.Permissions.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, ErrUnknownTier)
	}
	return claims, nil
}

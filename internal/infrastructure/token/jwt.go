package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrEmptyToken   = errors.New("token: empty")
	ErrInvalidToken = errors.New("token: invalid")
	ErrMissingID    = errors.New("token: missing subject id")
)

// Claims is the access-token payload. The subject id travels as "id" so it
// can be used directly as the session store key.
type Claims struct {
	ID string `json:"id"`
	jwt.RegisteredClaims
}

// HS256 verifies and issues access tokens signed with a shared secret.
type HS256 struct {
	secret []byte
	parser *jwt.Parser
	now    func() time.Time
}

func NewHS256(secret string) (*HS256, error) {
	if secret == "" {
		return nil, fmt.Errorf("token: empty signing secret")
	}
	return &HS256{
		secret: []byte(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
		),
		now: time.Now,
	}, nil
}

// Verify checks signature and expiry and returns the subject id.
func (h *HS256) Verify(raw string) (string, error) {
	if raw == "" {
		return "", ErrEmptyToken
	}

	claims := &Claims{}
	tok, err := h.parser.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return h.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !tok.Valid {
		return "", ErrInvalidToken
	}
	if claims.ID == "" {
		return "", ErrMissingID
	}
	return claims.ID, nil
}

// Issue signs a token for subjectID that expires after ttl.
func (h *HS256) Issue(subjectID string, ttl time.Duration) (string, error) {
	if subjectID == "" {
		return "", ErrMissingID
	}
	now := h.now()
	claims := Claims{
		ID: subjectID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.secret)
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}
	return signed, nil
}

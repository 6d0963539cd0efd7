package identity

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/atelierlab/devisio/internal/config"
)

var (
	ErrNoToken      = errors.New("no_token")
	ErrInvalidToken = errors.New("invalid_token")
)

// Identity is the authenticated caller extracted from a bearer token.
// User management lives outside this service; only verification happens
// here.
type Identity struct {
	Subject string
	OrgID   string
	Role    string
}

type Verifier struct {
	secret []byte
}

func NewVerifier(cfg config.Config) *Verifier {
	return &Verifier{secret: []byte(cfg.AuthJWTSecret)}
}

// Enabled reports whether bearer verification is configured. Without a
// secret the server falls back to the default workspace.
func (v *Verifier) Enabled() bool {
	return len(v.secret) > 0
}

// VerifyHeader parses an Authorization header value ("Bearer <token>").
func (v *Verifier) VerifyHeader(header string) (*Identity, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return nil, ErrNoToken
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return nil, ErrInvalidToken
	}
	return v.Verify(strings.TrimSpace(header[len(prefix):]))
}

func (v *Verifier) Verify(tokenString string) (*Identity, error) {
	if tokenString == "" {
		return nil, ErrNoToken
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	ident := &Identity{
		Subject: stringClaim(claims, "sub"),
		OrgID:   stringClaim(claims, "org_id"),
		Role:    stringClaim(claims, "role"),
	}
	if ident.Subject == "" {
		return nil, ErrInvalidToken
	}
	return ident, nil
}

// Sign mints a token for the given identity. Used by tests and local
// tooling; production tokens come from the external identity provider.
func (v *Verifier) Sign(ident Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":    ident.Subject,
		"org_id": ident.OrgID,
		"role":   ident.Role,
		"iat":    now.Unix(),
		"exp":    now.Add(ttl).Unix(),
	})
	return token.SignedString(v.secret)
}

func stringClaim(claims jwt.MapClaims, key string) string {
	if value, ok := claims[key].(string); ok {
		return strings.TrimSpace(value)
	}
	return ""
}

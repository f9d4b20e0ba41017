package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"live-question-service/internal/domain"
)

// Trusted headers accepted in development mode.
const (
	HeaderUserID    = "X-User-Id"
	HeaderUserRole  = "X-User-Role"
	HeaderUserEmail = "X-User-Email"
	HeaderUserName  = "X-User-Name"
)

var ErrInvalidToken = fmt.Errorf("%w: invalid or expired token", domain.ErrUnauthorized)

// Claims carried by access tokens.
type Claims struct {
	Role  string `json:"role"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Authenticator resolves the caller identity of a request.
type Authenticator struct {
	secret       []byte
	trustHeaders bool
}

func NewAuthenticator(secret string, trustHeaders bool) *Authenticator {
	return &Authenticator{secret: []byte(secret), trustHeaders: trustHeaders}
}

// IssueToken signs an HS256 token for identity.
func (a *Authenticator) IssueToken(identity domain.Identity, ttl time.Duration) (string, error) {
	if len(a.secret) == 0 {
		return "", errors.New("jwt secret not configured")
	}
	now := time.Now()
	claims := &Claims{
		Role:  string(identity.Role),
		Email: identity.Email,
		Name:  identity.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// ParseToken validates a token and returns the identity it carries.
func (a *Authenticator) ParseToken(tokenString string) (domain.Identity, error) {
	if len(a.secret) == 0 {
		return domain.Identity{}, ErrInvalidToken
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return domain.Identity{}, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return domain.Identity{}, ErrInvalidToken
	}
	return domain.Identity{
		ID:    claims.Subject,
		Role:  ParseRole(claims.Role),
		Email: claims.Email,
		Name:  claims.Name,
	}, nil
}

// Authenticate resolves the identity of r. A bearer token (header or
// "access_token" query parameter) wins; otherwise trusted headers are used
// when enabled. Requests without credentials are anonymous.
func (a *Authenticator) Authenticate(r *http.Request) (domain.Identity, error) {
	if token := bearerToken(r); token != "" {
		return a.ParseToken(token)
	}
	if a.trustHeaders {
		if id := strings.TrimSpace(r.Header.Get(HeaderUserID)); id != "" {
			return domain.Identity{
				ID:    id,
				Role:  ParseRole(r.Header.Get(HeaderUserRole)),
				Email: strings.TrimSpace(r.Header.Get(HeaderUserEmail)),
				Name:  strings.TrimSpace(r.Header.Get(HeaderUserName)),
			}, nil
		}
	}
	return Anonymous(), nil
}

// Middleware stores the resolved identity in the request context and rejects
// requests carrying an invalid token.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := a.Authenticate(r)
		if err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid or expired token"}`))
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

// ParseRole maps a claim or header value onto a known role; unknown values
// default to student.
func ParseRole(raw string) domain.Role {
	switch domain.Role(strings.ToLower(strings.TrimSpace(raw))) {
	case domain.RoleInstructor:
		return domain.RoleInstructor
	case domain.RoleAdmin:
		return domain.RoleAdmin
	default:
		return domain.RoleStudent
	}
}

func Anonymous() domain.Identity {
	return domain.Identity{Role: domain.RoleAnonymous}
}

type contextKey struct{}

func WithIdentity(ctx context.Context, identity domain.Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, identity)
}

// FromContext returns the identity stored by Middleware, or anonymous.
func FromContext(ctx context.Context) domain.Identity {
	if identity, ok := ctx.Value(contextKey{}).(domain.Identity); ok {
		return identity
	}
	return Anonymous()
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return strings.TrimSpace(r.URL.Query().Get("access_token"))
}

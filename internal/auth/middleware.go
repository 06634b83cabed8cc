package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey struct{}

var userIDKey contextKey

type Middleware struct {
	secretKey []byte
}

func NewMiddleware(secret string) *Middleware {
	return &Middleware{
		secretKey: []byte(secret),
	}
}

// UserIDFromContext returns the subject of the validated token.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// WithUserID attaches userID to ctx as ValidateToken does.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// IssueToken signs an HS256 token for userID.
func (m *Middleware) IssueToken(userID string, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", errors.New("user id is required")
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secretKey)
}

var (
	ErrMissingToken = errors.New("missing Authorization header")
	ErrBadHeader    = errors.New("invalid Authorization header format")
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Identify returns the subject of the request's bearer token.
func (m *Middleware) Identify(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", ErrMissingToken
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", ErrBadHeader
	}

	tokenString := parts[1]

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secretKey, nil
	})
	if err != nil || !token.Valid {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("%w: token has no subject", ErrInvalidToken)
	}
	return sub, nil
}

func (m *Middleware) ValidateToken(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := m.Identify(r)
		if err != nil {
			if errors.Is(err, ErrInvalidToken) {
				slog.Warn("Invalid token attempt", "error", err)
			}
			unauthorized(w, err)
			return
		}
		next(w, r.WithContext(WithUserID(r.Context(), userID)))
	}
}

// OptionalToken attaches the user when a valid token is present and lets
// anonymous requests through unchanged. A bad token is still rejected.
func (m *Middleware) OptionalToken(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := m.Identify(r)
		switch {
		case errors.Is(err, ErrMissingToken):
			next(w, r)
		case err != nil:
			slog.Warn("Invalid token attempt", "error", err)
			unauthorized(w, err)
		default:
			next(w, r.WithContext(WithUserID(r.Context(), userID)))
		}
	}
}

func unauthorized(w http.ResponseWriter, err error) {
	msg := "Invalid or expired token"
	switch {
	case errors.Is(err, ErrMissingToken):
		msg = "Missing Authorization header"
	case errors.Is(err, ErrBadHeader):
		msg = "Invalid Authorization header format"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	fmt.Fprintf(w, "{\"error\":%q}\n", msg)
}

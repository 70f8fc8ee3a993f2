package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/render"
	"github.com/golang-jwt/jwt/v5"
)

var errNoOwner = errors.New("token carries no owner")

type ownerCtxKey struct{}

// Authenticator verifies HS256 bearer tokens and extracts the owner identity.
type Authenticator struct {
	secret []byte
}

func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// OwnerID returns the owner named by a signed token: the userId claim, or sub.
func (a *Authenticator) OwnerID(tokenString string) (string, error) {
	const op = "http.Authenticator.OwnerID"

	token, err := jwt.Parse(tokenString, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("%s: %w", op, errNoOwner)
	}

	switch v := claims["userId"].(type) {
	case string:
		if v != "" {
			return v, nil
		}
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("%s: %w", op, errNoOwner)
	}

	return sub, nil
}

// Middleware rejects requests without a valid bearer token with 401.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, ok := bearerToken(r)
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, unauthenticatedResponse)
			return
		}

		ownerID, err := a.OwnerID(tokenString)
		if err != nil {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, unauthenticatedResponse)
			return
		}

		ctx := context.WithValue(r.Context(), ownerCtxKey{}, ownerID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)
	return token, token != ""
}

func ownerFromContext(ctx context.Context) string {
	ownerID, _ := ctx.Value(ownerCtxKey{}).(string)
	return ownerID
}

package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/innovatetogether/go-innovate/core"
)

type StaticTokenSource struct {
	token string
}

func NewStaticTokenSource(token string) StaticTokenSource {
	return StaticTokenSource{token: strings.TrimSpace(token)}
}

// BearerToken returns the fixed token; a forced refresh yields the same value.
func (s StaticTokenSource) BearerToken(context.Context, bool) (string, error) {
	if s.token == "" {
		return "", fmt.Errorf("session: static token is empty")
	}
	return s.token, nil
}

// FuncTokenSource adapts an identity provider SDK call.
type FuncTokenSource func(ctx context.Context, forceRefresh bool) (string, error)

func (f FuncTokenSource) BearerToken(ctx context.Context, forceRefresh bool) (string, error) {
	if f == nil {
		return "", fmt.Errorf("session: token func is nil")
	}
	return f(ctx, forceRefresh)
}

// SubjectFromIDToken reads the subject of an ID token without verifying its
// signature. user_id is preferred over sub when both are present.
func SubjectFromIDToken(idToken string) (string, error) {
	idToken = strings.TrimSpace(idToken)
	if idToken == "" {
		return "", fmt.Errorf("session: id token is required")
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, claims); err != nil {
		return "", fmt.Errorf("session: parse id token: %w", err)
	}
	if userID, ok := claims["user_id"].(string); ok && strings.TrimSpace(userID) != "" {
		return strings.TrimSpace(userID), nil
	}
	subject, err := claims.GetSubject()
	if err != nil {
		return "", fmt.Errorf("session: read id token subject: %w", err)
	}
	if strings.TrimSpace(subject) == "" {
		return "", fmt.Errorf("session: id token has no subject")
	}
	return strings.TrimSpace(subject), nil
}

var (
	_ core.TokenSource = StaticTokenSource{}
	_ core.TokenSource = FuncTokenSource(nil)
)

package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/innovatetogether/go-innovate/core"
)

type tokenState int

const (
	tokenStateInitial tokenState = iota
	tokenStateRetriedOnce
)

func (s tokenState) String() string {
	switch s {
	case tokenStateInitial:
		return "initial"
	case tokenStateRetriedOnce:
		return "retried_once"
	default:
		return "unknown"
	}
}

// tokenRetry drives the forced-refresh retry after a 401. It moves from
// Initial to RetriedOnce exactly once and never back.
type tokenRetry struct {
	state  tokenState
	tokens core.TokenSource
	bearer bool
}

func newTokenRetry(tokens core.TokenSource, bearer bool) *tokenRetry {
	return &tokenRetry{state: tokenStateInitial, tokens: tokens, bearer: bearer}
}

// headers returns the request headers for the current state. The token is
// force-refreshed only in RetriedOnce.
func (m *tokenRetry) headers(ctx context.Context) (map[string]string, error) {
	if !m.bearer {
		return nil, nil
	}
	if m.tokens == nil {
		return nil, fmt.Errorf("identity: session has no token source")
	}
	token, err := m.tokens.BearerToken(ctx, m.state == tokenStateRetriedOnce)
	if err != nil {
		return nil, fmt.Errorf("identity: acquire bearer token (%s): %w", m.state, err)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("identity: bearer token is empty (%s)", m.state)
	}
	return map[string]string{"Authorization": "Bearer " + token}, nil
}

// advance reports whether another request should be issued after a 401.
func (m *tokenRetry) advance() bool {
	if !m.bearer || m.state != tokenStateInitial {
		return false
	}
	m.state = tokenStateRetriedOnce
	return true
}

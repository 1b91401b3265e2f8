package client

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Credentials supplies the bearer token for backend calls.
// An empty token with a nil error means the user is not signed in.
type Credentials interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a token fixed at startup, typically from config.
type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) {
	return strings.TrimSpace(string(t)), nil
}

// TokenFile reads the token from a file on every call so a token refreshed
// by another process is picked up without a restart.
type TokenFile string

func (f TokenFile) Token(context.Context) (string, error) {
	b, err := os.ReadFile(string(f))
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read token file %s: %w", string(f), err)
	}
	return strings.TrimSpace(string(b)), nil
}

// Chain returns the first non-empty token from its providers.
type Chain []Credentials

func (c Chain) Token(ctx context.Context) (string, error) {
	for _, p := range c {
		tok, err := p.Token(ctx)
		if err != nil {
			return "", err
		}
		if tok != "" {
			return tok, nil
		}
	}
	return "", nil
}

// Package auth authenticates security operators. Credentials are checked
// against bcrypt hashes; a successful login issues a short-lived HMAC token
// that the transport middleware requires on mutating routes.
package auth

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	dErrors "gatewatch/pkg/domain-errors"
)

// TokenTTL is the operator session length.
const TokenTTL = 12 * time.Hour

// Service holds operator credentials and issues access tokens.
type Service struct {
	mu        sync.RWMutex
	operators map[string][]byte // name -> bcrypt hash

	tokens *TokenService
	logger *slog.Logger
}

// NewService constructs an auth service with no operators enrolled.
func NewService(tokens *TokenService, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		operators: make(map[string][]byte),
		tokens:    tokens,
		logger:    logger,
	}
}

// AddOperator enrolls an operator credential, replacing any existing one.
func (s *Service) AddOperator(name, password string) error {
	if name == "" || password == "" {
		return dErrors.New(dErrors.CodeBadRequest, "operator name and password are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "hash operator credential")
	}
	s.mu.Lock()
	s.operators[name] = hash
	s.mu.Unlock()
	return nil
}

// Login checks the credential and issues an access token. Unknown operators
// and wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, name, password string) (string, error) {
	s.mu.RLock()
	hash, ok := s.operators[name]
	s.mu.RUnlock()

	if !ok || bcrypt.CompareHashAndPassword(hash, []byte(password)) != nil {
		s.logger.WarnContext(ctx, "operator login rejected", "operator", name)
		return "", dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}

	token, err := s.tokens.Issue(name, TokenTTL)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "issue access token")
	}
	s.logger.InfoContext(ctx, "operator logged in", "operator", name)
	return token, nil
}

// Validate exposes token validation for the transport middleware.
func (s *Service) Validate(token string) (string, error) {
	return s.tokens.Validate(token)
}

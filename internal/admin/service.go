// Copyright (c) 2026 Folio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package admin authenticates the people allowed to curate the portfolio.
//
// # Architecture
//
// Folio has no user table. The owner account, and optionally one editor
// account, are configured through the environment with bcrypt hashes. A
// successful login yields a short lived RS256 bearer token carrying the role
// that [middleware.RequireRole] checks on every mutating route.
package admin

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/taibuivan/folio/internal/platform/apperr"
	"github.com/taibuivan/folio/internal/platform/ctxutil"
	"github.com/taibuivan/folio/internal/platform/sec"
	"github.com/taibuivan/folio/internal/platform/validate"
)

// TokenProvider defines the contract for generating admin tokens.
type TokenProvider interface {
	// GenerateAccessToken creates a signed JWT for username with role.
	//
	// # Returns
	//   - The signed token and its expiry, or an error if signing fails.
	GenerateAccessToken(username string, role sec.Role, timeToLive time.Duration) (string, time.Time, error)
}

// Account is one configured console login.
type Account struct {
	Username     string
	PasswordHash string
	Role         sec.Role
}

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Session is the result of a successful login.
type Session struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	Username    string    `json:"username"`
	Role        sec.Role  `json:"role"`
}

// Service implements the admin login use case.
type Service struct {
	accounts      map[string]Account
	tokenProvider TokenProvider
	timeToLive    time.Duration
	timingHash    string
	logger        *slog.Logger
}

// NewService constructs a [Service] over the configured accounts.
//
// Usernames are matched case-insensitively. Accounts with an empty hash or an
// unknown role are rejected so a misconfigured deployment fails at startup.
func NewService(accounts []Account, tokenProvider TokenProvider, timeToLive time.Duration, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}

	service := &Service{
		accounts:      make(map[string]Account, len(accounts)),
		tokenProvider: tokenProvider,
		timeToLive:    timeToLive,
		logger:        logger,
	}

	for _, account := range accounts {
		key := strings.ToLower(strings.TrimSpace(account.Username))
		if key == "" || account.PasswordHash == "" {
			return nil, fmt.Errorf("admin: account %q needs a username and a password hash", account.Username)
		}
		if !account.Role.Valid() {
			return nil, fmt.Errorf("admin: account %q has unknown role %q", account.Username, account.Role)
		}
		if _, exists := service.accounts[key]; exists {
			return nil, fmt.Errorf("admin: duplicate account %q", account.Username)
		}
		service.accounts[key] = account
	}

	// Unknown usernames are compared against this hash so they cost one bcrypt round too.
	timingHash, err := sec.HashPassword("folio-unknown-account")
	if err != nil {
		return nil, fmt.Errorf("admin: timing hash: %w", err)
	}
	service.timingHash = timingHash

	return service, nil
}

// Login validates credentials and issues an access token.
//
// # Returns
//   - A pointer to [Session] containing the access token.
//   - Returns [apperr.Unauthorized] if credentials do not match.
//
// # Flow
//  1. Validate the shape of the input.
//  2. Lookup the account and verify the bcrypt hash.
//  3. Sign an access token carrying the account role.
func (service *Service) Login(ctx context.Context, input LoginInput) (*Session, error) {
	logger := service.logger.With(slog.String("request_id", ctxutil.GetRequestID(ctx)))

	// ── 1. Input Validation ───────────────────────────────────────────────

	validator := &validate.Validator{}
	validator.Required("username", input.Username).MaxLen("username", input.Username, 100)
	validator.Required("password", input.Password).MaxLen("password", input.Password, 72)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	// ── 2. Credential Verification ────────────────────────────────────────

	account, found := service.accounts[strings.ToLower(strings.TrimSpace(input.Username))]
	if !found {
		sec.CheckPasswordHash(input.Password, service.timingHash)
		logger.Warn("admin_login_rejected", slog.String("reason", "unknown_account"))
		return nil, apperr.Unauthorized("Invalid login credentials")
	}

	if !sec.CheckPasswordHash(input.Password, account.PasswordHash) {
		logger.Warn("admin_login_rejected", slog.String("reason", "bad_password"), slog.String("username", account.Username))
		return nil, apperr.Unauthorized("Invalid login credentials")
	}

	// ── 3. Token Issuance ─────────────────────────────────────────────────

	accessToken, expiresAt, err := service.tokenProvider.GenerateAccessToken(account.Username, account.Role, service.timeToLive)
	if err != nil {
		return nil, fmt.Errorf("admin_service_token_generation_failed: %w", err)
	}

	logger.Info("admin_login_succeeded", slog.String("username", account.Username), slog.String("role", string(account.Role)))

	return &Session{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
		Username:    account.Username,
		Role:        account.Role,
	}, nil
}

package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/visitgate-api/internal/cache"
	"github.com/visitgate-api/internal/domain"
	"github.com/visitgate-api/internal/infrastructure/smtp"
)

const (
	codeTTL     = 10 * time.Minute
	cooldownTTL = 60 * time.Second
)

func codeKey(email string) string     { return "otp:" + email }
func cooldownKey(email string) string { return "cooldown:" + email }

type Service interface {
	// Issue generates a one-time code for the email, delivers it, and arms a
	// 60-second cooldown against re-issuance. Returns domain.ErrRateLimited
	// while the cooldown is live.
	Issue(ctx context.Context, email string) error
	// Verify matches a submitted code against the stored one. A successful
	// match deletes the code, so a repeated Verify reports
	// domain.ErrNotFound.
	Verify(ctx context.Context, email, code string) error
}

type ServiceDeps struct {
	Cache  cache.Store
	Mailer smtp.Mailer
}

type service struct {
	cache  cache.Store
	mailer smtp.Mailer
}

func NewService(deps ServiceDeps) Service {
	return &service{cache: deps.Cache, mailer: deps.Mailer}
}

func (s *service) Issue(ctx context.Context, email string) error {
	if email == "" {
		return fmt.Errorf("email required: %w", domain.ErrBadRequest)
	}

	if _, err := s.cache.Get(ctx, cooldownKey(email)); err == nil {
		return fmt.Errorf("code recently sent to %s: %w", email, domain.ErrRateLimited)
	} else if !errors.Is(err, cache.ErrKeyNotFound) {
		return fmt.Errorf("cooldown lookup: %w", err)
	}

	code, err := generateCode()
	if err != nil {
		return err
	}
	if err := s.cache.Set(ctx, codeKey(email), code, codeTTL); err != nil {
		return fmt.Errorf("store code: %w", err)
	}

	if err := s.mailer.SendEmail(email, "Your check-in code", "Your verification code: "+code+"\nIt expires in 10 minutes."); err != nil {
		// No cooldown on delivery failure so the visitor can retry at once.
		slog.Warn("code email delivery failed", "email", email, "err", err)
		return fmt.Errorf("deliver code: %w", domain.ErrExternalUnavailable)
	}

	if err := s.cache.Set(ctx, cooldownKey(email), "1", cooldownTTL); err != nil {
		slog.Warn("could not arm issue cooldown", "email", email, "err", err)
	}
	return nil
}

func (s *service) Verify(ctx context.Context, email, code string) error {
	stored, err := s.cache.Get(ctx, codeKey(email))
	if errors.Is(err, cache.ErrKeyNotFound) {
		return fmt.Errorf("no code issued for %s: %w", email, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("code lookup: %w", err)
	}
	if stored != code {
		// The stored code stays; the visitor may retry until it expires.
		return fmt.Errorf("wrong code for %s: %w", email, domain.ErrMismatch)
	}
	// Delete before reporting success so the code can never match twice.
	if err := s.cache.Delete(ctx, codeKey(email)); err != nil {
		return fmt.Errorf("consume code: %w", err)
	}
	return nil
}

// generateCode returns a uniform random 6-digit code in 100000–999999.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", n.Int64()+100000), nil
}

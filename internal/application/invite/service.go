package invite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/visitgate-api/internal/cache"
	"github.com/visitgate-api/internal/domain"
	"github.com/visitgate-api/internal/pkg/token"
)

const (
	tokenTTL       = 48 * time.Hour
	tokenKeyPrefix = "register:token:"
)

func tokenKey(tok string) string { return tokenKeyPrefix + tok }

// Invitation pairs a live token with the email it was issued for.
type Invitation struct {
	Token string `json:"token"`
	Email string `json:"email"`
}

type Service interface {
	// Create issues a single-use registration token bound to the email,
	// valid for 48 hours.
	Create(ctx context.Context, email string) (string, error)
	// Resolve returns the email a token is bound to without consuming it
	// (used to pre-fill the registration form).
	Resolve(ctx context.Context, tok string) (string, error)
	// Consume validates that the token exists and is bound to the given
	// email. It deliberately does NOT delete the token: deletion (Burn) is
	// the final step of a successful registration submission, so a failed
	// downstream submission leaves the token usable for a retry.
	Consume(ctx context.Context, tok, email string) error
	// Burn deletes the token.
	Burn(ctx context.Context, tok string) error
	// Outstanding lists all live invitations.
	Outstanding(ctx context.Context) ([]Invitation, error)
}

type ServiceDeps struct {
	Cache cache.Store
}

type service struct {
	cache cache.Store
}

func NewService(deps ServiceDeps) Service {
	return &service{cache: deps.Cache}
}

func (s *service) Create(ctx context.Context, email string) (string, error) {
	if email == "" {
		return "", fmt.Errorf("email required: %w", domain.ErrBadRequest)
	}
	tok, err := token.New()
	if err != nil {
		return "", err
	}
	if err := s.cache.Set(ctx, tokenKey(tok), email, tokenTTL); err != nil {
		return "", fmt.Errorf("store invitation: %w", err)
	}
	return tok, nil
}

func (s *service) Resolve(ctx context.Context, tok string) (string, error) {
	email, err := s.cache.Get(ctx, tokenKey(tok))
	if errors.Is(err, cache.ErrKeyNotFound) {
		return "", fmt.Errorf("invitation token: %w", domain.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("invitation lookup: %w", err)
	}
	return email, nil
}

func (s *service) Consume(ctx context.Context, tok, email string) error {
	bound, err := s.Resolve(ctx, tok)
	if err != nil {
		return err
	}
	// Exact match, not case-folded.
	if bound != email {
		return fmt.Errorf("invitation bound to a different email: %w", domain.ErrMismatch)
	}
	return nil
}

func (s *service) Burn(ctx context.Context, tok string) error {
	return s.cache.Delete(ctx, tokenKey(tok))
}

func (s *service) Outstanding(ctx context.Context) ([]Invitation, error) {
	keys, err := s.cache.Keys(ctx, tokenKeyPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("list invitations: %w", err)
	}
	invitations := make([]Invitation, 0, len(keys))
	for _, k := range keys {
		email, err := s.cache.Get(ctx, k)
		if errors.Is(err, cache.ErrKeyNotFound) {
			// Expired between Keys and Get.
			continue
		}
		if err != nil {
			slog.Warn("invitation read failed during listing", "key", k, "err", err)
			continue
		}
		invitations = append(invitations, Invitation{
			Token: strings.TrimPrefix(k, tokenKeyPrefix),
			Email: email,
		})
	}
	return invitations, nil
}

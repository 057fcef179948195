package registration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/visitgate-api/internal/cache"
	"github.com/visitgate-api/internal/domain"
	"github.com/visitgate-api/internal/infrastructure/verifier"
	"github.com/visitgate-api/internal/pkg/credential"
)

const stashTTL = 24 * time.Hour

func stashKey(transactionID string) string { return "registration:" + transactionID }

// Poll statuses reported to the kiosk client.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

type SubmitRequest struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Company string `json:"company"`
	Phone   string `json:"phone"`
	// InviteToken, when present, must be a live invitation bound to Email.
	InviteToken string `json:"invite_token"`
}

type SubmitResponse struct {
	TransactionID string `json:"transaction_id"`
	QRCode        string `json:"qr_code"`
	DeepLink      string `json:"deep_link"`
}

// PollResponse reports one poll of an in-flight transaction. Payload is the
// verifier's raw completion body, passed through untouched; the stashed
// fields feed the visitor profile only and are never echoed here.
type PollResponse struct {
	Status  string          `json:"status"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// VisitorStore is the durable profile store consumed by the engine.
type VisitorStore interface {
	Get(ctx context.Context, email string) (*domain.Visitor, error)
	Put(ctx context.Context, v *domain.Visitor) error
}

// InviteStore is the slice of the invitation manager the engine needs.
type InviteStore interface {
	Consume(ctx context.Context, tok, email string) error
	Burn(ctx context.Context, tok string) error
}

type Service interface {
	// Submit sends a registration to the external verifier and stashes the
	// submitted fields under the returned transaction id; the verifier does
	// not echo them back on completion.
	Submit(ctx context.Context, req SubmitRequest) (*SubmitResponse, error)
	// Correlate polls the verifier for a transaction and, on completion,
	// folds the stashed fields and extracted credential into the visitor
	// profile. Safe to call repeatedly after completion: subsequent calls
	// find no stash, skip the upsert, and return the same payload.
	Correlate(ctx context.Context, transactionID string) (*PollResponse, error)
}

type ServiceDeps struct {
	Cache    cache.Store
	Visitors VisitorStore
	Invites  InviteStore
	Verifier verifier.Verifier
}

type service struct {
	cache    cache.Store
	visitors VisitorStore
	invites  InviteStore
	verifier verifier.Verifier
}

func NewService(deps ServiceDeps) Service {
	return &service{
		cache:    deps.Cache,
		visitors: deps.Visitors,
		invites:  deps.Invites,
		verifier: deps.Verifier,
	}
}

func (s *service) Submit(ctx context.Context, req SubmitRequest) (*SubmitResponse, error) {
	if req.Name == "" || req.Email == "" {
		return nil, fmt.Errorf("name and email required: %w", domain.ErrBadRequest)
	}

	if req.InviteToken != "" {
		if err := s.invites.Consume(ctx, req.InviteToken, req.Email); err != nil {
			return nil, err
		}
	}

	// A previously issued credential id is forwarded as a deduplication
	// hint. The lookup is best-effort: a missing profile or a repo outage
	// just means no hint.
	var credentialID string
	if v, err := s.visitors.Get(ctx, req.Email); err == nil {
		credentialID = v.CredentialID
	} else if !errors.Is(err, domain.ErrNotFound) {
		slog.Warn("visitor lookup failed, submitting without dedup hint", "email", req.Email, "err", err)
	}

	result, err := s.verifier.Submit(ctx, verifier.Submission{
		Name:         req.Name,
		Email:        req.Email,
		Company:      req.Company,
		Phone:        req.Phone,
		CredentialID: credentialID,
	})
	if err != nil {
		return nil, fmt.Errorf("verifier submit: %w", domain.ErrExternalUnavailable)
	}

	fields, err := json.Marshal(domain.RegistrationFields{
		Name:    req.Name,
		Email:   req.Email,
		Company: req.Company,
		Phone:   req.Phone,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal stash: %w", err)
	}
	if err := s.cache.Set(ctx, stashKey(result.TransactionID), string(fields), stashTTL); err != nil {
		// The verifier already accepted the submission; failing the whole
		// request now would strand the visitor. The profile upsert is lost
		// for this transaction, nothing else.
		slog.Warn("could not stash registration fields", "transaction_id", result.TransactionID, "err", err)
	}

	// Token deletion is the last step of a successful submission: any
	// failure before this point leaves the invitation usable for a retry.
	if req.InviteToken != "" {
		if err := s.invites.Burn(ctx, req.InviteToken); err != nil {
			slog.Warn("could not burn invitation token", "err", err)
		}
	}

	return &SubmitResponse{
		TransactionID: result.TransactionID,
		QRCode:        result.QRCode,
		DeepLink:      result.DeepLink,
	}, nil
}

func (s *service) Correlate(ctx context.Context, transactionID string) (*PollResponse, error) {
	if transactionID == "" {
		return nil, fmt.Errorf("transaction id required: %w", domain.ErrBadRequest)
	}

	poll, err := s.verifier.PollStatus(ctx, transactionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("verifier poll: %w", domain.ErrExternalUnavailable)
	}
	if !poll.Completed {
		return &PollResponse{Status: StatusPending}, nil
	}

	s.consumeStash(ctx, transactionID, poll.IdentityToken)

	return &PollResponse{Status: StatusCompleted, Payload: poll.Payload}, nil
}

// consumeStash reads back the stashed submission fields, upserts the visitor
// profile, and deletes the stash. Every failure mode degrades to "no profile
// update" — the completion payload still reaches the client.
func (s *service) consumeStash(ctx context.Context, transactionID, identityToken string) {
	raw, err := s.cache.Get(ctx, stashKey(transactionID))
	if errors.Is(err, cache.ErrKeyNotFound) {
		// Already consumed by an earlier poll, or expired.
		slog.Info("no stash for completed transaction, skipping profile update", "transaction_id", transactionID)
		return
	}
	if err != nil {
		slog.Warn("stash read failed", "transaction_id", transactionID, "err", err)
		return
	}

	var fields domain.RegistrationFields
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		slog.Warn("stash unreadable, dropping it", "transaction_id", transactionID, "err", err)
		s.deleteStash(ctx, transactionID)
		return
	}

	var credentialID string
	var expiresAt time.Time
	if identityToken != "" {
		credentialID, expiresAt, err = credential.Extract(identityToken)
		if err != nil {
			slog.Warn("malformed identity token, continuing without credential", "transaction_id", transactionID, "err", err)
		}
	}

	s.upsertVisitor(ctx, fields, credentialID, expiresAt)
	s.deleteStash(ctx, transactionID)
}

func (s *service) upsertVisitor(ctx context.Context, fields domain.RegistrationFields, credentialID string, expiresAt time.Time) {
	now := time.Now().UTC()
	v, err := s.visitors.Get(ctx, fields.Email)
	if errors.Is(err, domain.ErrNotFound) {
		v = &domain.Visitor{Email: fields.Email, CreatedAt: now}
	} else if err != nil {
		slog.Warn("visitor read failed, skipping profile update", "email", fields.Email, "err", err)
		return
	}

	v.Name = fields.Name
	v.Company = fields.Company
	v.Phone = fields.Phone
	v.UpdatedAt = now
	// Credential fields only move forward: an empty extraction never wipes a
	// previously stored credential reference.
	if credentialID != "" {
		v.CredentialID = credentialID
	}
	if !expiresAt.IsZero() {
		v.CredentialExpiresAt = expiresAt.Unix()
	}

	if err := s.visitors.Put(ctx, v); err != nil {
		slog.Warn("visitor upsert failed", "email", fields.Email, "err", err)
	}
}

func (s *service) deleteStash(ctx context.Context, transactionID string) {
	if err := s.cache.Delete(ctx, stashKey(transactionID)); err != nil {
		slog.Warn("stash delete failed", "transaction_id", transactionID, "err", err)
	}
}

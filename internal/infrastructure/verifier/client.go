package verifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/visitgate-api/internal/config"
	"github.com/visitgate-api/internal/domain"
)

// Submission is the visitor data sent to the external identity-wallet
// verifier. CredentialID is a deduplication hint: when the visitor already
// holds a credential from a previous visit, the verifier reuses it instead
// of issuing a new one.
type Submission struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Company      string `json:"company,omitempty"`
	Phone        string `json:"phone,omitempty"`
	CredentialID string `json:"credential_id,omitempty"`
}

// SubmitResult is the verifier's acknowledgement of a new transaction. The
// QR code and deep link are handed straight to the kiosk client.
type SubmitResult struct {
	TransactionID string `json:"transaction_id"`
	QRCode        string `json:"qr_code"`
	DeepLink      string `json:"deep_link"`
}

// PollResult is one poll of a transaction. Payload carries the verifier's
// raw completion body so the client receives it unaltered; IdentityToken is
// pre-extracted from that body for claim parsing.
type PollResult struct {
	Completed     bool
	IdentityToken string
	Payload       json.RawMessage
}

// Verifier is the collaborator interface over the external verification
// service. The client's polling loop is the only retry mechanism; this layer
// performs none of its own.
type Verifier interface {
	Submit(ctx context.Context, sub Submission) (*SubmitResult, error)
	PollStatus(ctx context.Context, transactionID string) (*PollResult, error)
}

type client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(cfg *config.Config) Verifier {
	return &client{
		baseURL: strings.TrimRight(cfg.VerifierBaseURL, "/"),
		apiKey:  cfg.VerifierAPIKey,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *client) Submit(ctx context.Context, sub Submission) (*SubmitResult, error) {
	body, err := json.Marshal(sub)
	if err != nil {
		return nil, fmt.Errorf("marshal submission: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/verifications", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("verifier submit: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("verifier submit returned %d", resp.StatusCode)
	}

	var result SubmitResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode submit response: %w", err)
	}
	return &result, nil
}

func (c *client) PollStatus(ctx context.Context, transactionID string) (*PollResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/verifications/"+transactionID, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("verifier poll: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("transaction %s: %w", transactionID, domain.ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("verifier poll returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read poll response: %w", err)
	}
	var status struct {
		Status        string `json:"status"`
		IdentityToken string `json:"identity_token"`
	}
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, fmt.Errorf("decode poll response: %w", err)
	}
	if status.Status != "completed" {
		return &PollResult{Completed: false}, nil
	}
	return &PollResult{
		Completed:     true,
		IdentityToken: status.IdentityToken,
		Payload:       json.RawMessage(body),
	}, nil
}

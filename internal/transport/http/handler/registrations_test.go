package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/visitgate-api/internal/application/registration"
	"github.com/visitgate-api/internal/domain"
)

type mockRegSvc struct{ mock.Mock }

func (m *mockRegSvc) Submit(ctx context.Context, req registration.SubmitRequest) (*registration.SubmitResponse, error) {
	args := m.Called(ctx, req)
	if r, _ := args.Get(0).(*registration.SubmitResponse); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRegSvc) Correlate(ctx context.Context, transactionID string) (*registration.PollResponse, error) {
	args := m.Called(ctx, transactionID)
	if r, _ := args.Get(0).(*registration.PollResponse); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

// withChiParam injects a chi URL param into the request context.
func withChiParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestSubmit_InvalidBody(t *testing.T) {
	h := NewRegistrationHandler(&mockRegSvc{})
	r := httptest.NewRequest(http.MethodPost, "/v1/registrations", bytes.NewBufferString("not-json"))
	rr := httptest.NewRecorder()
	h.Submit(rr, r)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSubmit_ValidationFailure(t *testing.T) {
	h := NewRegistrationHandler(&mockRegSvc{})
	body, _ := json.Marshal(registration.SubmitRequest{Name: "Alice"}) // missing email
	r := httptest.NewRequest(http.MethodPost, "/v1/registrations", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.Submit(rr, r)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestSubmit_InviteMismatch(t *testing.T) {
	svc := &mockRegSvc{}
	svc.On("Submit", mock.Anything, mock.Anything).Return(nil, domain.ErrMismatch)
	h := NewRegistrationHandler(svc)
	body, _ := json.Marshal(registration.SubmitRequest{
		Name: "Alice", Email: "alice@example.com", InviteToken: "tok",
	})
	r := httptest.NewRequest(http.MethodPost, "/v1/registrations", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.Submit(rr, r)
	assert.Equal(t, http.StatusConflict, rr.Code)
	svc.AssertExpectations(t)
}

func TestSubmit_VerifierDown(t *testing.T) {
	svc := &mockRegSvc{}
	svc.On("Submit", mock.Anything, mock.Anything).Return(nil, domain.ErrExternalUnavailable)
	h := NewRegistrationHandler(svc)
	body, _ := json.Marshal(registration.SubmitRequest{Name: "Alice", Email: "alice@example.com"})
	r := httptest.NewRequest(http.MethodPost, "/v1/registrations", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.Submit(rr, r)
	assert.Equal(t, http.StatusBadGateway, rr.Code)
	svc.AssertExpectations(t)
}

func TestSubmit_HappyPath(t *testing.T) {
	svc := &mockRegSvc{}
	svc.On("Submit", mock.Anything, mock.Anything).Return(&registration.SubmitResponse{
		TransactionID: "tx1", QRCode: "qr-data", DeepLink: "app://verify/tx1",
	}, nil)
	h := NewRegistrationHandler(svc)
	body, _ := json.Marshal(registration.SubmitRequest{Name: "Alice", Email: "alice@example.com"})
	r := httptest.NewRequest(http.MethodPost, "/v1/registrations", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.Submit(rr, r)

	assert.Equal(t, http.StatusAccepted, rr.Code)
	var resp registration.SubmitResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "tx1", resp.TransactionID)
	svc.AssertExpectations(t)
}

func TestPoll_UnknownTransaction(t *testing.T) {
	svc := &mockRegSvc{}
	svc.On("Correlate", mock.Anything, "missing").Return(nil, domain.ErrNotFound)
	h := NewRegistrationHandler(svc)
	r := withChiParam(httptest.NewRequest(http.MethodGet, "/v1/registrations/missing", nil), "transactionID", "missing")
	rr := httptest.NewRecorder()
	h.Poll(rr, r)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	svc.AssertExpectations(t)
}

func TestPoll_Pending(t *testing.T) {
	svc := &mockRegSvc{}
	svc.On("Correlate", mock.Anything, "tx1").Return(&registration.PollResponse{Status: registration.StatusPending}, nil)
	h := NewRegistrationHandler(svc)
	r := withChiParam(httptest.NewRequest(http.MethodGet, "/v1/registrations/tx1", nil), "transactionID", "tx1")
	rr := httptest.NewRecorder()
	h.Poll(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp registration.PollResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, registration.StatusPending, resp.Status)
	svc.AssertExpectations(t)
}

func TestPoll_Completed(t *testing.T) {
	svc := &mockRegSvc{}
	svc.On("Correlate", mock.Anything, "tx1").Return(&registration.PollResponse{
		Status:  registration.StatusCompleted,
		Payload: json.RawMessage(`{"status":"completed"}`),
	}, nil)
	h := NewRegistrationHandler(svc)
	r := withChiParam(httptest.NewRequest(http.MethodGet, "/v1/registrations/tx1", nil), "transactionID", "tx1")
	rr := httptest.NewRecorder()
	h.Poll(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp registration.PollResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, registration.StatusCompleted, resp.Status)
	svc.AssertExpectations(t)
}

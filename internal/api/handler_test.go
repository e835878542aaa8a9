package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vofmun/registrar/internal/referral"
	"github.com/vofmun/registrar/internal/registration"
	"github.com/vofmun/registrar/internal/storage"
)

type fakeCommitter struct {
	outcome *registration.Outcome
	err     error
	gotEnv  *registration.Envelope
}

func (f *fakeCommitter) Commit(_ context.Context, env *registration.Envelope) (*registration.Outcome, error) {
	f.gotEnv = env
	if f.err != nil {
		return nil, f.err
	}
	return f.outcome, nil
}

func postSignup(t *testing.T, committer Committer, body string) *httptest.ResponseRecorder {
	t.Helper()
	handler := NewHandler(committer, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/signup", strings.NewReader(body))
	handler.Routes().ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestSignupSuccess(t *testing.T) {
	committer := &fakeCommitter{outcome: &registration.Outcome{
		UserID:  "user-1",
		Message: "Registration submitted successfully!",
	}}

	rec := postSignup(t, committer, `{"selectedRole":"delegate","formData":{"email":"a@b.co"}}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	resp := decodeBody[SuccessResponse](t, rec)
	require.Equal(t, "success", resp.Status)
	require.Equal(t, "user-1", resp.UserID)
	require.Equal(t, "Registration submitted successfully!", resp.Message)

	require.Equal(t, "delegate", committer.gotEnv.SelectedRole)
	require.Equal(t, "a@b.co", committer.gotEnv.FormData.Email)
}

func TestSignupInvalidJSON(t *testing.T) {
	rec := postSignup(t, &fakeCommitter{}, `{not json`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeBody[ErrorResponse](t, rec)
	require.Equal(t, "error", resp.Status)
	require.Equal(t, "Invalid JSON body", resp.Message)
}

func TestSignupValidationError(t *testing.T) {
	committer := &fakeCommitter{err: fmt.Errorf("commit: %w", &registration.ValidationError{
		Fields: []registration.FieldError{
			{Field: "email", Message: "is required"},
			{Field: "agreeTerms", Message: "terms must be accepted"},
		},
	})}

	rec := postSignup(t, committer, `{}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeBody[ErrorResponse](t, rec)
	require.Equal(t, "error", resp.Status)
	require.Equal(t, "Validation error", resp.Message)
	require.Len(t, resp.Errors, 2)
	require.Equal(t, "email", resp.Errors[0].Field)
}

func TestSignupReferralRejection(t *testing.T) {
	committer := &fakeCommitter{err: fmt.Errorf("commit: %w", &registration.ReferralError{
		Invalid: []referral.InvalidCode{
			{
				Code: "VOFMM1",
				Suggestions: []referral.Entry{
					{Code: "VOFMUN1", Owner: "Alice"},
					{Code: "VOFMUN2", Owner: "Bilge"},
				},
			},
			{Code: "ZZZZZZ"},
		},
	})}

	rec := postSignup(t, committer, `{}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeBody[ReferralRejection](t, rec)
	require.Equal(t, "invalid_referral_codes", resp.Status)
	require.Contains(t, resp.Message, `Referral code "VOFMM1" is not recognized.`)
	require.Contains(t, resp.Message, "Did you mean VOFMUN1 (Alice) or VOFMUN2 (Bilge)?")
	require.Len(t, resp.Suggestions, 2)
	require.Equal(t, "VOFMM1", resp.Suggestions[0].Code)
	require.Equal(t, "VOFMUN1", resp.Suggestions[0].Suggestions[0].Code)
	require.Equal(t, "Alice", resp.Suggestions[0].Suggestions[0].Owner)
	require.Empty(t, resp.Suggestions[1].Suggestions)
}

func TestSignupDuplicateEmail(t *testing.T) {
	committer := &fakeCommitter{err: fmt.Errorf("commit: %w", registration.ErrEmailExists)}

	rec := postSignup(t, committer, `{}`)

	require.Equal(t, http.StatusConflict, rec.Code)
	resp := decodeBody[ErrorResponse](t, rec)
	require.Equal(t, "error", resp.Status)
	require.Contains(t, resp.Message, "already exists")
}

func TestSignupBadProofPayload(t *testing.T) {
	committer := &fakeCommitter{err: fmt.Errorf("commit: %w: no data section", storage.ErrBadProofPayload)}

	rec := postSignup(t, committer, `{}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeBody[ErrorResponse](t, rec)
	require.Contains(t, resp.Message, "could not be read")
}

func TestSignupBucketConfigErrorHidesDetails(t *testing.T) {
	cfgErr := &storage.BucketConfigError{Bucket: "payment-proofs", Err: storage.ErrBucketNotFound}
	committer := &fakeCommitter{err: fmt.Errorf("commit: %w", cfgErr)}

	rec := postSignup(t, committer, `{}`)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeBody[ErrorResponse](t, rec)
	require.Equal(t, "error", resp.Status)
	require.NotContains(t, resp.Message, "payment-proofs")
	require.Contains(t, resp.Message, "temporarily unavailable")
}

func TestSignupUnclassifiedErrorIsGeneric(t *testing.T) {
	committer := &fakeCommitter{err: fmt.Errorf("commit: disk full")}

	rec := postSignup(t, committer, `{}`)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeBody[ErrorResponse](t, rec)
	require.Equal(t, "Internal server error. Please try again.", resp.Message)
	require.NotContains(t, rec.Body.String(), "disk full")
}

func TestSignupMethodNotAllowed(t *testing.T) {
	handler := NewHandler(&fakeCommitter{}, nil)
	rec := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/signup", nil))
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealthWithoutDB(t *testing.T) {
	handler := NewHandler(&fakeCommitter{}, nil)
	rec := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[HealthResponse](t, rec)
	require.Equal(t, "ok", resp.Status)
}

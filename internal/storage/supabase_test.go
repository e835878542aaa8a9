package storage

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSupabaseUploadSendsAuthorizedRequest(t *testing.T) {
	var (
		gotPath        string
		gotAuth        string
		gotContentType string
		gotBody        []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store := NewSupabaseStore(srv.URL, "service-key", "payment-proofs", time.Second)
	err := store.Upload(context.Background(), "proof-of-payment/2026-03-14/abc-receipt.png", []byte("bytes"), "image/png")
	require.NoError(t, err)

	require.Equal(t, "/object/payment-proofs/proof-of-payment/2026-03-14/abc-receipt.png", gotPath)
	require.Equal(t, "Bearer service-key", gotAuth)
	require.Equal(t, "image/png", gotContentType)
	require.Equal(t, []byte("bytes"), gotBody)
}

func TestSupabaseUploadMapsMissingBucket(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"404 status", http.StatusNotFound, `{"message":"not found"}`},
		{"named in body", http.StatusBadRequest, `{"error":"Bucket not found"}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				io.WriteString(w, tc.body)
			}))
			defer srv.Close()

			store := NewSupabaseStore(srv.URL, "key", "payment-proofs", time.Second)
			err := store.Upload(context.Background(), "a/b", []byte("x"), "image/png")
			require.ErrorIs(t, err, ErrBucketNotFound)
		})
	}
}

func TestSupabaseUploadReportsOtherFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, "boom")
	}))
	defer srv.Close()

	store := NewSupabaseStore(srv.URL, "key", "payment-proofs", time.Second)
	err := store.Upload(context.Background(), "a/b", []byte("x"), "image/png")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrBucketNotFound)
	require.Contains(t, err.Error(), "boom")
}

func TestSupabaseEnsureBucketCreatesWhenMissing(t *testing.T) {
	var created map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/bucket/payment-proofs":
			w.WriteHeader(http.StatusNotFound)
		case r.Method == http.MethodPost && r.URL.Path == "/bucket":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&created))
			w.WriteHeader(http.StatusOK)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	store := NewSupabaseStore(srv.URL, "key", "payment-proofs", time.Second)
	require.NoError(t, store.EnsureBucket(context.Background()))
	require.Equal(t, "payment-proofs", created["id"])
	require.Equal(t, true, created["public"])
}

func TestSupabaseEnsureBucketNoopWhenPresent(t *testing.T) {
	var posts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			posts++
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store := NewSupabaseStore(srv.URL, "key", "payment-proofs", time.Second)
	require.NoError(t, store.EnsureBucket(context.Background()))
	require.Zero(t, posts)
}

func TestSupabasePublicURL(t *testing.T) {
	store := NewSupabaseStore("https://example.supabase.co/storage/v1/", "key", "payment-proofs", time.Second)
	got := store.PublicURL("proof-of-payment/2026-03-14/abc-receipt.png")
	require.Equal(t,
		"https://example.supabase.co/storage/v1/object/public/payment-proofs/proof-of-payment/2026-03-14/abc-receipt.png",
		got)
}

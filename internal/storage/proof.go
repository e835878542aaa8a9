package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vofmun/registrar/internal/log"
	"github.com/vofmun/registrar/internal/registration"
)

// proofPrefix is the key namespace for payment proof artifacts. Keys
// look like proof-of-payment/2026-03-14/<uuid>-receipt.png.
const proofPrefix = "proof-of-payment"

var unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// ProofHandler decodes inline proof uploads and stores them through an
// ObjectStore. It implements registration.ProofUploader.
type ProofHandler struct {
	store  ObjectStore
	bucket string

	now   func() time.Time
	newID func() string
}

// NewProofHandler wires a handler over store. bucket is used only for
// error reporting; the store itself is already bound to it.
func NewProofHandler(store ObjectStore, bucket string) *ProofHandler {
	return &ProofHandler{
		store:  store,
		bucket: bucket,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Upload validates the confirmation, decodes the inline file, and writes
// it under a date-partitioned, uuid-prefixed key. A missing bucket is
// surfaced as *BucketConfigError so the boundary can split operator and
// user messaging.
func (h *ProofHandler) Upload(ctx context.Context, confirmation registration.PaymentConfirmation) (*registration.PaymentProof, error) {
	if err := h.checkConfirmation(confirmation); err != nil {
		return nil, err
	}

	data, err := decodeDataURL(confirmation.DataURL)
	if err != nil {
		return nil, err
	}

	name := safeFileName(confirmation.FileName, confirmation.MimeType)
	key := h.deriveKey(name)

	if err := h.store.EnsureBucket(ctx); err != nil {
		log.Warn(log.CatStorage, "bucket check failed, attempting upload anyway", "bucket", h.bucket, "error", err)
	}

	if err := h.store.Upload(ctx, key, data, contentType(confirmation.MimeType)); err != nil {
		if errors.Is(err, ErrBucketNotFound) {
			cfgErr := &BucketConfigError{Bucket: h.bucket, Err: err}
			log.Error(log.CatStorage, cfgErr.OperatorMessage())
			return nil, cfgErr
		}
		return nil, fmt.Errorf("upload proof: %w", err)
	}

	proof := &registration.PaymentProof{
		URL:        h.store.PublicURL(key),
		StorageKey: key,
		FileName:   name,
		PayerName:  strings.TrimSpace(confirmation.FullName),
		Role:       registration.Role(confirmation.Role),
		UploadedAt: h.now().UTC(),
	}
	log.Info(log.CatStorage, "payment proof stored", "key", key, "bytes", len(data))
	return proof, nil
}

func (h *ProofHandler) checkConfirmation(c registration.PaymentConfirmation) error {
	var fields []registration.FieldError
	require := func(field, value string) {
		if strings.TrimSpace(value) == "" {
			fields = append(fields, registration.FieldError{
				Field:   "paymentConfirmation." + field,
				Message: "is required",
			})
		}
	}
	require("fullName", c.FullName)
	require("role", c.Role)
	require("mimeType", c.MimeType)
	require("dataUrl", c.DataURL)
	// A whitespace-only file name is accepted; safeFileName falls back
	// to a generic name for it.
	if c.FileName == "" {
		fields = append(fields, registration.FieldError{
			Field:   "paymentConfirmation.fileName",
			Message: "is required",
		})
	}
	if len(fields) > 0 {
		return &registration.ValidationError{Fields: fields}
	}
	return nil
}

// deriveKey builds proof-of-payment/<UTC date>/<uuid>-<name>.
// The uuid prefix makes same-named uploads collision free; the date
// segment keeps the bucket browsable by day.
func (h *ProofHandler) deriveKey(name string) string {
	day := h.now().UTC().Format("2006-01-02")
	return fmt.Sprintf("%s/%s/%s-%s", proofPrefix, day, h.newID(), name)
}

// decodeDataURL extracts and decodes the base64 section after the first
// comma of a data: URL.
func decodeDataURL(dataURL string) ([]byte, error) {
	_, encoded, found := strings.Cut(dataURL, ",")
	if !found {
		return nil, fmt.Errorf("%w: no data section", ErrBadProofPayload)
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadProofPayload, err)
	}
	return data, nil
}

// safeFileName produces the stored file name: trimmed, sanitized to
// [a-zA-Z0-9._-], with an extension derived from the mime subtype when
// the name carries none. A blank name becomes "payment-proof". The same
// name appears in the storage key and the proof sub-record.
func safeFileName(rawName, mimeType string) string {
	raw := strings.TrimSpace(rawName)
	if raw == "" {
		raw = "payment-proof"
	}
	name := unsafeFileChars.ReplaceAllString(raw, "_")
	if !strings.Contains(name, ".") {
		name += "." + extensionFor(mimeType)
	}
	return name
}

// extensionFor derives a file extension from a mime type subtype,
// falling back to png for unparsable types.
func extensionFor(mimeType string) string {
	_, subtype, found := strings.Cut(mimeType, "/")
	if !found || subtype == "" {
		return "png"
	}
	// strip parameters like "; charset=utf-8"
	if idx := strings.IndexAny(subtype, "; "); idx >= 0 {
		subtype = subtype[:idx]
	}
	if subtype == "" {
		return "png"
	}
	return subtype
}

func contentType(mimeType string) string {
	if strings.TrimSpace(mimeType) == "" {
		return "application/octet-stream"
	}
	return mimeType
}

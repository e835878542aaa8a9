package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vofmun/registrar/internal/registration"
)

func testRepo(t *testing.T) *RegistrationRepository {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db.RegistrationRepository()
}

func sampleRegistration(id, email string) *registration.Registration {
	return &registration.Registration{
		ID:                    id,
		Email:                 email,
		FirstName:             "Ayşe",
		LastName:              "Yılmaz",
		Phone:                 "+90 555 000 0000",
		Nationality:           "TR",
		School:                "Atatürk Anadolu Lisesi",
		Grade:                 "11",
		DietaryType:           "vegetarian",
		HasAllergies:          "yes",
		AllergiesDetails:      "peanuts",
		EmergencyContactName:  "Fatma Yılmaz",
		EmergencyContactPhone: "+90 555 111 1111",
		AgreeTerms:            true,
		AgreePhotos:           true,
		Role:                  registration.RoleDelegate,
		Delegate: &registration.DelegateData{
			Committee1: "ga1",
			Committee2: "who",
			Motivation: "disarmament",
		},
		ReferralCodes: []string{"VOFMUN1", "EARLYBIRD"},
		PaymentStatus: registration.PaymentPending,
		Proof: &registration.PaymentProof{
			URL:        "https://storage.example/object/public/payment-proofs/proof-of-payment/2026-03-14/abc-dekont.png",
			StorageKey: "proof-of-payment/2026-03-14/abc-dekont.png",
			FileName:   "dekont.png",
			PayerName:  "Ayşe Yılmaz",
			Role:       registration.RoleDelegate,
			UploadedAt: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		},
		CreatedAt: time.Date(2026, 3, 14, 9, 31, 0, 0, time.UTC),
	}
}

func TestInsertAndFindByIDRoundTrip(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	want := sampleRegistration("r1", "ayse@example.com")
	require.NoError(t, repo.Insert(ctx, want))

	got, err := repo.FindByID(ctx, "r1")
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestInsertMinimalRegistration(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	want := &registration.Registration{
		ID:                    "r2",
		Email:                 "mehmet@example.com",
		FirstName:             "Mehmet",
		LastName:              "Demir",
		Phone:                 "+90 555 222 2222",
		School:                "Fen Lisesi",
		Grade:                 "10",
		DietaryType:           "standard",
		HasAllergies:          "no",
		EmergencyContactName:  "Ali Demir",
		EmergencyContactPhone: "+90 555 333 3333",
		AgreeTerms:            true,
		Role:                  registration.RoleAdmin,
		Admin:                 &registration.AdminData{TeamPreference: "tech"},
		PaymentStatus:         registration.PaymentUnpaid,
		CreatedAt:             time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.Insert(ctx, want))

	got, err := repo.FindByID(ctx, "r2")
	require.NoError(t, err)
	require.Equal(t, want, got)
	require.Nil(t, got.Proof)
	require.Nil(t, got.ReferralCodes)
	require.Nil(t, got.Delegate)
}

func TestInsertDuplicateEmailReturnsErrEmailExists(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, sampleRegistration("r1", "ayse@example.com")))

	err := repo.Insert(ctx, sampleRegistration("r2", "ayse@example.com"))
	require.ErrorIs(t, err, registration.ErrEmailExists)

	// Exactly one row survives the conflict.
	counts, err := repo.CountByRole(ctx)
	require.NoError(t, err)
	require.Equal(t, map[registration.Role]int{registration.RoleDelegate: 1}, counts)
}

func TestFindByEmail(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, sampleRegistration("r1", "ayse@example.com")))

	got, err := repo.FindByEmail(ctx, "ayse@example.com")
	require.NoError(t, err)
	require.Equal(t, "r1", got.ID)

	_, err = repo.FindByEmail(ctx, "nobody@example.com")
	require.ErrorIs(t, err, ErrRegistrationNotFound)
}

func TestFindByIDNotFound(t *testing.T) {
	repo := testRepo(t)
	_, err := repo.FindByID(context.Background(), "missing")
	require.ErrorIs(t, err, ErrRegistrationNotFound)
}

func TestCountByRole(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	a := sampleRegistration("r1", "a@example.com")
	b := sampleRegistration("r2", "b@example.com")
	c := sampleRegistration("r3", "c@example.com")
	c.Role = registration.RoleChair
	c.Delegate = nil
	c.Chair = &registration.ChairData{PreferredCommittee: "icj", Experience: "twice"}
	c.Proof.Role = registration.RoleChair

	for _, reg := range []*registration.Registration{a, b, c} {
		require.NoError(t, repo.Insert(ctx, reg))
	}

	counts, err := repo.CountByRole(ctx)
	require.NoError(t, err)
	require.Equal(t, map[registration.Role]int{
		registration.RoleDelegate: 2,
		registration.RoleChair:    1,
	}, counts)
}

func TestListRecentNewestFirst(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	old := sampleRegistration("r1", "a@example.com")
	old.CreatedAt = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	newer := sampleRegistration("r2", "b@example.com")
	newer.CreatedAt = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Insert(ctx, old))
	require.NoError(t, repo.Insert(ctx, newer))

	regs, err := repo.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, regs, 2)
	require.Equal(t, "r2", regs[0].ID)
	require.Equal(t, "r1", regs[1].ID)

	regs, err = repo.ListRecent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, regs, 1)
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/vofmun/registrar/internal/registration"
)

// registrationColumns is the list of columns to select for registration queries.
const registrationColumns = `id, email, first_name, last_name, phone, nationality, school, grade,
	dietary_type, dietary_other, has_allergies, allergies_details,
	emergency_contact_name, emergency_contact_phone, agree_terms, agree_photos,
	role, delegate_data, chair_data, admin_data, referral_codes, payment_status,
	proof_url, proof_storage_key, proof_file_name, proof_payer_name, proof_role, proof_uploaded_at,
	created_at`

// ErrRegistrationNotFound is returned by lookups that match no row.
var ErrRegistrationNotFound = errors.New("registration not found")

// RegistrationRepository implements registration.Repository using SQLite.
type RegistrationRepository struct {
	db *sql.DB
}

func newRegistrationRepository(db *sql.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// Ensure RegistrationRepository implements registration.Repository.
var _ registration.Repository = (*RegistrationRepository)(nil)

// scanRegistration scans a row into a RegistrationModel.
func scanRegistration(scanner interface{ Scan(...any) error }) (*RegistrationModel, error) {
	var model RegistrationModel
	err := scanner.Scan(
		&model.ID, &model.Email, &model.FirstName, &model.LastName, &model.Phone,
		&model.Nationality, &model.School, &model.Grade,
		&model.DietaryType, &model.DietaryOther, &model.HasAllergies, &model.AllergiesDetails,
		&model.EmergencyContactName, &model.EmergencyContactPhone,
		&model.AgreeTerms, &model.AgreePhotos,
		&model.Role, &model.DelegateData, &model.ChairData, &model.AdminData,
		&model.ReferralCodes, &model.PaymentStatus,
		&model.ProofURL, &model.ProofStorageKey, &model.ProofFileName,
		&model.ProofPayerName, &model.ProofRole, &model.ProofUploadedAt,
		&model.CreatedAt,
	)
	return &model, err
}

// Insert persists a new registration. The email column's uniqueness
// constraint maps to registration.ErrEmailExists.
func (r *RegistrationRepository) Insert(ctx context.Context, reg *registration.Registration) error {
	model, err := toModel(reg)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO registrations (
			id, email, first_name, last_name, phone, nationality, school, grade,
			dietary_type, dietary_other, has_allergies, allergies_details,
			emergency_contact_name, emergency_contact_phone, agree_terms, agree_photos,
			role, delegate_data, chair_data, admin_data, referral_codes, payment_status,
			proof_url, proof_storage_key, proof_file_name, proof_payer_name, proof_role, proof_uploaded_at,
			created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		model.ID, model.Email, model.FirstName, model.LastName, model.Phone,
		model.Nationality, model.School, model.Grade,
		model.DietaryType, model.DietaryOther, model.HasAllergies, model.AllergiesDetails,
		model.EmergencyContactName, model.EmergencyContactPhone,
		model.AgreeTerms, model.AgreePhotos,
		model.Role, model.DelegateData, model.ChairData, model.AdminData,
		model.ReferralCodes, model.PaymentStatus,
		model.ProofURL, model.ProofStorageKey, model.ProofFileName,
		model.ProofPayerName, model.ProofRole, model.ProofUploadedAt,
		model.CreatedAt,
	)
	if err != nil {
		if isEmailConflict(err) {
			return registration.ErrEmailExists
		}
		return fmt.Errorf("failed to insert registration: %w", err)
	}
	return nil
}

// FindByID retrieves a registration by its ID.
// Returns ErrRegistrationNotFound if no matching row exists.
func (r *RegistrationRepository) FindByID(ctx context.Context, id string) (*registration.Registration, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+registrationColumns+` FROM registrations WHERE id = ?`, id)
	model, err := scanRegistration(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRegistrationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find registration by id: %w", err)
	}
	return model.toDomain()
}

// FindByEmail retrieves a registration by its email address.
// Returns ErrRegistrationNotFound if no matching row exists.
func (r *RegistrationRepository) FindByEmail(ctx context.Context, email string) (*registration.Registration, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+registrationColumns+` FROM registrations WHERE email = ?`, email)
	model, err := scanRegistration(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRegistrationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find registration by email: %w", err)
	}
	return model.toDomain()
}

// CountByRole returns the number of committed registrations per role.
func (r *RegistrationRepository) CountByRole(ctx context.Context) (map[registration.Role]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT role, COUNT(*) FROM registrations GROUP BY role`)
	if err != nil {
		return nil, fmt.Errorf("failed to count registrations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[registration.Role]int)
	for rows.Next() {
		var role string
		var count int
		if err := rows.Scan(&role, &count); err != nil {
			return nil, fmt.Errorf("failed to scan registration count: %w", err)
		}
		counts[registration.Role(role)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating registration counts: %w", err)
	}
	return counts, nil
}

// ListRecent retrieves up to limit registrations, newest first.
func (r *RegistrationRepository) ListRecent(ctx context.Context, limit int) ([]*registration.Registration, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+registrationColumns+` FROM registrations ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var regs []*registration.Registration
	for rows.Next() {
		model, err := scanRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan registration row: %w", err)
		}
		reg, err := model.toDomain()
		if err != nil {
			return nil, err
		}
		regs = append(regs, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating registration rows: %w", err)
	}
	return regs, nil
}

// isEmailConflict reports whether err is the unique constraint violation
// on registrations.email. The driver has no portable error code surface
// for constraint names, so the message is matched.
func isEmailConflict(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed: registrations.email")
}

package sqlite

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/vofmun/registrar/internal/registration"
)

// RegistrationModel represents the database row for the registrations
// table. Fields map directly to SQL columns; role payloads and referral
// codes are JSON encoded, time values are Unix timestamps.
type RegistrationModel struct {
	ID    string
	Email string

	FirstName   string
	LastName    string
	Phone       string
	Nationality *string // nullable

	School string
	Grade  string

	DietaryType  string
	DietaryOther *string // nullable

	HasAllergies     string
	AllergiesDetails *string // nullable

	EmergencyContactName  string
	EmergencyContactPhone string

	AgreeTerms  bool
	AgreePhotos bool

	Role          string
	DelegateData  *string // nullable, JSON encoded
	ChairData     *string // nullable, JSON encoded
	AdminData     *string // nullable, JSON encoded
	ReferralCodes *string // nullable, JSON encoded

	PaymentStatus string

	ProofURL        *string // nullable
	ProofStorageKey *string // nullable
	ProofFileName   *string // nullable
	ProofPayerName  *string // nullable
	ProofRole       *string // nullable
	ProofUploadedAt *int64  // Unix timestamp, nullable

	CreatedAt int64 // Unix timestamp
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func optJSON(v any) (*string, error) {
	if v == nil {
		return nil, nil
	}
	encoded, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	s := string(encoded)
	return &s, nil
}

// toModel converts a domain Registration to a database RegistrationModel.
func toModel(r *registration.Registration) (*RegistrationModel, error) {
	m := &RegistrationModel{
		ID:                    r.ID,
		Email:                 r.Email,
		FirstName:             r.FirstName,
		LastName:              r.LastName,
		Phone:                 r.Phone,
		Nationality:           optString(r.Nationality),
		School:                r.School,
		Grade:                 r.Grade,
		DietaryType:           r.DietaryType,
		DietaryOther:          optString(r.DietaryOther),
		HasAllergies:          r.HasAllergies,
		AllergiesDetails:      optString(r.AllergiesDetails),
		EmergencyContactName:  r.EmergencyContactName,
		EmergencyContactPhone: r.EmergencyContactPhone,
		AgreeTerms:            r.AgreeTerms,
		AgreePhotos:           r.AgreePhotos,
		Role:                  string(r.Role),
		PaymentStatus:         string(r.PaymentStatus),
		CreatedAt:             r.CreatedAt.Unix(),
	}

	var err error
	if r.Delegate != nil {
		if m.DelegateData, err = optJSON(r.Delegate); err != nil {
			return nil, fmt.Errorf("failed to encode delegate data: %w", err)
		}
	}
	if r.Chair != nil {
		if m.ChairData, err = optJSON(r.Chair); err != nil {
			return nil, fmt.Errorf("failed to encode chair data: %w", err)
		}
	}
	if r.Admin != nil {
		if m.AdminData, err = optJSON(r.Admin); err != nil {
			return nil, fmt.Errorf("failed to encode admin data: %w", err)
		}
	}
	if len(r.ReferralCodes) > 0 {
		if m.ReferralCodes, err = optJSON(r.ReferralCodes); err != nil {
			return nil, fmt.Errorf("failed to encode referral codes: %w", err)
		}
	}

	if r.Proof != nil {
		m.ProofURL = optString(r.Proof.URL)
		m.ProofStorageKey = optString(r.Proof.StorageKey)
		m.ProofFileName = optString(r.Proof.FileName)
		m.ProofPayerName = optString(r.Proof.PayerName)
		m.ProofRole = optString(string(r.Proof.Role))
		uploadedAt := r.Proof.UploadedAt.Unix()
		m.ProofUploadedAt = &uploadedAt
	}

	return m, nil
}

// toDomain converts a database RegistrationModel to a domain Registration.
func (m *RegistrationModel) toDomain() (*registration.Registration, error) {
	r := &registration.Registration{
		ID:                    m.ID,
		Email:                 m.Email,
		FirstName:             m.FirstName,
		LastName:              m.LastName,
		Phone:                 m.Phone,
		School:                m.School,
		Grade:                 m.Grade,
		DietaryType:           m.DietaryType,
		HasAllergies:          m.HasAllergies,
		EmergencyContactName:  m.EmergencyContactName,
		EmergencyContactPhone: m.EmergencyContactPhone,
		AgreeTerms:            m.AgreeTerms,
		AgreePhotos:           m.AgreePhotos,
		Role:                  registration.Role(m.Role),
		PaymentStatus:         registration.PaymentStatus(m.PaymentStatus),
		CreatedAt:             time.Unix(m.CreatedAt, 0).UTC(),
	}

	if m.Nationality != nil {
		r.Nationality = *m.Nationality
	}
	if m.DietaryOther != nil {
		r.DietaryOther = *m.DietaryOther
	}
	if m.AllergiesDetails != nil {
		r.AllergiesDetails = *m.AllergiesDetails
	}

	if m.DelegateData != nil {
		var data registration.DelegateData
		if err := json.Unmarshal([]byte(*m.DelegateData), &data); err != nil {
			return nil, fmt.Errorf("failed to decode delegate data: %w", err)
		}
		r.Delegate = &data
	}
	if m.ChairData != nil {
		var data registration.ChairData
		if err := json.Unmarshal([]byte(*m.ChairData), &data); err != nil {
			return nil, fmt.Errorf("failed to decode chair data: %w", err)
		}
		r.Chair = &data
	}
	if m.AdminData != nil {
		var data registration.AdminData
		if err := json.Unmarshal([]byte(*m.AdminData), &data); err != nil {
			return nil, fmt.Errorf("failed to decode admin data: %w", err)
		}
		r.Admin = &data
	}
	if m.ReferralCodes != nil {
		if err := json.Unmarshal([]byte(*m.ReferralCodes), &r.ReferralCodes); err != nil {
			return nil, fmt.Errorf("failed to decode referral codes: %w", err)
		}
	}

	if m.ProofStorageKey != nil {
		proof := &registration.PaymentProof{StorageKey: *m.ProofStorageKey}
		if m.ProofURL != nil {
			proof.URL = *m.ProofURL
		}
		if m.ProofFileName != nil {
			proof.FileName = *m.ProofFileName
		}
		if m.ProofPayerName != nil {
			proof.PayerName = *m.ProofPayerName
		}
		if m.ProofRole != nil {
			proof.Role = registration.Role(*m.ProofRole)
		}
		if m.ProofUploadedAt != nil {
			proof.UploadedAt = time.Unix(*m.ProofUploadedAt, 0).UTC()
		}
		r.Proof = proof
	}

	return r, nil
}

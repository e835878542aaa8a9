// Package registration holds the domain model for conference
// registrations and the multi-stage commit pipeline that turns an
// untrusted submission envelope into a durable record.
package registration

import (
	"context"
	"time"
)

// Role discriminates the three registration variants.
type Role string

const (
	RoleDelegate Role = "delegate"
	RoleChair    Role = "chair"
	RoleAdmin    Role = "admin"
)

// ValidRole reports whether s is one of the known roles.
func ValidRole(s string) bool {
	switch Role(s) {
	case RoleDelegate, RoleChair, RoleAdmin:
		return true
	}
	return false
}

// PaymentStatus is the stored payment state of a registration.
type PaymentStatus string

const (
	PaymentUnpaid  PaymentStatus = "unpaid"
	PaymentPending PaymentStatus = "pending"
)

// Committees a delegate may choose from.
var AllowedCommittees = []string{"ga1", "unodc", "ecosoc", "who", "icj", "icrcc", "uncstd"}

// Admin team preferences.
var AllowedAdminTeams = []string{"logistics", "media", "tech"}

// Dietary types accepted on the form.
var AllowedDietaryTypes = []string{"standard", "vegetarian", "vegan", "halal", "other"}

// DelegateData is the delegate-specific payload.
type DelegateData struct {
	Committee1 string `json:"committee1"`
	Committee2 string `json:"committee2"`
	Committee3 string `json:"committee3"`
	Experience string `json:"experience,omitempty"`
	Motivation string `json:"motivation,omitempty"`
}

// Committees returns the non-empty committee choices in order.
func (d DelegateData) Committees() []string {
	var out []string
	for _, c := range []string{d.Committee1, d.Committee2, d.Committee3} {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

// ChairData is the chair-specific payload.
type ChairData struct {
	PreferredCommittee string `json:"preferredCommittee"`
	Experience         string `json:"experience"`
}

// AdminData is the admin-team payload.
type AdminData struct {
	TeamPreference string `json:"teamPreference"`
	Experience     string `json:"experience,omitempty"`
}

// PaymentProof is the stored reference to an uploaded proof artifact.
// The artifact itself is owned by the object store.
type PaymentProof struct {
	URL        string
	StorageKey string
	FileName   string
	PayerName  string
	Role       Role
	UploadedAt time.Time
}

// Registration is the durable record of one committed submission.
// Exactly one of Delegate, Chair, Admin is non-nil, matching Role.
type Registration struct {
	ID string

	Email       string
	FirstName   string
	LastName    string
	Phone       string
	Nationality string

	School string
	Grade  string

	DietaryType  string
	DietaryOther string

	HasAllergies     string
	AllergiesDetails string

	EmergencyContactName  string
	EmergencyContactPhone string

	AgreeTerms  bool
	AgreePhotos bool

	Role     Role
	Delegate *DelegateData
	Chair    *ChairData
	Admin    *AdminData

	// ReferralCodes is nil when no code was submitted; entries are
	// normalized, unique, and verified against the registry.
	ReferralCodes []string

	PaymentStatus PaymentStatus
	Proof         *PaymentProof

	CreatedAt time.Time
}

// RolePayloadConsistent reports whether exactly the slot matching Role is
// populated.
func (r *Registration) RolePayloadConsistent() bool {
	switch r.Role {
	case RoleDelegate:
		return r.Delegate != nil && r.Chair == nil && r.Admin == nil
	case RoleChair:
		return r.Chair != nil && r.Delegate == nil && r.Admin == nil
	case RoleAdmin:
		return r.Admin != nil && r.Delegate == nil && r.Chair == nil
	}
	return false
}

// Repository persists registrations. Insert must enforce email
// uniqueness and return ErrEmailExists on conflict.
type Repository interface {
	Insert(ctx context.Context, reg *Registration) error
}

// ProofUploader stores a payment proof artifact and returns its durable
// reference. Implementations must distinguish missing-container
// conditions from generic upload failures.
type ProofUploader interface {
	Upload(ctx context.Context, confirmation PaymentConfirmation) (*PaymentProof, error)
}

package registration

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// validator accumulates field errors while building a Registration draft.
type validator struct {
	fields []FieldError
}

func (v *validator) addError(field, message string) {
	v.fields = append(v.fields, FieldError{Field: field, Message: message})
}

func (v *validator) require(field, value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		v.addError(field, "is required")
	}
	return value
}

func (v *validator) requireEnum(field, value string, allowed []string) string {
	value = v.require(field, value)
	if value != "" && !slices.Contains(allowed, value) {
		v.addError(field, fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")))
	}
	return value
}

// ValidateEnvelope checks the envelope's core fields and role-specific
// sub-object against the schema and cross-field business rules. It
// returns a Registration draft, or a *ValidationError enumerating every
// violated field. The draft carries no ID, referral codes, payment
// state, or proof; those are filled in by the committer.
func ValidateEnvelope(e *Envelope) (*Registration, error) {
	v := &validator{}

	reg := &Registration{
		Email:                 v.require("email", e.FormData.Email),
		FirstName:             v.require("firstName", e.FormData.FirstName),
		LastName:              v.require("lastName", e.FormData.LastName),
		Phone:                 v.require("phone", e.FormData.Phone),
		School:                v.require("school", e.FormData.School),
		Grade:                 v.require("grade", e.FormData.Grade),
		DietaryType:           v.requireEnum("dietaryType", e.FormData.DietaryType, AllowedDietaryTypes),
		DietaryOther:          strings.TrimSpace(e.FormData.DietaryOther),
		HasAllergies:          v.requireEnum("hasAllergies", e.FormData.HasAllergies, []string{"yes", "no"}),
		AllergiesDetails:      strings.TrimSpace(e.FormData.AllergiesDetails),
		EmergencyContactName:  v.require("emergencyContact", e.FormData.EmergencyContact),
		EmergencyContactPhone: v.require("emergencyPhone", e.FormData.EmergencyPhone),
		AgreeTerms:            e.FormData.AgreeTerms,
		AgreePhotos:           e.FormData.AgreePhotos,
		Nationality:           strings.ToUpper(strings.TrimSpace(e.FormData.Nationality)),
	}

	if reg.Email != "" && !emailPattern.MatchString(reg.Email) {
		v.addError("email", "must be a valid email address")
	}
	if !reg.AgreeTerms {
		v.addError("agreeTerms", "terms must be accepted")
	}

	// Cross-field rules the schema cannot express.
	if reg.DietaryType == "other" && reg.DietaryOther == "" {
		v.addError("dietaryOther", "please specify your dietary requirement")
	}
	if reg.HasAllergies == "yes" && reg.AllergiesDetails == "" {
		v.addError("allergiesDetails", "please provide details about your allergies")
	}

	if !ValidRole(e.SelectedRole) {
		v.addError("selectedRole", "must be one of: delegate, chair, admin")
		return nil, &ValidationError{Fields: v.fields}
	}
	reg.Role = Role(e.SelectedRole)

	switch reg.Role {
	case RoleDelegate:
		reg.Delegate = v.validateDelegate(e.DelegateData)
	case RoleChair:
		reg.Chair = v.validateChair(e.ChairData)
	case RoleAdmin:
		reg.Admin = v.validateAdmin(e.AdminData)
	}

	if len(v.fields) > 0 {
		return nil, &ValidationError{Fields: v.fields}
	}
	return reg, nil
}

func (v *validator) validateDelegate(d *DelegateEnvelope) *DelegateData {
	if d == nil {
		v.addError("delegateData", "is required for the delegate role")
		return nil
	}

	data := &DelegateData{
		Committee1: strings.TrimSpace(d.Committee1),
		Committee2: strings.TrimSpace(d.Committee2),
		Committee3: strings.TrimSpace(d.Committee3),
		Experience: strings.TrimSpace(d.Experience),
		Motivation: strings.TrimSpace(d.Motivation),
	}

	if data.Committee1 == "" {
		v.addError("delegateData.committee1", "is required")
	}

	choices := data.Committees()
	seen := make(map[string]struct{}, len(choices))
	for _, committee := range choices {
		if !slices.Contains(AllowedCommittees, committee) {
			v.addError("delegateData.committees", fmt.Sprintf("unknown committee %q", committee))
		}
		if _, dup := seen[committee]; dup {
			v.addError("delegateData.committees", fmt.Sprintf("committee %q selected more than once", committee))
		}
		seen[committee] = struct{}{}
	}

	return data
}

func (v *validator) validateChair(c *ChairEnvelope) *ChairData {
	if c == nil {
		v.addError("chairData", "is required for the chair role")
		return nil
	}

	data := &ChairData{
		PreferredCommittee: strings.TrimSpace(c.PreferredCommittee),
		Experience:         strings.TrimSpace(c.Experience),
	}

	if data.PreferredCommittee == "" {
		v.addError("chairData.preferredCommittee", "is required")
	} else if !slices.Contains(AllowedCommittees, data.PreferredCommittee) {
		v.addError("chairData.preferredCommittee", fmt.Sprintf("unknown committee %q", data.PreferredCommittee))
	}
	if data.Experience == "" {
		v.addError("chairData.experience", "is required")
	}

	return data
}

func (v *validator) validateAdmin(a *AdminEnvelope) *AdminData {
	if a == nil {
		v.addError("adminData", "is required for the admin role")
		return nil
	}

	data := &AdminData{
		TeamPreference: strings.TrimSpace(a.TeamPreference),
		Experience:     strings.TrimSpace(a.Experience),
	}

	if data.TeamPreference == "" {
		v.addError("adminData.teamPreference", "is required")
	} else if !slices.Contains(AllowedAdminTeams, data.TeamPreference) {
		v.addError("adminData.teamPreference", fmt.Sprintf("unknown team %q", data.TeamPreference))
	}

	return data
}

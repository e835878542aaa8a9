package registration

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vofmun/registrar/internal/referral"
)

// ErrEmailExists is returned by Repository.Insert when the email column's
// uniqueness constraint fires.
var ErrEmailExists = errors.New("an account with this email already exists")

// FieldError describes one violated field-level rule.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every violated rule for a rejected submission.
// The validator accumulates all failures rather than stopping at the first.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 1 {
		return fmt.Sprintf("validation failed: %s: %s", e.Fields[0].Field, e.Fields[0].Message)
	}
	return fmt.Sprintf("validation failed: %d fields rejected", len(e.Fields))
}

// ReferralError rejects a submission whose referral codes missed the
// registry. It is recoverable: the caller corrects the code and resubmits.
type ReferralError struct {
	Invalid []referral.InvalidCode
}

func (e *ReferralError) Error() string {
	return fmt.Sprintf("invalid referral codes: %d not recognized", len(e.Invalid))
}

// Message renders the client-facing rejection text, naming each
// unrecognized code and its ranked alternatives.
func (e *ReferralError) Message() string {
	parts := make([]string, 0, len(e.Invalid))
	for _, inv := range e.Invalid {
		if len(inv.Suggestions) == 0 {
			parts = append(parts, fmt.Sprintf("Referral code %q is not recognized.", inv.Code))
			continue
		}
		alternatives := make([]string, 0, len(inv.Suggestions))
		for _, s := range inv.Suggestions {
			alternatives = append(alternatives, fmt.Sprintf("%s (%s)", s.Code, s.Owner))
		}
		parts = append(parts, fmt.Sprintf("Referral code %q is not recognized. Did you mean %s?",
			inv.Code, strings.Join(alternatives, " or ")))
	}
	return strings.Join(parts, " ")
}

package testutil

import (
	"encoding/base64"

	"github.com/vofmun/registrar/internal/registration"
)

// EnvelopeOption configures a submission envelope during builder setup.
type EnvelopeOption func(*registration.Envelope)

// WithEmail sets the submitter's email address.
func WithEmail(email string) EnvelopeOption {
	return func(e *registration.Envelope) {
		e.FormData.Email = email
	}
}

// WithName sets the submitter's first and last name.
func WithName(first, last string) EnvelopeOption {
	return func(e *registration.Envelope) {
		e.FormData.FirstName = first
		e.FormData.LastName = last
	}
}

// WithReferralCodes sets top-level referral codes.
func WithReferralCodes(codes ...string) EnvelopeOption {
	return func(e *registration.Envelope) {
		e.ReferralCodes = codes
	}
}

// WithNestedReferralCodes places referral codes inside the role
// sub-object instead of the top level, mimicking older clients.
func WithNestedReferralCodes(codes ...string) EnvelopeOption {
	return func(e *registration.Envelope) {
		switch {
		case e.DelegateData != nil:
			e.DelegateData.ReferralCodes = codes
		case e.ChairData != nil:
			e.ChairData.ReferralCodes = codes
		case e.AdminData != nil:
			e.AdminData.ReferralCodes = codes
		}
	}
}

// WithPaymentStatus sets the raw payment answer.
func WithPaymentStatus(status string) EnvelopeOption {
	return func(e *registration.Envelope) {
		e.PaymentStatus = status
	}
}

// WithPaymentProof declares payment completed and attaches an inline
// PNG proof with the given file name and content.
func WithPaymentProof(fileName string, content []byte) EnvelopeOption {
	return func(e *registration.Envelope) {
		e.PaymentStatus = "yes"
		e.PaymentConfirmation = &registration.PaymentConfirmation{
			FullName: e.FormData.FirstName + " " + e.FormData.LastName,
			Role:     e.SelectedRole,
			FileName: fileName,
			MimeType: "image/png",
			DataURL:  "data:image/png;base64," + base64.StdEncoding.EncodeToString(content),
		}
	}
}

// WithCommittees sets the delegate committee choices in order.
func WithCommittees(committees ...string) EnvelopeOption {
	return func(e *registration.Envelope) {
		if e.DelegateData == nil {
			e.DelegateData = &registration.DelegateEnvelope{}
		}
		slots := []*string{
			&e.DelegateData.Committee1,
			&e.DelegateData.Committee2,
			&e.DelegateData.Committee3,
		}
		for i := range slots {
			*slots[i] = ""
		}
		for i, c := range committees {
			if i >= len(slots) {
				break
			}
			*slots[i] = c
		}
	}
}

package testutil

import "github.com/vofmun/registrar/internal/registration"

// DelegateEnvelope returns a complete, valid delegate submission. Apply
// options to vary individual fields.
func DelegateEnvelope(opts ...EnvelopeOption) *registration.Envelope {
	env := &registration.Envelope{
		SelectedRole: "delegate",
		FormData:     baseFormData(),
		DelegateData: &registration.DelegateEnvelope{
			Committee1: "ga1",
			Committee2: "who",
			Motivation: "I want to debate disarmament.",
		},
		PaymentStatus: "no",
	}
	return apply(env, opts)
}

// ChairEnvelope returns a complete, valid chair submission.
func ChairEnvelope(opts ...EnvelopeOption) *registration.Envelope {
	env := &registration.Envelope{
		SelectedRole: "chair",
		FormData:     baseFormData(),
		ChairData: &registration.ChairEnvelope{
			PreferredCommittee: "icj",
			Experience:         "Chaired two conferences.",
		},
		PaymentStatus: "no",
	}
	return apply(env, opts)
}

// AdminEnvelope returns a complete, valid admin-team submission.
func AdminEnvelope(opts ...EnvelopeOption) *registration.Envelope {
	env := &registration.Envelope{
		SelectedRole: "admin",
		FormData:     baseFormData(),
		AdminData: &registration.AdminEnvelope{
			TeamPreference: "media",
			Experience:     "School paper photographer.",
		},
		PaymentStatus: "no",
	}
	return apply(env, opts)
}

func baseFormData() registration.FormData {
	return registration.FormData{
		Email:            "ayse@example.com",
		FirstName:        "Ayşe",
		LastName:         "Yılmaz",
		Phone:            "+90 555 000 0000",
		School:           "Atatürk Anadolu Lisesi",
		Grade:            "11",
		DietaryType:      "standard",
		HasAllergies:     "no",
		EmergencyContact: "Fatma Yılmaz",
		EmergencyPhone:   "+90 555 111 1111",
		Nationality:      "TR",
		AgreeTerms:       true,
	}
}

func apply(env *registration.Envelope, opts []EnvelopeOption) *registration.Envelope {
	for _, opt := range opts {
		opt(env)
	}
	return env
}

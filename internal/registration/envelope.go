package registration

// Envelope is the untrusted client submission for one registration
// attempt. Decoding is lenient; all checking happens in the validator.
type Envelope struct {
	SelectedRole string   `json:"selectedRole"`
	FormData     FormData `json:"formData"`

	DelegateData *DelegateEnvelope `json:"delegateData,omitempty"`
	ChairData    *ChairEnvelope    `json:"chairData,omitempty"`
	AdminData    *AdminEnvelope    `json:"adminData,omitempty"`

	// ReferralCodes may arrive at the top level or nested inside the
	// role sub-object depending on client version; see ReferralCodes().
	ReferralCodes []string `json:"referralCodes,omitempty"`

	// PaymentStatus is the raw client answer: "yes", "no", "pending",
	// or anything else (treated as unpaid).
	PaymentStatus string `json:"paymentStatus,omitempty"`

	PaymentConfirmation *PaymentConfirmation `json:"paymentConfirmation,omitempty"`
}

// FormData carries the role-independent personal fields.
type FormData struct {
	Email            string `json:"email"`
	FirstName        string `json:"firstName"`
	LastName         string `json:"lastName"`
	Phone            string `json:"phone"`
	School           string `json:"school"`
	Grade            string `json:"grade"`
	DietaryType      string `json:"dietaryType"`
	DietaryOther     string `json:"dietaryOther,omitempty"`
	HasAllergies     string `json:"hasAllergies"`
	AllergiesDetails string `json:"allergiesDetails,omitempty"`
	EmergencyContact string `json:"emergencyContact"`
	EmergencyPhone   string `json:"emergencyPhone"`
	Nationality      string `json:"nationality,omitempty"`
	AgreeTerms       bool   `json:"agreeTerms"`
	AgreePhotos      bool   `json:"agreePhotos,omitempty"`
}

// DelegateEnvelope is the raw delegate sub-object.
type DelegateEnvelope struct {
	Committee1    string   `json:"committee1"`
	Committee2    string   `json:"committee2"`
	Committee3    string   `json:"committee3"`
	Experience    string   `json:"experience,omitempty"`
	Motivation    string   `json:"motivation,omitempty"`
	ReferralCodes []string `json:"referralCodes,omitempty"`
}

// ChairEnvelope is the raw chair sub-object.
type ChairEnvelope struct {
	PreferredCommittee string   `json:"preferredCommittee"`
	Experience         string   `json:"experience"`
	ReferralCodes      []string `json:"referralCodes,omitempty"`
}

// AdminEnvelope is the raw admin sub-object.
type AdminEnvelope struct {
	TeamPreference string   `json:"teamPreference"`
	Experience     string   `json:"experience,omitempty"`
	ReferralCodes  []string `json:"referralCodes,omitempty"`
}

// PaymentConfirmation carries the inline-encoded proof file and payer
// metadata submitted when payment is declared completed.
type PaymentConfirmation struct {
	FullName string `json:"fullName"`
	Role     string `json:"role"`
	FileName string `json:"fileName"`
	MimeType string `json:"mimeType"`
	// DataURL is a data: URL whose base64 section follows the first comma.
	DataURL string `json:"dataUrl"`
}

// RawReferralCodes probes every location clients have historically
// placed referral codes: top level first, then the delegate, chair, and
// admin sub-objects. The first present array wins, even when empty.
func (e *Envelope) RawReferralCodes() []string {
	if e.ReferralCodes != nil {
		return e.ReferralCodes
	}
	if e.DelegateData != nil && e.DelegateData.ReferralCodes != nil {
		return e.DelegateData.ReferralCodes
	}
	if e.ChairData != nil && e.ChairData.ReferralCodes != nil {
		return e.ChairData.ReferralCodes
	}
	if e.AdminData != nil && e.AdminData.ReferralCodes != nil {
		return e.AdminData.ReferralCodes
	}
	return nil
}

// DeclaresPaymentCompleted reports whether the client claims payment is
// done, which triggers the proof upload stage.
func (e *Envelope) DeclaresPaymentCompleted() bool {
	return e.PaymentStatus == "yes"
}

// NormalizedPaymentStatus maps the raw client answer onto the stored
// payment state: "yes" and "pending" become pending, all else unpaid.
func (e *Envelope) NormalizedPaymentStatus() PaymentStatus {
	switch e.PaymentStatus {
	case "yes", "pending":
		return PaymentPending
	default:
		return PaymentUnpaid
	}
}

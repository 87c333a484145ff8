// internal/models/patch.go
package models

// DraftPatch is a partial update from whichever step is active. Nil fields leave the draft untouched.
type DraftPatch struct {
	FirstName    *string `json:"firstName,omitempty"`
	LastName     *string `json:"lastName,omitempty"`
	DateOfBirth  *string `json:"dateOfBirth,omitempty"`
	PlaceOfBirth *string `json:"placeOfBirth,omitempty"`

	Email        *string `json:"email,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	AddressLine1 *string `json:"addressLine1,omitempty"`
	AddressLine2 *string `json:"addressLine2,omitempty"`
	City         *string `json:"city,omitempty"`
	Postcode     *string `json:"postcode,omitempty"`
	Country      *string `json:"country,omitempty"`

	IDType            *string `json:"idType,omitempty"`
	IDNumber          *string `json:"idNumber,omitempty"`
	NationalInsurance *string `json:"nationalInsurance,omitempty"`

	PaymentMethod     *string `json:"paymentMethod,omitempty"`
	PreferredCrypto   *string `json:"preferredCrypto,omitempty"`
	BankName          *string `json:"bankName,omitempty"`
	AccountHolderName *string `json:"accountHolderName,omitempty"`
	AccountNumber     *string `json:"accountNumber,omitempty"`
	SortCode          *string `json:"sortCode,omitempty"`

	TermsAccepted     *bool `json:"termsAccepted,omitempty"`
	PrivacyAccepted   *bool `json:"privacyAccepted,omitempty"`
	LegalDeclarations *bool `json:"legalDeclarations,omitempty"`
	MarketingConsent  *bool `json:"marketingConsent,omitempty"`
}

// TouchesCrypto reports whether the patch writes to the crypto branch of the payment union.
func (p DraftPatch) TouchesCrypto() bool {
	return p.PreferredCrypto != nil
}

// TouchesBank reports whether the patch writes to the bank transfer branch.
func (p DraftPatch) TouchesBank() bool {
	return p.BankName != nil || p.AccountHolderName != nil || p.AccountNumber != nil || p.SortCode != nil
}

// IsEmpty reports whether the patch sets nothing.
func (p DraftPatch) IsEmpty() bool {
	return p == DraftPatch{}
}

// String returns a pointer to s; handy for building patches in code and tests.
func String(s string) *string { return &s }

func Bool(b bool) *bool { return &b }

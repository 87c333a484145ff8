// internal/models/application.go
package models

import "time"

type IDType string

const (
	IDTypePassport       IDType = "passport"
	IDTypeDrivingLicence IDType = "driving_licence"
	IDTypeNationalID     IDType = "national_id"
)

// ValidIDTypes lists the identity documents the application accepts.
var ValidIDTypes = []IDType{IDTypePassport, IDTypeDrivingLicence, IDTypeNationalID}

type PaymentMethod string

const (
	PaymentMethodCrypto       PaymentMethod = "crypto"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
)

// ValidPaymentMethods lists the selectable payout methods. PayPal is deliberately absent.
var ValidPaymentMethods = []PaymentMethod{PaymentMethodCrypto, PaymentMethodBankTransfer}

// ValidCryptocurrencies lists the currencies offered for crypto payouts.
var ValidCryptocurrencies = []string{"bitcoin", "ethereum", "usdt", "usdc"}

// ApplicationDraft is the partially completed application accumulated across the five wizard steps.
// Every field is optional; the zero value means "not provided yet".
type ApplicationDraft struct {
	Personal       PersonalDetails `json:"personal"`
	Contact        ContactAddress  `json:"contact"`
	Identification Identification  `json:"identification"`
	Payment        Payment         `json:"payment"`
	Declarations   Declarations    `json:"declarations"`
	UpdatedAt      time.Time       `json:"updatedAt,omitempty"`
}

type PersonalDetails struct {
	FirstName    string `json:"firstName,omitempty"`
	LastName     string `json:"lastName,omitempty"`
	DateOfBirth  string `json:"dateOfBirth,omitempty"` // YYYY-MM-DD
	PlaceOfBirth string `json:"placeOfBirth,omitempty"`
}

type ContactAddress struct {
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`
	AddressLine1 string `json:"addressLine1,omitempty"`
	AddressLine2 string `json:"addressLine2,omitempty"`
	City         string `json:"city,omitempty"`
	Postcode     string `json:"postcode,omitempty"`
	Country      string `json:"country,omitempty"`
}

type Identification struct {
	IDType            IDType       `json:"idType,omitempty"`
	IDNumber          string       `json:"idNumber,omitempty"`
	NationalInsurance string       `json:"nationalInsurance,omitempty"`
	IDFront           *DocumentRef `json:"idFront,omitempty"`
	IDBack            *DocumentRef `json:"idBack,omitempty"`
	ProofOfAddress    *DocumentRef `json:"proofOfAddress,omitempty"`
}

// Payment is a tagged union: at most the branch matching Method is set.
type Payment struct {
	Method       PaymentMethod        `json:"method,omitempty"`
	Crypto       *CryptoPayment       `json:"crypto,omitempty"`
	BankTransfer *BankTransferPayment `json:"bankTransfer,omitempty"`
}

type CryptoPayment struct {
	PreferredCrypto string `json:"preferredCrypto,omitempty"`
}

type BankTransferPayment struct {
	BankName          string `json:"bankName,omitempty"`
	AccountHolderName string `json:"accountHolderName,omitempty"`
	AccountNumber     string `json:"accountNumber,omitempty"`
	SortCode          string `json:"sortCode,omitempty"`
}

type Declarations struct {
	TermsAccepted     bool `json:"termsAccepted"`
	PrivacyAccepted   bool `json:"privacyAccepted"`
	LegalDeclarations bool `json:"legalDeclarations"`
	MarketingConsent  bool `json:"marketingConsent"`
}

// PreferredCrypto returns the chosen currency, or "" when the crypto branch is not active.
func (p Payment) PreferredCrypto() string {
	if p.Method != PaymentMethodCrypto || p.Crypto == nil {
		return ""
	}
	return p.Crypto.PreferredCrypto
}

// Bank returns the bank transfer details, or an empty value when that branch is not active.
func (p Payment) Bank() BankTransferPayment {
	if p.Method != PaymentMethodBankTransfer || p.BankTransfer == nil {
		return BankTransferPayment{}
	}
	return *p.BankTransfer
}

// IsValidPaymentMethod reports whether m is a selectable method.
func IsValidPaymentMethod(m PaymentMethod) bool {
	for _, v := range ValidPaymentMethods {
		if v == m {
			return true
		}
	}
	return false
}

func IsValidIDType(t IDType) bool {
	for _, v := range ValidIDTypes {
		if v == t {
			return true
		}
	}
	return false
}

func IsValidCryptocurrency(c string) bool {
	for _, v := range ValidCryptocurrencies {
		if v == c {
			return true
		}
	}
	return false
}

// Sanitize drops union branches that do not match the payment method, and the whole
// payment slice when the method is not selectable. Used on drafts read back from storage.
func (d *ApplicationDraft) Sanitize() {
	p := &d.Payment
	if p.Method != "" && !IsValidPaymentMethod(p.Method) {
		*p = Payment{}
		return
	}
	if p.Method != PaymentMethodCrypto {
		p.Crypto = nil
	}
	if p.Method != PaymentMethodBankTransfer {
		p.BankTransfer = nil
	}
}

// Clone returns a deep copy so callers can hand the draft out without sharing pointers.
func (d ApplicationDraft) Clone() ApplicationDraft {
	out := d
	out.Identification.IDFront = d.Identification.IDFront.clone()
	out.Identification.IDBack = d.Identification.IDBack.clone()
	out.Identification.ProofOfAddress = d.Identification.ProofOfAddress.clone()
	if d.Payment.Crypto != nil {
		c := *d.Payment.Crypto
		out.Payment.Crypto = &c
	}
	if d.Payment.BankTransfer != nil {
		b := *d.Payment.BankTransfer
		out.Payment.BankTransfer = &b
	}
	return out
}

// IsEmpty reports whether nothing has been entered yet.
func (d ApplicationDraft) IsEmpty() bool {
	empty := ApplicationDraft{}
	d.UpdatedAt = time.Time{}
	return d.Personal == empty.Personal &&
		d.Contact == empty.Contact &&
		d.Identification == empty.Identification &&
		d.Payment == empty.Payment &&
		d.Declarations == empty.Declarations
}

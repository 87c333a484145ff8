// internal/wizard/fields.go
package wizard

import (
	"regexp"
	"strings"
	"time"

	"nominee-applications/internal/models"
)

// FieldID identifies one input of the application form.
type FieldID string

const (
	FieldFirstName    FieldID = "firstName"
	FieldLastName     FieldID = "lastName"
	FieldDateOfBirth  FieldID = "dateOfBirth"
	FieldPlaceOfBirth FieldID = "placeOfBirth"

	FieldEmail        FieldID = "email"
	FieldPhone        FieldID = "phone"
	FieldAddressLine1 FieldID = "addressLine1"
	FieldAddressLine2 FieldID = "addressLine2"
	FieldCity         FieldID = "city"
	FieldPostcode     FieldID = "postcode"
	FieldCountry      FieldID = "country"

	FieldIDType            FieldID = "idType"
	FieldIDNumber          FieldID = "idNumber"
	FieldNationalInsurance FieldID = "nationalInsurance"
	FieldIDFront           FieldID = "idFront"
	FieldIDBack            FieldID = "idBack"
	FieldProofOfAddress    FieldID = "proofOfAddress"

	FieldPaymentMethod     FieldID = "paymentMethod"
	FieldPreferredCrypto   FieldID = "preferredCrypto"
	FieldBankName          FieldID = "bankName"
	FieldAccountHolderName FieldID = "accountHolderName"
	FieldAccountNumber     FieldID = "accountNumber"
	FieldSortCode          FieldID = "sortCode"

	FieldTermsAccepted     FieldID = "termsAccepted"
	FieldPrivacyAccepted   FieldID = "privacyAccepted"
	FieldLegalDeclarations FieldID = "legalDeclarations"
	FieldMarketingConsent  FieldID = "marketingConsent"
)

// FieldResult is the outcome of validating one field. An invalid result with an empty
// message means the field has not been filled in yet and should not show an error.
type FieldResult struct {
	IsValid bool   `json:"isValid"`
	Message string `json:"message,omitempty"`
}

var (
	namePattern       = regexp.MustCompile(`^[a-zA-Z\s\-']+$`)
	emailPattern      = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	ukPhonePattern    = regexp.MustCompile(`^(\+44|0)[1-9]\d{8,9}$`)
	postcodePattern   = regexp.MustCompile(`(?i)^[A-Z]{1,2}\d[A-Z\d]?\s?\d[A-Z]{2}$`)
	passportPattern   = regexp.MustCompile(`^[A-Za-z0-9]{9}$`)
	licencePattern    = regexp.MustCompile(`^[A-Za-z0-9]{16}$`)
	niPattern         = regexp.MustCompile(`(?i)^[A-Z]{2}[0-9]{6}[A-D]$`)
	accountNumPattern = regexp.MustCompile(`^\d{8}$`)
	sortCodePattern   = regexp.MustCompile(`^\d{2}-?\d{2}-?\d{2}$`)
	whitespace        = regexp.MustCompile(`\s+`)
)

const dateLayout = "2006-01-02"

var (
	valid = FieldResult{IsValid: true}
	unset = FieldResult{}
)

func invalid(msg string) FieldResult { return FieldResult{Message: msg} }

func stripSpaces(s string) string {
	return whitespace.ReplaceAllString(s, "")
}

// ValidateName checks a first or last name.
func ValidateName(value string) FieldResult {
	if value == "" {
		return unset
	}
	if len(strings.TrimSpace(value)) < 2 {
		return invalid("Must be at least 2 characters")
	}
	if !namePattern.MatchString(value) {
		return invalid("Only letters, spaces, hyphens and apostrophes are allowed")
	}
	return valid
}

// AgeOn returns the age in whole years on the given day.
func AgeOn(dob, today time.Time) int {
	age := today.Year() - dob.Year()
	if today.Month() < dob.Month() || (today.Month() == dob.Month() && today.Day() < dob.Day()) {
		age--
	}
	return age
}

// ValidateDateOfBirth requires an applicant aged between 18 and 120 on today.
func ValidateDateOfBirth(value string, today time.Time) FieldResult {
	if value == "" {
		return unset
	}
	dob, err := time.Parse(dateLayout, value)
	if err != nil {
		return invalid("Enter a date in the format YYYY-MM-DD")
	}
	age := AgeOn(dob, today)
	switch {
	case age < 18:
		return invalid("You must be at least 18 years old")
	case age > 120:
		return invalid("Please enter a valid date of birth")
	}
	return valid
}

func minLength(value string, n int, msg string) FieldResult {
	if value == "" {
		return unset
	}
	if len(strings.TrimSpace(value)) < n {
		return invalid(msg)
	}
	return valid
}

func ValidatePlaceOfBirth(value string) FieldResult {
	return minLength(value, 2, "Place of birth must be at least 2 characters")
}

func ValidateEmail(value string) FieldResult {
	if value == "" {
		return unset
	}
	if !emailPattern.MatchString(value) {
		return invalid("Enter a valid email address")
	}
	return valid
}

// ValidatePhone accepts UK numbers in 0XXXX or +44 form.
func ValidatePhone(value string) FieldResult {
	if value == "" {
		return unset
	}
	if !ukPhonePattern.MatchString(stripSpaces(value)) {
		return invalid("Enter a valid UK phone number")
	}
	return valid
}

func ValidateAddressLine1(value string) FieldResult {
	return minLength(value, 5, "Address must be at least 5 characters")
}

func ValidateCity(value string) FieldResult {
	if r := minLength(value, 2, "City must be at least 2 characters"); !r.IsValid {
		return r
	}
	if !namePattern.MatchString(value) {
		return invalid("City can only contain letters, spaces, hyphens and apostrophes")
	}
	return valid
}

func ValidatePostcode(value string) FieldResult {
	if value == "" {
		return unset
	}
	if !postcodePattern.MatchString(stripSpaces(value)) {
		return invalid("Enter a valid UK postcode")
	}
	return valid
}

func ValidateIDType(value models.IDType) FieldResult {
	if value == "" {
		return unset
	}
	if !models.IsValidIDType(value) {
		return invalid("Select a valid ID type")
	}
	return valid
}

// ValidateIDNumber checks the document number against the format of the chosen ID type.
func ValidateIDNumber(value string, idType models.IDType) FieldResult {
	if value == "" {
		return unset
	}
	switch idType {
	case models.IDTypePassport:
		if !passportPattern.MatchString(strings.TrimSpace(value)) {
			return invalid("Passport number must be 9 letters or digits")
		}
	case models.IDTypeDrivingLicence:
		if !licencePattern.MatchString(stripSpaces(value)) {
			return invalid("Driving licence number must be 16 letters or digits")
		}
	default:
		if len(strings.TrimSpace(value)) < 8 {
			return invalid("ID number must be at least 8 characters")
		}
	}
	return valid
}

func ValidateNationalInsurance(value string) FieldResult {
	if value == "" {
		return unset
	}
	if !niPattern.MatchString(stripSpaces(value)) {
		return invalid("Enter a valid National Insurance number, e.g. AB123456C")
	}
	return valid
}

func validateDocument(ref *models.DocumentRef) FieldResult {
	if ref == nil {
		return unset
	}
	return valid
}

func ValidatePaymentMethod(value models.PaymentMethod) FieldResult {
	if value == "" {
		return unset
	}
	if !models.IsValidPaymentMethod(value) {
		return invalid("Select a valid payment method")
	}
	return valid
}

func ValidatePreferredCrypto(value string) FieldResult {
	if value == "" {
		return unset
	}
	if !models.IsValidCryptocurrency(value) {
		return invalid("Select a supported cryptocurrency")
	}
	return valid
}

func ValidateBankName(value string) FieldResult {
	return minLength(value, 2, "Bank name must be at least 2 characters")
}

func ValidateAccountHolderName(value string) FieldResult {
	if r := minLength(value, 2, "Account holder name must be at least 2 characters"); !r.IsValid {
		return r
	}
	if !namePattern.MatchString(value) {
		return invalid("Only letters, spaces, hyphens and apostrophes are allowed")
	}
	return valid
}

func ValidateAccountNumber(value string) FieldResult {
	if value == "" {
		return unset
	}
	if !accountNumPattern.MatchString(stripSpaces(value)) {
		return invalid("Account number must be exactly 8 digits")
	}
	return valid
}

func ValidateSortCode(value string) FieldResult {
	if value == "" {
		return unset
	}
	if !sortCodePattern.MatchString(stripSpaces(value)) {
		return invalid("Sort code must be in the format 12-34-56")
	}
	return valid
}

func validateAccepted(v bool) FieldResult {
	if !v {
		return unset
	}
	return valid
}

type fieldRule func(d *models.ApplicationDraft, today time.Time) FieldResult

// branchRule applies r only while the given payment method is selected.
func branchRule(method models.PaymentMethod, r fieldRule) fieldRule {
	return func(d *models.ApplicationDraft, today time.Time) FieldResult {
		if d.Payment.Method != method {
			return valid
		}
		return r(d, today)
	}
}

var fieldRules = map[FieldID]fieldRule{
	FieldFirstName: func(d *models.ApplicationDraft, _ time.Time) FieldResult {
		return ValidateName(d.Personal.FirstName)
	},
	FieldLastName: func(d *models.ApplicationDraft, _ time.Time) FieldResult {
		return ValidateName(d.Personal.LastName)
	},
	FieldDateOfBirth: func(d *models.ApplicationDraft, today time.Time) FieldResult {
		return ValidateDateOfBirth(d.Personal.DateOfBirth, today)
	},
	FieldPlaceOfBirth: func(d *models.ApplicationDraft, _ time.Time) FieldResult {
		return ValidatePlaceOfBirth(d.Personal.PlaceOfBirth)
	},

	FieldEmail: func(d *models.ApplicationDraft, _ time.Time) FieldResult {
		return ValidateEmail(d.Contact.Email)
	},
	FieldPhone: func(d *models.ApplicationDraft, _ time.Time) FieldResult {
		return ValidatePhone(d.Contact.Phone)
	},
	FieldAddressLine1: func(d *models.ApplicationDraft, _ time.Time) FieldResult {
		return ValidateAddressLine1(d.Contact.AddressLine1)
	},
	FieldAddressLine2: func(*models.ApplicationDraft, time.Time) FieldResult {
		return valid
	},
	FieldCity: func(d *models.ApplicationDraft, _ time.Time) FieldResult {
		return ValidateCity(d.Contact.City)
	},
	FieldPostcode: func(d *models.ApplicationDraft, _ time.Time) FieldResult {
		return ValidatePostcode(d.Contact.Postcode)
	},
	FieldCountry: func(*models.ApplicationDraft, time.Time) FieldResult {
		return valid
	},

	FieldIDType: func(d *models.ApplicationDraft, _ time.Time) FieldResult {
		return ValidateIDType(d.Identification.IDType)
	},
	FieldIDNumber: func(d *models.ApplicationDraft, _ time.Time) FieldResult {
		return ValidateIDNumber(d.Identification.IDNumber, d.Identification.IDType)
	},
	FieldNationalInsurance: func(d *models.ApplicationDraft, _ time.Time) FieldResult {
		return ValidateNationalInsurance(d.Identification.NationalInsurance)
	},
	FieldIDFront: func(d *models.ApplicationDraft, _ time.Time) FieldResult {
		return validateDocument(d.Identification.IDFront)
	},
	FieldIDBack: func(d *models.ApplicationDraft, _ time.Time) FieldResult {
		return validateDocument(d.Identification.IDBack)
	},
	FieldProofOfAddress: func(d *models.ApplicationDraft, _ time.Time) FieldResult {
		return validateDocument(d.Identification.ProofOfAddress)
	},

	FieldPaymentMethod: func(d *models.ApplicationDraft, _ time.Time) FieldResult {
		return ValidatePaymentMethod(d.Payment.Method)
	},
	FieldPreferredCrypto: branchRule(models.PaymentMethodCrypto, func(d *models.ApplicationDraft, _ time.Time) FieldResult {
		return ValidatePreferredCrypto(d.Payment.PreferredCrypto())
	}),
	FieldBankName: branchRule(models.PaymentMethodBankTransfer, func(d *models.ApplicationDraft, _ time.Time) FieldResult {
		return ValidateBankName(d.Payment.Bank().BankName)
	}),
	FieldAccountHolderName: branchRule(models.PaymentMethodBankTransfer, func(d *models.ApplicationDraft, _ time.Time) FieldResult {
		return ValidateAccountHolderName(d.Payment.Bank().AccountHolderName)
	}),
	FieldAccountNumber: branchRule(models.PaymentMethodBankTransfer, func(d *models.ApplicationDraft, _ time.Time) FieldResult {
		return ValidateAccountNumber(d.Payment.Bank().AccountNumber)
	}),
	FieldSortCode: branchRule(models.PaymentMethodBankTransfer, func(d *models.ApplicationDraft, _ time.Time) FieldResult {
		return ValidateSortCode(d.Payment.Bank().SortCode)
	}),

	FieldTermsAccepted: func(d *models.ApplicationDraft, _ time.Time) FieldResult {
		return validateAccepted(d.Declarations.TermsAccepted)
	},
	FieldPrivacyAccepted: func(d *models.ApplicationDraft, _ time.Time) FieldResult {
		return validateAccepted(d.Declarations.PrivacyAccepted)
	},
	FieldLegalDeclarations: func(d *models.ApplicationDraft, _ time.Time) FieldResult {
		return validateAccepted(d.Declarations.LegalDeclarations)
	},
	FieldMarketingConsent: func(*models.ApplicationDraft, time.Time) FieldResult {
		return valid
	},
}

// ValidateField runs the rule for id against the draft. Unknown ids are reported invalid.
func ValidateField(id FieldID, d models.ApplicationDraft, today time.Time) FieldResult {
	rule, ok := fieldRules[id]
	if !ok {
		return invalid("Unknown field")
	}
	return rule(&d, today)
}

// ValidateStep runs every rule belonging to step.
func ValidateStep(step Step, d models.ApplicationDraft, today time.Time) map[FieldID]FieldResult {
	out := make(map[FieldID]FieldResult, len(stepFields[step]))
	for _, id := range stepFields[step] {
		out[id] = fieldRules[id](&d, today)
	}
	return out
}

// ValidateAll runs every rule in the table.
func ValidateAll(d models.ApplicationDraft, today time.Time) map[FieldID]FieldResult {
	out := make(map[FieldID]FieldResult, len(fieldRules))
	for id, rule := range fieldRules {
		out[id] = rule(&d, today)
	}
	return out
}

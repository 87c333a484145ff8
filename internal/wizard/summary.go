// internal/wizard/summary.go
package wizard

import (
	"strings"
	"time"

	"nominee-applications/internal/models"
)

const notProvided = "Not provided"

// SummaryOptions controls how a draft is rendered for the operator.
type SummaryOptions struct {
	Reference string
	Now       time.Time
	// MaskSensitive keeps only the tail of account, NI and ID numbers.
	MaskSensitive bool
}

var idTypeLabels = map[models.IDType]string{
	models.IDTypePassport:       "Passport",
	models.IDTypeDrivingLicence: "Driving Licence",
	models.IDTypeNationalID:     "National ID Card",
}

var paymentLabels = map[models.PaymentMethod]string{
	models.PaymentMethodCrypto:       "Cryptocurrency",
	models.PaymentMethodBankTransfer: "Bank Transfer",
}

var cryptoLabels = map[string]string{
	"bitcoin":  "Bitcoin (BTC)",
	"ethereum": "Ethereum (ETH)",
	"usdt":     "Tether (USDT)",
	"usdc":     "USD Coin (USDC)",
}

// BuildSubmission renders every collected field of d into operator-facing sections.
func BuildSubmission(d models.ApplicationDraft, opts SummaryOptions) *models.Submission {
	mask := func(v string, keep int) string {
		if !opts.MaskSensitive {
			return v
		}
		return MaskValue(v, keep)
	}

	sections := []models.SubmissionSection{
		{
			Title: StepPersonal.Title(),
			Fields: []models.SubmissionField{
				field(FieldFirstName, "First Name", d.Personal.FirstName),
				field(FieldLastName, "Last Name", d.Personal.LastName),
				field(FieldDateOfBirth, "Date of Birth", formatDate(d.Personal.DateOfBirth)),
				field(FieldPlaceOfBirth, "Place of Birth", d.Personal.PlaceOfBirth),
			},
		},
		{
			Title: StepContact.Title(),
			Fields: []models.SubmissionField{
				field(FieldEmail, "Email", d.Contact.Email),
				field(FieldPhone, "Phone", d.Contact.Phone),
				field(FieldAddressLine1, "Address Line 1", d.Contact.AddressLine1),
				field(FieldAddressLine2, "Address Line 2", d.Contact.AddressLine2),
				field(FieldCity, "City", d.Contact.City),
				field(FieldPostcode, "Postcode", strings.ToUpper(d.Contact.Postcode)),
				field(FieldCountry, "Country", d.Contact.Country),
			},
		},
		{
			Title: StepIdentification.Title(),
			Fields: []models.SubmissionField{
				field(FieldIDType, "ID Type", labelOr(idTypeLabels[d.Identification.IDType], string(d.Identification.IDType))),
				field(FieldIDNumber, "ID Number", mask(d.Identification.IDNumber, 3)),
				field(FieldNationalInsurance, "National Insurance Number", mask(strings.ToUpper(d.Identification.NationalInsurance), 4)),
				documentField(FieldIDFront, models.SlotIDFront, d.Identification.IDFront),
				documentField(FieldIDBack, models.SlotIDBack, d.Identification.IDBack),
				documentField(FieldProofOfAddress, models.SlotProofOfAddress, d.Identification.ProofOfAddress),
			},
		},
		{
			Title:  StepPayment.Title(),
			Fields: paymentFields(d.Payment, mask),
		},
		{
			Title: StepDeclarations.Title(),
			Fields: []models.SubmissionField{
				field(FieldTermsAccepted, "Terms & Conditions Accepted", yesNo(d.Declarations.TermsAccepted)),
				field(FieldPrivacyAccepted, "Privacy Policy Accepted", yesNo(d.Declarations.PrivacyAccepted)),
				field(FieldLegalDeclarations, "Legal Declarations Confirmed", yesNo(d.Declarations.LegalDeclarations)),
				field(FieldMarketingConsent, "Marketing Consent", yesNo(d.Declarations.MarketingConsent)),
			},
		},
	}

	return &models.Submission{
		Reference:   opts.Reference,
		SubmittedAt: opts.Now.UTC(),
		Sections:    sections,
		Attachments: d.Documents(),
	}
}

func paymentFields(p models.Payment, mask func(string, int) string) []models.SubmissionField {
	fields := []models.SubmissionField{
		field(FieldPaymentMethod, "Payment Method", labelOr(paymentLabels[p.Method], string(p.Method))),
	}
	switch p.Method {
	case models.PaymentMethodCrypto:
		c := p.PreferredCrypto()
		fields = append(fields, field(FieldPreferredCrypto, "Preferred Cryptocurrency", labelOr(cryptoLabels[c], c)))
	case models.PaymentMethodBankTransfer:
		b := p.Bank()
		fields = append(fields,
			field(FieldBankName, "Bank Name", b.BankName),
			field(FieldAccountHolderName, "Account Holder Name", b.AccountHolderName),
			field(FieldAccountNumber, "Account Number", mask(stripSpaces(b.AccountNumber), 4)),
			field(FieldSortCode, "Sort Code", b.SortCode),
		)
	}
	return fields
}

func field(id FieldID, label, value string) models.SubmissionField {
	if strings.TrimSpace(value) == "" {
		value = notProvided
	}
	return models.SubmissionField{Key: string(id), Label: label, Value: value}
}

func documentField(id FieldID, slot models.DocumentSlot, ref *models.DocumentRef) models.SubmissionField {
	value := ""
	if ref != nil {
		value = ref.FileName
	}
	return field(id, slot.Label(), value)
}

func labelOr(label, raw string) string {
	if label != "" {
		return label
	}
	return raw
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func formatDate(v string) string {
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return v
	}
	return t.Format("2 January 2006")
}

// MaskValue hides all but the last keep characters of v, ignoring whitespace.
func MaskValue(v string, keep int) string {
	v = stripSpaces(v)
	if v == "" {
		return v
	}
	r := []rune(v)
	if len(r) <= keep {
		return strings.Repeat("*", len(r))
	}
	return strings.Repeat("*", len(r)-keep) + string(r[len(r)-keep:])
}

package wizard

import (
	"fmt"
	"time"

	"nominee-applications/internal/models"
)

// Step is a wizard position in [StepPersonal, StepDeclarations].
type Step int

const (
	StepPersonal Step = iota + 1
	StepContact
	StepIdentification
	StepPayment
	StepDeclarations
)

const (
	FirstStep = StepPersonal
	LastStep  = StepDeclarations
)

var stepTitles = map[Step]string{
	StepPersonal:       "Personal Information",
	StepContact:        "Contact & Address",
	StepIdentification: "Identification",
	StepPayment:        "Payment Details",
	StepDeclarations:   "Declarations",
}

func (s Step) Valid() bool { return s >= FirstStep && s <= LastStep }

func (s Step) Title() string {
	if t, ok := stepTitles[s]; ok {
		return t
	}
	return fmt.Sprintf("Step %d", int(s))
}

func (s Step) String() string { return fmt.Sprintf("step%d", int(s)) }

// Steps returns every step in order.
func Steps() []Step {
	return []Step{StepPersonal, StepContact, StepIdentification, StepPayment, StepDeclarations}
}

var stepFields = map[Step][]FieldID{
	StepPersonal: {FieldFirstName, FieldLastName, FieldDateOfBirth, FieldPlaceOfBirth},
	StepContact: {FieldEmail, FieldPhone, FieldAddressLine1, FieldAddressLine2,
		FieldCity, FieldPostcode, FieldCountry},
	StepIdentification: {FieldIDType, FieldIDNumber, FieldNationalInsurance,
		FieldIDFront, FieldIDBack, FieldProofOfAddress},
	StepPayment: {FieldPaymentMethod, FieldPreferredCrypto, FieldBankName,
		FieldAccountHolderName, FieldAccountNumber, FieldSortCode},
	StepDeclarations: {FieldTermsAccepted, FieldPrivacyAccepted, FieldLegalDeclarations,
		FieldMarketingConsent},
}

// StepFields lists the inputs shown on step.
func StepFields(step Step) []FieldID {
	return append([]FieldID(nil), stepFields[step]...)
}

// CompletenessMode selects which definition of "step complete" gates navigation.
type CompletenessMode string

const (
	// ModeLenient only checks that the key fields of a step are present.
	ModeLenient CompletenessMode = "lenient"
	// ModeStrict requires every required field of a step to pass its rule, documents included.
	ModeStrict CompletenessMode = "strict"
)

func ParseCompletenessMode(s string) (CompletenessMode, error) {
	switch CompletenessMode(s) {
	case ModeLenient, "":
		return ModeLenient, nil
	case ModeStrict:
		return ModeStrict, nil
	}
	return "", fmt.Errorf("unknown completeness mode %q", s)
}

// StepReport says whether a step is complete and which fields are holding it back.
type StepReport struct {
	Step     Step      `json:"step"`
	Title    string    `json:"title"`
	Complete bool      `json:"complete"`
	Missing  []FieldID `json:"missing,omitempty"`
}

// StepComplete is the single completeness predicate used both to gate navigation and to
// drive the per-step status shown to the applicant.
func StepComplete(step Step, d models.ApplicationDraft, mode CompletenessMode, today time.Time) bool {
	return Report(step, d, mode, today).Complete
}

// Report evaluates step and lists the unmet requirements.
func Report(step Step, d models.ApplicationDraft, mode CompletenessMode, today time.Time) StepReport {
	var missing []FieldID
	if mode == ModeStrict {
		missing = strictMissing(step, &d, today)
	} else {
		missing = lenientMissing(step, &d)
	}
	return StepReport{
		Step:     step,
		Title:    step.Title(),
		Complete: step.Valid() && len(missing) == 0,
		Missing:  missing,
	}
}

func lenientMissing(step Step, d *models.ApplicationDraft) []FieldID {
	var missing []FieldID
	require := func(id FieldID, present bool) {
		if !present {
			missing = append(missing, id)
		}
	}

	switch step {
	case StepPersonal:
		require(FieldFirstName, d.Personal.FirstName != "")
		require(FieldLastName, d.Personal.LastName != "")
	case StepContact:
		require(FieldEmail, d.Contact.Email != "")
		require(FieldPhone, d.Contact.Phone != "")
		require(FieldAddressLine1, d.Contact.AddressLine1 != "")
		require(FieldCity, d.Contact.City != "")
		require(FieldPostcode, d.Contact.Postcode != "")
	case StepIdentification:
		require(FieldIDType, d.Identification.IDType != "")
		require(FieldIDNumber, d.Identification.IDNumber != "")
		require(FieldNationalInsurance, d.Identification.NationalInsurance != "")
	case StepPayment:
		require(FieldPaymentMethod, d.Payment.Method != "")
		if d.Payment.Method == models.PaymentMethodBankTransfer {
			require(FieldAccountNumber, d.Payment.Bank().AccountNumber != "")
		}
	case StepDeclarations:
		require(FieldTermsAccepted, d.Declarations.TermsAccepted)
		require(FieldPrivacyAccepted, d.Declarations.PrivacyAccepted)
		require(FieldLegalDeclarations, d.Declarations.LegalDeclarations)
	}
	return missing
}

// strictRequired lists the fields that must pass their rule for the step to be complete.
// Payment sub-fields only count for the selected method.
func strictRequired(step Step, d *models.ApplicationDraft) []FieldID {
	switch step {
	case StepPersonal:
		return []FieldID{FieldFirstName, FieldLastName, FieldDateOfBirth, FieldPlaceOfBirth}
	case StepContact:
		return []FieldID{FieldEmail, FieldPhone, FieldAddressLine1, FieldCity, FieldPostcode}
	case StepIdentification:
		return []FieldID{FieldIDType, FieldIDNumber, FieldNationalInsurance,
			FieldIDFront, FieldIDBack, FieldProofOfAddress}
	case StepPayment:
		switch d.Payment.Method {
		case models.PaymentMethodCrypto:
			return []FieldID{FieldPaymentMethod, FieldPreferredCrypto}
		case models.PaymentMethodBankTransfer:
			return []FieldID{FieldPaymentMethod, FieldBankName, FieldAccountHolderName,
				FieldAccountNumber, FieldSortCode}
		}
		return []FieldID{FieldPaymentMethod}
	case StepDeclarations:
		return []FieldID{FieldTermsAccepted, FieldPrivacyAccepted, FieldLegalDeclarations}
	}
	return nil
}

func strictMissing(step Step, d *models.ApplicationDraft, today time.Time) []FieldID {
	var missing []FieldID
	for _, id := range strictRequired(step, d) {
		if !fieldRules[id](d, today).IsValid {
			missing = append(missing, id)
		}
	}
	return missing
}

// Reports evaluates every step.
func Reports(d models.ApplicationDraft, mode CompletenessMode, today time.Time) []StepReport {
	out := make([]StepReport, 0, len(stepFields))
	for _, s := range Steps() {
		out = append(out, Report(s, d, mode, today))
	}
	return out
}

package wizard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"nominee-applications/internal/models"
)

func TestValidatePostcode(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		wantValid bool
		wantMsg   bool
	}{
		{name: "westminster with space", value: "SW1A 1AA", wantValid: true},
		{name: "lower case without space", value: "sw1a1aa", wantValid: true},
		{name: "city of london", value: "EC1A 1BB", wantValid: true},
		{name: "short outward code", value: "M1 1AE", wantValid: true},
		{name: "digits only", value: "12345", wantMsg: true},
		{name: "outward code only", value: "SW1A", wantMsg: true},
		{name: "empty", value: "", wantMsg: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidatePostcode(tt.value)
			assert.Equal(t, tt.wantValid, got.IsValid)
			assert.Equal(t, tt.wantMsg, got.Message != "")
		})
	}
}

func TestValidateDateOfBirth(t *testing.T) {
	today := time.Date(2026, time.March, 15, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name      string
		value     string
		wantValid bool
		wantMsg   bool
	}{
		{name: "17 years 364 days", value: "2008-03-16", wantMsg: true},
		{name: "exactly 18 years", value: "2008-03-15", wantValid: true},
		{name: "25 years", value: "2001-03-15", wantValid: true},
		{name: "exactly 120 years", value: "1906-03-15", wantValid: true},
		{name: "121 years", value: "1905-03-15", wantMsg: true},
		{name: "future date", value: "2030-01-01", wantMsg: true},
		{name: "not a date", value: "15/03/2001", wantMsg: true},
		{name: "empty has no message", value: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateDateOfBirth(tt.value, today)
			assert.Equal(t, tt.wantValid, got.IsValid)
			assert.Equal(t, tt.wantMsg, got.Message != "")
		})
	}
}

func TestAgeOn(t *testing.T) {
	dob := time.Date(2000, time.February, 29, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 25, AgeOn(dob, time.Date(2026, time.February, 28, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 26, AgeOn(dob, time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)))
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"Jane", true},
		{"O'Brien", true},
		{"Smith-Jones", true},
		{"Mary Ann", true},
		{"J", false},
		{" J ", false},
		{"J4ne", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidateName(tt.value).IsValid, "value %q", tt.value)
	}
}

func TestValidatePhone(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"07123456789", true},
		{"07123 456 789", true},
		{"+447123456789", true},
		{"0207123456", true},
		{"00123456789", false},
		{"+15551234567", false},
		{"0712345", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidatePhone(tt.value).IsValid, "value %q", tt.value)
	}
}

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("jane@example.com").IsValid)
	assert.False(t, ValidateEmail("jane@example").IsValid)
	assert.False(t, ValidateEmail("jane doe@example.com").IsValid)
	assert.Equal(t, FieldResult{}, ValidateEmail(""))
}

func TestValidateIDNumber(t *testing.T) {
	tests := []struct {
		name   string
		idType models.IDType
		value  string
		want   bool
	}{
		{"passport nine chars", models.IDTypePassport, "123456789", true},
		{"passport alphanumeric", models.IDTypePassport, "AB1234567", true},
		{"passport too short", models.IDTypePassport, "12345678", false},
		{"passport too long", models.IDTypePassport, "1234567890", false},
		{"licence sixteen chars", models.IDTypeDrivingLicence, "MORGA753116SM9IJ", true},
		{"licence with spaces", models.IDTypeDrivingLicence, "MORGA 753116 SM9IJ", true},
		{"licence too short", models.IDTypeDrivingLicence, "MORGA753116", false},
		{"national id minimum", models.IDTypeNationalID, "ABC12345", true},
		{"national id too short", models.IDTypeNationalID, "ABC1234", false},
		{"no type uses minimum length", "", "12345678", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateIDNumber(tt.value, tt.idType).IsValid)
		})
	}
}

func TestValidateNationalInsurance(t *testing.T) {
	assert.True(t, ValidateNationalInsurance("AB123456C").IsValid)
	assert.True(t, ValidateNationalInsurance("ab 12 34 56 c").IsValid)
	assert.False(t, ValidateNationalInsurance("AB123456E").IsValid)
	assert.False(t, ValidateNationalInsurance("A1234567C").IsValid)
}

func TestValidateBankFields(t *testing.T) {
	assert.True(t, ValidateAccountNumber("12345678").IsValid)
	assert.True(t, ValidateAccountNumber("1234 5678").IsValid)
	assert.False(t, ValidateAccountNumber("1234567").IsValid)
	assert.False(t, ValidateAccountNumber("1234567a").IsValid)

	assert.True(t, ValidateSortCode("12-34-56").IsValid)
	assert.True(t, ValidateSortCode("123456").IsValid)
	assert.False(t, ValidateSortCode("12/34/56").IsValid)

	assert.True(t, ValidateBankName("HSBC").IsValid)
	assert.False(t, ValidateBankName("H").IsValid)

	assert.True(t, ValidateAccountHolderName("Jane Doe").IsValid)
	assert.False(t, ValidateAccountHolderName("Jane Doe Ltd.").IsValid)
}

func TestValidateCityAndAddress(t *testing.T) {
	assert.True(t, ValidateCity("Stoke-on-Trent").IsValid)
	assert.False(t, ValidateCity("L").IsValid)
	assert.False(t, ValidateCity("London 2").IsValid)

	assert.True(t, ValidateAddressLine1("1 High Street").IsValid)
	assert.False(t, ValidateAddressLine1("1 Hi").IsValid)
}

func TestValidateField_OptionalFieldsAlwaysValid(t *testing.T) {
	var d models.ApplicationDraft
	for _, id := range []FieldID{FieldAddressLine2, FieldCountry, FieldMarketingConsent} {
		assert.True(t, ValidateField(id, d, fixedToday).IsValid, string(id))
	}
}

func TestValidateField_PaymentSubFieldsFollowMethod(t *testing.T) {
	var d models.ApplicationDraft
	d.Payment = models.Payment{Method: models.PaymentMethodCrypto}

	assert.False(t, ValidateField(FieldPreferredCrypto, d, fixedToday).IsValid)
	assert.True(t, ValidateField(FieldAccountNumber, d, fixedToday).IsValid, "bank fields do not apply to crypto")

	d.Payment = models.Payment{
		Method:       models.PaymentMethodBankTransfer,
		BankTransfer: &models.BankTransferPayment{AccountNumber: "123"},
	}
	assert.False(t, ValidateField(FieldAccountNumber, d, fixedToday).IsValid)
	assert.True(t, ValidateField(FieldPreferredCrypto, d, fixedToday).IsValid)
}

func TestValidateField_Declarations(t *testing.T) {
	var d models.ApplicationDraft
	assert.False(t, ValidateField(FieldTermsAccepted, d, fixedToday).IsValid)
	d.Declarations.TermsAccepted = true
	assert.True(t, ValidateField(FieldTermsAccepted, d, fixedToday).IsValid)
}

func TestValidateField_Unknown(t *testing.T) {
	got := ValidateField("favouriteColour", models.ApplicationDraft{}, fixedToday)
	assert.False(t, got.IsValid)
	assert.NotEmpty(t, got.Message)
}

func TestValidateAll_CoversEveryStepField(t *testing.T) {
	all := ValidateAll(models.ApplicationDraft{}, fixedToday)
	for _, step := range Steps() {
		for _, id := range StepFields(step) {
			_, ok := all[id]
			assert.True(t, ok, "missing rule for %s", id)
		}
	}
	assert.Len(t, all, len(fieldRules))
}

func TestValidateStep(t *testing.T) {
	d := completeDraft(t)
	for _, step := range Steps() {
		for id, res := range ValidateStep(step, d, fixedToday) {
			assert.True(t, res.IsValid, "step %d field %s: %s", step, id, res.Message)
		}
	}
}

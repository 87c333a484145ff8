package wizard

import (
	"fmt"
	"strings"
	"sync"

	"nominee-applications/internal/common/validation"
	"nominee-applications/internal/models"
)

func providedString() map[string]interface{} {
	return map[string]interface{}{
		"type":      "string",
		"minLength": 1,
		"not":       map[string]interface{}{"const": notProvided},
	}
}

func submissionSchemaMap() map[string]interface{} {
	props := map[string]interface{}{
		"reference": map[string]interface{}{
			"type":    "string",
			"pattern": `^ND-[A-Z0-9]{8}$`,
		},
		"submittedAt": map[string]interface{}{"type": "string", "format": "date-time"},
		"email":       map[string]interface{}{"type": "string", "format": "email"},
		"paymentMethod": map[string]interface{}{
			"enum": []interface{}{paymentLabels[models.PaymentMethodCrypto], paymentLabels[models.PaymentMethodBankTransfer]},
		},
	}
	for _, k := range []string{string(FieldTermsAccepted), string(FieldPrivacyAccepted), string(FieldLegalDeclarations)} {
		props[k] = map[string]interface{}{"const": "Yes"}
	}

	required := []interface{}{"reference", "submittedAt", "paymentMethod",
		string(FieldTermsAccepted), string(FieldPrivacyAccepted), string(FieldLegalDeclarations)}
	for _, id := range []FieldID{FieldFirstName, FieldLastName, FieldPhone, FieldAddressLine1,
		FieldCity, FieldPostcode, FieldIDType, FieldIDNumber, FieldNationalInsurance} {
		props[string(id)] = providedString()
		required = append(required, string(id))
	}
	required = append(required, string(FieldEmail))

	return map[string]interface{}{
		"$schema":    "http://json-schema.org/draft-07/schema#",
		"type":       "object",
		"properties": props,
		"required":   required,
		"additionalProperties": map[string]interface{}{
			"type": "string",
		},
	}
}

var (
	schemaOnce sync.Once
	schema     *validation.Schema
	schemaErr  error
)

// ValidateSubmission checks the flattened submission before it is handed to delivery.
func ValidateSubmission(s *models.Submission) error {
	schemaOnce.Do(func() {
		schema, schemaErr = validation.NewSchema(submissionSchemaMap())
	})
	if schemaErr != nil {
		return schemaErr
	}

	doc := make(map[string]interface{}, len(s.Values()))
	for k, v := range s.Values() {
		doc[k] = v
	}

	result, err := schema.Validate(doc)
	if err != nil {
		return err
	}
	if !result.Valid {
		return fmt.Errorf("%w: %s", ErrSubmissionInvalid, strings.Join(result.GetErrorMessages(), "; "))
	}
	return nil
}

package wizard

import (
	"fmt"

	"nominee-applications/internal/models"
)

// maxFieldLength caps any single text value accepted from a patch.
const maxFieldLength = 256

// ApplyPatch merges p into d. Nil fields are left alone and later values win. On error d is
// not modified.
func ApplyPatch(d *models.ApplicationDraft, p models.DraftPatch) error {
	if err := checkLengths(p); err != nil {
		return err
	}

	next := d.Clone()

	setString(&next.Personal.FirstName, p.FirstName)
	setString(&next.Personal.LastName, p.LastName)
	setString(&next.Personal.DateOfBirth, p.DateOfBirth)
	setString(&next.Personal.PlaceOfBirth, p.PlaceOfBirth)

	setString(&next.Contact.Email, p.Email)
	setString(&next.Contact.Phone, p.Phone)
	setString(&next.Contact.AddressLine1, p.AddressLine1)
	setString(&next.Contact.AddressLine2, p.AddressLine2)
	setString(&next.Contact.City, p.City)
	setString(&next.Contact.Postcode, p.Postcode)
	setString(&next.Contact.Country, p.Country)

	if p.IDType != nil {
		t := models.IDType(*p.IDType)
		if t != "" && !models.IsValidIDType(t) {
			return fmt.Errorf("%w: unknown idType %q", ErrInvalidPatch, *p.IDType)
		}
		next.Identification.IDType = t
	}
	setString(&next.Identification.IDNumber, p.IDNumber)
	setString(&next.Identification.NationalInsurance, p.NationalInsurance)

	if err := applyPayment(&next.Payment, p); err != nil {
		return err
	}

	setBool(&next.Declarations.TermsAccepted, p.TermsAccepted)
	setBool(&next.Declarations.PrivacyAccepted, p.PrivacyAccepted)
	setBool(&next.Declarations.LegalDeclarations, p.LegalDeclarations)
	setBool(&next.Declarations.MarketingConsent, p.MarketingConsent)

	*d = next
	return nil
}

// applyPayment switches the union branch when the method changes and then writes
// sub-fields, which must belong to the method in effect after the switch.
func applyPayment(pay *models.Payment, p models.DraftPatch) error {
	if p.PaymentMethod != nil {
		m := models.PaymentMethod(*p.PaymentMethod)
		if m != "" && !models.IsValidPaymentMethod(m) {
			return fmt.Errorf("%w: payment method %q is not available", ErrInvalidPatch, *p.PaymentMethod)
		}
		if m != pay.Method {
			*pay = models.Payment{Method: m}
		}
	}

	if p.TouchesCrypto() {
		if pay.Method != models.PaymentMethodCrypto {
			return fmt.Errorf("%w: preferredCrypto requires paymentMethod crypto", ErrInvalidPatch)
		}
		if pay.Crypto == nil {
			pay.Crypto = &models.CryptoPayment{}
		}
		pay.Crypto.PreferredCrypto = *p.PreferredCrypto
	}

	if p.TouchesBank() {
		if pay.Method != models.PaymentMethodBankTransfer {
			return fmt.Errorf("%w: bank details require paymentMethod bank_transfer", ErrInvalidPatch)
		}
		if pay.BankTransfer == nil {
			pay.BankTransfer = &models.BankTransferPayment{}
		}
		setString(&pay.BankTransfer.BankName, p.BankName)
		setString(&pay.BankTransfer.AccountHolderName, p.AccountHolderName)
		setString(&pay.BankTransfer.AccountNumber, p.AccountNumber)
		setString(&pay.BankTransfer.SortCode, p.SortCode)
	}
	return nil
}

func checkLengths(p models.DraftPatch) error {
	fields := map[string]*string{
		"firstName": p.FirstName, "lastName": p.LastName, "dateOfBirth": p.DateOfBirth,
		"placeOfBirth": p.PlaceOfBirth, "email": p.Email, "phone": p.Phone,
		"addressLine1": p.AddressLine1, "addressLine2": p.AddressLine2, "city": p.City,
		"postcode": p.Postcode, "country": p.Country, "idType": p.IDType, "idNumber": p.IDNumber,
		"nationalInsurance": p.NationalInsurance, "paymentMethod": p.PaymentMethod,
		"preferredCrypto": p.PreferredCrypto, "bankName": p.BankName,
		"accountHolderName": p.AccountHolderName, "accountNumber": p.AccountNumber,
		"sortCode": p.SortCode,
	}
	for name, v := range fields {
		if v != nil && len(*v) > maxFieldLength {
			return fmt.Errorf("%w: %s exceeds %d characters", ErrInvalidPatch, name, maxFieldLength)
		}
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

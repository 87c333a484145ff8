package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nominee-applications/internal/models"
)

// ==========================
// Navigation
// ==========================

func TestWizard_StartsAtFirstStep(t *testing.T) {
	w := newTestEnv().wizard(t)

	snap := w.Snapshot()
	assert.Equal(t, StepPersonal, snap.Position)
	assert.Equal(t, State("step1"), snap.State)
	assert.True(t, snap.Draft.IsEmpty())
	assert.Len(t, snap.Steps, 5)
	assert.False(t, snap.MemoryOnly)
}

func TestWizard_GoNextGatedOnNames(t *testing.T) {
	ctx := context.Background()
	w := newTestEnv().wizard(t)

	require.NoError(t, w.UpdateDraft(ctx, models.DraftPatch{FirstName: models.String("Jane")}))
	rep, moved, err := w.GoNext(ctx)
	require.NoError(t, err)
	assert.False(t, moved)
	assert.Equal(t, []FieldID{FieldLastName}, rep.Missing)
	assert.Equal(t, StepPersonal, w.Position())

	require.NoError(t, w.UpdateDraft(ctx, models.DraftPatch{LastName: models.String("Doe")}))
	_, moved, err = w.GoNext(ctx)
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, StepContact, w.Position())
}

func TestWizard_GoNextGatedOnBankDetails(t *testing.T) {
	ctx := context.Background()
	w := newTestEnv().wizard(t)
	advanceTo(t, w, StepPayment)

	require.NoError(t, w.UpdateDraft(ctx, models.DraftPatch{PaymentMethod: models.String("bank_transfer")}))
	_, moved, err := w.GoNext(ctx)
	require.NoError(t, err)
	assert.False(t, moved)
	assert.Equal(t, StepPayment, w.Position())

	require.NoError(t, w.UpdateDraft(ctx, models.DraftPatch{
		BankName:          models.String("HSBC"),
		AccountHolderName: models.String("Jane Doe"),
		AccountNumber:     models.String("12345678"),
		SortCode:          models.String("12-34-56"),
	}))
	_, moved, err = w.GoNext(ctx)
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, StepDeclarations, w.Position())
}

func TestWizard_GoNextCappedAtLastStep(t *testing.T) {
	ctx := context.Background()
	w := newTestEnv().wizard(t)
	advanceTo(t, w, StepDeclarations)
	require.NoError(t, w.UpdateDraft(ctx, validDeclarations()))

	rep, moved, err := w.GoNext(ctx)
	require.NoError(t, err)
	assert.True(t, rep.Complete)
	assert.False(t, moved)
	assert.Equal(t, StepDeclarations, w.Position())
}

func TestWizard_GoPreviousAlwaysAllowed(t *testing.T) {
	ctx := context.Background()
	w := newTestEnv().wizard(t)

	require.NoError(t, w.GoPrevious(ctx))
	assert.Equal(t, StepPersonal, w.Position(), "floor is step 1")

	advanceTo(t, w, StepIdentification)
	require.NoError(t, w.UpdateDraft(ctx, models.DraftPatch{FirstName: models.String("")}))
	require.NoError(t, w.GoPrevious(ctx))
	assert.Equal(t, StepContact, w.Position())
	require.NoError(t, w.GoPrevious(ctx))
	assert.Equal(t, StepPersonal, w.Position())
}

func TestWizard_StrictModeRequiresDocuments(t *testing.T) {
	ctx := context.Background()
	w := newTestEnv().wizard(t, func(c *Config) { c.Mode = ModeStrict })

	require.NoError(t, w.UpdateDraft(ctx, validPersonal()))
	_, moved, _ := w.GoNext(ctx)
	require.True(t, moved)
	require.NoError(t, w.UpdateDraft(ctx, validContact()))
	_, moved, _ = w.GoNext(ctx)
	require.True(t, moved)

	require.NoError(t, w.UpdateDraft(ctx, validIdentification()))
	rep, moved, err := w.GoNext(ctx)
	require.NoError(t, err)
	assert.False(t, moved)
	assert.ElementsMatch(t, []FieldID{FieldIDFront, FieldIDBack, FieldProofOfAddress}, rep.Missing)

	uploadAll(t, w)
	_, moved, err = w.GoNext(ctx)
	require.NoError(t, err)
	assert.True(t, moved)
}

// ==========================
// Draft persistence
// ==========================

func TestWizard_UpdateDraftPersistsWholeDraft(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	w := env.wizard(t)

	require.NoError(t, w.UpdateDraft(ctx, models.DraftPatch{Email: models.String("a@b.com")}))
	require.NoError(t, w.UpdateDraft(ctx, models.DraftPatch{Phone: models.String("07123456789")}))

	d := w.Draft()
	assert.Equal(t, "a@b.com", d.Contact.Email)
	assert.Equal(t, "07123456789", d.Contact.Phone)
	assert.Equal(t, fixedToday, d.UpdatedAt)
	assert.Equal(t, 2, env.drafts.saveCount())

	var stored storedDraft
	require.NoError(t, json.Unmarshal(env.drafts.data["session-1"], &stored))
	assert.Equal(t, "a@b.com", stored.Draft.Contact.Email)
	assert.Equal(t, "07123456789", stored.Draft.Contact.Phone)
	assert.Zero(t, stored.Position, "position is not stored by default")
}

func TestWizard_ResumesDraftAtFirstStep(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	first := env.wizard(t)
	advanceTo(t, first, StepIdentification)

	resumed := env.wizard(t)
	assert.Equal(t, StepPersonal, resumed.Position())
	assert.Equal(t, "Jane", resumed.Draft().Personal.FirstName)
	assert.Equal(t, "SW1A 1AA", resumed.Draft().Contact.Postcode)

	_, moved, err := resumed.GoNext(ctx)
	require.NoError(t, err)
	assert.True(t, moved)
}

func TestWizard_PersistPositionResumesWhereLeft(t *testing.T) {
	env := newTestEnv()
	persist := func(c *Config) { c.PersistPosition = true }

	first := env.wizard(t, persist)
	advanceTo(t, first, StepIdentification)

	resumed := env.wizard(t, persist)
	assert.Equal(t, StepIdentification, resumed.Position())
}

func TestWizard_CorruptStoredDraftIsDiscarded(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", "this is not json{"},
		{"wrong shape", `"just a string"`},
		{"truncated", `{"draft":{"personal":{"firstName":"Ja`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()
			env.drafts.data["session-1"] = []byte(tt.data)

			var w *Wizard
			require.NotPanics(t, func() { w = env.wizard(t) })

			snap := w.Snapshot()
			assert.True(t, snap.Draft.IsEmpty())
			assert.Equal(t, StepPersonal, snap.Position)
			assert.False(t, snap.MemoryOnly, "a corrupt value is not a storage failure")

			require.NoError(t, w.UpdateDraft(context.Background(), models.DraftPatch{FirstName: models.String("Jane")}))
			assert.Contains(t, string(env.drafts.data["session-1"]), "Jane")
		})
	}
}

func TestWizard_StoredPaypalIsDropped(t *testing.T) {
	env := newTestEnv()
	env.drafts.data["session-1"] = []byte(`{"draft":{"personal":{"firstName":"Jane"},"payment":{"method":"paypal"}}}`)

	d := env.wizard(t).Draft()
	assert.Equal(t, "Jane", d.Personal.FirstName)
	assert.Equal(t, models.Payment{}, d.Payment)
}

func TestWizard_SaveFailureDegradesToMemory(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	env.drafts.SaveFunc = func(context.Context, string, []byte) error { return errStoreDown }
	w := env.wizard(t)

	require.NoError(t, w.UpdateDraft(ctx, models.DraftPatch{FirstName: models.String("Jane")}))
	require.NoError(t, w.UpdateDraft(ctx, models.DraftPatch{LastName: models.String("Doe")}))

	assert.Equal(t, 1, env.drafts.saveCount(), "no further writes after the first failure")
	assert.True(t, w.Snapshot().MemoryOnly)
	assert.Equal(t, "Doe", w.Draft().Personal.LastName)
}

func TestWizard_LoadFailureDegradesToMemory(t *testing.T) {
	env := newTestEnv()
	env.drafts.LoadFunc = func(context.Context, string) ([]byte, error) { return nil, errStoreDown }
	w := env.wizard(t)

	require.NoError(t, w.UpdateDraft(context.Background(), models.DraftPatch{FirstName: models.String("Jane")}))
	assert.True(t, w.Snapshot().MemoryOnly)
	assert.Zero(t, env.drafts.saveCount())
}

func TestWizard_WithoutDraftStore(t *testing.T) {
	w := New(context.Background(), Config{SessionID: "s", Clock: fixedClock}, Dependencies{})
	require.NoError(t, w.UpdateDraft(context.Background(), models.DraftPatch{FirstName: models.String("Jane")}))
	assert.True(t, w.Snapshot().MemoryOnly)
}

// ==========================
// Uploads
// ==========================

func TestWizard_AttachDocument(t *testing.T) {
	ctx := context.Background()

	for _, slot := range models.DocumentSlots {
		t.Run(string(slot), func(t *testing.T) {
			env := newTestEnv()
			w := env.wizard(t)

			_, err := w.AttachDocument(ctx, slot, Upload{FileName: "big.jpg", DeclaredType: "image/jpeg", Data: jpegBytes(6 << 20)})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrFileTooLarge)
			assert.Nil(t, w.Draft().Document(slot))
			assert.Zero(t, env.docs.count())

			ref, err := w.AttachDocument(ctx, slot, Upload{FileName: "doc.pdf", DeclaredType: "application/pdf", Data: pdfBytes(2 << 20)})
			require.NoError(t, err)
			assert.Equal(t, "application/pdf", ref.ContentType)
			assert.Equal(t, int64(2<<20), ref.Size)
			assert.Equal(t, "doc.pdf", ref.FileName)

			stored := w.Draft().Document(slot)
			require.NotNil(t, stored)
			assert.Equal(t, ref.Key, stored.Key)
			assert.Equal(t, 1, env.docs.count())
		})
	}
}

func TestWizard_AttachDocumentRejections(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	w := env.wizard(t)

	_, err := w.AttachDocument(ctx, "selfie", Upload{FileName: "me.jpg", Data: jpegBytes(100)})
	assert.ErrorIs(t, err, ErrUnknownDocumentSlot)

	_, err = w.AttachDocument(ctx, models.SlotIDFront, Upload{FileName: "a.gif", DeclaredType: "image/gif", Data: []byte("GIF89a\x01\x00\x01\x00")})
	assert.ErrorIs(t, err, ErrUnsupportedFileType)

	_, err = w.AttachDocument(ctx, models.SlotIDFront, Upload{FileName: "a.pdf"})
	assert.ErrorIs(t, err, ErrEmptyFile)

	assert.Nil(t, w.Draft().Identification.IDFront)
	assert.Zero(t, env.docs.count())
	assert.Zero(t, env.drafts.saveCount())
}

func TestWizard_AttachDocumentReplacesPrevious(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	w := env.wizard(t)

	first, err := w.AttachDocument(ctx, models.SlotIDFront, Upload{FileName: "one.png", Data: pngBytes(512)})
	require.NoError(t, err)
	second, err := w.AttachDocument(ctx, models.SlotIDFront, Upload{FileName: "two.png", Data: pngBytes(512)})
	require.NoError(t, err)

	assert.NotEqual(t, first.Key, second.Key)
	assert.Equal(t, []string{first.Key}, env.docs.deleted)
	assert.Equal(t, second.Key, w.Draft().Identification.IDFront.Key)
}

func TestWizard_AttachDocumentStoreFailure(t *testing.T) {
	env := newTestEnv()
	env.docs.PutFunc = func(context.Context, string, []byte, string) error { return errors.New("bucket missing") }
	w := env.wizard(t)

	_, err := w.AttachDocument(context.Background(), models.SlotIDBack, Upload{FileName: "b.pdf", Data: pdfBytes(64)})
	assert.ErrorIs(t, err, ErrDocumentStore)
	assert.Nil(t, w.Draft().Identification.IDBack)
}

// ==========================
// Submission
// ==========================

func TestWizard_SubmitEndToEnd(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	w := env.wizard(t)

	require.NoError(t, w.UpdateDraft(ctx, validPersonal()))
	mustAdvance(t, w)
	require.NoError(t, w.UpdateDraft(ctx, validContact()))
	mustAdvance(t, w)
	require.NoError(t, w.UpdateDraft(ctx, validIdentification()))
	uploadAll(t, w)
	mustAdvance(t, w)
	require.NoError(t, w.UpdateDraft(ctx, validCrypto()))
	mustAdvance(t, w)
	require.NoError(t, w.UpdateDraft(ctx, validDeclarations()))

	res, err := w.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultSuccessRoute, res.RedirectTo)
	assert.Regexp(t, `^ND-[A-Z0-9]{8}$`, res.Reference)

	require.Equal(t, 1, env.delivery.callCount())
	sub := env.delivery.calls[0]
	values := sub.Values()
	for key, want := range map[string]string{
		"firstName":         "Jane",
		"lastName":          "Doe",
		"dateOfBirth":       "15 March 2001",
		"placeOfBirth":      "London, UK",
		"email":             "jane@example.com",
		"phone":             "07123456789",
		"addressLine1":      "1 High Street",
		"city":              "London",
		"postcode":          "SW1A 1AA",
		"idType":            "Passport",
		"idNumber":          "123456789",
		"nationalInsurance": "AB123456C",
		"paymentMethod":     "Cryptocurrency",
		"preferredCrypto":   "Bitcoin (BTC)",
		"termsAccepted":     "Yes",
		"privacyAccepted":   "Yes",
		"legalDeclarations": "Yes",
	} {
		assert.Equal(t, want, values[key], key)
	}
	assert.Len(t, sub.Attachments, 3)
	assert.Equal(t, res.Reference, sub.Reference)

	assert.Equal(t, StateSubmitted, w.State())
	assert.Equal(t, res.Reference, w.Snapshot().Reference)
	assert.True(t, w.Draft().IsEmpty(), "draft is cleared after delivery")
	assert.Empty(t, env.drafts.data["session-1"])

	_, err = w.Submit(ctx)
	assert.ErrorIs(t, err, ErrAlreadySubmitted)
	assert.ErrorIs(t, w.UpdateDraft(ctx, models.DraftPatch{FirstName: models.String("X")}), ErrAlreadySubmitted)
	assert.Equal(t, 1, env.delivery.callCount())
}

func TestWizard_SubmitKeepsDraftWhenConfigured(t *testing.T) {
	env := newTestEnv()
	w := env.wizard(t, func(c *Config) {
		c.ClearDraftOnSubmit = false
		c.SuccessRoute = "/thanks"
	})
	fillAll(t, w)

	res, err := w.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/thanks", res.RedirectTo)
	assert.Equal(t, "Jane", w.Draft().Personal.FirstName)
	assert.NotEmpty(t, env.drafts.data["session-1"])
}

func TestWizard_SubmitRequiresDeclarations(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	w := env.wizard(t)
	advanceTo(t, w, StepDeclarations)
	require.NoError(t, w.UpdateDraft(ctx, models.DraftPatch{TermsAccepted: models.Bool(true)}))

	_, err := w.Submit(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStepIncomplete)
	var inc *IncompleteError
	require.ErrorAs(t, err, &inc)
	assert.Equal(t, []FieldID{FieldPrivacyAccepted, FieldLegalDeclarations}, inc.Report.Missing)

	assert.Equal(t, StepDeclarations, w.Position())
	assert.Zero(t, env.delivery.callCount())
}

func TestWizard_SubmitRequiresLastStep(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	w := env.wizard(t)
	require.NoError(t, w.UpdateDraft(ctx, validDeclarations()))

	_, err := w.Submit(ctx)
	assert.ErrorIs(t, err, ErrStepIncomplete)
	assert.Equal(t, StepPersonal, w.Position())
	assert.Zero(t, env.delivery.callCount())
}

func TestWizard_SubmitRejectedBySchema(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	w := env.wizard(t)
	fillAll(t, w)
	require.NoError(t, w.UpdateDraft(ctx, models.DraftPatch{Email: models.String("")}))

	_, err := w.Submit(ctx)
	assert.ErrorIs(t, err, ErrSubmissionInvalid)
	assert.Equal(t, State("step5"), w.State())
	assert.Zero(t, env.delivery.callCount())
}

func TestWizard_SubmitFailureAllowsRetry(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	attempts := 0
	env.delivery.DeliverFunc = func(context.Context, *models.Submission) error {
		attempts++
		if attempts == 1 {
			return errors.New("502 bad gateway")
		}
		return nil
	}
	w := env.wizard(t)
	fillAll(t, w)

	_, err := w.Submit(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDeliveryFailed)

	snap := w.Snapshot()
	assert.Equal(t, StateSubmitError, snap.State)
	assert.NotEmpty(t, snap.LastError)
	assert.Equal(t, "Jane", snap.Draft.Personal.FirstName, "draft preserved for retry")
	assert.NotEmpty(t, env.drafts.data["session-1"])

	res, err := w.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, env.delivery.callCount())
	assert.Equal(t, env.delivery.calls[0].Reference, res.Reference, "retries reuse the reference")
}

func TestWizard_EditAfterFailedSubmitReturnsToStep(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	env.delivery.DeliverFunc = func(context.Context, *models.Submission) error { return errors.New("timeout") }
	w := env.wizard(t)
	fillAll(t, w)

	_, err := w.Submit(ctx)
	require.Error(t, err)
	require.NoError(t, w.UpdateDraft(ctx, models.DraftPatch{MarketingConsent: models.Bool(true)}))

	snap := w.Snapshot()
	assert.Equal(t, State("step5"), snap.State)
	assert.Empty(t, snap.LastError)
}

func TestWizard_ConcurrentSubmitIsGuarded(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	entered := make(chan struct{})
	release := make(chan struct{})
	env.delivery.DeliverFunc = func(context.Context, *models.Submission) error {
		close(entered)
		<-release
		return nil
	}
	w := env.wizard(t)
	fillAll(t, w)

	var wg sync.WaitGroup
	wg.Add(1)
	var firstErr error
	go func() {
		defer wg.Done()
		_, firstErr = w.Submit(ctx)
	}()

	select {
	case <-entered:
	case <-time.After(5 * time.Second):
		t.Fatal("delivery was not called")
	}

	assert.Equal(t, StateSubmitting, w.State())
	_, err := w.Submit(ctx)
	assert.ErrorIs(t, err, ErrSubmissionInProgress)
	assert.ErrorIs(t, w.UpdateDraft(ctx, models.DraftPatch{FirstName: models.String("X")}), ErrSubmissionInProgress)
	_, _, err = w.GoNext(ctx)
	assert.ErrorIs(t, err, ErrSubmissionInProgress)
	assert.ErrorIs(t, w.GoPrevious(ctx), ErrSubmissionInProgress)

	close(release)
	wg.Wait()
	require.NoError(t, firstErr)
	assert.Equal(t, 1, env.delivery.callCount())
	assert.Equal(t, StateSubmitted, w.State())
}

// ==========================
// Helpers
// ==========================

func mustAdvance(t *testing.T, w *Wizard) {
	t.Helper()
	rep, moved, err := w.GoNext(context.Background())
	require.NoError(t, err)
	require.True(t, moved, "blocked on step %d, missing %v", rep.Step, rep.Missing)
}

func uploadAll(t *testing.T, w *Wizard) {
	t.Helper()
	for _, slot := range models.DocumentSlots {
		_, err := w.AttachDocument(context.Background(), slot, Upload{
			FileName:     string(slot) + ".pdf",
			DeclaredType: "application/pdf",
			Data:         pdfBytes(2048),
		})
		require.NoError(t, err)
	}
}

// advanceTo fills the steps before target with valid data and navigates there.
func advanceTo(t *testing.T, w *Wizard, target Step) {
	t.Helper()
	ctx := context.Background()
	patches := map[Step]models.DraftPatch{
		StepPersonal:       validPersonal(),
		StepContact:        validContact(),
		StepIdentification: validIdentification(),
		StepPayment:        validCrypto(),
	}
	for w.Position() < target {
		require.NoError(t, w.UpdateDraft(ctx, patches[w.Position()]))
		mustAdvance(t, w)
	}
}

func fillAll(t *testing.T, w *Wizard) {
	t.Helper()
	advanceTo(t, w, StepDeclarations)
	require.NoError(t, w.UpdateDraft(context.Background(), validDeclarations()))
}

package wizard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"nominee-applications/internal/common/logger"
	"nominee-applications/internal/models"
)

var fixedToday = time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedToday }

// ==========================
// Fakes
// ==========================

type fakeDraftStore struct {
	mu       sync.Mutex
	data     map[string][]byte
	LoadFunc func(ctx context.Context, id string) ([]byte, error)
	SaveFunc func(ctx context.Context, id string, data []byte) error
	saves    int
	deletes  int
}

func newFakeDraftStore() *fakeDraftStore {
	return &fakeDraftStore{data: make(map[string][]byte)}
}

func (f *fakeDraftStore) Load(ctx context.Context, id string) ([]byte, error) {
	if f.LoadFunc != nil {
		return f.LoadFunc(ctx, id)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data[id], nil
}

func (f *fakeDraftStore) Save(ctx context.Context, id string, data []byte) error {
	f.mu.Lock()
	f.saves++
	f.mu.Unlock()
	if f.SaveFunc != nil {
		return f.SaveFunc(ctx, id, data)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[id] = append([]byte(nil), data...)
	return nil
}

func (f *fakeDraftStore) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	delete(f.data, id)
	return nil
}

func (f *fakeDraftStore) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saves
}

type fakeDocumentStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	PutFunc func(ctx context.Context, key string, data []byte, contentType string) error
	deleted []string
}

func newFakeDocumentStore() *fakeDocumentStore {
	return &fakeDocumentStore{objects: make(map[string][]byte)}
}

func (f *fakeDocumentStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if f.PutFunc != nil {
		return f.PutFunc(ctx, key, data, contentType)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	return nil
}

func (f *fakeDocumentStore) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, key)
	delete(f.objects, key)
	return nil
}

func (f *fakeDocumentStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

type fakeDeliverer struct {
	mu          sync.Mutex
	DeliverFunc func(ctx context.Context, s *models.Submission) error
	calls       []*models.Submission
}

func (f *fakeDeliverer) Name() string { return "fake" }

func (f *fakeDeliverer) Deliver(ctx context.Context, s *models.Submission) error {
	f.mu.Lock()
	f.calls = append(f.calls, s)
	f.mu.Unlock()
	if f.DeliverFunc != nil {
		return f.DeliverFunc(ctx, s)
	}
	return nil
}

func (f *fakeDeliverer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

var errStoreDown = errors.New("connection refused")

// ==========================
// Builders
// ==========================

type testEnv struct {
	drafts   *fakeDraftStore
	docs     *fakeDocumentStore
	delivery *fakeDeliverer
}

func newTestEnv() *testEnv {
	return &testEnv{
		drafts:   newFakeDraftStore(),
		docs:     newFakeDocumentStore(),
		delivery: &fakeDeliverer{},
	}
}

func (e *testEnv) wizard(t *testing.T, mutate ...func(*Config)) *Wizard {
	t.Helper()
	cfg := Config{
		SessionID:          "session-1",
		Mode:               ModeLenient,
		ClearDraftOnSubmit: true,
		Clock:              fixedClock,
	}
	for _, m := range mutate {
		m(&cfg)
	}
	return New(context.Background(), cfg, Dependencies{
		Drafts:    e.drafts,
		Documents: e.docs,
		Delivery:  e.delivery,
		Logger:    logger.NewTestLogger(t),
	})
}

func jpegBytes(size int) []byte {
	b := make([]byte, size)
	copy(b, []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00})
	return b
}

func pdfBytes(size int) []byte {
	b := make([]byte, size)
	copy(b, []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n"))
	return b
}

func pngBytes(size int) []byte {
	b := make([]byte, size)
	copy(b, []byte("\x89PNG\r\n\x1a\n"))
	return b
}

func validPersonal() models.DraftPatch {
	return models.DraftPatch{
		FirstName:    models.String("Jane"),
		LastName:     models.String("Doe"),
		DateOfBirth:  models.String("2001-03-15"),
		PlaceOfBirth: models.String("London, UK"),
	}
}

func validContact() models.DraftPatch {
	return models.DraftPatch{
		Email:        models.String("jane@example.com"),
		Phone:        models.String("07123456789"),
		AddressLine1: models.String("1 High Street"),
		City:         models.String("London"),
		Postcode:     models.String("SW1A 1AA"),
	}
}

func validIdentification() models.DraftPatch {
	return models.DraftPatch{
		IDType:            models.String("passport"),
		IDNumber:          models.String("123456789"),
		NationalInsurance: models.String("AB123456C"),
	}
}

func validCrypto() models.DraftPatch {
	return models.DraftPatch{
		PaymentMethod:   models.String("crypto"),
		PreferredCrypto: models.String("bitcoin"),
	}
}

func validDeclarations() models.DraftPatch {
	return models.DraftPatch{
		TermsAccepted:     models.Bool(true),
		PrivacyAccepted:   models.Bool(true),
		LegalDeclarations: models.Bool(true),
	}
}

// completeDraft returns a draft that passes every strict rule.
func completeDraft(t *testing.T) models.ApplicationDraft {
	t.Helper()
	var d models.ApplicationDraft
	for _, p := range []models.DraftPatch{validPersonal(), validContact(), validIdentification(), validCrypto(), validDeclarations()} {
		if err := ApplyPatch(&d, p); err != nil {
			t.Fatalf("apply patch: %v", err)
		}
	}
	for _, slot := range models.DocumentSlots {
		d.SetDocument(slot, &models.DocumentRef{
			Key:         "applications/s/" + string(slot) + "/doc.pdf",
			FileName:    string(slot) + ".pdf",
			ContentType: "application/pdf",
			Size:        1024,
			UploadedAt:  fixedToday,
		})
	}
	return d
}

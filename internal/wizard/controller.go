// internal/wizard/controller.go
package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"nominee-applications/internal/common/logger"
	"nominee-applications/internal/common/metrics"
	"nominee-applications/internal/common/observability"
	"nominee-applications/internal/models"
)

const DefaultSuccessRoute = "/application/success"

// DraftStore persists the serialized draft of a session. Load returns nil data when
// nothing has been stored.
type DraftStore interface {
	Load(ctx context.Context, sessionID string) ([]byte, error)
	Save(ctx context.Context, sessionID string, data []byte) error
	Delete(ctx context.Context, sessionID string) error
}

// DocumentStore keeps the bytes of accepted uploads.
type DocumentStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Delete(ctx context.Context, key string) error
}

// Deliverer hands a finished application to the operator.
type Deliverer interface {
	Name() string
	Deliver(ctx context.Context, s *models.Submission) error
}

// Config holds the per-wizard behaviour switches.
type Config struct {
	SessionID          string
	Mode               CompletenessMode
	ClearDraftOnSubmit bool
	PersistPosition    bool
	MaskSensitive      bool
	SuccessRoute       string
	Uploads            UploadPolicy
	Clock              func() time.Time
}

type Dependencies struct {
	Drafts    DraftStore
	Documents DocumentStore
	Delivery  Deliverer
	Logger    logger.Logger
	Obs       *observability.Observability
}

// State is the externally visible wizard state.
type State string

const (
	StateSubmitting  State = "submitting"
	StateSubmitted   State = "submitted"
	StateSubmitError State = "submit_error"
)

type phase int

const (
	phaseEditing phase = iota
	phaseSubmitting
	phaseSubmitted
	phaseSubmitFailed
)

// Snapshot is a consistent copy of the wizard for rendering.
type Snapshot struct {
	SessionID  string                  `json:"sessionId"`
	Position   Step                    `json:"position"`
	State      State                   `json:"state"`
	Mode       CompletenessMode        `json:"mode"`
	Draft      models.ApplicationDraft `json:"draft"`
	Fields     map[FieldID]FieldResult `json:"fields"`
	Steps      []StepReport            `json:"steps"`
	MemoryOnly bool                    `json:"memoryOnly"`
	LastError  string                  `json:"lastError,omitempty"`
	Reference  string                  `json:"reference,omitempty"`
}

// SubmitResult is returned once delivery has accepted the application.
type SubmitResult struct {
	Reference   string    `json:"reference"`
	RedirectTo  string    `json:"redirectTo"`
	SubmittedAt time.Time `json:"submittedAt"`
}

type storedDraft struct {
	Draft    models.ApplicationDraft `json:"draft"`
	Position Step                    `json:"position,omitempty"`
}

// Wizard owns one applicant's draft and position. All methods are safe for concurrent use;
// calls are serialised and delivery runs outside the lock with the wizard in StateSubmitting.
type Wizard struct {
	mu   sync.Mutex
	cfg  Config
	deps Dependencies
	log  logger.Logger

	draft      models.ApplicationDraft
	position   Step
	phase      phase
	memoryOnly bool
	reference  string
	lastError  string
}

// New creates a wizard and hydrates it from the draft store. A missing or corrupt stored
// draft yields an empty draft; an unreachable store puts the wizard in memory-only mode.
func New(ctx context.Context, cfg Config, deps Dependencies) *Wizard {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeLenient
	}
	if cfg.SuccessRoute == "" {
		cfg.SuccessRoute = DefaultSuccessRoute
	}
	if cfg.Uploads.MaxBytes == 0 {
		cfg.Uploads = DefaultUploadPolicy()
	}
	if deps.Logger == nil {
		deps.Logger = logger.NewNoOpLogger()
	}

	w := &Wizard{
		cfg:        cfg,
		deps:       deps,
		log:        deps.Logger.WithFields(map[string]interface{}{"sessionId": cfg.SessionID}),
		position:   FirstStep,
		memoryOnly: deps.Drafts == nil,
	}
	w.hydrate(ctx)
	return w
}

func (w *Wizard) hydrate(ctx context.Context) {
	if w.memoryOnly {
		return
	}
	data, err := w.deps.Drafts.Load(ctx, w.cfg.SessionID)
	if err != nil {
		metrics.DraftStoreErrors.WithLabelValues("load").Inc()
		w.log.Warn("draft store unavailable, continuing in memory", map[string]interface{}{"error": err})
		w.memoryOnly = true
		return
	}
	if len(data) == 0 {
		return
	}

	var rec storedDraft
	if err := json.Unmarshal(data, &rec); err != nil {
		w.log.Warn("discarding unreadable stored draft", map[string]interface{}{"error": err})
		return
	}
	rec.Draft.Sanitize()
	w.draft = rec.Draft
	if w.cfg.PersistPosition && rec.Position.Valid() {
		w.position = rec.Position
	}
	w.log.Debug("draft restored", map[string]interface{}{"position": int(w.position)})
}

func (w *Wizard) today() time.Time {
	return w.cfg.Clock()
}

// persist writes the whole draft. A failure switches the wizard to memory-only for the
// rest of its life.
func (w *Wizard) persist(ctx context.Context) {
	if w.memoryOnly {
		return
	}
	if err := w.save(ctx); err != nil {
		metrics.DraftStoreErrors.WithLabelValues("save").Inc()
		w.log.Warn("draft save failed, continuing in memory", map[string]interface{}{"error": err})
		w.memoryOnly = true
	}
}

func (w *Wizard) save(ctx context.Context) error {
	rec := storedDraft{Draft: w.draft}
	if w.cfg.PersistPosition {
		rec.Position = w.position
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return w.deps.Drafts.Save(ctx, w.cfg.SessionID, data)
}

// releasable reports whether the wizard can be dropped without losing state. A wizard
// running in memory-only mode gets one more save attempt and leaves memory-only mode if
// it succeeds. Wizards without a draft store hold nothing that could be recovered.
func (w *Wizard) releasable(ctx context.Context) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.phase == phaseSubmitting {
		return false
	}
	if !w.memoryOnly || w.deps.Drafts == nil || w.phase == phaseSubmitted {
		return true
	}
	if err := w.save(ctx); err != nil {
		metrics.DraftStoreErrors.WithLabelValues("save").Inc()
		w.log.Warn("draft still unsaved, keeping session in memory", map[string]interface{}{"error": err})
		return false
	}
	w.memoryOnly = false
	return true
}

// beginEdit rejects changes while a submission is pending or done. A failed submission
// returns the wizard to the declarations step.
func (w *Wizard) beginEdit() error {
	switch w.phase {
	case phaseSubmitting:
		return ErrSubmissionInProgress
	case phaseSubmitted:
		return ErrAlreadySubmitted
	case phaseSubmitFailed:
		w.phase = phaseEditing
	}
	return nil
}

// UpdateDraft merges patch into the draft and persists the result.
func (w *Wizard) UpdateDraft(ctx context.Context, patch models.DraftPatch) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.beginEdit(); err != nil {
		return err
	}
	if err := ApplyPatch(&w.draft, patch); err != nil {
		return err
	}
	w.draft.UpdatedAt = w.today().UTC()
	w.lastError = ""
	w.persist(ctx)
	return nil
}

// AttachDocument accepts u into slot. Rejected uploads leave the draft and the store untouched.
func (w *Wizard) AttachDocument(ctx context.Context, slot models.DocumentSlot, u Upload) (*models.DocumentRef, error) {
	if !slot.Valid() {
		return nil, &UploadError{Slot: string(slot), Err: ErrUnknownDocumentSlot}
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.beginEdit(); err != nil {
		return nil, err
	}

	contentType, err := w.cfg.Uploads.Check(slot, u)
	if err != nil {
		metrics.Uploads.WithLabelValues(string(slot), uploadResult(err)).Inc()
		w.log.Info("upload rejected", map[string]interface{}{"slot": string(slot), "reason": err.Error()})
		return nil, err
	}
	if w.deps.Documents == nil {
		return nil, fmt.Errorf("%w: no document store configured", ErrDocumentStore)
	}

	key := documentKey(w.cfg.SessionID, slot, u.FileName)
	if err := w.deps.Documents.Put(ctx, key, u.Data, contentType); err != nil {
		metrics.Uploads.WithLabelValues(string(slot), "store_error").Inc()
		w.log.Error("document store put failed", map[string]interface{}{"slot": string(slot), "error": err})
		return nil, fmt.Errorf("%w: %v", ErrDocumentStore, err)
	}

	ref := &models.DocumentRef{
		Key:         key,
		FileName:    strings.TrimSpace(u.FileName),
		ContentType: contentType,
		Size:        int64(len(u.Data)),
		UploadedAt:  w.today().UTC(),
	}
	previous := w.draft.Document(slot)
	w.draft.SetDocument(slot, ref)
	w.draft.UpdatedAt = ref.UploadedAt
	w.lastError = ""
	w.persist(ctx)
	metrics.Uploads.WithLabelValues(string(slot), "accepted").Inc()

	if previous != nil {
		if err := w.deps.Documents.Delete(ctx, previous.Key); err != nil {
			w.log.Warn("could not remove replaced document", map[string]interface{}{"key": previous.Key, "error": err})
		}
	}

	out := *ref
	return &out, nil
}

func uploadResult(err error) string {
	switch {
	case errors.Is(err, ErrFileTooLarge):
		return "too_large"
	case errors.Is(err, ErrUnsupportedFileType):
		return "unsupported"
	case errors.Is(err, ErrEmptyFile):
		return "empty"
	}
	return "rejected"
}

// GoNext advances one step if the current step is complete. It reports the current step's
// status and whether the position changed; an incomplete step is not an error.
func (w *Wizard) GoNext(ctx context.Context) (StepReport, bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.beginEdit(); err != nil {
		return StepReport{}, false, err
	}

	from := w.position
	rep := Report(from, w.draft, w.cfg.Mode, w.today())
	if !rep.Complete {
		metrics.StepTransitions.WithLabelValues(from.String(), from.String(), "blocked").Inc()
		return rep, false, nil
	}
	if from >= LastStep {
		return rep, false, nil
	}

	w.position = from + 1
	metrics.StepTransitions.WithLabelValues(from.String(), w.position.String(), "advanced").Inc()
	if w.cfg.PersistPosition {
		w.persist(ctx)
	}
	return rep, true, nil
}

// GoPrevious moves back one step. It is never gated.
func (w *Wizard) GoPrevious(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.beginEdit(); err != nil {
		return err
	}
	if w.position <= FirstStep {
		return nil
	}

	from := w.position
	w.position--
	metrics.StepTransitions.WithLabelValues(from.String(), w.position.String(), "retreated").Inc()
	if w.cfg.PersistPosition {
		w.persist(ctx)
	}
	return nil
}

func newReference() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "ND-" + strings.ToUpper(id[:8])
}

// Submit delivers the application. It requires the wizard to be on the declarations step
// with that step complete. On delivery failure the draft is kept and Submit may be retried;
// retries reuse the same reference.
func (w *Wizard) Submit(ctx context.Context) (*SubmitResult, error) {
	w.mu.Lock()

	switch w.phase {
	case phaseSubmitting:
		w.mu.Unlock()
		return nil, ErrSubmissionInProgress
	case phaseSubmitted:
		w.mu.Unlock()
		return nil, ErrAlreadySubmitted
	}

	today := w.today()
	if w.position != LastStep {
		rep := Report(w.position, w.draft, w.cfg.Mode, today)
		rep.Complete = false
		w.mu.Unlock()
		return nil, &IncompleteError{Report: rep}
	}
	if rep := Report(LastStep, w.draft, w.cfg.Mode, today); !rep.Complete {
		w.mu.Unlock()
		return nil, &IncompleteError{Report: rep}
	}
	if w.deps.Delivery == nil {
		w.mu.Unlock()
		return nil, fmt.Errorf("%w: no delivery backend configured", ErrDeliveryFailed)
	}

	if w.reference == "" {
		w.reference = newReference()
	}
	sub := BuildSubmission(w.draft.Clone(), SummaryOptions{
		Reference:     w.reference,
		Now:           today,
		MaskSensitive: w.cfg.MaskSensitive,
	})
	backend := w.deps.Delivery.Name()
	if err := ValidateSubmission(sub); err != nil {
		metrics.Submissions.WithLabelValues(backend, "invalid").Inc()
		w.log.Warn("submission rejected by schema", map[string]interface{}{"reference": sub.Reference, "error": err})
		w.mu.Unlock()
		return nil, err
	}

	w.phase = phaseSubmitting
	w.lastError = ""
	w.mu.Unlock()

	start := time.Now()
	err := w.deliver(ctx, backend, sub)

	w.mu.Lock()
	defer w.mu.Unlock()

	status := "delivered"
	if err != nil {
		status = "failed"
	}
	metrics.Submissions.WithLabelValues(backend, status).Inc()
	if w.deps.Obs != nil {
		w.deps.Obs.RecordSubmission(ctx, backend, status)
		w.deps.Obs.RecordSubmissionDuration(ctx, time.Since(start), status)
	}

	if err != nil {
		w.phase = phaseSubmitFailed
		w.lastError = "We could not send your application. Please try again."
		w.log.Error("application delivery failed", map[string]interface{}{
			"reference": sub.Reference,
			"backend":   backend,
			"error":     err,
		})
		return nil, fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	w.phase = phaseSubmitted
	w.log.Info("application submitted", map[string]interface{}{
		"reference":   sub.Reference,
		"backend":     backend,
		"attachments": len(sub.Attachments),
	})

	if w.cfg.ClearDraftOnSubmit {
		w.draft = models.ApplicationDraft{}
		if !w.memoryOnly {
			if err := w.deps.Drafts.Delete(ctx, w.cfg.SessionID); err != nil {
				metrics.DraftStoreErrors.WithLabelValues("delete").Inc()
				w.log.Warn("could not clear submitted draft", map[string]interface{}{"error": err})
			}
		}
	}

	return &SubmitResult{
		Reference:   sub.Reference,
		RedirectTo:  w.cfg.SuccessRoute,
		SubmittedAt: sub.SubmittedAt,
	}, nil
}

func (w *Wizard) deliver(ctx context.Context, backend string, sub *models.Submission) error {
	if w.deps.Obs == nil {
		return w.deps.Delivery.Deliver(ctx, sub)
	}
	ctx, span := w.deps.Obs.StartSpan(ctx, "wizard.submit",
		attribute.String("backend", backend),
		attribute.String("reference", sub.Reference),
		attribute.Int("attachments", len(sub.Attachments)),
	)
	defer span.End()

	err := w.deps.Delivery.Deliver(ctx, sub)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delivery failed")
	}
	return err
}

func (w *Wizard) state() State {
	switch w.phase {
	case phaseSubmitting:
		return StateSubmitting
	case phaseSubmitted:
		return StateSubmitted
	case phaseSubmitFailed:
		return StateSubmitError
	}
	return State(w.position.String())
}

// Snapshot returns a copy of the wizard for rendering, with every field and step evaluated
// against the live draft.
func (w *Wizard) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	today := w.today()
	snap := Snapshot{
		SessionID:  w.cfg.SessionID,
		Position:   w.position,
		State:      w.state(),
		Mode:       w.cfg.Mode,
		Draft:      w.draft.Clone(),
		Fields:     ValidateAll(w.draft, today),
		Steps:      Reports(w.draft, w.cfg.Mode, today),
		MemoryOnly: w.memoryOnly,
		LastError:  w.lastError,
	}
	if w.phase == phaseSubmitted {
		snap.Reference = w.reference
	}
	return snap
}

func (w *Wizard) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state()
}

func (w *Wizard) Position() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.position
}

// Draft returns a copy of the current draft.
func (w *Wizard) Draft() models.ApplicationDraft {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.draft.Clone()
}

func (w *Wizard) SessionID() string { return w.cfg.SessionID }

package Capture

import (
	"fmt"
	"sync"
	"time"

	"Vistoria/Models"

	"github.com/google/uuid"
)

// Step is the closed set of capture-session states. Transitions outside the
// table below are rejected; there are no free-form step strings.
type Step string

const (
	StepIntro      Step = "intro"
	StepConsent    Step = "consent"
	StepChecklist  Step = "checklist"
	StepSignature  Step = "signature"
	StepFinalizing Step = "finalizing"
	StepDone       Step = "done"
)

// stepOrder gives each step its position in the forward flow. Back navigation
// is allowed to any earlier non-terminal step; skipping forward is not.
var stepOrder = map[Step]int{
	StepIntro:      0,
	StepConsent:    1,
	StepChecklist:  2,
	StepSignature:  3,
	StepFinalizing: 4,
	StepDone:       5,
}

// Session is the single-actor workflow filling in one inspection's evidence.
// It owns the working copy of its record for the session's lifetime; every
// completed sub-step is flushed to the store immediately, so an abandoned
// session leaves resumable partial progress behind.
type Session struct {
	Token        string
	Step         Step
	Record       Models.InspectionRecord
	ActiveSlot   int
	Geolocation  *Models.GeoPoint
	StartedAt    time.Time
	LastActivity time.Time

	lifecycle *Models.Lifecycle
}

// Registry holds the live capture sessions keyed by token.
type Registry struct {
	mu        sync.Mutex
	sessions  map[string]*Session
	lifecycle *Models.Lifecycle
	ttl       time.Duration
}

func NewRegistry(lifecycle *Models.Lifecycle, ttl time.Duration) *Registry {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &Registry{
		sessions:  make(map[string]*Session),
		lifecycle: lifecycle,
		ttl:       ttl,
	}
}

// Start opens a session for the record behind the share code. A miss returns
// ErrNotFound; a record that already passed finalization returns
// ErrPreconditionFailed so the caller can route to the summary instead.
// Geolocation is best-effort: when supplied it is stamped onto the record,
// when absent the session proceeds without it.
func (reg *Registry) Start(code string, geo *Models.GeoPoint) (*Session, error) {
	record, err := reg.lifecycle.FindByCode(code)
	if err != nil {
		return nil, err
	}
	if record.IsConcluded() {
		return nil, fmt.Errorf("%w: inspection already concluded", Models.ErrPreconditionFailed)
	}

	if geo != nil {
		now := time.Now()
		geo.Timestamp = &now
		record, err = reg.lifecycle.Update(record.ID, Models.UpdateInput{Geolocation: geo})
		if err != nil {
			return nil, err
		}
	}

	now := time.Now()
	session := &Session{
		Token:        uuid.NewString(),
		Step:         StepIntro,
		Record:       record,
		ActiveSlot:   firstUncapturedSlot(&record),
		Geolocation:  geo,
		StartedAt:    now,
		LastActivity: now,
		lifecycle:    reg.lifecycle,
	}

	reg.mu.Lock()
	reg.sweepLocked(now)
	reg.sessions[session.Token] = session
	reg.mu.Unlock()
	return session, nil
}

// Get resolves a session token. Expired or unknown tokens return ErrNotFound.
func (reg *Registry) Get(token string) (*Session, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	session, ok := reg.sessions[token]
	if !ok {
		return nil, Models.ErrNotFound
	}
	if time.Since(session.LastActivity) > reg.ttl {
		delete(reg.sessions, token)
		return nil, Models.ErrNotFound
	}
	session.LastActivity = time.Now()
	return session, nil
}

// Close drops a session from the registry. Persisted progress stays as-is.
func (reg *Registry) Close(token string) {
	reg.mu.Lock()
	delete(reg.sessions, token)
	reg.mu.Unlock()
}

func (reg *Registry) sweepLocked(now time.Time) {
	for token, session := range reg.sessions {
		if now.Sub(session.LastActivity) > reg.ttl {
			delete(reg.sessions, token)
		}
	}
}

// Advance moves the session one step forward, enforcing each step's exit
// precondition.
func (s *Session) Advance() error {
	switch s.Step {
	case StepIntro:
		s.Step = StepConsent
	case StepConsent:
		if !s.Record.ConsentAccepted {
			return fmt.Errorf("%w: consent not accepted", Models.ErrPreconditionFailed)
		}
		s.Step = StepChecklist
	case StepChecklist:
		if len(s.Record.Photos) < len(Models.PhotoGuides) {
			return fmt.Errorf("%w: %d of %d photos captured",
				Models.ErrPreconditionFailed, len(s.Record.Photos), len(Models.PhotoGuides))
		}
		s.Step = StepSignature
	case StepSignature:
		if s.Record.Signature == "" {
			return fmt.Errorf("%w: signature not saved", Models.ErrPreconditionFailed)
		}
		s.Step = StepFinalizing
	default:
		return fmt.Errorf("%w: cannot advance from %s", Models.ErrPreconditionFailed, s.Step)
	}
	return nil
}

// Back navigates to an earlier step. Terminal and transient states cannot be
// re-entered or left this way.
func (s *Session) Back(to Step) error {
	targetOrder, ok := stepOrder[to]
	if !ok {
		return fmt.Errorf("%w: unknown step %q", Models.ErrValidationFailed, to)
	}
	if s.Step == StepDone || s.Step == StepFinalizing {
		return fmt.Errorf("%w: cannot navigate back from %s", Models.ErrPreconditionFailed, s.Step)
	}
	if to == StepFinalizing || to == StepDone {
		return fmt.Errorf("%w: cannot navigate forward to %s", Models.ErrPreconditionFailed, to)
	}
	if targetOrder >= stepOrder[s.Step] {
		return fmt.Errorf("%w: %s is not an earlier step than %s", Models.ErrPreconditionFailed, to, s.Step)
	}
	s.Step = to
	return nil
}

// AcceptConsent records the client's explicit consent and persists it
// immediately, then moves on to the checklist.
func (s *Session) AcceptConsent() error {
	if s.Step != StepConsent {
		return fmt.Errorf("%w: consent can only be accepted in the consent step", Models.ErrPreconditionFailed)
	}
	accepted := true
	record, err := s.lifecycle.Update(s.Record.ID, Models.UpdateInput{Consent: &accepted})
	if err != nil {
		return err
	}
	s.Record = record
	s.Step = StepChecklist
	return nil
}

// CapturePhoto stores a capture for the given slot, replacing any earlier
// photo there, and persists the record. When the active slot was captured the
// session auto-advances to the next uncaptured one; with all slots filled the
// signature step unlocks.
func (s *Session) CapturePhoto(slot int, payload string, geo *Models.GeoPoint) (Models.Photo, error) {
	if s.Step != StepChecklist {
		return Models.Photo{}, fmt.Errorf("%w: photos can only be captured in the checklist step", Models.ErrPreconditionFailed)
	}
	if !s.Record.ConsentAccepted {
		return Models.Photo{}, fmt.Errorf("%w: consent not accepted", Models.ErrPreconditionFailed)
	}
	guide, ok := Models.GuideBySlot(slot)
	if !ok {
		return Models.Photo{}, fmt.Errorf("%w: slot %d is not on the checklist", Models.ErrValidationFailed, slot)
	}

	normalized, err := NormalizePhotoPayload(payload)
	if err != nil {
		return Models.Photo{}, err
	}

	photo := Models.Photo{
		ID:          uuid.NewString(),
		Label:       guide.Label,
		Payload:     normalized,
		CapturedAt:  time.Now(),
		Geolocation: geo,
		Slot:        slot,
	}

	working := s.Record
	working.SetPhoto(photo)
	record, err := s.lifecycle.Update(s.Record.ID, Models.UpdateInput{Photos: working.Photos})
	if err != nil {
		return Models.Photo{}, err
	}
	s.Record = record

	if slot == s.ActiveSlot {
		s.ActiveSlot = firstUncapturedSlot(&s.Record)
	}
	return photo, nil
}

// SelectSlot lets the actor revisit an already-listed slot to redo a capture.
func (s *Session) SelectSlot(slot int) error {
	if s.Step != StepChecklist {
		return fmt.Errorf("%w: slots can only be selected in the checklist step", Models.ErrPreconditionFailed)
	}
	if _, ok := Models.GuideBySlot(slot); !ok {
		return fmt.Errorf("%w: slot %d is not on the checklist", Models.ErrValidationFailed, slot)
	}
	s.ActiveSlot = slot
	return nil
}

// SaveSignature validates and persists the drawn signature. An empty drawing
// is rejected; saving again overwrites the previous signature until the
// record is finalized.
func (s *Session) SaveSignature(payload string) error {
	if s.Step != StepSignature {
		return fmt.Errorf("%w: signature can only be saved in the signature step", Models.ErrPreconditionFailed)
	}
	if payload == "" {
		return fmt.Errorf("%w: signature is empty", Models.ErrValidationFailed)
	}
	record, err := s.lifecycle.Update(s.Record.ID, Models.UpdateInput{Signature: &payload})
	if err != nil {
		return err
	}
	s.Record = record
	return nil
}

// Finalize runs the terminal transition. On a precondition failure the
// session returns to the signature step so the actor can fix and retry.
func (s *Session) Finalize() error {
	if s.Step != StepSignature {
		return fmt.Errorf("%w: finalize is only reachable from the signature step", Models.ErrPreconditionFailed)
	}
	if err := s.Advance(); err != nil {
		return err
	}

	record, err := s.lifecycle.Finalize(s.Record.ID)
	if err != nil {
		s.Step = StepSignature
		return err
	}
	s.Record = record
	s.Step = StepDone
	return nil
}

// ReportDeviceError handles an access denial reported by the client device.
// A geolocation denial is never fatal; a camera denial keeps the session in
// the checklist and surfaces an actionable error.
func (s *Session) ReportDeviceError(device string) error {
	switch device {
	case "geolocation":
		return nil
	case "camera":
		return fmt.Errorf("%w: camera access denied, check device permissions and retry", Models.ErrDeviceAccessDenied)
	default:
		return fmt.Errorf("%w: unknown device %q", Models.ErrValidationFailed, device)
	}
}

func firstUncapturedSlot(record *Models.InspectionRecord) int {
	for _, guide := range Models.PhotoGuides {
		if record.PhotoBySlot(guide.ID) == nil {
			return guide.ID
		}
	}
	return len(Models.PhotoGuides)
}

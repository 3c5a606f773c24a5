package Capture

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"
	"time"

	"Vistoria/Models"
)

func newTestLifecycle(t *testing.T) *Models.Lifecycle {
	t.Helper()
	db, err := Models.Connect(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	return Models.NewLifecycle(Models.NewRecordStore(db))
}

func createInspection(t *testing.T, lifecycle *Models.Lifecycle) Models.InspectionRecord {
	t.Helper()
	record, err := lifecycle.Create(Models.CreateInput{
		Vehicle:      Models.Vehicle{Plate: "ABC1D23", Make: "Fiat", Model: "Uno"},
		Client:       Models.Client{Name: "Maria Silva", TaxID: "12345678901", Phone: "48999990000"},
		OperatorName: "Maria Consultant",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	return record
}

// testPhotoPayload builds a small real PNG data URL, the shape captures
// arrive in from the device canvas.
func testPhotoPayload(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode test image: %v", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func startSession(t *testing.T, reg *Registry, code string) *Session {
	t.Helper()
	session, err := reg.Start(code, nil)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	return session
}

func TestStartUnknownCode(t *testing.T) {
	reg := NewRegistry(newTestLifecycle(t), time.Hour)

	_, err := reg.Start("VIS-NOPE-0000", nil)
	if !errors.Is(err, Models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStartRecordsGeolocation(t *testing.T) {
	lifecycle := newTestLifecycle(t)
	record := createInspection(t, lifecycle)
	reg := NewRegistry(lifecycle, time.Hour)

	session, err := reg.Start(record.Code, &Models.GeoPoint{Latitude: -27.59, Longitude: -48.55})
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if session.Record.Geolocation == nil {
		t.Fatalf("geolocation not stamped onto the record")
	}
	if session.Record.Geolocation.Timestamp == nil {
		t.Fatalf("geolocation timestamp not set")
	}
}

func TestStartWithoutGeolocationProceeds(t *testing.T) {
	lifecycle := newTestLifecycle(t)
	record := createInspection(t, lifecycle)
	reg := NewRegistry(lifecycle, time.Hour)

	session := startSession(t, reg, record.Code)
	if session.Step != StepIntro {
		t.Fatalf("step %q, want %q", session.Step, StepIntro)
	}
	if session.Record.Geolocation != nil {
		t.Fatalf("no geolocation was supplied")
	}
}

func TestConsentGate(t *testing.T) {
	lifecycle := newTestLifecycle(t)
	record := createInspection(t, lifecycle)
	reg := NewRegistry(lifecycle, time.Hour)
	session := startSession(t, reg, record.Code)

	// intro -> consent is free; consent -> checklist is not.
	if err := session.Advance(); err != nil {
		t.Fatalf("advance to consent failed: %v", err)
	}
	if err := session.Advance(); !errors.Is(err, Models.ErrPreconditionFailed) {
		t.Fatalf("expected consent gate, got %v", err)
	}

	// The photo guard also holds at the step level: a capture attempt
	// before consent never reaches the record.
	if _, err := session.CapturePhoto(1, testPhotoPayload(t), nil); !errors.Is(err, Models.ErrPreconditionFailed) {
		t.Fatalf("expected capture to be blocked before consent, got %v", err)
	}

	if err := session.AcceptConsent(); err != nil {
		t.Fatalf("accept consent failed: %v", err)
	}
	if session.Step != StepChecklist {
		t.Fatalf("step %q after consent, want %q", session.Step, StepChecklist)
	}
	if !session.Record.ConsentAccepted {
		t.Fatalf("consent not recorded")
	}

	// Consent is persisted immediately, not deferred to finalize.
	stored, err := lifecycle.FindByCode(record.Code)
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if !stored.ConsentAccepted {
		t.Fatalf("consent not persisted")
	}
	if stored.ConsentAcceptedAt == nil {
		t.Fatalf("consent timestamp not persisted")
	}
}

func TestCaptureOverwritesSlot(t *testing.T) {
	lifecycle := newTestLifecycle(t)
	record := createInspection(t, lifecycle)
	reg := NewRegistry(lifecycle, time.Hour)
	session := startSession(t, reg, record.Code)

	session.Advance()
	session.AcceptConsent()

	first, err := session.CapturePhoto(1, testPhotoPayload(t), nil)
	if err != nil {
		t.Fatalf("first capture failed: %v", err)
	}
	second, err := session.CapturePhoto(1, testPhotoPayload(t), nil)
	if err != nil {
		t.Fatalf("second capture failed: %v", err)
	}

	if len(session.Record.Photos) != 1 {
		t.Fatalf("expected exactly one photo for slot 1, got %d", len(session.Record.Photos))
	}
	if session.Record.Photos[0].ID != second.ID {
		t.Fatalf("second capture must win, got %s (first was %s)", session.Record.Photos[0].ID, first.ID)
	}
}

func TestCaptureAutoAdvancesActiveSlot(t *testing.T) {
	lifecycle := newTestLifecycle(t)
	record := createInspection(t, lifecycle)
	reg := NewRegistry(lifecycle, time.Hour)
	session := startSession(t, reg, record.Code)

	session.Advance()
	session.AcceptConsent()

	if session.ActiveSlot != 1 {
		t.Fatalf("active slot %d, want 1", session.ActiveSlot)
	}
	if _, err := session.CapturePhoto(1, testPhotoPayload(t), nil); err != nil {
		t.Fatalf("capture failed: %v", err)
	}
	if session.ActiveSlot != 2 {
		t.Fatalf("active slot %d after capture, want 2", session.ActiveSlot)
	}

	// Redoing an earlier slot must not move the cursor off it.
	if err := session.SelectSlot(1); err != nil {
		t.Fatalf("select slot failed: %v", err)
	}
	if _, err := session.CapturePhoto(1, testPhotoPayload(t), nil); err != nil {
		t.Fatalf("redo capture failed: %v", err)
	}
	if session.ActiveSlot != 2 {
		t.Fatalf("active slot %d after redo, want next uncaptured 2", session.ActiveSlot)
	}
}

func TestCaptureInvalidSlot(t *testing.T) {
	lifecycle := newTestLifecycle(t)
	record := createInspection(t, lifecycle)
	reg := NewRegistry(lifecycle, time.Hour)
	session := startSession(t, reg, record.Code)

	session.Advance()
	session.AcceptConsent()

	for _, slot := range []int{0, 7, -1} {
		if _, err := session.CapturePhoto(slot, testPhotoPayload(t), nil); !errors.Is(err, Models.ErrValidationFailed) {
			t.Fatalf("slot %d: expected ErrValidationFailed, got %v", slot, err)
		}
	}
}

func TestChecklistGateBeforeSignature(t *testing.T) {
	lifecycle := newTestLifecycle(t)
	record := createInspection(t, lifecycle)
	reg := NewRegistry(lifecycle, time.Hour)
	session := startSession(t, reg, record.Code)

	session.Advance()
	session.AcceptConsent()

	for slot := 1; slot <= 5; slot++ {
		if _, err := session.CapturePhoto(slot, testPhotoPayload(t), nil); err != nil {
			t.Fatalf("capture %d failed: %v", slot, err)
		}
	}
	if err := session.Advance(); !errors.Is(err, Models.ErrPreconditionFailed) {
		t.Fatalf("expected checklist gate with 5 of 6 photos, got %v", err)
	}

	if _, err := session.CapturePhoto(6, testPhotoPayload(t), nil); err != nil {
		t.Fatalf("capture 6 failed: %v", err)
	}
	if err := session.Advance(); err != nil {
		t.Fatalf("advance to signature failed: %v", err)
	}
	if session.Step != StepSignature {
		t.Fatalf("step %q, want %q", session.Step, StepSignature)
	}
}

func TestFinalizeWithoutSignatureReturnsToSignature(t *testing.T) {
	lifecycle := newTestLifecycle(t)
	record := createInspection(t, lifecycle)
	reg := NewRegistry(lifecycle, time.Hour)
	session := startSession(t, reg, record.Code)

	session.Advance()
	session.AcceptConsent()
	for slot := 1; slot <= 6; slot++ {
		if _, err := session.CapturePhoto(slot, testPhotoPayload(t), nil); err != nil {
			t.Fatalf("capture %d failed: %v", slot, err)
		}
	}
	session.Advance()

	if err := session.SaveSignature(""); !errors.Is(err, Models.ErrValidationFailed) {
		t.Fatalf("expected empty signature to be rejected, got %v", err)
	}
	if err := session.Finalize(); !errors.Is(err, Models.ErrPreconditionFailed) {
		t.Fatalf("expected finalize to fail without signature, got %v", err)
	}
	if session.Step != StepSignature {
		t.Fatalf("failed finalize must return to signature, step is %q", session.Step)
	}
}

func TestFullCaptureFlow(t *testing.T) {
	lifecycle := newTestLifecycle(t)
	record := createInspection(t, lifecycle)
	reg := NewRegistry(lifecycle, time.Hour)
	session := startSession(t, reg, record.Code)

	if err := session.Advance(); err != nil {
		t.Fatalf("advance to consent failed: %v", err)
	}
	if err := session.AcceptConsent(); err != nil {
		t.Fatalf("accept consent failed: %v", err)
	}
	for slot := 1; slot <= 6; slot++ {
		if _, err := session.CapturePhoto(slot, testPhotoPayload(t), nil); err != nil {
			t.Fatalf("capture %d failed: %v", slot, err)
		}
	}
	if err := session.Advance(); err != nil {
		t.Fatalf("advance to signature failed: %v", err)
	}
	if err := session.SaveSignature("data:image/png;base64,c2lnbmF0dXJl"); err != nil {
		t.Fatalf("save signature failed: %v", err)
	}
	if err := session.Finalize(); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if session.Step != StepDone {
		t.Fatalf("step %q, want %q", session.Step, StepDone)
	}
	if session.Record.Status != Models.StatusCompleted {
		t.Fatalf("status %q, want %q", session.Record.Status, Models.StatusCompleted)
	}
	if len(session.Record.Photos) != 6 {
		t.Fatalf("expected 6 photos, got %d", len(session.Record.Photos))
	}
	if session.Record.Signature == "" {
		t.Fatalf("signature missing after finalize")
	}
	if session.Record.FinalizedAt == nil {
		t.Fatalf("finalizedAt not set")
	}

	// A completed record cannot be reopened by a new session.
	if _, err := reg.Start(record.Code, nil); !errors.Is(err, Models.ErrPreconditionFailed) {
		t.Fatalf("expected completed record to refuse a new session, got %v", err)
	}
}

func TestBackNavigation(t *testing.T) {
	lifecycle := newTestLifecycle(t)
	record := createInspection(t, lifecycle)
	reg := NewRegistry(lifecycle, time.Hour)
	session := startSession(t, reg, record.Code)

	session.Advance()
	session.AcceptConsent()

	if err := session.Back(StepIntro); err != nil {
		t.Fatalf("back to intro failed: %v", err)
	}
	if session.Step != StepIntro {
		t.Fatalf("step %q, want %q", session.Step, StepIntro)
	}
	if err := session.Back(StepChecklist); !errors.Is(err, Models.ErrPreconditionFailed) {
		t.Fatalf("forward jump via back must be rejected, got %v", err)
	}
	if err := session.Back(Step("fotos")); !errors.Is(err, Models.ErrValidationFailed) {
		t.Fatalf("unknown step must be rejected, got %v", err)
	}
}

func TestResumableProgress(t *testing.T) {
	lifecycle := newTestLifecycle(t)
	record := createInspection(t, lifecycle)
	reg := NewRegistry(lifecycle, time.Hour)

	session := startSession(t, reg, record.Code)
	session.Advance()
	session.AcceptConsent()
	if _, err := session.CapturePhoto(1, testPhotoPayload(t), nil); err != nil {
		t.Fatalf("capture failed: %v", err)
	}
	reg.Close(session.Token)

	// Abandoning leaves consent and the captured photo persisted; a fresh
	// session picks up at the next uncaptured slot.
	resumed := startSession(t, reg, record.Code)
	if !resumed.Record.ConsentAccepted {
		t.Fatalf("consent lost after abandon")
	}
	if len(resumed.Record.Photos) != 1 {
		t.Fatalf("expected 1 persisted photo, got %d", len(resumed.Record.Photos))
	}
	if resumed.ActiveSlot != 2 {
		t.Fatalf("active slot %d, want 2", resumed.ActiveSlot)
	}
}

func TestReportDeviceError(t *testing.T) {
	lifecycle := newTestLifecycle(t)
	record := createInspection(t, lifecycle)
	reg := NewRegistry(lifecycle, time.Hour)
	session := startSession(t, reg, record.Code)

	session.Advance()
	session.AcceptConsent()

	if err := session.ReportDeviceError("geolocation"); err != nil {
		t.Fatalf("geolocation denial must be non-fatal, got %v", err)
	}
	if err := session.ReportDeviceError("camera"); !errors.Is(err, Models.ErrDeviceAccessDenied) {
		t.Fatalf("expected ErrDeviceAccessDenied, got %v", err)
	}
	if session.Step != StepChecklist {
		t.Fatalf("camera denial must keep the session in checklist, step is %q", session.Step)
	}
}

func TestRegistryExpiry(t *testing.T) {
	lifecycle := newTestLifecycle(t)
	record := createInspection(t, lifecycle)
	reg := NewRegistry(lifecycle, time.Millisecond)
	session := startSession(t, reg, record.Code)

	time.Sleep(5 * time.Millisecond)
	if _, err := reg.Get(session.Token); !errors.Is(err, Models.ErrNotFound) {
		t.Fatalf("expected expired session to be gone, got %v", err)
	}
}

package Models

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func seedPhotos(record *InspectionRecord, slots ...int) {
	for _, slot := range slots {
		guide, _ := GuideBySlot(slot)
		record.SetPhoto(Photo{
			ID:         fmt.Sprintf("photo-%d", slot),
			Label:      guide.Label,
			Payload:    "data:image/jpeg;base64,Zm90bw==",
			CapturedAt: time.Now(),
			Slot:       slot,
		})
	}
}

func TestCreateDefaults(t *testing.T) {
	store := newTestStore(t)
	lifecycle := NewLifecycle(store)

	record, err := lifecycle.Create(CreateInput{
		Vehicle:      Vehicle{Plate: "ABC1D23", Make: "Fiat", Model: "Uno"},
		Client:       Client{Name: "Maria Silva", TaxID: "12345678901", Phone: "48999990000"},
		OperatorName: "Maria Consultant",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if record.ID == "" {
		t.Fatalf("expected an id")
	}
	if record.Status != StatusAwaitingClient {
		t.Fatalf("status %q, want %q", record.Status, StatusAwaitingClient)
	}
	if record.Kind != KindNewMember {
		t.Fatalf("kind %q, want default %q", record.Kind, KindNewMember)
	}
	if len(record.Photos) != 0 {
		t.Fatalf("expected 0 photos, got %d", len(record.Photos))
	}
	if record.ConsentAccepted {
		t.Fatalf("consent must start false")
	}
	if record.ExternalSubmissionStatus != SubmissionPending {
		t.Fatalf("submission status %q, want %q", record.ExternalSubmissionStatus, SubmissionPending)
	}
	if record.CreatedAt.IsZero() {
		t.Fatalf("createdAt not set")
	}

	stored, err := store.FindByID(record.ID)
	if err != nil {
		t.Fatalf("created record not persisted: %v", err)
	}
	if stored.Code != record.Code {
		t.Fatalf("persisted code %q differs from returned %q", stored.Code, record.Code)
	}
}

func TestUpdateMergesAndStampsUpdatedAt(t *testing.T) {
	store := newTestStore(t)
	lifecycle := NewLifecycle(store)

	record, err := lifecycle.Create(CreateInput{
		Vehicle:      Vehicle{Plate: "ABC1D23", Make: "Fiat", Model: "Uno"},
		Client:       Client{Name: "Maria Silva", TaxID: "12345678901", Phone: "48999990000"},
		OperatorName: "Maria Consultant",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	notes := "repainted hood"
	updated, err := lifecycle.Update(record.ID, UpdateInput{Notes: &notes})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Notes != notes {
		t.Fatalf("notes not merged")
	}
	if updated.Vehicle.Plate != "ABC1D23" {
		t.Fatalf("untouched fields must survive a partial update")
	}
	if updated.UpdatedAt == nil {
		t.Fatalf("updatedAt not stamped")
	}
}

func TestUpdateUnknownID(t *testing.T) {
	lifecycle := NewLifecycle(newTestStore(t))

	notes := "x"
	_, err := lifecycle.Update("no-such-id", UpdateInput{Notes: &notes})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFinalizeMissingSlots(t *testing.T) {
	// Every combination of one missing slot must fail, as must a full
	// checklist without a signature.
	for missing := 1; missing <= len(PhotoGuides); missing++ {
		store := newTestStore(t)
		lifecycle := NewLifecycle(store)

		record := testRecord("id-1", "VIS-AAA-1111")
		record.ConsentAccepted = true
		record.Signature = "data:image/png;base64,c2ln"
		for _, guide := range PhotoGuides {
			if guide.ID == missing {
				continue
			}
			seedPhotos(&record, guide.ID)
		}
		if err := store.Insert(record); err != nil {
			t.Fatalf("insert failed: %v", err)
		}

		_, err := lifecycle.Finalize("id-1")
		if !errors.Is(err, ErrPreconditionFailed) {
			t.Fatalf("missing slot %d: expected ErrPreconditionFailed, got %v", missing, err)
		}

		stored, _ := store.FindByID("id-1")
		if stored.Status != StatusAwaitingClient {
			t.Fatalf("missing slot %d: status changed to %q on failed finalize", missing, stored.Status)
		}
		if stored.FinalizedAt != nil {
			t.Fatalf("missing slot %d: finalizedAt set on failed finalize", missing)
		}
	}
}

func TestFinalizeMissingSignature(t *testing.T) {
	store := newTestStore(t)
	lifecycle := NewLifecycle(store)

	record := testRecord("id-1", "VIS-AAA-1111")
	record.ConsentAccepted = true
	seedPhotos(&record, 1, 2, 3, 4, 5, 6)
	if err := store.Insert(record); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	_, err := lifecycle.Finalize("id-1")
	if !errors.Is(err, ErrPreconditionFailed) {
		t.Fatalf("expected ErrPreconditionFailed, got %v", err)
	}
}

func TestFinalizeSuccess(t *testing.T) {
	store := newTestStore(t)
	lifecycle := NewLifecycle(store)

	record := testRecord("id-1", "VIS-AAA-1111")
	record.ConsentAccepted = true
	record.Signature = "data:image/png;base64,c2ln"
	seedPhotos(&record, 1, 2, 3, 4, 5, 6)
	if err := store.Insert(record); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	finalized, err := lifecycle.Finalize("id-1")
	if err != nil {
		t.Fatalf("finalize failed: %v", err)
	}
	if finalized.Status != StatusCompleted {
		t.Fatalf("status %q, want %q", finalized.Status, StatusCompleted)
	}
	if finalized.FinalizedAt == nil {
		t.Fatalf("finalizedAt not set")
	}
	if !finalized.FinalizedAt.After(finalized.CreatedAt) {
		t.Fatalf("finalizedAt %v not after createdAt %v", finalized.FinalizedAt, finalized.CreatedAt)
	}
	if len(finalized.Photos) != 6 {
		t.Fatalf("expected 6 photos, got %d", len(finalized.Photos))
	}
}

func TestFinalizeUnknownRecord(t *testing.T) {
	lifecycle := NewLifecycle(newTestStore(t))

	_, err := lifecycle.Finalize("no-such-id")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateRejectedAfterFinalize(t *testing.T) {
	store := newTestStore(t)
	lifecycle := NewLifecycle(store)

	record := testRecord("id-1", "VIS-AAA-1111")
	record.ConsentAccepted = true
	record.Signature = "data:image/png;base64,c2ln"
	seedPhotos(&record, 1, 2, 3, 4, 5, 6)
	if err := store.Insert(record); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if _, err := lifecycle.Finalize("id-1"); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	notes := "late edit"
	_, err := lifecycle.Update("id-1", UpdateInput{Notes: &notes})
	if !errors.Is(err, ErrPreconditionFailed) {
		t.Fatalf("expected ErrPreconditionFailed, got %v", err)
	}
}

func TestSetReviewStatus(t *testing.T) {
	store := newTestStore(t)
	lifecycle := NewLifecycle(store)

	record := testRecord("id-1", "VIS-AAA-1111")
	record.ConsentAccepted = true
	record.Signature = "data:image/png;base64,c2ln"
	seedPhotos(&record, 1, 2, 3, 4, 5, 6)
	if err := store.Insert(record); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	// Not finalized yet: review verdicts must be refused so the lifecycle
	// never jumps ahead.
	if _, err := lifecycle.SetReviewStatus("id-1", StatusApproved); !errors.Is(err, ErrPreconditionFailed) {
		t.Fatalf("expected ErrPreconditionFailed before finalize, got %v", err)
	}

	if _, err := lifecycle.Finalize("id-1"); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if _, err := lifecycle.SetReviewStatus("id-1", StatusInProgress); !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("expected ErrValidationFailed for non-review status, got %v", err)
	}

	reviewed, err := lifecycle.SetReviewStatus("id-1", StatusSubmissionSent)
	if err != nil {
		t.Fatalf("review failed: %v", err)
	}
	if reviewed.Status != StatusSubmissionSent {
		t.Fatalf("status %q, want %q", reviewed.Status, StatusSubmissionSent)
	}
	if reviewed.ExternalSubmissionStatus != SubmissionSent {
		t.Fatalf("submission status %q, want %q", reviewed.ExternalSubmissionStatus, SubmissionSent)
	}
}

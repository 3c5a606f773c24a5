package Models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Lifecycle owns the state machine of an inspection record from creation to
// completion. It is handed its store explicitly; there is no ambient global
// state behind it.
type Lifecycle struct {
	Store *RecordStore
}

func NewLifecycle(store *RecordStore) *Lifecycle {
	return &Lifecycle{Store: store}
}

// CreateInput carries the operator-supplied fields for a new inspection.
type CreateInput struct {
	Kind         InspectionKind
	Vehicle      Vehicle
	Client       Client
	OperatorName string
	Notes        string
}

// Create allocates an id and a unique share code, fills defaults and persists
// a new record in awaiting_client.
func (l *Lifecycle) Create(input CreateInput) (InspectionRecord, error) {
	now := time.Now()
	code, err := NewUniqueCode(l.Store, now)
	if err != nil {
		return InspectionRecord{}, err
	}

	kind := input.Kind
	if kind == "" {
		kind = KindNewMember
	}

	record := InspectionRecord{
		ID:                       uuid.NewString(),
		Code:                     code,
		Kind:                     kind,
		Status:                   StatusAwaitingClient,
		Vehicle:                  input.Vehicle,
		Client:                   input.Client,
		OperatorName:             input.OperatorName,
		Notes:                    input.Notes,
		Photos:                   []Photo{},
		CreatedAt:                now,
		ConsentAccepted:          false,
		ExternalSubmissionStatus: SubmissionPending,
	}

	if err := l.Store.Insert(record); err != nil {
		return InspectionRecord{}, err
	}
	return record, nil
}

// UpdateInput carries a shallow partial update; nil fields stay untouched.
type UpdateInput struct {
	Vehicle     *Vehicle
	Client      *Client
	Notes       *string
	Signature   *string
	Consent     *bool
	Geolocation *GeoPoint
	Photos      []Photo
}

// Update merges the given fields into the record and refreshes UpdatedAt.
// Records that already passed finalization reject further edits. Status
// legality is the caller's concern, per the lifecycle contract.
func (l *Lifecycle) Update(id string, input UpdateInput) (InspectionRecord, error) {
	current, err := l.Store.FindByID(id)
	if err != nil {
		return InspectionRecord{}, err
	}
	if current.IsConcluded() {
		return InspectionRecord{}, fmt.Errorf("%w: inspection already concluded", ErrPreconditionFailed)
	}

	return l.Store.Update(id, func(record *InspectionRecord) {
		if input.Vehicle != nil {
			record.Vehicle = *input.Vehicle
		}
		if input.Client != nil {
			record.Client = *input.Client
		}
		if input.Notes != nil {
			record.Notes = *input.Notes
		}
		if input.Signature != nil {
			record.Signature = *input.Signature
		}
		if input.Consent != nil && *input.Consent && !record.ConsentAccepted {
			now := time.Now()
			record.ConsentAccepted = true
			record.ConsentAcceptedAt = &now
		}
		if input.Geolocation != nil {
			record.Geolocation = input.Geolocation
		}
		if input.Photos != nil {
			record.Photos = input.Photos
		}
		record.Status = DeriveStatus(record)
		now := time.Now()
		record.UpdatedAt = &now
	})
}

// FindByCode resolves a share code case-insensitively.
func (l *Lifecycle) FindByCode(code string) (InspectionRecord, error) {
	return l.Store.FindByCode(code)
}

// Finalize moves the record to completed. It fails with ErrPreconditionFailed
// unless every checklist slot is filled and a signature has been saved.
func (l *Lifecycle) Finalize(id string) (InspectionRecord, error) {
	current, err := l.Store.FindByID(id)
	if err != nil {
		return InspectionRecord{}, err
	}
	if current.IsConcluded() {
		return InspectionRecord{}, fmt.Errorf("%w: inspection already concluded", ErrPreconditionFailed)
	}
	if !current.CanFinalize() {
		return InspectionRecord{}, fmt.Errorf("%w: %d of %d photos captured, signature %s",
			ErrPreconditionFailed, len(current.Photos), len(PhotoGuides), presenceOf(current.Signature))
	}

	return l.Store.Update(id, func(record *InspectionRecord) {
		now := time.Now()
		record.Status = StatusCompleted
		record.FinalizedAt = &now
		record.UpdatedAt = &now
	})
}

// SetReviewStatus persists a back-office verdict or submission outcome. Only
// the four post-completion states are accepted, and only on records that
// already reached completed, so the lifecycle never moves backwards.
func (l *Lifecycle) SetReviewStatus(id string, status InspectionStatus) (InspectionRecord, error) {
	switch status {
	case StatusApproved, StatusRejected, StatusSubmissionSent, StatusSubmissionError:
	default:
		return InspectionRecord{}, fmt.Errorf("%w: %q is not a review status", ErrValidationFailed, status)
	}

	current, err := l.Store.FindByID(id)
	if err != nil {
		return InspectionRecord{}, err
	}
	if !current.IsConcluded() {
		return InspectionRecord{}, fmt.Errorf("%w: inspection not finalized yet", ErrPreconditionFailed)
	}

	return l.Store.Update(id, func(record *InspectionRecord) {
		record.Status = status
		switch status {
		case StatusSubmissionSent:
			record.ExternalSubmissionStatus = SubmissionSent
		case StatusSubmissionError:
			record.ExternalSubmissionStatus = SubmissionError
		}
		now := time.Now()
		record.UpdatedAt = &now
	})
}

func presenceOf(value string) string {
	if value == "" {
		return "missing"
	}
	return "present"
}

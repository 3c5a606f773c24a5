package Models

import (
	"time"
)

// InspectionStatus follows the record through its lifecycle. The states up to
// completed are derived from the evidence on the record; the review and
// submission states are written by the back office and stored as-is.
type InspectionStatus string

const (
	StatusAwaitingClient   InspectionStatus = "awaiting_client"
	StatusInProgress       InspectionStatus = "in_progress"
	StatusPhotosPending    InspectionStatus = "photos_pending"
	StatusSignaturePending InspectionStatus = "signature_pending"
	StatusCompleted        InspectionStatus = "completed"
	StatusApproved         InspectionStatus = "approved"
	StatusRejected         InspectionStatus = "rejected"
	StatusSubmissionSent   InspectionStatus = "submission_sent"
	StatusSubmissionError  InspectionStatus = "submission_error"
)

type InspectionKind string

const (
	KindNewMember    InspectionKind = "new_member"
	KindMigration    InspectionKind = "migration"
	KindReInspection InspectionKind = "re_inspection_delinquency"
	KindRenewal      InspectionKind = "renewal"
)

// ExternalSubmissionStatus tracks the downstream hand-off to the approval
// system. Transmission itself happens outside this service.
type ExternalSubmissionStatus string

const (
	SubmissionDisabled ExternalSubmissionStatus = "disabled"
	SubmissionPending  ExternalSubmissionStatus = "pending"
	SubmissionSent     ExternalSubmissionStatus = "sent"
	SubmissionError    ExternalSubmissionStatus = "error"
)

type Vehicle struct {
	Plate              string `json:"plate"`
	Make               string `json:"make"`
	Model              string `json:"model"`
	Year               string `json:"year"`
	Color              string `json:"color"`
	Chassis            string `json:"chassis"`
	RegistrationNumber string `json:"registrationNumber"`
}

type Client struct {
	Name    string `json:"name"`
	TaxID   string `json:"taxId"`
	Phone   string `json:"phone"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`
}

type GeoPoint struct {
	Latitude  float64    `json:"latitude"`
	Longitude float64    `json:"longitude"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// Photo is one checklist capture. Slot is 1-based; a record holds at most one
// photo per slot and a later capture replaces the earlier one in place.
type Photo struct {
	ID          string    `json:"id"`
	Label       string    `json:"label"`
	Payload     string    `json:"payload"`
	CapturedAt  time.Time `json:"capturedAt"`
	Geolocation *GeoPoint `json:"geolocation,omitempty"`
	Slot        int       `json:"slot"`
}

// InspectionRecord is the unit of work for one vehicle inspection, from
// creation by an operator to completion by the client device.
type InspectionRecord struct {
	ID                       string                   `json:"id"`
	Code                     string                   `json:"code"`
	Kind                     InspectionKind           `json:"kind"`
	Status                   InspectionStatus         `json:"status"`
	Vehicle                  Vehicle                  `json:"vehicle"`
	Client                   Client                   `json:"client"`
	OperatorName             string                   `json:"operatorName"`
	Notes                    string                   `json:"notes,omitempty"`
	Photos                   []Photo                  `json:"photos"`
	Signature                string                   `json:"signature,omitempty"`
	Geolocation              *GeoPoint                `json:"geolocation,omitempty"`
	CreatedAt                time.Time                `json:"createdAt"`
	UpdatedAt                *time.Time               `json:"updatedAt,omitempty"`
	FinalizedAt              *time.Time               `json:"finalizedAt,omitempty"`
	ConsentAccepted          bool                     `json:"consentAccepted"`
	ConsentAcceptedAt        *time.Time               `json:"consentAcceptedAt,omitempty"`
	ExternalSubmissionStatus ExternalSubmissionStatus `json:"externalSubmissionStatus"`
}

// PhotoBySlot returns the photo occupying the given slot, if any.
func (r *InspectionRecord) PhotoBySlot(slot int) *Photo {
	for i := range r.Photos {
		if r.Photos[i].Slot == slot {
			return &r.Photos[i]
		}
	}
	return nil
}

// SetPhoto stores a capture, replacing any earlier photo at the same slot.
func (r *InspectionRecord) SetPhoto(photo Photo) {
	for i := range r.Photos {
		if r.Photos[i].Slot == photo.Slot {
			r.Photos[i] = photo
			return
		}
	}
	r.Photos = append(r.Photos, photo)
}

// IsConcluded reports whether the record already passed finalization. Such
// records accept no further client edits.
func (r *InspectionRecord) IsConcluded() bool {
	switch r.Status {
	case StatusCompleted, StatusApproved, StatusRejected, StatusSubmissionSent, StatusSubmissionError:
		return true
	}
	return false
}

// CanFinalize reports whether the finalization preconditions hold: every
// checklist slot filled and a saved signature.
func (r *InspectionRecord) CanFinalize() bool {
	if r.Signature == "" {
		return false
	}
	for _, guide := range PhotoGuides {
		if r.PhotoBySlot(guide.ID) == nil {
			return false
		}
	}
	return true
}

// DeriveStatus computes the pre-completion status from the evidence on the
// record instead of trusting a stored value. Review and submission states
// are owned by the back office and returned unchanged.
func DeriveStatus(r *InspectionRecord) InspectionStatus {
	if r.IsConcluded() {
		return r.Status
	}
	switch {
	case len(r.Photos) >= len(PhotoGuides):
		return StatusSignaturePending
	case len(r.Photos) > 0:
		return StatusPhotosPending
	case r.ConsentAccepted:
		return StatusInProgress
	default:
		return StatusAwaitingClient
	}
}

var StatusLabels = map[InspectionStatus]string{
	StatusAwaitingClient:   "Awaiting Client",
	StatusInProgress:       "In Progress",
	StatusPhotosPending:    "Photos Pending",
	StatusSignaturePending: "Signature Pending",
	StatusCompleted:        "Completed",
	StatusApproved:         "Approved",
	StatusRejected:         "Rejected",
	StatusSubmissionSent:   "Submission Sent",
	StatusSubmissionError:  "Submission Error",
}

var KindLabels = map[InspectionKind]string{
	KindNewMember:    "New Member",
	KindMigration:    "Migration",
	KindReInspection: "Re-Inspection - Delinquency",
	KindRenewal:      "Renewal",
}

// UserProfile is the identity handed to us by the auth boundary. This service
// never stores credentials; it only consumes the profile.
type UserProfile struct {
	ID          string `json:"id"`
	PublicID    string `json:"public_id"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

const (
	RoleAdmin      = "admin"
	RoleConsultant = "consultant"
	RoleEvents     = "events"
)

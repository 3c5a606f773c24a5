package Controllers

import (
	"net/http"
	"strings"

	"Vistoria/Models"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// InspectionController handles the operator-facing inspection endpoints.
type InspectionController struct {
	Lifecycle *Models.Lifecycle
	Validate  *validator.Validate
}

func NewInspectionController(lifecycle *Models.Lifecycle) *InspectionController {
	return &InspectionController{
		Lifecycle: lifecycle,
		Validate:  validator.New(),
	}
}

// Request DTOs
type VehicleRequest struct {
	Plate              string `json:"plate" validate:"required,len=7,alphanum"`
	Make               string `json:"make" validate:"required"`
	Model              string `json:"model" validate:"required"`
	Year               string `json:"year"`
	Color              string `json:"color"`
	Chassis            string `json:"chassis"`
	RegistrationNumber string `json:"registrationNumber"`
}

type ClientRequest struct {
	Name    string `json:"name" validate:"required"`
	TaxID   string `json:"taxId" validate:"required,numeric,len=11"`
	Phone   string `json:"phone" validate:"required,numeric,min=10,max=11"`
	Email   string `json:"email" validate:"omitempty,email"`
	Address string `json:"address"`
}

type CreateInspectionRequest struct {
	Kind    string         `json:"kind" validate:"omitempty,oneof=new_member migration re_inspection_delinquency renewal"`
	Vehicle VehicleRequest `json:"vehicle" validate:"required"`
	Client  ClientRequest  `json:"client" validate:"required"`
	Notes   string         `json:"notes"`
}

type UpdateInspectionRequest struct {
	Vehicle *VehicleRequest `json:"vehicle"`
	Client  *ClientRequest  `json:"client"`
	Notes   *string         `json:"notes"`
}

type ReviewRequest struct {
	Status string `json:"status" validate:"required,oneof=approved rejected submission_sent submission_error"`
}

// digitsOf strips formatting from masked tax id / phone input so the length
// rules see only digits.
func digitsOf(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (ic *InspectionController) normalize(req *CreateInspectionRequest) {
	req.Vehicle.Plate = strings.ToUpper(strings.TrimSpace(req.Vehicle.Plate))
	req.Client.TaxID = digitsOf(req.Client.TaxID)
	req.Client.Phone = digitsOf(req.Client.Phone)
}

// CreateInspection opens a new inspection record and returns its share code.
// POST /api/inspections
func (ic *InspectionController) CreateInspection(c *fiber.Ctx) error {
	var req CreateInspectionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	ic.normalize(&req)
	if err := ic.Validate.Struct(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"error":   err.Error(),
		})
	}

	operator := "unknown"
	if user, ok := c.Locals("user").(Models.UserProfile); ok {
		operator = user.DisplayName
	}

	record, err := ic.Lifecycle.Create(Models.CreateInput{
		Kind: Models.InspectionKind(req.Kind),
		Vehicle: Models.Vehicle{
			Plate:              req.Vehicle.Plate,
			Make:               req.Vehicle.Make,
			Model:              req.Vehicle.Model,
			Year:               req.Vehicle.Year,
			Color:              req.Vehicle.Color,
			Chassis:            req.Vehicle.Chassis,
			RegistrationNumber: req.Vehicle.RegistrationNumber,
		},
		Client: Models.Client{
			Name:    req.Client.Name,
			TaxID:   req.Client.TaxID,
			Phone:   req.Client.Phone,
			Email:   req.Client.Email,
			Address: req.Client.Address,
		},
		OperatorName: operator,
		Notes:        req.Notes,
	})
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to create inspection",
			"error":   err.Error(),
		})
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"message":    "Inspection created successfully",
		"inspection": record,
	})
}

// GetInspections lists all inspections, newest first.
// GET /api/inspections
func (ic *InspectionController) GetInspections(c *fiber.Ctx) error {
	records, err := ic.Lifecycle.Store.Load()
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to load inspections",
			"error":   err.Error(),
		})
	}
	// Newest first
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return c.JSON(fiber.Map{
		"inspections": records,
		"total":       len(records),
	})
}

// GetInspectionByCode resolves a share code, case-insensitively. The
// completed flag lets the caller route straight to the summary view.
// GET /api/inspections/code/:code
func (ic *InspectionController) GetInspectionByCode(c *fiber.Ctx) error {
	record, err := ic.Lifecycle.FindByCode(c.Params("code"))
	if err != nil {
		return c.Status(Models.HTTPStatus(err)).JSON(fiber.Map{
			"message": "Inspection not found",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"inspection": record,
		"completed":  record.IsConcluded(),
	})
}

// UpdateInspection merges operator edits into a not-yet-finalized record.
// PUT /api/inspections/:id
func (ic *InspectionController) UpdateInspection(c *fiber.Ctx) error {
	var req UpdateInspectionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	input := Models.UpdateInput{Notes: req.Notes}
	if req.Vehicle != nil {
		input.Vehicle = &Models.Vehicle{
			Plate:              strings.ToUpper(strings.TrimSpace(req.Vehicle.Plate)),
			Make:               req.Vehicle.Make,
			Model:              req.Vehicle.Model,
			Year:               req.Vehicle.Year,
			Color:              req.Vehicle.Color,
			Chassis:            req.Vehicle.Chassis,
			RegistrationNumber: req.Vehicle.RegistrationNumber,
		}
	}
	if req.Client != nil {
		input.Client = &Models.Client{
			Name:    req.Client.Name,
			TaxID:   digitsOf(req.Client.TaxID),
			Phone:   digitsOf(req.Client.Phone),
			Email:   req.Client.Email,
			Address: req.Client.Address,
		}
	}

	record, err := ic.Lifecycle.Update(c.Params("id"), input)
	if err != nil {
		return c.Status(Models.HTTPStatus(err)).JSON(fiber.Map{
			"message": "Failed to update inspection",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"message":    "Inspection updated successfully",
		"inspection": record,
	})
}

// SetReviewStatus stores the back-office verdict or submission outcome.
// PATCH /api/inspections/:id/review
func (ic *InspectionController) SetReviewStatus(c *fiber.Ctx) error {
	var req ReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := ic.Validate.Struct(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"error":   err.Error(),
		})
	}

	record, err := ic.Lifecycle.SetReviewStatus(c.Params("id"), Models.InspectionStatus(req.Status))
	if err != nil {
		return c.Status(Models.HTTPStatus(err)).JSON(fiber.Map{
			"message": "Failed to set review status",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"message":    "Review status updated",
		"inspection": record,
	})
}

// GetStats returns the dashboard widget counters.
// GET /api/stats/widget-data
func (ic *InspectionController) GetStats(c *fiber.Ctx) error {
	records, err := ic.Lifecycle.Store.Load()
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to load inspections",
			"error":   err.Error(),
		})
	}

	var awaiting, inProgress, concluded int
	for i := range records {
		switch Models.DeriveStatus(&records[i]) {
		case Models.StatusAwaitingClient:
			awaiting++
		case Models.StatusInProgress, Models.StatusPhotosPending, Models.StatusSignaturePending:
			inProgress++
		case Models.StatusCompleted, Models.StatusApproved, Models.StatusSubmissionSent:
			concluded++
		}
	}

	return c.JSON(fiber.Map{
		"statistics": fiber.Map{
			"total":       len(records),
			"awaiting":    awaiting,
			"in_progress": inProgress,
			"concluded":   concluded,
		},
	})
}

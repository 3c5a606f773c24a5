package Capture

import (
	"net/http"

	"Vistoria/Models"

	"github.com/gofiber/fiber/v2"
)

// SessionController exposes the capture workflow to the client device.
type SessionController struct {
	Registry *Registry
}

func NewSessionController(registry *Registry) *SessionController {
	return &SessionController{Registry: registry}
}

type StartSessionRequest struct {
	Code        string           `json:"code"`
	Geolocation *Models.GeoPoint `json:"geolocation,omitempty"`
}

type CapturePhotoRequest struct {
	Slot        int              `json:"slot"`
	Payload     string           `json:"payload"`
	Geolocation *Models.GeoPoint `json:"geolocation,omitempty"`
}

type SaveSignatureRequest struct {
	Payload string `json:"payload"`
}

type BackRequest struct {
	To string `json:"to"`
}

type SelectSlotRequest struct {
	Slot int `json:"slot"`
}

type DeviceErrorRequest struct {
	Device string `json:"device"`
}

// sessionView is what every session endpoint answers with, so the device
// always sees the current step, slot and record state after a mutation.
func sessionView(s *Session) fiber.Map {
	return fiber.Map{
		"token":       s.Token,
		"step":        s.Step,
		"active_slot": s.ActiveSlot,
		"captured":    len(s.Record.Photos),
		"required":    len(Models.PhotoGuides),
		"record":      s.Record,
	}
}

// StartSession opens a capture session for a share code.
// POST /api/capture/sessions
func (sc *SessionController) StartSession(c *fiber.Ctx) error {
	var req StartSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if req.Code == "" {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"message": "Inspection code is required",
		})
	}

	session, err := sc.Registry.Start(req.Code, req.Geolocation)
	if err != nil {
		return c.Status(Models.HTTPStatus(err)).JSON(fiber.Map{
			"message": "Could not start capture session",
			"error":   err.Error(),
		})
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"message":   "Capture session started",
		"session":   sessionView(session),
		"checklist": Models.PhotoGuides,
	})
}

// GetSession returns the current session state.
// GET /api/capture/sessions/:token
func (sc *SessionController) GetSession(c *fiber.Ctx) error {
	session, err := sc.Registry.Get(c.Params("token"))
	if err != nil {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{
			"message": "Capture session not found",
		})
	}
	return c.JSON(fiber.Map{"session": sessionView(session)})
}

// Advance moves the session to its next step.
// POST /api/capture/sessions/:token/advance
func (sc *SessionController) Advance(c *fiber.Ctx) error {
	session, err := sc.Registry.Get(c.Params("token"))
	if err != nil {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{
			"message": "Capture session not found",
		})
	}
	if err := session.Advance(); err != nil {
		return c.Status(Models.HTTPStatus(err)).JSON(fiber.Map{
			"message": "Cannot advance",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{"session": sessionView(session)})
}

// Back navigates to an earlier step.
// POST /api/capture/sessions/:token/back
func (sc *SessionController) Back(c *fiber.Ctx) error {
	session, err := sc.Registry.Get(c.Params("token"))
	if err != nil {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{
			"message": "Capture session not found",
		})
	}
	var req BackRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := session.Back(Step(req.To)); err != nil {
		return c.Status(Models.HTTPStatus(err)).JSON(fiber.Map{
			"message": "Cannot navigate back",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{"session": sessionView(session)})
}

// AcceptConsent records the client's consent and unlocks the checklist.
// POST /api/capture/sessions/:token/consent
func (sc *SessionController) AcceptConsent(c *fiber.Ctx) error {
	session, err := sc.Registry.Get(c.Params("token"))
	if err != nil {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{
			"message": "Capture session not found",
		})
	}
	if err := session.AcceptConsent(); err != nil {
		return c.Status(Models.HTTPStatus(err)).JSON(fiber.Map{
			"message": "Could not accept consent",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"message": "Consent recorded",
		"session": sessionView(session),
	})
}

// CapturePhoto stores one checklist photo.
// POST /api/capture/sessions/:token/photos
func (sc *SessionController) CapturePhoto(c *fiber.Ctx) error {
	session, err := sc.Registry.Get(c.Params("token"))
	if err != nil {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{
			"message": "Capture session not found",
		})
	}
	var req CapturePhotoRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	photo, err := session.CapturePhoto(req.Slot, req.Payload, req.Geolocation)
	if err != nil {
		return c.Status(Models.HTTPStatus(err)).JSON(fiber.Map{
			"message": "Could not capture photo",
			"error":   err.Error(),
		})
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"message": "Photo captured",
		"photo":   photo,
		"session": sessionView(session),
	})
}

// SelectSlot points the session at an already-visited slot for a redo.
// POST /api/capture/sessions/:token/slot
func (sc *SessionController) SelectSlot(c *fiber.Ctx) error {
	session, err := sc.Registry.Get(c.Params("token"))
	if err != nil {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{
			"message": "Capture session not found",
		})
	}
	var req SelectSlotRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := session.SelectSlot(req.Slot); err != nil {
		return c.Status(Models.HTTPStatus(err)).JSON(fiber.Map{
			"message": "Could not select slot",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{"session": sessionView(session)})
}

// SaveSignature persists the drawn signature.
// POST /api/capture/sessions/:token/signature
func (sc *SessionController) SaveSignature(c *fiber.Ctx) error {
	session, err := sc.Registry.Get(c.Params("token"))
	if err != nil {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{
			"message": "Capture session not found",
		})
	}
	var req SaveSignatureRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := session.SaveSignature(req.Payload); err != nil {
		return c.Status(Models.HTTPStatus(err)).JSON(fiber.Map{
			"message": "Could not save signature",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"message": "Signature saved",
		"session": sessionView(session),
	})
}

// Finalize runs the terminal transition and closes out the workflow.
// POST /api/capture/sessions/:token/finalize
func (sc *SessionController) Finalize(c *fiber.Ctx) error {
	session, err := sc.Registry.Get(c.Params("token"))
	if err != nil {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{
			"message": "Capture session not found",
		})
	}
	if err := session.Finalize(); err != nil {
		return c.Status(Models.HTTPStatus(err)).JSON(fiber.Map{
			"message": "Could not finalize inspection",
			"error":   err.Error(),
			"session": sessionView(session),
		})
	}
	return c.JSON(fiber.Map{
		"message": "Inspection completed",
		"session": sessionView(session),
	})
}

// ReportDeviceError receives camera/geolocation denials from the device.
// POST /api/capture/sessions/:token/device-error
func (sc *SessionController) ReportDeviceError(c *fiber.Ctx) error {
	session, err := sc.Registry.Get(c.Params("token"))
	if err != nil {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{
			"message": "Capture session not found",
		})
	}
	var req DeviceErrorRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := session.ReportDeviceError(req.Device); err != nil {
		return c.Status(Models.HTTPStatus(err)).JSON(fiber.Map{
			"message": "Device access problem",
			"error":   err.Error(),
			"session": sessionView(session),
		})
	}
	return c.JSON(fiber.Map{
		"message": "Proceeding without " + req.Device,
		"session": sessionView(session),
	})
}

// CloseSession abandons the session; persisted progress stays resumable.
// DELETE /api/capture/sessions/:token
func (sc *SessionController) CloseSession(c *fiber.Ctx) error {
	sc.Registry.Close(c.Params("token"))
	return c.JSON(fiber.Map{"message": "Capture session closed"})
}

// GetChecklist returns the fixed capture checklist.
// GET /api/capture/checklist
func (sc *SessionController) GetChecklist(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"checklist": Models.PhotoGuides})
}

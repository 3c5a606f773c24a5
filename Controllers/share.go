package Controllers

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"Vistoria/Models"

	"github.com/gofiber/fiber/v2"
)

// BuildShareMessage renders the WhatsApp hand-off text the operator sends to
// the client along with the inspection code.
func BuildShareMessage(record Models.InspectionRecord, portalURL string) string {
	return fmt.Sprintf(
		"*Vehicle Inspection*\n\nHello %s!\n\nYour inspection code is:\n*%s*\n\nOpen: %s\n\nEnter the code above to complete your inspection online.",
		record.Client.Name, record.Code, portalURL,
	)
}

// BuildShareURL builds the wa.me link carrying the share message.
func BuildShareURL(record Models.InspectionRecord, portalURL string) string {
	phone := record.Client.Phone
	phone = strings.TrimPrefix(phone, "+")
	return "https://wa.me/" + phone + "?text=" + url.QueryEscape(BuildShareMessage(record, portalURL))
}

// GetShareLink returns the WhatsApp share link for an inspection code.
// GET /api/inspections/code/:code/share
func (ic *InspectionController) GetShareLink(c *fiber.Ctx) error {
	record, err := ic.Lifecycle.FindByCode(c.Params("code"))
	if err != nil {
		return c.Status(Models.HTTPStatus(err)).JSON(fiber.Map{
			"message": "Inspection not found",
			"error":   err.Error(),
		})
	}

	portalURL := os.Getenv("PORTAL_URL")
	if portalURL == "" {
		portalURL = "https://inspections.local/lookup"
	}

	return c.JSON(fiber.Map{
		"code":      record.Code,
		"share_url": BuildShareURL(record, portalURL),
		"message":   BuildShareMessage(record, portalURL),
	})
}

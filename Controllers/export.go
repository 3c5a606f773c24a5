package Controllers

import (
	"fmt"
	"net/http"
	"time"

	"Vistoria/Models"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
)

var exportHeaders = []string{
	"Code", "Kind", "Status", "Plate", "Make", "Model", "Client", "Tax ID",
	"Phone", "Operator", "Photos", "Signed", "Created At", "Finalized At",
}

// ExportInspections streams the inspection list as an .xlsx workbook.
// GET /api/inspections/export
func (ic *InspectionController) ExportInspections(c *fiber.Ctx) error {
	records, err := ic.Lifecycle.Store.Load()
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to load inspections",
			"error":   err.Error(),
		})
	}

	f := excelize.NewFile()
	sheetName := "Inspections"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to build report",
			"error":   err.Error(),
		})
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	for i, header := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}

	for row, record := range records {
		signed := "no"
		if record.Signature != "" {
			signed = "yes"
		}
		finalized := ""
		if record.FinalizedAt != nil {
			finalized = record.FinalizedAt.Format("2006-01-02 15:04")
		}
		values := []interface{}{
			record.Code,
			Models.KindLabels[record.Kind],
			Models.StatusLabels[Models.DeriveStatus(&records[row])],
			record.Vehicle.Plate,
			record.Vehicle.Make,
			record.Vehicle.Model,
			record.Client.Name,
			record.Client.TaxID,
			record.Client.Phone,
			record.OperatorName,
			len(record.Photos),
			signed,
			record.CreatedAt.Format("2006-01-02 15:04"),
			finalized,
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	for i := range exportHeaders {
		column, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, column, column, 18)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to build report",
			"error":   err.Error(),
		})
	}

	filename := fmt.Sprintf("inspections-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(buf.Bytes())
}

package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/xuri/excelize/v2"

	"github.com/iliyamo/equipment-lending/internal/model"
)

const (
	exportSheet    = "Requests"
	exportMaxRows  = 10000
	xlsxMediaType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	exportDateTime = "2006-01-02 15:04"
)

var exportHeaders = []any{"ID", "User", "Equipment", "Quantity", "Status", "Requested at"}

// Export handles GET /api/requests/export?search= and streams the matching
// requests as an xlsx workbook.  Output stops after exportMaxRows rows.
func (h *RequestHandler) Export(c echo.Context) error {
	a, ok, err := actor(c)
	if !ok {
		return err
	}
	rows, err := h.collect(c, a)
	if err != nil {
		return writeError(c, h.log, err)
	}

	f, err := buildWorkbook(rows)
	if err != nil {
		return writeError(c, h.log, err)
	}
	defer f.Close()

	name := fmt.Sprintf("requests_%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	c.Response().Header().Set(echo.HeaderContentType, xlsxMediaType)
	c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename="+name)
	c.Response().WriteHeader(http.StatusOK)
	return f.Write(c.Response().Writer)
}

func (h *RequestHandler) collect(c echo.Context, a model.Actor) ([]model.RequestView, error) {
	var out []model.RequestView
	search := c.QueryParam("search")
	for p := 1; len(out) < exportMaxRows; p++ {
		page, err := h.svc.ListRequests(c.Request().Context(), a, search,
			model.PageRequest{Page: p, Limit: model.MaxPageLimit})
		if err != nil {
			return nil, err
		}
		out = append(out, page.Items...)
		if p >= page.TotalPages {
			break
		}
	}
	if len(out) > exportMaxRows {
		out = out[:exportMaxRows]
	}
	return out, nil
}

func buildWorkbook(rows []model.RequestView) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(exportSheet, "A1", &exportHeaders); err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(exportSheet, "A1", "F1", bold); err != nil {
		return nil, err
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []any{r.ID, r.UserName, r.EquipmentName, r.Quantity, string(r.Status), r.CreatedAt.UTC().Format(exportDateTime)}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, err
		}
	}
	_ = f.SetColWidth(exportSheet, "B", "C", 28)
	_ = f.SetColWidth(exportSheet, "F", "F", 20)
	return f, nil
}

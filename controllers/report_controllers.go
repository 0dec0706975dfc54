package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/cafe-pos/services"
	"github.com/yeremiapane/cafe-pos/utils"
)

const dateLayout = "2006-01-02"

type ReportController struct {
	Reports *services.ReportService
}

func NewReportController(reports *services.ReportService) *ReportController {
	return &ReportController{Reports: reports}
}

// parseDay accepts a date or an RFC 3339 timestamp.
func parseDay(v string) (time.Time, error) {
	if t, err := time.ParseInLocation(dateLayout, v, time.Local); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, v)
}

// SalesReport -> GET /reports/sales?from=2024-01-01&to=2024-02-01
// Defaults to today. A date-only "to" includes that whole day.
func (rc *ReportController) SalesReport(c *gin.Context) {
	now := time.Now()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
	to := from.AddDate(0, 0, 1)

	if v := c.Query("from"); v != "" {
		t, err := parseDay(v)
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, errors.New("invalid from date"))
			return
		}
		from = t
	}
	if v := c.Query("to"); v != "" {
		t, err := parseDay(v)
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, errors.New("invalid to date"))
			return
		}
		to = t
		if len(v) == len(dateLayout) {
			to = t.AddDate(0, 0, 1)
		}
	}

	report, err := rc.Reports.SalesReport(c.Request.Context(), from, to)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Sales report", report)
}

// KitchenDisplay -> GET /kitchen/display
func (rc *ReportController) KitchenDisplay(c *gin.Context) {
	tickets, err := rc.Reports.KitchenDisplay(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Kitchen queue", tickets)
}

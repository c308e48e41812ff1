package handlers

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"

	"medicao/measurement"
	"medicao/models"
	"medicao/repository"
)

// GetMeasurementSummary rolls confirmed entries up per contractor.
// @Summary Measurement summary per contractor
// @Description Sums confirmed service entries per contractor over the requested period, contractors sorted by total value descending. Without explicit bounds the period is the min/max entry date.
// @Tags Measurements
// @Produce json
// @Param contractor query string false "Contractor name (substring match)"
// @Param from query string false "Start date (AAAA-MM-DD, inclusive)"
// @Param to query string false "End date (AAAA-MM-DD, inclusive)"
// @Param include_entries query bool false "Include the individual entries in each summary"
// @Success 200 {array} models.MeasurementSummary
// @Failure 500 {object} models.ErrorResponse
// @Router /api/measurements [get]
func GetMeasurementSummary(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		entries, err := repository.FetchServiceEntries(db, repository.EntryFilter{})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load service entries", "details": err.Error()})
			return
		}

		summaries := measurement.Summarize(entries, c.Query("contractor"), c.Query("from"), c.Query("to"))
		if c.Query("include_entries") != "true" {
			for i := range summaries {
				summaries[i].Entries = nil
			}
		}
		if summaries == nil {
			summaries = []models.MeasurementSummary{}
		}
		c.JSON(http.StatusOK, summaries)
	}
}

// GetMeasurementByCode breaks one contractor's measurement down per
// service code, the shape a measurement bulletin (BM) is built from.
// @Summary Measurement breakdown per service code
// @Tags Measurements
// @Produce json
// @Param contractor query string true "Contractor name (substring match)"
// @Param from query string false "Start date (AAAA-MM-DD, inclusive)"
// @Param to query string false "End date (AAAA-MM-DD, inclusive)"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} models.ErrorResponse
// @Router /api/measurements/by_code [get]
func GetMeasurementByCode(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		contractor := c.Query("contractor")
		if contractor == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "contractor is required"})
			return
		}

		entries, err := repository.FetchServiceEntries(db, repository.EntryFilter{})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load service entries", "details": err.Error()})
			return
		}

		summaries := measurement.Summarize(entries, contractor, c.Query("from"), c.Query("to"))
		if len(summaries) == 0 {
			c.JSON(http.StatusOK, gin.H{"contractor": contractor, "codes": []models.CodeSummary{}, "total_value": 0})
			return
		}

		// the filter may still match several contractors, take the largest
		summary := summaries[0]
		codes := measurement.GroupByCode(summary.Entries)
		c.JSON(http.StatusOK, gin.H{
			"contractor":   summary.Contractor,
			"period_start": summary.PeriodStart,
			"period_end":   summary.PeriodEnd,
			"total_value":  summary.TotalValue,
			"entry_count":  summary.EntryCount,
			"codes":        codes,
		})
	}
}

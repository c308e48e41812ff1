package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"medicao/models"
	"medicao/repository"
	"medicao/storage"
	"medicao/utils"
)

// CreateReport opens a new daily activity report (RDA).
// @Summary Create a daily report
// @Description Creates the RDA header for one day and contractor. The report number is assigned sequentially per year.
// @Tags Reports
// @Accept json
// @Produce json
// @Param report body models.DailyReport true "Report header"
// @Success 201 {object} models.DailyReport
// @Failure 400 {object} models.ErrorResponse
// @Router /api/reports [post]
func CreateReport(db *sql.DB, gormDB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var report models.DailyReport
		if err := c.ShouldBindJSON(&report); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
			return
		}

		date, err := utils.ParseReportDate(report.ReportDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid report_date", "details": err.Error()})
			return
		}
		if report.Contractor == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "contractor is required"})
			return
		}

		number, err := repository.GenerateReportNumber(db, date)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate report number", "details": err.Error()})
			return
		}

		report.ID = 0
		report.ReportNumber = number
		report.CreatedAt = time.Now()
		report.UpdatedAt = time.Now()

		if err := gormDB.Create(&report).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create report", "details": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, report)
	}
}

// GetReport returns one report together with its service entries.
// @Summary Get a daily report with its entries
// @Tags Reports
// @Produce json
// @Param id path int true "Report ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} models.ErrorResponse
// @Router /api/reports/{id} [get]
func GetReport(db *sql.DB, gormDB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid report ID"})
			return
		}

		var report models.DailyReport
		if err := gormDB.First(&report, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Report not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load report", "details": err.Error()})
			return
		}

		entries, err := repository.FetchServiceEntries(db, repository.EntryFilter{ReportID: id})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load report entries", "details": err.Error()})
			return
		}
		if entries == nil {
			entries = []models.ServiceEntry{}
		}

		var total float64
		for _, e := range entries {
			total += e.TotalValue
		}

		c.JSON(http.StatusOK, gin.H{
			"report":      report,
			"entries":     entries,
			"total_value": total,
		})
	}
}

// ListReports lists daily reports, newest first.
// @Summary List daily reports
// @Tags Reports
// @Produce json
// @Param contractor query string false "Filter by contractor (substring match)"
// @Param from query string false "Start date (AAAA-MM-DD, inclusive)"
// @Param to query string false "End date (AAAA-MM-DD, inclusive)"
// @Success 200 {array} models.DailyReport
// @Failure 500 {object} models.ErrorResponse
// @Router /api/reports [get]
func ListReports(gormDB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := gormDB.Model(&models.DailyReport{})
		if contractor := c.Query("contractor"); contractor != "" {
			query = query.Where("LOWER(contractor) LIKE ?", "%"+strings.ToLower(contractor)+"%")
		}
		if from := c.Query("from"); from != "" {
			query = query.Where("report_date >= ?", from)
		}
		if to := c.Query("to"); to != "" {
			query = query.Where("report_date <= ?", to)
		}

		var reports []models.DailyReport
		if err := query.Order("report_date DESC, id DESC").Find(&reports).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list reports", "details": err.Error()})
			return
		}
		c.JSON(http.StatusOK, reports)
	}
}

// UpdateReport edits a report header. The report number and creation
// date never change.
// @Summary Update a daily report
// @Tags Reports
// @Accept json
// @Produce json
// @Param id path int true "Report ID"
// @Param report body models.DailyReport true "Fields to update"
// @Success 200 {object} models.DailyReport
// @Failure 404 {object} models.ErrorResponse
// @Router /api/reports/{id} [put]
func UpdateReport(gormDB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var existing models.DailyReport
		if err := gormDB.First(&existing, "id = ?", c.Param("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Report not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load report", "details": err.Error()})
			return
		}

		var payload models.DailyReport
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
			return
		}

		if payload.ReportDate != "" {
			if _, err := utils.ParseReportDate(payload.ReportDate); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid report_date", "details": err.Error()})
				return
			}
			existing.ReportDate = payload.ReportDate
		}
		if payload.Contractor != "" {
			existing.Contractor = payload.Contractor
		}
		if payload.Contract != "" {
			existing.Contract = payload.Contract
		}
		if payload.JobSite != "" {
			existing.JobSite = payload.JobSite
		}
		if payload.Fiscal != "" {
			existing.Fiscal = payload.Fiscal
		}
		if payload.WeatherMorning != "" {
			existing.WeatherMorning = payload.WeatherMorning
		}
		if payload.WeatherAfternoon != "" {
			existing.WeatherAfternoon = payload.WeatherAfternoon
		}
		if payload.CrewCount > 0 {
			existing.CrewCount = payload.CrewCount
		}
		if payload.EquipmentCount > 0 {
			existing.EquipmentCount = payload.EquipmentCount
		}
		if payload.Activities != "" {
			existing.Activities = payload.Activities
		}
		if payload.Photos != nil {
			existing.Photos = payload.Photos
		}
		if payload.Notes != "" {
			existing.Notes = payload.Notes
		}
		existing.UpdatedAt = time.Now()

		if err := gormDB.Save(&existing).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update report", "details": err.Error()})
			return
		}
		c.JSON(http.StatusOK, existing)
	}
}

// DeleteReport removes a report and every service entry attached to it.
// @Summary Delete a daily report and its entries
// @Tags Reports
// @Produce json
// @Param id path int true "Report ID"
// @Success 200 {object} utils.Response
// @Failure 404 {object} models.ErrorResponse
// @Router /api/reports/{id} [delete]
func DeleteReport(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid report ID"})
			return
		}
		if err := storage.DeleteReportCascade(db, id); err != nil {
			if strings.Contains(err.Error(), "not found") {
				c.JSON(http.StatusNotFound, gin.H{"error": "Report not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete report", "details": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Report and its entries deleted"})
	}
}

package handlers

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"medicao/catalog"
	"medicao/models"
	"medicao/reconcile"
	"medicao/repository"
	"medicao/storage"
)

// buildEngine loads the contractor's catalog from the database and wires
// it to the learned-match history. The catalog snapshot lives for one
// request only.
func buildEngine(db *sql.DB, matches reconcile.MatchStore, contractor string) (*reconcile.Engine, error) {
	items, err := storage.LoadCatalogItems(db, contractor)
	if err != nil {
		return nil, err
	}
	return reconcile.NewEngine(catalog.New(items), matches), nil
}

type reconcileRequest struct {
	Contractor  string                     `json:"contractor"`
	Occurrences []models.ServiceOccurrence `json:"occurrences"`
}

// ReconcileEntries previews the catalog match for a batch of occurrences.
// @Summary Reconcile service occurrences against the catalog
// @Description Returns one draft per occurrence: matched by code, by learned history, or unmatched with a description-based suggestion. Nothing is persisted and nothing is learned at this stage.
// @Tags ServiceEntries
// @Accept json
// @Produce json
// @Param request body handlers.reconcileRequest true "Occurrences to reconcile"
// @Success 200 {array} models.ReconcilePreview
// @Failure 400 {object} models.ErrorResponse
// @Router /api/service_entries/reconcile [post]
func ReconcileEntries(db *sql.DB, matches reconcile.MatchStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req reconcileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
			return
		}
		if len(req.Occurrences) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "occurrences is required"})
			return
		}

		engine, err := buildEngine(db, matches, req.Contractor)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load catalog", "details": err.Error()})
			return
		}

		previews := make([]models.ReconcilePreview, 0, len(req.Occurrences))
		for _, occ := range req.Occurrences {
			draft := engine.Reconcile(reconcile.Occurrence{
				Description: occ.Description,
				Quantity:    occ.Quantity,
				Unit:        occ.Unit,
				RawCode:     occ.RawCode,
			})

			preview := models.ReconcilePreview{
				Occurrence:  occ,
				Matched:     draft.Matched,
				MatchSource: draft.MatchSource,
				Flags:       draft.Flags,
			}
			item := draft.Item
			if item == nil {
				// unmatched, offer a description-based suggestion only
				if suggestion := engine.Suggest(reconcile.Occurrence{Description: occ.Description}); suggestion != nil {
					preview.MatchSource = reconcile.SourceDescription
					item = suggestion
				}
			}
			if item != nil {
				preview.Code = item.Code
				preview.Description = item.Description
				preview.Unit = item.Unit
				preview.UnitPrice = item.UnitPrice
				itemID := item.ID
				preview.PriceItemID = &itemID
				qty := occ.Quantity
				if qty > 0 {
					preview.TotalValue = qty * item.UnitPrice
				}
			}
			previews = append(previews, preview)
		}
		c.JSON(http.StatusOK, previews)
	}
}

type confirmRequest struct {
	Contractor string                       `json:"contractor"`
	Entries    []models.ConfirmEntryRequest `json:"entries"`
}

// ConfirmEntries persists a batch of operator-confirmed entries. Each
// confirmation also records the description-to-code mapping in the
// learned-match history so the next report reconciles automatically.
// @Summary Confirm and persist service entries
// @Tags ServiceEntries
// @Accept json
// @Produce json
// @Param request body handlers.confirmRequest true "Confirmed entries"
// @Success 201 {array} models.ServiceEntry
// @Failure 400 {object} models.ErrorResponse
// @Router /api/service_entries/confirm [post]
func ConfirmEntries(db *sql.DB, gormDB *gorm.DB, matches reconcile.MatchStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req confirmRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
			return
		}
		if len(req.Entries) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "entries is required"})
			return
		}

		engine, err := buildEngine(db, matches, req.Contractor)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load catalog", "details": err.Error()})
			return
		}

		created := make([]models.ServiceEntry, 0, len(req.Entries))
		for i, confirm := range req.Entries {
			if confirm.Date == "" {
				c.JSON(http.StatusBadRequest, gin.H{"error": "date is required", "details": "entry " + strconv.Itoa(i)})
				return
			}

			entry, err := engine.Confirm(reconcile.Occurrence{
				Description: confirm.Occurrence.Description,
				Quantity:    confirm.Occurrence.Quantity,
				Unit:        confirm.Occurrence.Unit,
				RawCode:     confirm.Occurrence.RawCode,
			}, confirm.ChosenCode)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record learned match", "details": err.Error()})
				return
			}

			entry.Date = confirm.Date
			entry.Contractor = confirm.Contractor
			if entry.Contractor == "" {
				entry.Contractor = req.Contractor
			}
			entry.ReportID = confirm.ReportID
			entry.Fiscal = confirm.Fiscal
			entry.JobSite = confirm.JobSite
			entry.Location = confirm.Location
			entry.Notes = confirm.Notes

			if err := gormDB.Create(&entry).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save service entry", "details": err.Error()})
				return
			}
			created = append(created, entry)
		}
		c.JSON(http.StatusCreated, created)
	}
}

// ListServiceEntries lists confirmed entries with optional filters.
// @Summary List service entries
// @Tags ServiceEntries
// @Produce json
// @Param contractor query string false "Contractor name (substring match)"
// @Param from query string false "Start date (AAAA-MM-DD, inclusive)"
// @Param to query string false "End date (AAAA-MM-DD, inclusive)"
// @Param report_id query int false "Daily report ID"
// @Param code query string false "Service code"
// @Success 200 {array} models.ServiceEntry
// @Failure 500 {object} models.ErrorResponse
// @Router /api/service_entries [get]
func ListServiceEntries(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := repository.EntryFilter{
			Contractor: c.Query("contractor"),
			From:       c.Query("from"),
			To:         c.Query("to"),
			Code:       c.Query("code"),
		}
		if reportID := c.Query("report_id"); reportID != "" {
			id, err := strconv.Atoi(reportID)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid report_id", "details": err.Error()})
				return
			}
			filter.ReportID = id
		}

		entries, err := repository.FetchServiceEntries(db, filter)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list service entries", "details": err.Error()})
			return
		}
		if entries == nil {
			entries = []models.ServiceEntry{}
		}
		c.JSON(http.StatusOK, entries)
	}
}

// DeleteServiceEntry removes one confirmed entry. The learned-match
// history keeps whatever this entry taught it.
// @Summary Delete a service entry
// @Tags ServiceEntries
// @Produce json
// @Param id path int true "Service entry ID"
// @Success 200 {object} utils.Response
// @Failure 404 {object} models.ErrorResponse
// @Router /api/service_entries/{id} [delete]
func DeleteServiceEntry(gormDB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		result := gormDB.Delete(&models.ServiceEntry{}, "id = ?", c.Param("id"))
		if result.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete service entry", "details": result.Error.Error()})
			return
		}
		if result.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Service entry not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Service entry deleted"})
	}
}

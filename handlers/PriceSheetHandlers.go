package handlers

import (
	"database/sql"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"medicao/catalog"
	"medicao/models"
	"medicao/repository"
	"medicao/storage"
)

// UploadPriceSheet imports a contractor price sheet (xlsx/xls/csv).
// @Summary Upload a price sheet
// @Description Parses the uploaded workbook, infers its column layout, detects contractor/contract from the header and merges the items into the contractor's catalog. The uploaded bytes are removed again when ingestion fails.
// @Tags PriceSheets
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Price sheet file (.xlsx, .xls, .csv)"
// @Param contractor formData string false "Contractor override when the sheet header has none"
// @Param contract formData string false "Contract number override"
// @Success 200 {object} models.IngestResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Failure 413 {object} models.ErrorResponse
// @Failure 422 {object} models.ErrorResponse
// @Router /api/price_sheets [post]
func UploadPriceSheet(ing *catalog.Ingestor) gin.HandlerFunc {
	return func(c *gin.Context) {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing file", "details": err.Error()})
			return
		}

		src, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to open uploaded file", "details": err.Error()})
			return
		}
		data, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read uploaded file", "details": err.Error()})
			return
		}

		fileID, storedPath, err := storage.SaveUploadedSheet(fileHeader.Filename, data)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store uploaded file", "details": err.Error()})
			return
		}

		result, err := ing.Ingest(fileHeader.Filename, data, catalog.IngestOptions{
			FileID:     fileID,
			FilePath:   storedPath,
			Contractor: strings.TrimSpace(c.PostForm("contractor")),
			Contract:   strings.TrimSpace(c.PostForm("contract")),
		})
		if err != nil {
			// ingestion failed, remove the stored bytes again
			if rmErr := storage.RemoveUploadedFile(storedPath); rmErr != nil {
				log.Printf("Failed to remove rejected upload %s: %v", storedPath, rmErr)
			}
			switch {
			case errors.Is(err, catalog.ErrSheetLimit):
				c.JSON(http.StatusConflict, gin.H{"error": "Sheet limit reached for this contractor", "details": err.Error()})
			case errors.Is(err, catalog.ErrFileTooLarge):
				c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File too large", "details": err.Error()})
			case errors.Is(err, catalog.ErrNoItems):
				c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "No price items found in the sheet", "details": err.Error()})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to import price sheet", "details": err.Error()})
			}
			return
		}

		c.JSON(http.StatusOK, models.IngestResponse{
			SheetFileID: result.File.ID,
			Added:       result.Added,
			Contractor:  result.Contractor,
			Contract:    result.Contract,
			Errors:      result.Errors,
		})
	}
}

// ListSheetFiles lists imported price sheets.
// @Summary List imported price sheets
// @Tags PriceSheets
// @Produce json
// @Param contractor query string false "Filter by contractor"
// @Success 200 {array} models.PriceSheetFile
// @Failure 500 {object} models.ErrorResponse
// @Router /api/price_sheets [get]
func ListSheetFiles(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := `SELECT id, file_name, file_path, file_size, contractor, contract, items_count, uploaded_at
		          FROM price_sheet_file`
		args := []interface{}{}
		if contractor := c.Query("contractor"); contractor != "" {
			query += ` WHERE LOWER(contractor) = LOWER($1)`
			args = append(args, contractor)
		}
		query += ` ORDER BY uploaded_at DESC`

		rows, err := db.Query(query, args...)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list sheet files", "details": err.Error()})
			return
		}
		defer rows.Close()

		files := []models.PriceSheetFile{}
		for rows.Next() {
			var f models.PriceSheetFile
			if err := rows.Scan(&f.ID, &f.FileName, &f.FilePath, &f.FileSize,
				&f.Contractor, &f.Contract, &f.ItemsCount, &f.UploadedAt); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan sheet file", "details": err.Error()})
				return
			}
			files = append(files, f)
		}
		c.JSON(http.StatusOK, files)
	}
}

// DeleteSheetFile removes an imported sheet and every item it produced.
// @Summary Delete an imported price sheet
// @Tags PriceSheets
// @Produce json
// @Param id path string true "Sheet file ID"
// @Success 200 {object} utils.Response
// @Failure 404 {object} models.ErrorResponse
// @Router /api/price_sheets/{id} [delete]
func DeleteSheetFile(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		filePath, err := storage.DeleteSheetFile(db, id)
		if err != nil {
			if strings.Contains(err.Error(), "not found") {
				c.JSON(http.StatusNotFound, gin.H{"error": "Sheet file not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete sheet file", "details": err.Error()})
			return
		}
		if err := storage.RemoveUploadedFile(filePath); err != nil {
			log.Printf("Failed to remove stored file %s: %v", filePath, err)
		}
		c.JSON(http.StatusOK, gin.H{"message": "Sheet file and its items deleted"})
	}
}

// ListPriceItems returns the catalog, optionally scoped to a contractor.
// @Summary List price items
// @Tags Catalog
// @Produce json
// @Param contractor query string false "Filter by contractor"
// @Success 200 {array} models.PriceItem
// @Failure 500 {object} models.ErrorResponse
// @Router /api/price_items [get]
func ListPriceItems(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := storage.LoadCatalogItems(db, c.Query("contractor"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load price items", "details": err.Error()})
			return
		}
		if items == nil {
			items = []models.PriceItem{}
		}
		c.JSON(http.StatusOK, items)
	}
}

// CreatePriceItem adds one manually entered price item.
// @Summary Create a price item manually
// @Tags Catalog
// @Accept json
// @Produce json
// @Param item body models.PriceItem true "Price item"
// @Success 201 {object} models.PriceItem
// @Failure 400 {object} models.ErrorResponse
// @Router /api/price_items [post]
func CreatePriceItem(gormDB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var item models.PriceItem
		if err := c.ShouldBindJSON(&item); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
			return
		}
		if item.Code == "" || item.Description == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "code and description are required"})
			return
		}
		item.ID = 0
		item.CodeNorm = catalog.NormalizeCode(item.Code)
		if item.Source == "" {
			item.Source = "manual"
		}
		item.CreatedAt = time.Now()
		item.UpdatedAt = time.Now()

		if err := gormDB.Create(&item).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create price item", "details": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, item)
	}
}

// UpdatePriceItem edits an existing price item. Changing the unit price
// only affects future confirmations, entries already billed keep their
// frozen totals.
// @Summary Update a price item
// @Tags Catalog
// @Accept json
// @Produce json
// @Param id path int true "Price item ID"
// @Param item body models.PriceItem true "Fields to update"
// @Success 200 {object} models.PriceItem
// @Failure 404 {object} models.ErrorResponse
// @Router /api/price_items/{id} [put]
func UpdatePriceItem(gormDB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var existing models.PriceItem
		if err := gormDB.First(&existing, "id = ?", c.Param("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Price item not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load price item", "details": err.Error()})
			return
		}

		var payload models.PriceItem
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
			return
		}

		if payload.Code != "" {
			existing.Code = payload.Code
			existing.CodeNorm = catalog.NormalizeCode(payload.Code)
		}
		if payload.Description != "" {
			existing.Description = payload.Description
		}
		if payload.Unit != "" {
			existing.Unit = payload.Unit
		}
		if payload.UnitPrice > 0 {
			existing.UnitPrice = payload.UnitPrice
		}
		if payload.Category != "" {
			existing.Category = payload.Category
		}
		existing.UpdatedAt = time.Now()

		if err := gormDB.Save(&existing).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update price item", "details": err.Error()})
			return
		}
		c.JSON(http.StatusOK, existing)
	}
}

// DeletePriceItem removes one catalog item.
// @Summary Delete a price item
// @Tags Catalog
// @Produce json
// @Param id path int true "Price item ID"
// @Success 200 {object} utils.Response
// @Failure 404 {object} models.ErrorResponse
// @Router /api/price_items/{id} [delete]
func DeletePriceItem(gormDB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		result := gormDB.Delete(&models.PriceItem{}, "id = ?", c.Param("id"))
		if result.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete price item", "details": result.Error.Error()})
			return
		}
		if result.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Price item not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Price item deleted"})
	}
}

// ListContractors returns the contractor names known to the catalog.
// @Summary List contractors
// @Tags Catalog
// @Produce json
// @Success 200 {array} string
// @Failure 500 {object} models.ErrorResponse
// @Router /api/contractors [get]
func ListContractors(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		contractors, err := repository.FetchDistinctContractors(db)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list contractors", "details": err.Error()})
			return
		}
		if contractors == nil {
			contractors = []string{}
		}
		c.JSON(http.StatusOK, contractors)
	}
}

// DeleteContractorCatalog wipes a contractor's imported catalog.
// @Summary Delete all price data for a contractor
// @Tags Catalog
// @Produce json
// @Param name path string true "Contractor name"
// @Success 200 {object} utils.Response
// @Failure 500 {object} models.ErrorResponse
// @Router /api/contractors/{name}/catalog [delete]
func DeleteContractorCatalog(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		paths, err := storage.DeleteItemsByContractor(db, c.Param("name"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete contractor catalog", "details": err.Error()})
			return
		}
		for _, p := range paths {
			if err := storage.RemoveUploadedFile(p); err != nil {
				log.Printf("Failed to remove stored file %s: %v", p, err)
			}
		}
		c.JSON(http.StatusOK, gin.H{"message": "Contractor catalog deleted", "files_removed": len(paths)})
	}
}

package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"medicao/services"
)

// uploads beyond this are rejected before the document service is called
const maxExtractionSize = 8 << 20

// ExtractDocument reads a photographed or scanned daily report through
// the document AI service and returns the recognized occurrences for
// reconciliation.
// @Summary Extract service occurrences from a report document
// @Description Sends the image to the document AI service. Rate-limit and quota errors are passed through as-is so the operator knows whether to retry or to top up.
// @Tags Extraction
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Report photo or scan (JPEG, PNG or PDF)"
// @Success 200 {object} models.ExtractResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 402 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Router /api/extract [post]
func ExtractDocument(svc *services.ExtractionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing file", "details": err.Error()})
			return
		}
		if fileHeader.Size > maxExtractionSize {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Document too large"})
			return
		}

		mimeType := fileHeader.Header.Get("Content-Type")
		if !strings.HasPrefix(mimeType, "image/") && mimeType != "application/pdf" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported document type", "details": mimeType})
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

		result, err := svc.Extract(c.Request.Context(), data, mimeType)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrRateLimited):
				c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
			case errors.Is(err, services.ErrQuotaExhausted):
				c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error()})
			default:
				c.JSON(http.StatusBadGateway, gin.H{"error": "Document extraction failed", "details": err.Error()})
			}
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

package handlers

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"net/http"

	"github.com/gin-gonic/gin"
	qrcode "github.com/skip2/go-qrcode"
	"golang.org/x/image/font"
	"golang.org/x/image/font/inconsolata"
	"golang.org/x/image/math/fixed"

	"medicao/measurement"
	"medicao/repository"
)

// addLabel draws regular text onto the image
func addLabel(img *image.RGBA, x, y int, label string) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.RGBA{0, 0, 0, 255}),
		Face: inconsolata.Regular8x16,
		Dot:  fixed.Point26_6{X: fixed.Int26_6(x * 64), Y: fixed.Int26_6(y * 64)},
	}
	d.DrawString(label)
}

// addLabelBold draws the bold field labels
func addLabelBold(img *image.RGBA, x, y int, label string) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.RGBA{30, 30, 30, 255}),
		Face: inconsolata.Bold8x16,
		Dot:  fixed.Point26_6{X: fixed.Int26_6(x * 64), Y: fixed.Int26_6(y * 64)},
	}
	d.DrawString(label)
}

// verification payload embedded in the bulletin QR
type bulletinQR struct {
	Contractor  string  `json:"contractor"`
	PeriodStart string  `json:"period_start"`
	PeriodEnd   string  `json:"period_end"`
	TotalValue  float64 `json:"total_value"`
	EntryCount  int     `json:"entry_count"`
}

// GenerateMeasurementQR godoc
// @Summary      Generate the bulletin verification QR as JPEG
// @Description  QR code carrying the bulletin totals, with the key figures printed under it so it can be glued onto the signed paper copy.
// @Tags         Measurements
// @Produce      image/jpeg
// @Param        contractor  query  string  true   "Contractor name (substring match)"
// @Param        from        query  string  false  "Start date (AAAA-MM-DD, inclusive)"
// @Param        to          query  string  false  "End date (AAAA-MM-DD, inclusive)"
// @Success      200  {file}    file  "JPEG image"
// @Failure      400  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/measurements/qr [get]
func GenerateMeasurementQR(db *sql.DB) gin.HandlerFunc {
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
			c.JSON(http.StatusNotFound, gin.H{"error": "No entries found for this contractor and period"})
			return
		}
		summary := summaries[0]

		payload := bulletinQR{
			Contractor:  summary.Contractor,
			PeriodStart: summary.PeriodStart,
			PeriodEnd:   summary.PeriodEnd,
			TotalValue:  summary.TotalValue,
			EntryCount:  summary.EntryCount,
		}
		jsonData, err := json.Marshal(payload)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to marshal bulletin data"})
			return
		}

		qr, err := qrcode.New(string(jsonData), qrcode.Medium)
		if err != nil {
			c.String(http.StatusInternalServerError, "QR code generation failed")
			return
		}
		qrImg := qr.Image(512)

		qrSize := qrImg.Bounds().Dy()
		padding := 30
		lineHeight := 28
		textAreaHeight := 4*lineHeight + padding
		totalHeight := qrSize + padding + textAreaHeight

		combinedImg := image.NewRGBA(image.Rect(0, 0, qrSize, totalHeight))
		draw.Draw(combinedImg, combinedImg.Bounds(), &image.Uniform{color.White}, image.Point{}, draw.Src)
		draw.Draw(combinedImg, image.Rect(0, 0, qrSize, qrSize), qrImg, image.Point{}, draw.Src)

		// separator between QR code and text
		separatorY := qrSize + padding/2
		for x := 0; x < qrSize; x++ {
			combinedImg.Set(x, separatorY, color.RGBA{200, 200, 200, 255})
		}

		startY := qrSize + padding + lineHeight
		xPos := 20

		addLabelBold(combinedImg, xPos, startY, "Contratada:")
		addLabel(combinedImg, xPos+120, startY, summary.Contractor)
		addLabelBold(combinedImg, xPos, startY+lineHeight, "Periodo:")
		addLabel(combinedImg, xPos+120, startY+lineHeight, summary.PeriodStart+" a "+summary.PeriodEnd)
		addLabelBold(combinedImg, xPos, startY+2*lineHeight, "Lancamentos:")
		addLabel(combinedImg, xPos+120, startY+2*lineHeight, fmt.Sprintf("%d", summary.EntryCount))
		addLabelBold(combinedImg, xPos, startY+3*lineHeight, "Valor total:")
		addLabel(combinedImg, xPos+120, startY+3*lineHeight, fmt.Sprintf("R$ %.2f", summary.TotalValue))

		c.Header("Content-Type", "image/jpeg")
		c.Header("Content-Disposition", "attachment;filename=bm_qr.jpg")
		if err := jpeg.Encode(c.Writer, combinedImg, &jpeg.Options{Quality: 90}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to encode image", "details": err.Error()})
		}
	}
}

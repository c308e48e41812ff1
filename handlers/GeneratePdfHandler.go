package handlers

import (
	"bytes"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jung-kurt/gofpdf"
	qrcode "github.com/skip2/go-qrcode"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"medicao/measurement"
	"medicao/repository"
)

// GenerateMeasurementPDF godoc
// @Summary      Generate the measurement bulletin (BM) PDF
// @Description  One contractor's measurement over the period, per-code table plus a QR code carrying the bulletin fingerprint for verification.
// @Tags         Measurements
// @Produce      application/pdf
// @Param        contractor  query  string  true   "Contractor name (substring match)"
// @Param        from        query  string  false  "Start date (AAAA-MM-DD, inclusive)"
// @Param        to          query  string  false  "End date (AAAA-MM-DD, inclusive)"
// @Success      200  "PDF file"
// @Failure      400  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /api/measurements/pdf [get]
func GenerateMeasurementPDF(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		contractor := c.Query("contractor")
		if contractor == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing contractor"})
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
		codes := measurement.GroupByCode(summary.Entries)

		titleCaser := cases.Title(language.BrazilianPortuguese)

		pdf := gofpdf.New("P", "mm", "A4", "")
		pdf.SetMargins(10, 10, 10)
		pdf.AddPage()
		tr := pdf.UnicodeTranslatorFromDescriptor("")

		// --- Header ---
		pdf.SetFont("Arial", "B", 18)
		pdf.Cell(190, 10, tr("Boletim de Medição"))
		pdf.Ln(12)

		pdf.SetFont("Arial", "", 10)
		pdf.Cell(190, 6, tr("Contratada: "+titleCaser.String(summary.Contractor)))
		pdf.Ln(6)
		pdf.Cell(190, 6, tr(fmt.Sprintf("Período: %s a %s", summary.PeriodStart, summary.PeriodEnd)))
		pdf.Ln(6)
		pdf.Cell(190, 6, tr(fmt.Sprintf("Lançamentos: %d", summary.EntryCount)))
		pdf.Ln(10)

		// --- Per-code table ---
		pdf.SetFont("Arial", "B", 10)
		pdf.SetFillColor(221, 221, 221)
		pdf.CellFormat(25, 8, tr("Código"), "1", 0, "L", true, 0, "")
		pdf.CellFormat(75, 8, tr("Descrição"), "1", 0, "L", true, 0, "")
		pdf.CellFormat(15, 8, "Un.", "1", 0, "C", true, 0, "")
		pdf.CellFormat(25, 8, "Qtd.", "1", 0, "C", true, 0, "")
		pdf.CellFormat(25, 8, tr("P. Unit."), "1", 0, "C", true, 0, "")
		pdf.CellFormat(25, 8, "Valor (R$)", "1", 1, "C", true, 0, "")

		pdf.SetFont("Arial", "", 9)
		for _, cs := range codes {
			desc := cs.Description
			if len(desc) > 48 {
				desc = desc[:45] + "..."
			}
			pdf.CellFormat(25, 7, tr(cs.Code), "1", 0, "L", false, 0, "")
			pdf.CellFormat(75, 7, tr(desc), "1", 0, "L", false, 0, "")
			pdf.CellFormat(15, 7, tr(cs.Unit), "1", 0, "C", false, 0, "")
			pdf.CellFormat(25, 7, fmt.Sprintf("%.3f", cs.Quantity), "1", 0, "R", false, 0, "")
			pdf.CellFormat(25, 7, fmt.Sprintf("%.2f", cs.UnitPrice), "1", 0, "R", false, 0, "")
			pdf.CellFormat(25, 7, fmt.Sprintf("%.2f", cs.TotalValue), "1", 1, "R", false, 0, "")
		}

		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(165, 8, "Total Geral", "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 8, fmt.Sprintf("%.2f", summary.TotalValue), "1", 1, "R", false, 0, "")

		// --- Verification QR ---
		payload := fmt.Sprintf("BM|%s|%s|%s|%.2f|%d",
			summary.Contractor, summary.PeriodStart, summary.PeriodEnd,
			summary.TotalValue, summary.EntryCount)
		png, err := qrcode.Encode(payload, qrcode.Medium, 256)
		if err == nil {
			pdf.RegisterImageOptionsReader("bm_qr",
				gofpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(png))
			pdf.Ln(6)
			pdf.ImageOptions("bm_qr", 10, pdf.GetY(), 30, 30, false,
				gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
			pdf.SetXY(45, pdf.GetY()+10)
			pdf.SetFont("Arial", "I", 8)
			pdf.Cell(145, 6, tr("Escaneie para conferir os totais deste boletim."))
		}

		// --- Footer ---
		pdf.SetY(-20)
		pdf.SetFont("Arial", "I", 8)
		pdf.Cell(190, 6, tr("Documento gerado automaticamente, sem valor sem a assinatura do fiscal."))
		pdf.Ln(5)
		pdf.Cell(190, 6, "Gerado em: "+time.Now().Format("02/01/2006 15:04"))

		// --- Output PDF ---
		c.Header("Content-Type", "application/pdf")
		c.Header("Content-Disposition", fmt.Sprintf("attachment;filename=bm_%s.pdf", time.Now().Format("2006-01-02")))
		if err := pdf.Output(c.Writer); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate PDF", "details": err.Error()})
		}
	}
}

package handlers

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"medicao/measurement"
	"medicao/repository"
)

// ExportMeasurementXLSX downloads the measurement as a workbook: one
// summary tab, one per-code tab and one tab with every entry including
// its location fields.
// @Summary Export the measurement as an Excel workbook
// @Tags Measurements
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param contractor query string false "Contractor name (substring match)"
// @Param from query string false "Start date (AAAA-MM-DD, inclusive)"
// @Param to query string false "End date (AAAA-MM-DD, inclusive)"
// @Success 200 {file} binary
// @Failure 500 {object} models.ErrorResponse
// @Router /api/measurements/export [get]
func ExportMeasurementXLSX(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		entries, err := repository.FetchServiceEntries(db, repository.EntryFilter{})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load service entries", "details": err.Error()})
			return
		}
		summaries := measurement.Summarize(entries, c.Query("contractor"), c.Query("from"), c.Query("to"))

		f := excelize.NewFile()
		defer f.Close()

		summarySheet := "Resumo"
		f.SetSheetName("Sheet1", summarySheet)

		headerStyle, _ := f.NewStyle(&excelize.Style{
			Font: &excelize.Font{Bold: true},
			Fill: excelize.Fill{Type: "pattern", Color: []string{"DDDDDD"}, Pattern: 1},
		})

		f.SetCellValue(summarySheet, "A1", "Boletim de Medição")
		f.SetCellValue(summarySheet, "A2", "Gerado em")
		f.SetCellValue(summarySheet, "B2", time.Now().Format("02/01/2006 15:04"))

		summaryHeaders := []string{"Contratada", "Período Início", "Período Fim", "Lançamentos", "Valor Total (R$)"}
		for i, h := range summaryHeaders {
			cell, _ := excelize.CoordinatesToCellName(i+1, 4)
			f.SetCellValue(summarySheet, cell, h)
			f.SetCellStyle(summarySheet, cell, cell, headerStyle)
		}
		row := 5
		var grandTotal float64
		for _, s := range summaries {
			f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), s.Contractor)
			f.SetCellValue(summarySheet, fmt.Sprintf("B%d", row), s.PeriodStart)
			f.SetCellValue(summarySheet, fmt.Sprintf("C%d", row), s.PeriodEnd)
			f.SetCellValue(summarySheet, fmt.Sprintf("D%d", row), s.EntryCount)
			f.SetCellValue(summarySheet, fmt.Sprintf("E%d", row), s.TotalValue)
			grandTotal += s.TotalValue
			row++
		}
		f.SetCellValue(summarySheet, fmt.Sprintf("D%d", row), "Total Geral")
		f.SetCellValue(summarySheet, fmt.Sprintf("E%d", row), grandTotal)

		codeSheet := "Por Código"
		f.NewSheet(codeSheet)
		codeHeaders := []string{"Contratada", "Código", "Descrição", "Unidade", "Quantidade", "Preço Unit. (R$)", "Valor (R$)", "Lançamentos"}
		for i, h := range codeHeaders {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			f.SetCellValue(codeSheet, cell, h)
			f.SetCellStyle(codeSheet, cell, cell, headerStyle)
		}
		row = 2
		for _, s := range summaries {
			for _, cs := range measurement.GroupByCode(s.Entries) {
				f.SetCellValue(codeSheet, fmt.Sprintf("A%d", row), s.Contractor)
				f.SetCellValue(codeSheet, fmt.Sprintf("B%d", row), cs.Code)
				f.SetCellValue(codeSheet, fmt.Sprintf("C%d", row), cs.Description)
				f.SetCellValue(codeSheet, fmt.Sprintf("D%d", row), cs.Unit)
				f.SetCellValue(codeSheet, fmt.Sprintf("E%d", row), cs.Quantity)
				f.SetCellValue(codeSheet, fmt.Sprintf("F%d", row), cs.UnitPrice)
				f.SetCellValue(codeSheet, fmt.Sprintf("G%d", row), cs.TotalValue)
				f.SetCellValue(codeSheet, fmt.Sprintf("H%d", row), cs.EntryCount)
				row++
			}
		}

		detailSheet := "Detalhado"
		f.NewSheet(detailSheet)
		detailHeaders := []string{"Data", "Contratada", "Código", "Descrição", "Unidade", "Quantidade",
			"Preço Unit. (R$)", "Valor (R$)", "Local", "Estaca Inicial", "Estaca Final",
			"Faixa", "Lado", "Trecho", "Fiscal", "Obra", "Observações"}
		for i, h := range detailHeaders {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			f.SetCellValue(detailSheet, cell, h)
			f.SetCellStyle(detailSheet, cell, cell, headerStyle)
		}
		row = 2
		for _, s := range summaries {
			for _, e := range s.Entries {
				startStation := e.StartChainage
				if startStation == "" {
					startStation = e.StartStation
				}
				endStation := e.EndChainage
				if endStation == "" {
					endStation = e.EndStation
				}
				values := []interface{}{e.Date, e.Contractor, e.Code, e.Description, e.Unit,
					e.Quantity, e.UnitPrice, e.TotalValue, e.Location, startStation, endStation,
					e.Lane, e.Side, e.Stretch, e.Fiscal, e.JobSite, e.Notes}
				for i, v := range values {
					cell, _ := excelize.CoordinatesToCellName(i+1, row)
					f.SetCellValue(detailSheet, cell, v)
				}
				row++
			}
		}

		fileName := fmt.Sprintf("medicao_%s.xlsx", time.Now().Format("2006-01-02"))
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", "attachment;filename="+fileName)
		if err := f.Write(c.Writer); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to write workbook", "details": err.Error()})
		}
	}
}

package models

import (
	"time"

	"github.com/lib/pq"
)

// PriceItem represents the price_item table: one priced service from a
// contractor's imported price sheet. The code is the natural key within
// a contractor scope; re-imports with the same normalized code overwrite
// the existing row.
type PriceItem struct {
	ID          int       `gorm:"primaryKey;column:id" json:"id"`
	Code        string    `gorm:"column:code;not null;index" json:"code" example:"BSO-01"`
	CodeNorm    string    `gorm:"column:code_norm;index" json:"-"`
	Description string    `gorm:"column:description;not null" json:"description" example:"Revestimento em argamassa"`
	Unit        string    `gorm:"column:unit" json:"unit" example:"m²"`
	UnitPrice   float64   `gorm:"column:unit_price;type:numeric(14,2)" json:"unit_price" example:"45.50"`
	Category    string    `gorm:"column:category" json:"category,omitempty" example:"Pavimentação"`
	Source      string    `gorm:"column:source" json:"source,omitempty" example:"planilha_2023.xlsx"`
	Contractor  string    `gorm:"column:contractor;index" json:"contractor,omitempty" example:"Construtora Horizonte"`
	Contract    string    `gorm:"column:contract" json:"contract,omitempty" example:"071/2023"`
	SheetFileID *string   `gorm:"column:sheet_file_id;index" json:"sheet_file_id,omitempty"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (PriceItem) TableName() string {
	return "price_item"
}

// PriceSheetFile is the provenance record of one imported price sheet.
// It is created in the same transaction as its PriceItem batch and
// deleted together with them.
type PriceSheetFile struct {
	ID         string    `gorm:"primaryKey;column:id" json:"id"`
	FileName   string    `gorm:"column:file_name;not null" json:"file_name" example:"planilha_2023.xlsx"`
	FilePath   string    `gorm:"column:file_path;not null" json:"file_path"`
	FileSize   int64     `gorm:"column:file_size" json:"file_size" example:"48213"`
	Contractor string    `gorm:"column:contractor;index" json:"contractor" example:"Construtora Horizonte"`
	Contract   string    `gorm:"column:contract" json:"contract" example:"071/2023"`
	ItemsCount int       `gorm:"column:items_count" json:"items_count" example:"87"`
	UploadedAt time.Time `gorm:"column:uploaded_at" json:"uploaded_at"`
}

func (PriceSheetFile) TableName() string {
	return "price_sheet_file"
}

// DailyReport represents the daily_report table (RDA/RDO): one day of
// activity for one contractor at a job site. Deleting a report cascades
// to its service entries.
type DailyReport struct {
	ID               int            `gorm:"primaryKey;column:id" json:"id"`
	ReportNumber     string         `gorm:"column:report_number;uniqueIndex" json:"report_number" example:"RDA-2024-0042"`
	ReportDate       string         `gorm:"column:report_date;not null;index" json:"report_date" example:"2024-03-18"`
	Contractor       string         `gorm:"column:contractor;index" json:"contractor" example:"Construtora Horizonte"`
	Contract         string         `gorm:"column:contract" json:"contract,omitempty"`
	JobSite          string         `gorm:"column:job_site" json:"job_site" example:"BR-101 Lote 3"`
	Fiscal           string         `gorm:"column:fiscal" json:"fiscal" example:"Eng. Marcos Silva"`
	WeatherMorning   string         `gorm:"column:weather_morning" json:"weather_morning" example:"claro"`
	WeatherAfternoon string         `gorm:"column:weather_afternoon" json:"weather_afternoon" example:"chuvoso"`
	CrewCount        int            `gorm:"column:crew_count" json:"crew_count" example:"14"`
	EquipmentCount   int            `gorm:"column:equipment_count" json:"equipment_count" example:"5"`
	Activities       string         `gorm:"column:activities;type:text" json:"activities"`
	Photos           pq.StringArray `gorm:"column:photos;type:text[]" json:"photos"`
	Notes            string         `gorm:"column:notes;type:text" json:"notes,omitempty"`
	CreatedAt        time.Time      `gorm:"column:created_at" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"column:updated_at" json:"updated_at"`
}

func (DailyReport) TableName() string {
	return "daily_report"
}

// ServiceEntry represents the service_entry table: one billed occurrence
// of a service, priced at confirmation time. TotalValue is frozen at
// creation and never re-derived from the referenced price item.
type ServiceEntry struct {
	ID          int     `gorm:"primaryKey;column:id" json:"id"`
	ReportID    *int    `gorm:"column:report_id;index" json:"report_id,omitempty"`
	PriceItemID *int    `gorm:"column:price_item_id" json:"price_item_id,omitempty"`
	Code        string  `gorm:"column:code;index" json:"code" example:"BSO-01"`
	Description string  `gorm:"column:description;not null" json:"description"`
	Quantity    float64 `gorm:"column:quantity;type:numeric(14,3)" json:"quantity" example:"10"`
	Unit        string  `gorm:"column:unit" json:"unit" example:"m²"`
	UnitPrice   float64 `gorm:"column:unit_price;type:numeric(14,2)" json:"unit_price" example:"45.50"`
	TotalValue  float64 `gorm:"column:total_value;type:numeric(14,2)" json:"total_value" example:"455.00"`
	Date        string  `gorm:"column:entry_date;index" json:"date" example:"2024-03-18"`
	Contractor  string  `gorm:"column:contractor;index" json:"contractor"`
	Fiscal      string  `gorm:"column:fiscal" json:"fiscal,omitempty"`
	JobSite     string  `gorm:"column:job_site" json:"job_site,omitempty"`
	Location    string  `gorm:"column:location" json:"location,omitempty" example:"km 12+300 ao km 12+800"`

	// optional structured location fields used by linear works
	StartChainage string `gorm:"column:start_chainage" json:"start_chainage,omitempty" example:"12+300"`
	EndChainage   string `gorm:"column:end_chainage" json:"end_chainage,omitempty" example:"12+800"`
	StartStation  string `gorm:"column:start_station" json:"start_station,omitempty"`
	EndStation    string `gorm:"column:end_station" json:"end_station,omitempty"`
	Lane          string `gorm:"column:lane" json:"lane,omitempty" example:"direita"`
	Side          string `gorm:"column:side" json:"side,omitempty" example:"LD"`
	Stretch       string `gorm:"column:stretch" json:"stretch,omitempty"`
	Segment       string `gorm:"column:segment" json:"segment,omitempty"`

	Notes     string    `gorm:"column:notes;type:text" json:"notes,omitempty"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (ServiceEntry) TableName() string {
	return "service_entry"
}

// MeasurementSummary is the computed rollup of service entries for one
// contractor over a period. Derived on demand, never persisted.
type MeasurementSummary struct {
	Contractor  string         `json:"contractor"`
	TotalValue  float64        `json:"total_value"`
	PeriodStart string         `json:"period_start"`
	PeriodEnd   string         `json:"period_end"`
	EntryCount  int            `json:"entry_count"`
	Entries     []ServiceEntry `json:"entries,omitempty"`
}

// CodeSummary is the second aggregation level: quantity and value summed
// per service code within one measurement summary.
type CodeSummary struct {
	Code        string  `json:"code"`
	Description string  `json:"description"`
	Unit        string  `json:"unit"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	TotalValue  float64 `json:"total_value"`
	EntryCount  int     `json:"entry_count"`
}

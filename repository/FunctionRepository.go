package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"medicao/models"
	"medicao/utils"
)

// GenerateReportNumber builds the sequential RDA number in the form
// RDA-AAAA-0001, restarting the sequence each year.
func GenerateReportNumber(db *sql.DB, date time.Time) (string, error) {
	ctx, cancel := utils.GetFastQueryContext(nil)
	defer cancel()

	year := date.Format("2006")
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM daily_report WHERE report_number LIKE $1`,
		"RDA-"+year+"-%",
	).Scan(&count)
	if err != nil {
		return "", fmt.Errorf("failed to count reports for %s: %w", year, err)
	}
	return fmt.Sprintf("RDA-%s-%04d", year, count+1), nil
}

// EntryFilter narrows FetchServiceEntries. Zero values mean "no filter".
type EntryFilter struct {
	Contractor string
	From       string
	To         string
	ReportID   int
	Code       string
}

// FetchServiceEntries lists confirmed entries matching the filter, oldest
// date first.
func FetchServiceEntries(db *sql.DB, filter EntryFilter) ([]models.ServiceEntry, error) {
	ctx, cancel := utils.GetDefaultQueryContext(nil)
	defer cancel()

	query := `SELECT id, report_id, price_item_id, entry_date, contractor, fiscal, job_site,
	                 code, description, unit, quantity, unit_price, total_value, location,
	                 start_chainage, end_chainage, start_station, end_station,
	                 lane, side, stretch, segment, notes, created_at
	          FROM service_entry`

	var conditions []string
	var args []interface{}
	addCondition := func(clause string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(clause, len(args)))
	}

	if filter.Contractor != "" {
		addCondition("LOWER(contractor) LIKE '%%' || LOWER($%d) || '%%'", filter.Contractor)
	}
	if filter.From != "" {
		addCondition("entry_date >= $%d", filter.From)
	}
	if filter.To != "" {
		addCondition("entry_date <= $%d", filter.To)
	}
	if filter.ReportID > 0 {
		addCondition("report_id = $%d", filter.ReportID)
	}
	if filter.Code != "" {
		addCondition("code = $%d", filter.Code)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY entry_date, id"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query service entries: %w", err)
	}
	defer rows.Close()

	var entries []models.ServiceEntry
	for rows.Next() {
		entry, err := scanServiceEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func scanServiceEntry(rows *sql.Rows) (models.ServiceEntry, error) {
	var entry models.ServiceEntry
	var reportID, priceItemID sql.NullInt64
	var fiscal, jobSite, code, unit, location sql.NullString
	var startChainage, endChainage, startStation, endStation sql.NullString
	var lane, side, stretch, segment, notes sql.NullString

	err := rows.Scan(&entry.ID, &reportID, &priceItemID, &entry.Date, &entry.Contractor,
		&fiscal, &jobSite, &code, &entry.Description, &unit, &entry.Quantity,
		&entry.UnitPrice, &entry.TotalValue, &location,
		&startChainage, &endChainage, &startStation, &endStation,
		&lane, &side, &stretch, &segment, &notes,
		&entry.CreatedAt)
	if err != nil {
		return entry, fmt.Errorf("failed to scan service entry: %w", err)
	}

	if reportID.Valid {
		v := int(reportID.Int64)
		entry.ReportID = &v
	}
	if priceItemID.Valid {
		v := int(priceItemID.Int64)
		entry.PriceItemID = &v
	}
	entry.Fiscal = fiscal.String
	entry.JobSite = jobSite.String
	entry.Code = code.String
	entry.Unit = unit.String
	entry.Location = location.String
	entry.StartChainage = startChainage.String
	entry.EndChainage = endChainage.String
	entry.StartStation = startStation.String
	entry.EndStation = endStation.String
	entry.Lane = lane.String
	entry.Side = side.String
	entry.Stretch = stretch.String
	entry.Segment = segment.String
	entry.Notes = notes.String
	return entry, nil
}

// FetchDistinctContractors returns the contractor names present in the
// catalog, for frontend dropdowns.
func FetchDistinctContractors(db *sql.DB) ([]string, error) {
	ctx, cancel := utils.GetFastQueryContext(nil)
	defer cancel()

	rows, err := db.QueryContext(ctx,
		`SELECT DISTINCT contractor FROM price_item WHERE contractor <> '' ORDER BY contractor`)
	if err != nil {
		return nil, fmt.Errorf("failed to query contractors: %w", err)
	}
	defer rows.Close()

	var contractors []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		contractors = append(contractors, name)
	}
	return contractors, rows.Err()
}

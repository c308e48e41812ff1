package storage

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"medicao/models"
)

var db *sql.DB

func InitDB() *sql.DB {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}
	user := os.Getenv("DB_USER")
	password := os.Getenv("DB_PASSWORD")
	dbname := os.Getenv("DB_NAME")
	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")

	connStr := fmt.Sprintf("user=%s password=%s dbname=%s host=%s port=%s sslmode=disable",
		user, password, dbname, host, port)

	var err error
	db, err = sql.Open("postgres", connStr)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Set connection pool settings optimized for a single-site deployment
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database:", err)
	}

	return db
}

func GetDB() *sql.DB {
	return db
}

// SQLSheetStore persists price sheet ingestion batches. It satisfies
// catalog.SheetStore.
type SQLSheetStore struct {
	DB *sql.DB
}

func (s *SQLSheetStore) CountSheetFiles(contractor string) (int, error) {
	var count int
	err := s.DB.QueryRow(
		`SELECT COUNT(*) FROM price_sheet_file WHERE LOWER(contractor) = LOWER($1)`,
		contractor,
	).Scan(&count)
	return count, err
}

// SaveSheetBatch writes the provenance record and its items in a single
// transaction. Items sharing (contractor, code_norm) with an existing row
// overwrite it instead of inserting, so re-imports merge by code.
func (s *SQLSheetStore) SaveSheetBatch(file *models.PriceSheetFile, items []models.PriceItem) error {
	tx, err := s.DB.Begin()
	if err != nil {
		return fmt.Errorf("failed to start transaction: %v", err)
	}
	defer tx.Rollback()

	insertFileQuery := `INSERT INTO price_sheet_file (id, file_name, file_path, file_size, contractor, contract, items_count, uploaded_at)
	                    VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err = tx.Exec(insertFileQuery, file.ID, file.FileName, file.FilePath, file.FileSize,
		file.Contractor, file.Contract, file.ItemsCount, file.UploadedAt)
	if err != nil {
		return fmt.Errorf("failed to insert sheet file record: %v", err)
	}

	updateQuery := `UPDATE price_item
	                SET code = $1, description = $2, unit = $3, unit_price = $4, category = $5,
	                    source = $6, contract = $7, sheet_file_id = $8, updated_at = $9
	                WHERE LOWER(contractor) = LOWER($10) AND code_norm = $11`
	insertQuery := `INSERT INTO price_item (code, code_norm, description, unit, unit_price, category, source, contractor, contract, sheet_file_id, created_at, updated_at)
	                VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	for _, item := range items {
		result, err := tx.Exec(updateQuery, item.Code, item.Description, item.Unit, item.UnitPrice,
			item.Category, item.Source, item.Contract, item.SheetFileID, item.UpdatedAt,
			item.Contractor, item.CodeNorm)
		if err != nil {
			return fmt.Errorf("failed to update price item %s: %v", item.Code, err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check rows affected: %v", err)
		}
		if rowsAffected > 0 {
			continue
		}

		_, err = tx.Exec(insertQuery, item.Code, item.CodeNorm, item.Description, item.Unit,
			item.UnitPrice, item.Category, item.Source, item.Contractor, item.Contract,
			item.SheetFileID, item.CreatedAt, item.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert price item %s: %v", item.Code, err)
		}
	}

	return tx.Commit()
}

// DeleteSheetFile removes a sheet file record together with every price
// item it produced. Returns the stored file path so the caller can remove
// the uploaded bytes afterwards.
func DeleteSheetFile(db *sql.DB, id string) (string, error) {
	tx, err := db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to start transaction: %v", err)
	}
	defer tx.Rollback()

	var filePath string
	err = tx.QueryRow(`SELECT file_path FROM price_sheet_file WHERE id = $1`, id).Scan(&filePath)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("sheet file %s not found", id)
	} else if err != nil {
		return "", err
	}

	if _, err := tx.Exec(`DELETE FROM price_item WHERE sheet_file_id = $1`, id); err != nil {
		return "", fmt.Errorf("failed to delete price items: %v", err)
	}
	if _, err := tx.Exec(`DELETE FROM price_sheet_file WHERE id = $1`, id); err != nil {
		return "", fmt.Errorf("failed to delete sheet file record: %v", err)
	}

	return filePath, tx.Commit()
}

// LoadCatalogItems fetches the price items for one contractor, or every
// item when contractor is empty, in insertion order.
func LoadCatalogItems(db *sql.DB, contractor string) ([]models.PriceItem, error) {
	query := `SELECT id, code, code_norm, description, unit, unit_price, category, source, contractor, contract, sheet_file_id, created_at, updated_at
	          FROM price_item`
	args := []interface{}{}
	if contractor != "" {
		query += ` WHERE LOWER(contractor) = LOWER($1)`
		args = append(args, contractor)
	}
	query += ` ORDER BY id`

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.PriceItem
	for rows.Next() {
		var item models.PriceItem
		var category, source, contractorCol, contract sql.NullString
		var sheetFileID sql.NullString
		err := rows.Scan(&item.ID, &item.Code, &item.CodeNorm, &item.Description, &item.Unit,
			&item.UnitPrice, &category, &source, &contractorCol, &contract,
			&sheetFileID, &item.CreatedAt, &item.UpdatedAt)
		if err != nil {
			return nil, err
		}
		item.Category = category.String
		item.Source = source.String
		item.Contractor = contractorCol.String
		item.Contract = contract.String
		if sheetFileID.Valid {
			v := sheetFileID.String
			item.SheetFileID = &v
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// DeleteReportCascade removes a daily report and its service entries in
// one transaction.
func DeleteReportCascade(db *sql.DB, reportID int) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to start transaction: %v", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM service_entry WHERE report_id = $1`, reportID); err != nil {
		return fmt.Errorf("failed to delete service entries: %v", err)
	}
	result, err := tx.Exec(`DELETE FROM daily_report WHERE id = $1`, reportID)
	if err != nil {
		return fmt.Errorf("failed to delete report: %v", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %v", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("report %d not found", reportID)
	}
	return tx.Commit()
}

// DeleteItemsByContractor bulk-deletes a contractor's catalog, both price
// items and their sheet file records. Returns the stored file paths so the
// caller can clean up the uploads directory.
func DeleteItemsByContractor(db *sql.DB, contractor string) ([]string, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %v", err)
	}
	defer tx.Rollback()

	rows, err := tx.Query(`SELECT file_path FROM price_sheet_file WHERE LOWER(contractor) = LOWER($1)`, contractor)
	if err != nil {
		return nil, err
	}
	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			rows.Close()
			return nil, err
		}
		paths = append(paths, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(`DELETE FROM price_item WHERE LOWER(contractor) = LOWER($1)`, contractor); err != nil {
		return nil, fmt.Errorf("failed to delete price items: %v", err)
	}
	if _, err := tx.Exec(`DELETE FROM price_sheet_file WHERE LOWER(contractor) = LOWER($1)`, contractor); err != nil {
		return nil, fmt.Errorf("failed to delete sheet file records: %v", err)
	}

	return paths, tx.Commit()
}

package storage

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// UploadDir resolves the directory for uploaded price sheets from the
// environment, defaulting to ./uploads.
func UploadDir() string {
	dir := os.Getenv("UPLOAD_DIR")
	if dir == "" {
		dir = "uploads"
	}
	return dir
}

// SaveUploadedSheet writes the uploaded bytes under a uuid-prefixed name
// so two sheets with the same file name never collide. Returns the id
// used as prefix and the stored path.
func SaveUploadedSheet(fileName string, data []byte) (string, string, error) {
	// Validate and sanitize the file name
	base := filepath.Base(fileName)
	if base == "" || base == "." {
		return "", "", fmt.Errorf("invalid file name")
	}

	dir := UploadDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", "", fmt.Errorf("unable to create directory %s: %w", dir, err)
	}

	id := uuid.New().String()
	dstPath := filepath.Join(dir, fmt.Sprintf("%s-%s", id, base))
	if err := os.WriteFile(dstPath, data, 0644); err != nil {
		return "", "", fmt.Errorf("unable to write uploaded file: %w", err)
	}
	return id, dstPath, nil
}

// RemoveUploadedFile deletes a stored upload, ignoring already-missing
// files.
func RemoveUploadedFile(path string) error {
	if path == "" {
		return nil
	}
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// SweepOrphanUploads removes files in the upload directory that no sheet
// file record references anymore, for example after a failed ingestion or
// a crash between the file write and the database commit. Returns the
// number of files removed.
func SweepOrphanUploads(db *sql.DB) (int, error) {
	dir := UploadDir()
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return 0, nil
	} else if err != nil {
		return 0, err
	}

	rows, err := db.Query(`SELECT file_path FROM price_sheet_file`)
	if err != nil {
		return 0, err
	}
	referenced := make(map[string]bool)
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			rows.Close()
			return 0, err
		}
		referenced[filepath.Base(p)] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || referenced[entry.Name()] {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
			log.Printf("Failed to remove orphan upload %s: %v", entry.Name(), err)
			continue
		}
		removed++
	}
	return removed, nil
}

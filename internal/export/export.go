// Package export aggregates every rendered product into the master listing
// files: a CSV for bulk upload and an XLSX for review. The master is rebuilt
// from the per-product listing.csv files, so rerunning after a partial batch
// always yields a complete sheet.
package export

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/tboyle/recipe-press/internal/render"
)

// MasterCSVName and MasterXLSXName are written into the products directory.
const (
	MasterCSVName  = "master_listing.csv"
	MasterXLSXName = "master_listing.xlsx"
)

// Row is one product's entry in the master listing.
type Row struct {
	Folder  string // product folder name
	Listing []string
}

// Service rebuilds the master listing from rendered product folders.
type Service struct {
	productsDir string
	logger      *slog.Logger
}

func NewService(productsDir string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{productsDir: productsDir, logger: logger}
}

// Collect reads every product folder's listing.csv, sorted by folder name.
// Folders without one (failed renders, stray files) are skipped with a log
// line.
func (s *Service) Collect() ([]Row, error) {
	entries, err := os.ReadDir(s.productsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read products dir: %w", err)
	}

	var rows []Row
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		path := filepath.Join(s.productsDir, e.Name(), "listing.csv")
		listing, err := readListingRow(path)
		if err != nil {
			s.logger.Debug("export.collect.skip", "folder", e.Name(), "error", err)
			continue
		}
		rows = append(rows, Row{Folder: e.Name(), Listing: listing})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Folder < rows[j].Folder })
	return rows, nil
}

func readListingRow(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse listing csv: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("listing csv has no data row")
	}
	return records[1], nil
}

// masterHeader extends the per-product header with the folder column.
func masterHeader() []string {
	return append(append([]string{}, render.CSVHeader...), "Product Folder")
}

// WriteMaster rebuilds master_listing.csv and master_listing.xlsx in the
// products directory and returns the number of listed products.
func (s *Service) WriteMaster() (int, error) {
	start := time.Now()
	rows, err := s.Collect()
	if err != nil {
		return 0, err
	}
	if err := s.writeCSV(rows); err != nil {
		return 0, err
	}
	if err := s.writeXLSX(rows); err != nil {
		return 0, err
	}
	s.logger.Info("export.master.ok",
		"products", len(rows),
		"elapsed_ms", time.Since(start).Milliseconds())
	return len(rows), nil
}

func (s *Service) writeCSV(rows []Row) error {
	f, err := os.Create(filepath.Join(s.productsDir, MasterCSVName))
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(masterHeader()); err != nil {
		return err
	}
	for _, r := range rows {
		if err := w.Write(append(append([]string{}, r.Listing...), r.Folder)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func (s *Service) writeXLSX(rows []Row) error {
	f := excelize.NewFile()
	const sheet = "Listings"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	for i, h := range masterHeader() {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for ri, r := range rows {
		values := append(append([]string{}, r.Listing...), r.Folder)
		for ci, v := range values {
			cell, _ := excelize.CoordinatesToCellName(ci+1, ri+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 40) // title
	_ = f.SetColWidth(sheet, "B", "B", 60) // description
	_ = f.SetColWidth(sheet, "C", "E", 10) // price, currency, quantity
	_ = f.SetColWidth(sheet, "F", "F", 48) // tags
	_ = f.SetColWidth(sheet, "G", "G", 32) // folder

	buf, err := f.WriteToBuffer()
	if err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return os.WriteFile(filepath.Join(s.productsDir, MasterXLSXName), buf.Bytes(), 0o644)
}

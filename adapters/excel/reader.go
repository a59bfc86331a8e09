package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"trialstats/internal"
	"trialstats/internal/errors"
	"trialstats/ports"

	"github.com/xuri/excelize/v2"
)

// Required columns of every sample sheet
const (
	ColumnExperimentID = "experiment_id"
	ColumnTrialID      = "trial_id"
	ColumnHostID       = "host_id"
)

// sheet is one header row plus its data rows, cells trimmed
type sheet struct {
	headers []string
	rows    []map[string]string
}

// FileSource serves raw samples from a CSV or XLSX file for offline runs.
// Each XLSX sheet is a table; a CSV file is a single table answering for any
// table name.
type FileSource struct {
	path     string
	fileType string // "xlsx" or "csv"
	sheets   map[string]*sheet
	first    string
}

var _ ports.SampleSource = (*FileSource)(nil)

// OpenFile reads the whole file into memory
func OpenFile(path string, logger *internal.Logger) (*FileSource, error) {
	if logger == nil {
		logger = internal.NopLogger()
	}
	logger = logger.With("FileSource")

	ext := strings.ToLower(filepath.Ext(path))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, errors.SourceError(path, fmt.Errorf("%s file not found", strings.ToUpper(fileType)))
	}

	src := &FileSource{path: path, fileType: fileType, sheets: make(map[string]*sheet)}
	start := time.Now()

	var err error
	switch fileType {
	case "csv":
		err = src.readCSV()
	default:
		err = src.readExcel()
	}
	if err != nil {
		return nil, errors.SourceError(path, err)
	}

	logger.Info("%s file %s loaded in %.2fms (%d sheets)",
		strings.ToUpper(fileType), path, float64(time.Since(start).Nanoseconds())/1e6, len(src.sheets))
	return src, nil
}

func (s *FileSource) readExcel() error {
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return fmt.Errorf("failed to read sheet %s: %w", name, err)
		}
		if len(rows) == 0 {
			continue
		}
		sh, err := processRows(rows)
		if err != nil {
			return fmt.Errorf("sheet %s: %w", name, err)
		}
		s.add(name, sh)
	}
	if len(s.sheets) == 0 {
		return fmt.Errorf("no sheet has a header row")
	}
	return nil
}

func (s *FileSource) readCSV() error {
	file, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return fmt.Errorf("failed to read CSV file: %w", err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("CSV file has no header row")
	}

	sh, err := processRows(rows)
	if err != nil {
		return err
	}
	s.add(strings.TrimSuffix(filepath.Base(s.path), filepath.Ext(s.path)), sh)
	return nil
}

func (s *FileSource) add(name string, sh *sheet) {
	if s.first == "" {
		s.first = name
	}
	s.sheets[name] = sh
}

// processRows converts raw string rows into header-keyed maps
func processRows(rows [][]string) (*sheet, error) {
	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}

	sh := &sheet{headers: headers}
	if !sh.hasColumn(ColumnExperimentID) || !sh.hasColumn(ColumnTrialID) {
		return nil, fmt.Errorf("header must contain %s and %s", ColumnExperimentID, ColumnTrialID)
	}

	for _, row := range rows[1:] {
		data := make(map[string]string, len(headers))
		for j, cell := range row {
			if j < len(headers) {
				data[headers[j]] = strings.TrimSpace(cell)
			}
		}
		sh.rows = append(sh.rows, data)
	}
	return sh, nil
}

func (sh *sheet) hasColumn(name string) bool {
	for _, h := range sh.headers {
		if h == name {
			return true
		}
	}
	return false
}

// table resolves a table name to a sheet. CSV files have one table.
func (s *FileSource) table(name string) (*sheet, error) {
	if s.fileType == "csv" {
		return s.sheets[s.first], nil
	}
	if sh, ok := s.sheets[name]; ok {
		return sh, nil
	}
	if name == "" {
		return s.sheets[s.first], nil
	}
	return nil, errors.SourceError(s.path, fmt.Errorf("no sheet named %s", name))
}

// Samples returns the field values of one trial in row order. Blank cells are
// skipped; a non-numeric cell is an error.
func (s *FileSource) Samples(ctx context.Context, q ports.SampleQuery) ([]float64, error) {
	sh, err := s.table(q.Table.Name)
	if err != nil {
		return nil, err
	}
	if !sh.hasColumn(q.Field) {
		return nil, errors.SourceError(s.path, fmt.Errorf("no column %s in %s", q.Field, q.Table.Name))
	}

	var values []float64
	for i, row := range sh.rows {
		if !matches(row, q) {
			continue
		}
		cell := row[q.Field]
		if cell == "" {
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil, errors.SourceError(s.path, fmt.Errorf("row %d column %s: %w", i+2, q.Field, err))
		}
		values = append(values, v)
	}
	return values, nil
}

func matches(row map[string]string, q ports.SampleQuery) bool {
	if row[ColumnExperimentID] != q.Key.ExperimentID || row[ColumnTrialID] != q.Key.TrialID {
		return false
	}
	if q.Key.HostID != "" && row[ColumnHostID] != q.Key.HostID {
		return false
	}
	if q.Table.DiscriminatorColumn != "" && q.Key.Discriminator != "" && row[q.Table.DiscriminatorColumn] != q.Key.Discriminator {
		return false
	}
	return true
}

// Trials lists the distinct trial ids of an experiment, sorted
func (s *FileSource) Trials(ctx context.Context, table ports.SampleTable, experimentID string) ([]string, error) {
	sh, err := s.table(table.Name)
	if err != nil {
		return nil, err
	}
	return distinct(sh.rows, ColumnTrialID, func(row map[string]string) bool {
		return row[ColumnExperimentID] == experimentID
	}), nil
}

// Discriminators lists the distinct discriminator values of a trial, sorted
func (s *FileSource) Discriminators(ctx context.Context, table ports.SampleTable, experimentID, trialID string) ([]string, error) {
	if table.DiscriminatorColumn == "" {
		return nil, nil
	}
	sh, err := s.table(table.Name)
	if err != nil {
		return nil, err
	}
	return distinct(sh.rows, table.DiscriminatorColumn, func(row map[string]string) bool {
		return row[ColumnExperimentID] == experimentID && row[ColumnTrialID] == trialID
	}), nil
}

// Experiments lists the distinct experiment ids of a table, sorted
func (s *FileSource) Experiments(table ports.SampleTable) ([]string, error) {
	sh, err := s.table(table.Name)
	if err != nil {
		return nil, err
	}
	return distinct(sh.rows, ColumnExperimentID, func(map[string]string) bool { return true }), nil
}

func distinct(rows []map[string]string, column string, keep func(map[string]string) bool) []string {
	seen := make(map[string]bool)
	var out []string
	for _, row := range rows {
		if !keep(row) {
			continue
		}
		v := row[column]
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

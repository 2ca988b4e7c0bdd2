package service

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/plmware/forecast-api/internal/domain"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// monthColumnPattern matches export-style month headers such as "Apr'25"
var monthColumnPattern = regexp.MustCompile(`^[A-Z][a-z]{2}'\d{2}$`)

// projectColumnNames are the header spellings accepted for the project
// identifier column, compared case-insensitively.
var projectColumnNames = []string{
	"ipms project number",
	"ipms number",
	"project number",
	"project",
}

// ImportGateway forwards an actuals workbook to the backend
type ImportGateway interface {
	ImportActuals(ctx context.Context, filename string, data []byte) (*domain.ImportResult, error)
}

// ImportService validates actuals workbooks locally before forwarding
// them upstream, so a malformed file fails fast with a useful message
// instead of a backend error.
type ImportService struct {
	gateway ImportGateway
	logger  *zap.Logger
}

// NewImportService creates a new ImportService
func NewImportService(gateway ImportGateway, logger *zap.Logger) *ImportService {
	return &ImportService{gateway: gateway, logger: logger}
}

// ParseActualsWorkbook inspects an actuals workbook: it locates the
// project column and the month columns, counts data rows, and collects
// warnings for rows without a project identifier.
func ParseActualsWorkbook(data []byte) (*domain.ImportResult, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFile, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrInvalidInput)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read workbook rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: workbook is empty", ErrInvalidInput)
	}

	header := rows[0]
	projectCol := -1
	var months []string

	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		for _, candidate := range projectColumnNames {
			if name == candidate {
				projectCol = i
				break
			}
		}
		if monthColumnPattern.MatchString(strings.TrimSpace(h)) {
			months = append(months, strings.TrimSpace(h))
		}
	}

	if projectCol < 0 {
		return nil, fmt.Errorf("%w: no project identifier column found", ErrInvalidInput)
	}
	if len(months) == 0 {
		return nil, fmt.Errorf("%w: no month columns found", ErrInvalidInput)
	}

	result := &domain.ImportResult{Months: months}
	projects := make(map[string]bool)

	for rowNum, row := range rows[1:] {
		project := ""
		if projectCol < len(row) {
			project = strings.TrimSpace(row[projectCol])
		}
		if project == "" {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("row %d has no project identifier and will be skipped", rowNum+2))
			continue
		}
		result.Rows++
		projects[project] = true
	}

	result.Projects = len(projects)
	return result, nil
}

// Import validates the upload and forwards it to the backend. The local
// parse result's warnings are merged into the backend's summary.
func (s *ImportService) Import(ctx context.Context, filename string, data []byte) (*domain.ImportResult, error) {
	if !strings.EqualFold(filepath.Ext(filename), ".xlsx") {
		return nil, ErrUnsupportedFile
	}

	parsed, err := ParseActualsWorkbook(data)
	if err != nil {
		return nil, err
	}
	if parsed.Rows == 0 {
		return nil, fmt.Errorf("%w: workbook has no data rows", ErrInvalidInput)
	}

	result, err := s.gateway.ImportActuals(ctx, filename, data)
	if err != nil {
		return nil, fmt.Errorf("failed to import actuals: %w", err)
	}

	result.Warnings = append(result.Warnings, parsed.Warnings...)

	s.logger.Info("Actuals workbook imported",
		zap.String("filename", filename),
		zap.Int("rows", parsed.Rows),
		zap.Int("projects", parsed.Projects),
		zap.Int("warnings", len(result.Warnings)),
	)

	return result, nil
}

package service

import (
	"bytes"
	"context"
	"fmt"

	"github.com/plmware/forecast-api/internal/domain"
	"github.com/plmware/forecast-api/internal/filter"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// measure is one exported amount group: a label plus the record field it
// reads from.
type measure struct {
	label string
	pick  func(*domain.Record) domain.MonthAmounts
}

var exportMeasures = map[domain.ReportType][]measure{
	domain.ReportForecastUSD: {{label: "Forecast USD", pick: func(r *domain.Record) domain.MonthAmounts { return r.ForecastsUSD }}},
	domain.ReportForecastPO:  {{label: "Forecast PO", pick: func(r *domain.Record) domain.MonthAmounts { return r.ForecastsPO }}},
	domain.ReportActual:      {{label: "Actual", pick: func(r *domain.Record) domain.MonthAmounts { return r.Actuals }}},
	domain.ReportAll: {
		{label: "Forecast USD", pick: func(r *domain.Record) domain.MonthAmounts { return r.ForecastsUSD }},
		{label: "Forecast PO", pick: func(r *domain.Record) domain.MonthAmounts { return r.ForecastsPO }},
		{label: "Actual", pick: func(r *domain.Record) domain.MonthAmounts { return r.Actuals }},
	},
}

var exportBaseHeaders = []string{
	"Project Name", "Project Number", "OP ID", "Forecast Type", "Region",
	"Vertical", "Status", "Currency", "Customer Group", "Customer Name",
	"Cluster", "Manager",
}

// ExportService renders the filtered listing as an xlsx workbook
type ExportService struct {
	datasets *DatasetService
	logger   *zap.Logger
}

// NewExportService creates a new ExportService
func NewExportService(datasets *DatasetService, logger *zap.Logger) *ExportService {
	return &ExportService{datasets: datasets, logger: logger}
}

// ExportHeaders builds the header row for a report type: the project
// columns, then per measure the twelve fiscal months followed by the four
// quarter rollups and a total.
func ExportHeaders(year int, reportType domain.ReportType) []string {
	headers := append([]string{}, exportBaseHeaders...)
	for _, m := range exportMeasures[reportType] {
		for _, month := range domain.FiscalMonths {
			headers = append(headers, fmt.Sprintf("%s %s", m.label, domain.MonthColumnLabel(year, month)))
		}
		for _, q := range domain.Quarters {
			headers = append(headers, fmt.Sprintf("%s %s", m.label, q.Name))
		}
		headers = append(headers, m.label+" Total")
	}
	return headers
}

// ExportRow builds one record's row in the same column order as
// ExportHeaders. Absent months export as zero.
func ExportRow(rec *domain.Record, reportType domain.ReportType) []interface{} {
	row := []interface{}{
		rec.ProjectName, rec.ProjectNumber, rec.OPID, string(rec.ForecastType),
		rec.Region, rec.Vertical, string(rec.Status), rec.Currency,
		rec.CustomerGroup, rec.CustomerName,
		entityName(rec.Cluster), entityName(rec.Manager),
	}
	for _, m := range exportMeasures[reportType] {
		amounts := m.pick(rec)
		for _, month := range domain.FiscalMonths {
			row = append(row, amounts.At(month).InexactFloat64())
		}
		for _, q := range domain.Quarters {
			row = append(row, domain.QuarterSum(amounts, q.Months))
		}
		row = append(row, amounts.Sum().InexactFloat64())
	}
	return row
}

func entityName(ref *domain.EntityRef) string {
	if ref == nil {
		return ""
	}
	return ref.Name
}

// Export renders the caller's filtered records for one fiscal year into
// an xlsx workbook and returns the bytes plus a suggested filename.
func (s *ExportService) Export(ctx context.Context, year int, sel domain.Selection, reportType domain.ReportType) ([]byte, string, error) {
	if !reportType.Valid() {
		return nil, "", fmt.Errorf("%w: unknown report type %q", ErrInvalidInput, reportType)
	}

	records, err := s.datasets.Records(ctx, year)
	if err != nil {
		return nil, "", err
	}
	filtered := filter.FilteredSet(records, sel)

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := "Forecast"
	f.SetSheetName(f.GetSheetName(0), sheet)

	headers := ExportHeaders(year, reportType)
	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, "", fmt.Errorf("failed to compute header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, "", fmt.Errorf("failed to write header: %w", err)
		}
	}

	for i := range filtered {
		row := ExportRow(&filtered[i], reportType)
		for col, val := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, "", fmt.Errorf("failed to compute cell: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, val); err != nil {
				return nil, "", fmt.Errorf("failed to write row: %w", err)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, "", fmt.Errorf("failed to render workbook: %w", err)
	}

	filename := fmt.Sprintf("PLM_Forecast_%s.xlsx", domain.FiscalYearLabel(year))

	s.logger.Info("Forecast export rendered",
		zap.Int("year", year),
		zap.String("report_type", string(reportType)),
		zap.Int("rows", len(filtered)),
	)

	return buf.Bytes(), filename, nil
}

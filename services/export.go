package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"biodata-platform/internal/logger"
	"biodata-platform/models"

	"github.com/xuri/excelize/v2"
)

const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportResponse describes a generated workbook.
type ExportResponse struct {
	Filename    string
	Data        []byte
	RecordCount int
}

type ExportService struct {
	store BiodataStore
	now   func() time.Time
}

func NewExportService(store BiodataStore) *ExportService {
	return &ExportService{store: store, now: time.Now}
}

var exportColumns = []struct {
	header string
	value  func(b models.Biodata) interface{}
}{
	{"ID", func(b models.Biodata) interface{} { return b.ID }},
	{"User ID", func(b models.Biodata) interface{} { return b.UserID }},
	{"Full Name", func(b models.Biodata) interface{} { return b.FullName }},
	{"Biodata Type", func(b models.Biodata) interface{} { return b.BiodataType }},
	{"Marital Status", func(b models.Biodata) interface{} { return b.MaritalStatus }},
	{"Birth Year", func(b models.Biodata) interface{} { return b.BirthYear }},
	{"Height", func(b models.Biodata) interface{} { return b.Height }},
	{"Complexion", func(b models.Biodata) interface{} { return b.Complexion }},
	{"Division", func(b models.Biodata) interface{} { return b.PresentDivision }},
	{"District", func(b models.Biodata) interface{} { return b.PresentDistrict }},
	{"Upazilla", func(b models.Biodata) interface{} { return b.PresentUpazilla }},
	{"Occupation", func(b models.Biodata) interface{} { return b.Occupation }},
	{"Highest Degree", func(b models.Biodata) interface{} { return b.HighestDegree }},
	{"Family Status", func(b models.Biodata) interface{} { return b.FamilyStatus }},
	{"Test Data", func(b models.Biodata) interface{} { return b.IsTestData }},
	{"Created At", func(b models.Biodata) interface{} { return formatExportTime(b.CreatedAt) }},
	{"Updated At", func(b models.Biodata) interface{} { return formatExportTime(b.UpdatedAt) }},
}

// ExportBiodata renders every stored profile into an XLSX workbook with a
// summary sheet.
func (es *ExportService) ExportBiodata(ctx context.Context) (*ExportResponse, error) {
	all, err := es.store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load biodata: %w", err)
	}
	data, err := es.buildWorkbook(all)
	if err != nil {
		return nil, err
	}
	return &ExportResponse{
		Filename:    fmt.Sprintf("biodata_export_%s.xlsx", es.now().UTC().Format("20060102_150405")),
		Data:        data,
		RecordCount: len(all),
	}, nil
}

func (es *ExportService) buildWorkbook(all []models.Biodata) ([]byte, error) {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			logger.Warn("Error closing Excel file", "error", err)
		}
	}()

	sheetName := "Biodata"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to drop default sheet: %w", err)
	}

	for i, col := range exportColumns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		f.SetCellValue(sheetName, cell, col.header)
	}

	var male, female, test int
	for r, b := range all {
		row := r + 2
		for i, col := range exportColumns {
			cell, err := excelize.CoordinatesToCellName(i+1, row)
			if err != nil {
				return nil, err
			}
			f.SetCellValue(sheetName, cell, col.value(b))
		}
		switch b.BiodataType {
		case models.BiodataTypeMale:
			male++
		case models.BiodataTypeFemale:
			female++
		}
		if b.IsTestData {
			test++
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(exportColumns))
	if err != nil {
		return nil, err
	}
	f.SetColWidth(sheetName, "A", lastCol, 18)

	summarySheetName := "Summary"
	if _, err := f.NewSheet(summarySheetName); err != nil {
		return nil, fmt.Errorf("failed to create summary sheet: %w", err)
	}
	summary := [][]interface{}{
		{"Metric", "Value"},
		{"Export Date", es.now().UTC().Format("2006-01-02 15:04:05")},
		{"Total Biodata", len(all)},
		{"Male Biodata", male},
		{"Female Biodata", female},
		{"Test Biodata", test},
	}
	for i, row := range summary {
		for j, v := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return nil, err
			}
			f.SetCellValue(summarySheetName, cell, v)
		}
	}
	f.SetColWidth(summarySheetName, "A", "B", 20)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func formatExportTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04:05")
}

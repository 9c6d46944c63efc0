package services

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"college-helpdesk-backend/models"
)

// ExportAdmissionsExcel renders admission records as an Excel workbook
// for the admin panel download.
func ExportAdmissionsExcel(records []models.AdmissionRecord) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Admissions"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{"ID", "Full Name", "Email", "Phone", "Category", "Course", "Address", "Marks", "Previous College", "Submitted At"}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	for i, rec := range records {
		row := i + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), rec.ID)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), rec.FullName)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), rec.Email)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), rec.Phone)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), rec.Category)
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), rec.Course)
		f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), rec.Address)
		f.SetCellValue(sheetName, fmt.Sprintf("H%d", row), rec.Marks)
		f.SetCellValue(sheetName, fmt.Sprintf("I%d", row), rec.PrevCollege)
		f.SetCellValue(sheetName, fmt.Sprintf("J%d", row), rec.SubmittedAt)
	}

	for i := range headers {
		col := fmt.Sprintf("%c", 'A'+i)
		f.SetColWidth(sheetName, col, col, 18)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write excel file: %w", err)
	}
	return &buf, nil
}

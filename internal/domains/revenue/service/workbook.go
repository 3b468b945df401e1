package service

import (
	"time"

	"github.com/xuri/excelize/v2"

	"course-payments/internal/domains/revenue/model"
)

const (
	transactionsSheet = "Transactions"
	summarySheet      = "Summary"
)

var transactionHeaders = []string{
	"Booking ID",
	"Started At",
	"Course",
	"Course ID",
	"User ID",
	"Subtotal",
	"Admin Fee",
	"Discount",
	"Grand Total",
	"Payment Type",
}

func buildWorkbook(rows []model.Row, summary *model.Summary, loc *time.Location) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", transactionsSheet); err != nil {
		return nil, err
	}

	for colIdx, header := range transactionHeaders {
		cell, _ := excelize.CoordinatesToCellName(colIdx+1, 1)
		f.SetCellValue(transactionsSheet, cell, header)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		lastCol, _ := excelize.CoordinatesToCellName(len(transactionHeaders), 1)
		f.SetCellStyle(transactionsSheet, "A1", lastCol, headerStyle)
	}

	for i, r := range rows {
		rowNum := i + 2
		cell := func(col int) string {
			name, _ := excelize.CoordinatesToCellName(col, rowNum)
			return name
		}
		f.SetCellValue(transactionsSheet, cell(1), r.BookingTrxID)
		f.SetCellValue(transactionsSheet, cell(2), r.StartedAt.In(loc).Format("2006-01-02 15:04"))
		f.SetCellValue(transactionsSheet, cell(3), r.CourseTitle)
		f.SetCellValue(transactionsSheet, cell(4), r.CourseID.String())
		f.SetCellValue(transactionsSheet, cell(5), r.UserID.String())
		f.SetCellValue(transactionsSheet, cell(6), r.Subtotal)
		f.SetCellValue(transactionsSheet, cell(7), r.AdminFee)
		f.SetCellValue(transactionsSheet, cell(8), r.DiscountAmount)
		f.SetCellValue(transactionsSheet, cell(9), r.GrandTotal)
		f.SetCellValue(transactionsSheet, cell(10), r.PaymentType)
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, err
	}
	summaryRows := [][]interface{}{
		{"Gross", summary.Gross},
		{"Fees", summary.Fees},
		{"Discounts", summary.Discounts},
		{"Net", summary.Net},
		{"Count", summary.Count},
	}
	for i, values := range summaryRows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summarySheet, cell, &values); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

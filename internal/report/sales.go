package report

import (
	"bytes"
	"time"

	"github.com/xuri/excelize/v2"
)

const salesSheet = "Sales"

type SaleRow struct {
	OrderID     uint64
	CreatedAt   time.Time
	BoxTitle    string
	Quantity    int
	Status      string
	SubtotalYen int64
	RewardYen   int64
	PointsUsed  int64
	PaidYen     int64
}

var salesHeaders = []string{"Order", "Date", "Box", "Qty", "Status", "Subtotal", "Reward", "Points", "Paid"}

// SalesWorkbook renders the seller's orders as an xlsx file. A total row is
// appended that sums paid amounts of orders that were not canceled.
func SalesWorkbook(rows []SaleRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet(salesSheet); err != nil {
		return nil, err
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}
	if index, err := f.GetSheetIndex(salesSheet); err == nil {
		f.SetActiveSheet(index)
	}

	for i, h := range salesHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(salesSheet, cell, h); err != nil {
			return nil, err
		}
	}
	var total int64
	for i, r := range rows {
		values := []interface{}{
			r.OrderID, r.CreatedAt.Format("2006-01-02 15:04"), r.BoxTitle, r.Quantity, r.Status,
			r.SubtotalYen, r.RewardYen, r.PointsUsed, r.PaidYen,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(salesSheet, cell, &values); err != nil {
			return nil, err
		}
		if r.Status != "canceled" {
			total += r.PaidYen
		}
	}
	last := len(rows) + 2
	labelCell, _ := excelize.CoordinatesToCellName(len(salesHeaders)-1, last)
	totalCell, _ := excelize.CoordinatesToCellName(len(salesHeaders), last)
	if err := f.SetCellValue(salesSheet, labelCell, "Total"); err != nil {
		return nil, err
	}
	if err := f.SetCellValue(salesSheet, totalCell, total); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

func TestSalesWorkbook(t *testing.T) {
	at := time.Date(2026, 3, 1, 18, 30, 0, 0, time.UTC)
	data, err := SalesWorkbook([]SaleRow{
		{OrderID: 1, CreatedAt: at, BoxTitle: "Bakery", Quantity: 2, Status: "picked_up", SubtotalYen: 1000, RewardYen: 120, PointsUsed: 50, PaidYen: 830},
		{OrderID: 2, CreatedAt: at, BoxTitle: "Veg", Quantity: 1, Status: "canceled", SubtotalYen: 400, PaidYen: 400},
	})
	if err != nil {
		t.Fatalf("SalesWorkbook: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	tests := []struct {
		cell, want string
	}{
		{"A1", "Order"},
		{"C2", "Bakery"},
		{"E3", "canceled"},
		{"I2", "830"},
		{"H4", "Total"},
		{"I4", "830"},
	}
	for _, tt := range tests {
		got, err := f.GetCellValue(salesSheet, tt.cell)
		if err != nil || got != tt.want {
			t.Errorf("%s=%q err=%v want %q", tt.cell, got, err, tt.want)
		}
	}
}

package loader

import (
	"context"
	"math"
	"os"
	"strings"
	"testing"

	"retail-insights/internal/config"
)

const testHeader = "Invoice,StockCode,Description,Quantity,InvoiceDate,Price,Customer ID,Country"

func createTempCSV(t *testing.T, content string) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "test*.csv")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if _, err := f.WriteString(content); err != nil {
		t.Fatal(err)
	}
	return f.Name()
}

func newTestLoader() *Loader {
	return New(config.LoaderConfig{BatchSize: 100, Workers: 4}, nil)
}

func TestLoader_ValidData(t *testing.T) {
	csv := testHeader + "\n" +
		"536365,85123A,Sensor Kit,6,12/1/10 8:26,2.55,17850,United Kingdom\n" +
		"536366,71053,Wire Kit,2,12/1/10 8:28,3.39,17850,United Kingdom"

	f := createTempCSV(t, csv)

	records, err := newTestLoader().Load(context.Background(), f)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	var sensor bool
	for _, tx := range records {
		if tx.ItemLabel != "Sensor Kit" {
			continue
		}
		sensor = true
		if tx.Quantity != 6 {
			t.Errorf("quantity = %d, want 6", tx.Quantity)
		}
		if tx.UnitValue != 2.55 {
			t.Errorf("unit value = %v, want 2.55", tx.UnitValue)
		}
		if !tx.HasAmount || math.Abs(tx.Amount-15.30) > 1e-9 {
			t.Errorf("amount = %v (valid %v), want 15.30", tx.Amount, tx.HasAmount)
		}
		if tx.CustomerID != "17850" {
			t.Errorf("customer = %q, want 17850", tx.CustomerID)
		}
		if tx.Region != "United Kingdom" {
			t.Errorf("region = %q, want United Kingdom", tx.Region)
		}
		if tx.Timestamp.Year() != 2010 || tx.Timestamp.Hour() != 8 {
			t.Errorf("timestamp = %v, want 2010-12-01 08:26", tx.Timestamp)
		}
	}
	if !sensor {
		t.Error("Sensor Kit record not found")
	}
}

func TestLoader_DropsRowsWithBadDates(t *testing.T) {
	csv := testHeader + "\n" +
		"1,A,Sensor Kit,1,not-a-date,1.00,C1,UK\n" +
		"2,B,Wire Kit,1,12/1/10 8:26,1.00,C1,UK"

	f := createTempCSV(t, csv)

	records, err := newTestLoader().Load(context.Background(), f)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record after dropping the bad date, got %d", len(records))
	}
	if records[0].ItemLabel != "Wire Kit" {
		t.Errorf("surviving record = %q, want Wire Kit", records[0].ItemLabel)
	}
}

// A numeric parse failure nulls the amount but keeps the row.
func TestLoader_KeepsRowsWithBadNumerics(t *testing.T) {
	csv := testHeader + "\n" +
		"1,A,Sensor Kit,oops,12/1/10 8:26,1.00,C1,UK\n" +
		"2,B,Wire Kit,2,12/1/10 8:27,oops,C1,UK"

	f := createTempCSV(t, csv)

	records, err := newTestLoader().Load(context.Background(), f)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	for _, tx := range records {
		if tx.HasAmount {
			t.Errorf("record %q should have a nulled amount", tx.ItemLabel)
		}
	}
}

func TestLoader_MissingCustomerKept(t *testing.T) {
	csv := testHeader + "\n" +
		"1,A,Sensor Kit,1,12/1/10 8:26,1.00,,UK"

	f := createTempCSV(t, csv)

	records, err := newTestLoader().Load(context.Background(), f)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].CustomerID != "" {
		t.Errorf("customer = %q, want empty", records[0].CustomerID)
	}
}

func TestLoader_QuotedLabelWithComma(t *testing.T) {
	csv := testHeader + "\n" +
		`1,A,"Kit, Deluxe",1,12/1/10 8:26,1.00,C1,UK`

	f := createTempCSV(t, csv)

	records, err := newTestLoader().Load(context.Background(), f)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if records[0].ItemLabel != "Kit, Deluxe" {
		t.Errorf("label = %q, want %q", records[0].ItemLabel, "Kit, Deluxe")
	}
}

// A UTF-8 BOM in front of the header must not break column lookup.
// After ISO-8859-1 decoding its bytes surface as the "ï»¿" rune trio.
func TestLoader_BOMHeader(t *testing.T) {
	csv := "\xef\xbb\xbf" + testHeader + "\n" +
		"1,A,Sensor Kit,1,12/1/10 8:26,1.00,C1,UK"

	f := createTempCSV(t, csv)

	records, err := newTestLoader().Load(context.Background(), f)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].TransactionID != "1" {
		t.Errorf("invoice = %q, want 1", records[0].TransactionID)
	}
}

// The dataset ships as ISO-8859-1; high bytes must decode, not be
// passed through as invalid UTF-8.
func TestLoader_Latin1Decoding(t *testing.T) {
	csv := testHeader + "\n" +
		"1,A,Caf\xe9 Set,1,12/1/10 8:26,1.00,C1,France"

	f := createTempCSV(t, csv)

	records, err := newTestLoader().Load(context.Background(), f)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if records[0].ItemLabel != "Café Set" {
		t.Errorf("label = %q, want %q", records[0].ItemLabel, "Café Set")
	}
}

func TestLoader_InvalidInputs(t *testing.T) {
	tests := []struct {
		name string
		csv  string
	}{
		{name: "empty file", csv: ""},
		{name: "header only", csv: testHeader},
		{name: "all dates invalid", csv: testHeader + "\n1,A,Sensor Kit,1,garbage,1.00,C1,UK"},
		{name: "missing columns", csv: "Invoice,Quantity\n1,2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := createTempCSV(t, tt.csv)
			if _, err := newTestLoader().Load(context.Background(), f); err == nil {
				t.Error("Load() should fail")
			}
		})
	}
}

func TestLoader_MissingColumnError(t *testing.T) {
	f := createTempCSV(t, "Invoice,Quantity\n1,2")

	_, err := newTestLoader().Load(context.Background(), f)
	if err == nil {
		t.Fatal("Load() should fail")
	}
	if !strings.Contains(err.Error(), "Customer ID") {
		t.Errorf("error should name the missing columns, got: %v", err)
	}
}

func TestLoader_FileNotFound(t *testing.T) {
	if _, err := newTestLoader().Load(context.Background(), "does-not-exist.csv"); err == nil {
		t.Error("Load() should fail for a missing file")
	}
}

func TestLoader_Cancellation(t *testing.T) {
	csv := testHeader + "\n" +
		"1,A,Sensor Kit,1,12/1/10 8:26,1.00,C1,UK"
	f := createTempCSV(t, csv)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := newTestLoader().Load(ctx, f); err == nil {
		t.Error("Load() should fail when the context is already cancelled")
	}
}

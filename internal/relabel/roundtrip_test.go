package relabel_test

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"retail-insights/internal/analytics"
	"retail-insights/internal/config"
	"retail-insights/internal/loader"
	"retail-insights/internal/models"
	"retail-insights/internal/relabel"
)

// Relabeling must not move any money: loading the relabeled file and
// re-aggregating by the new labels yields the same totals as the
// original.
func TestRelabelThenReaggregate(t *testing.T) {
	content := "Invoice,StockCode,Description,Quantity,InvoiceDate,Price,Customer ID,Country\n" +
		"1,A,WHITE HANGING HEART,6,12/1/10 8:26,2.55,C1,United Kingdom\n" +
		"2,B,WHITE METAL LANTERN,2,12/1/10 8:28,3.39,C2,France\n" +
		"3,C,WHITE HANGING HEART,4,12/2/10 9:00,2.55,C1,United Kingdom\n"

	dir := t.TempDir()
	original := filepath.Join(dir, "original.csv")
	if err := os.WriteFile(original, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	relabeled := filepath.Join(dir, "relabeled.csv")

	if _, err := relabel.File(original, relabeled, relabel.Options{Seed: 3}); err != nil {
		t.Fatalf("File() error = %v", err)
	}

	l := loader.New(config.LoaderConfig{BatchSize: 100, Workers: 2}, nil)

	before, err := l.Load(context.Background(), original)
	if err != nil {
		t.Fatal(err)
	}
	after, err := l.Load(context.Background(), relabeled)
	if err != nil {
		t.Fatal(err)
	}

	if len(before) != len(after) {
		t.Fatalf("row count changed: %d -> %d", len(before), len(after))
	}

	// The loader parses batches concurrently, so match rows by
	// invoice rather than position.
	byInvoice := make(map[string]models.Transaction, len(before))
	for _, tx := range before {
		byInvoice[tx.TransactionID] = tx
	}
	for _, tx := range after {
		orig, ok := byInvoice[tx.TransactionID]
		if !ok {
			t.Errorf("invoice %s missing from original load", tx.TransactionID)
			continue
		}
		if orig.Quantity != tx.Quantity {
			t.Errorf("invoice %s quantity changed: %d -> %d", tx.TransactionID, orig.Quantity, tx.Quantity)
		}
		if orig.UnitValue != tx.UnitValue {
			t.Errorf("invoice %s unit value changed: %v -> %v", tx.TransactionID, orig.UnitValue, tx.UnitValue)
		}
		if orig.Amount != tx.Amount {
			t.Errorf("invoice %s amount changed: %v -> %v", tx.TransactionID, orig.Amount, tx.Amount)
		}
	}

	a := analytics.New(nil)
	a.SetData(before)
	b := analytics.New(nil)
	b.SetData(after)

	if math.Abs(a.TotalAmount()-b.TotalAmount()) > 1e-9 {
		t.Errorf("total amount changed: %v -> %v", a.TotalAmount(), b.TotalAmount())
	}

	// Two source labels aggregate into exactly two new labels.
	if got := len(b.TopItemsBySales(0)); got != 2 {
		t.Errorf("relabeled dataset has %d item groups, want 2", got)
	}
}

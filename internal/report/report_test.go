package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"retail-insights/internal/analytics"
	"retail-insights/internal/cohort"
	"retail-insights/internal/config"
	"retail-insights/internal/models"
)

func testChartsConfig() config.ChartsConfig {
	return config.ChartsConfig{
		Theme:     "westeros",
		Palette:   []string{"#4F46E5", "#10B981"},
		TopN:      10,
		PageTitle: "Retail Insights",
	}
}

func testData() []models.Transaction {
	base := time.Date(2023, 1, 10, 9, 30, 0, 0, time.UTC)
	var records []models.Transaction
	for i := 0; i < 30; i++ {
		quantity := i%5 + 1
		unitValue := float64(i%7) + 0.5
		records = append(records, models.Transaction{
			TransactionID: "T1",
			CustomerID:    string(rune('A' + i%6)),
			Region:        []string{"United Kingdom", "France", "Germany"}[i%3],
			ItemLabel:     []string{"Sensor Kit", "Wire Kit", "Relay Module"}[i%3],
			Quantity:      quantity,
			UnitValue:     unitValue,
			Amount:        float64(quantity) * unitValue,
			HasAmount:     true,
			Timestamp:     base.AddDate(0, i%9, i%20),
		})
	}
	return records
}

func TestRenderAll_WritesEveryArtifact(t *testing.T) {
	records := testData()

	service := analytics.New(nil)
	service.SetData(records)
	matrix := cohort.BuildMatrix(records)

	dir := t.TempDir()
	r := NewRenderer(testChartsConfig(), dir, nil)

	if err := r.RenderAll(service, matrix); err != nil {
		t.Fatalf("RenderAll() error = %v", err)
	}

	wantFiles := []string{
		FileDailySalesTrend,
		FileTopProducts,
		FileCustomerFrequency,
		FileRegionalSales,
		FileTopRegions,
		FileBottomRegions,
		FileTopRegionCustomers,
		FileBottomRegionCustomers,
		FileTopProductsQuantity,
		FileBottomProductsQuantity,
		FileQuarterlySales,
		FileMonthlySales,
		FileCohortRetention,
		FileIndex,
	}

	for _, name := range wantFiles {
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if err != nil {
			t.Errorf("missing artifact %s: %v", name, err)
			continue
		}
		if info.Size() == 0 {
			t.Errorf("artifact %s is empty", name)
		}
	}
}

func TestRenderAll_ChartContent(t *testing.T) {
	records := testData()

	service := analytics.New(nil)
	service.SetData(records)
	matrix := cohort.BuildMatrix(records)

	dir := t.TempDir()
	r := NewRenderer(testChartsConfig(), dir, nil)
	if err := r.RenderAll(service, matrix); err != nil {
		t.Fatalf("RenderAll() error = %v", err)
	}

	tests := []struct {
		file string
		want string
	}{
		{FileDailySalesTrend, "Daily Sales Trend"},
		{FileRegionalSales, "Sales Distribution by Region"},
		{FileCohortRetention, "Customer Retention Rate"},
		{FileTopRegions, "Top 10 Countries by Purchase Amount"},
	}

	for _, tt := range tests {
		data, err := os.ReadFile(filepath.Join(dir, tt.file))
		if err != nil {
			t.Fatalf("read %s: %v", tt.file, err)
		}
		if !strings.Contains(string(data), tt.want) {
			t.Errorf("%s should contain %q", tt.file, tt.want)
		}
	}
}

func TestRenderAll_EmptyMatrix(t *testing.T) {
	service := analytics.New(nil)
	service.SetData(testData())

	dir := t.TempDir()
	r := NewRenderer(testChartsConfig(), dir, nil)

	if err := r.RenderAll(service, cohort.Matrix{}); err != nil {
		t.Fatalf("RenderAll() with an empty matrix should still succeed, got %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, FileCohortRetention)); err != nil {
		t.Errorf("retention chart should still be written: %v", err)
	}
}

func TestRenderAll_BadOutputDir(t *testing.T) {
	service := analytics.New(nil)
	service.SetData(testData())

	// A file where the output directory should be.
	blocked := filepath.Join(t.TempDir(), "blocked")
	if err := os.WriteFile(blocked, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := NewRenderer(testChartsConfig(), blocked, nil)
	if err := r.RenderAll(service, cohort.Matrix{}); err == nil {
		t.Error("RenderAll() should fail when the output directory cannot be created")
	}
}

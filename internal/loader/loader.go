package loader

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"retail-insights/internal/config"
	apperrors "retail-insights/internal/errors"
	"retail-insights/internal/models"
)

// Source CSV column headers. Lookup is by name, not position, so
// reordered exports still load.
const (
	colInvoice     = "Invoice"
	colStockCode   = "StockCode"
	colDescription = "Description"
	colQuantity    = "Quantity"
	colInvoiceDate = "InvoiceDate"
	colPrice       = "Price"
	colCustomerID  = "Customer ID"
	colCountry     = "Country"
)

var requiredColumns = []string{
	colInvoice, colStockCode, colDescription, colQuantity,
	colInvoiceDate, colPrice, colCustomerID, colCountry,
}

// The dataset writes timestamps as M/D/YY H:MM. The fallbacks cover
// re-exports of the relabeled file.
var timestampLayouts = []string{
	"1/2/06 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

type Loader struct {
	batchSize int
	workers   int
	logger    *slog.Logger
}

func New(cfg config.LoaderConfig, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		batchSize: cfg.BatchSize,
		workers:   cfg.Workers,
		logger:    logger,
	}
}

// Load reads the transactions CSV and returns the coerced records.
// Rows with an unparseable timestamp are dropped silently; rows with
// unparseable numerics are kept with a nulled amount. An input that
// yields zero valid records is a load failure.
func (l *Loader) Load(ctx context.Context, filename string) ([]models.Transaction, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, apperrors.LoadWrap(err, "open input file")
	}
	defer file.Close()

	start := time.Now()
	records, dropped, err := l.read(ctx, file)
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return nil, apperrors.Load("no valid records found")
	}

	duration := time.Since(start)
	l.logger.Info("csv load complete",
		"filename", filename,
		"records", len(records),
		"dropped", dropped,
		"duration", duration,
		"rate", fmt.Sprintf("%.0f records/sec", float64(len(records))/duration.Seconds()))

	return records, nil
}

func (l *Loader) read(ctx context.Context, r io.Reader) ([]models.Transaction, int, error) {
	// Fixed input encoding: the dataset ships as ISO-8859-1.
	decoded := transform.NewReader(r, charmap.ISO8859_1.NewDecoder())

	reader := csv.NewReader(decoded)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, 0, apperrors.LoadWrap(err, "read header row")
	}

	cols, err := mapColumns(header)
	if err != nil {
		return nil, 0, err
	}

	var (
		mu      sync.Mutex
		records []models.Transaction
		dropped int
	)

	batch := make([][]string, 0, l.batchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		parsed, skipped, err := l.parseBatch(ctx, cols, batch)
		if err != nil {
			return err
		}
		mu.Lock()
		records = append(records, parsed...)
		dropped += skipped
		mu.Unlock()
		batch = batch[:0]
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return nil, 0, apperrors.LoadWrap(ctx.Err(), "load cancelled")
		default:
		}

		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, apperrors.LoadWrap(err, "read csv row")
		}

		batch = append(batch, row)
		if len(batch) >= l.batchSize {
			if err := flush(); err != nil {
				return nil, 0, err
			}
		}
	}

	if err := flush(); err != nil {
		return nil, 0, err
	}

	return records, dropped, nil
}

func (l *Loader) parseBatch(ctx context.Context, cols columnIndex, batch [][]string) ([]models.Transaction, int, error) {
	var wg errgroup.Group
	wg.SetLimit(l.workers)

	type parsedRow struct {
		tx    models.Transaction
		valid bool
	}

	rowChan := make(chan parsedRow, len(batch))

	for _, row := range batch {
		row := row
		wg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			tx, ok := parseTransaction(cols, row)
			rowChan <- parsedRow{tx: tx, valid: ok}
			return nil
		})
	}

	if err := wg.Wait(); err != nil {
		close(rowChan)
		return nil, 0, apperrors.LoadWrap(err, "parse batch")
	}
	close(rowChan)

	parsed := make([]models.Transaction, 0, len(batch))
	skipped := 0
	for pr := range rowChan {
		if pr.valid {
			parsed = append(parsed, pr.tx)
		} else {
			skipped++
		}
	}

	return parsed, skipped, nil
}

// parseTransaction coerces one raw row. The bool result is false only
// for rows that must be dropped (missing fields or a bad timestamp).
func parseTransaction(cols columnIndex, row []string) (models.Transaction, bool) {
	field := func(name string) (string, bool) {
		idx, ok := cols[name]
		if !ok || idx >= len(row) {
			return "", false
		}
		return strings.TrimSpace(row[idx]), true
	}

	rawDate, ok := field(colInvoiceDate)
	if !ok {
		return models.Transaction{}, false
	}

	timestamp, ok := parseTimestamp(rawDate)
	if !ok {
		return models.Transaction{}, false
	}

	tx := models.Transaction{Timestamp: timestamp}
	tx.TransactionID, _ = field(colInvoice)
	tx.ItemID, _ = field(colStockCode)
	tx.ItemLabel, _ = field(colDescription)
	tx.CustomerID, _ = field(colCustomerID)
	tx.Region, _ = field(colCountry)

	hasQuantity := false
	if raw, ok := field(colQuantity); ok {
		if quantity, err := strconv.Atoi(raw); err == nil {
			tx.Quantity = quantity
			hasQuantity = true
		}
	}

	hasPrice := false
	if raw, ok := field(colPrice); ok {
		if price, err := strconv.ParseFloat(raw, 64); err == nil {
			tx.UnitValue = price
			hasPrice = true
		}
	}

	if hasQuantity && hasPrice {
		tx.Amount = float64(tx.Quantity) * tx.UnitValue
		tx.HasAmount = true
	}

	return tx, true
}

func parseTimestamp(raw string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

type columnIndex map[string]int

func mapColumns(header []string) (columnIndex, error) {
	cols := make(columnIndex, len(header))
	for i, name := range header {
		cols[normalizeHeader(name)] = i
	}

	var missing []string
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.Load(fmt.Sprintf("missing required columns: %s", strings.Join(missing, ", ")))
	}

	return cols, nil
}

func normalizeHeader(name string) string {
	name = strings.TrimPrefix(name, "\uFEFF")
	name = strings.TrimPrefix(name, "ï»¿") // BOM read as ISO-8859-1
	return strings.TrimSpace(name)
}

package relabel

import (
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	apperrors "retail-insights/internal/errors"
)

// Catalog is the built-in set of synthetic item labels the real
// descriptions are mapped onto.
var Catalog = []string{
	"Arduino Uno R3 Development Board",
	"Raspberry Pi 4 Model B",
	"ESP32 WiFi Development Board",
	"Digital Multimeter",
	"Logic Analyzer",
	"Function Generator",
	"Oscilloscope Probe Set",
	"Power Supply Unit",
	"PCB Etching Kit",
	"Soldering Station",
	"Component Starter Kit",
	"FPGA Development Board",
	"Signal Generator",
	"RF Spectrum Analyzer",
	"Network Analyzer",
	"Logic Gate Trainer Kit",
	"Microcontroller Starter Kit",
	"Digital Storage Oscilloscope",
	"Signal Conditioning Module",
	"RF Power Meter",
	"Breadboard Kit",
	"Resistor Assortment Kit",
	"Capacitor Kit",
	"Inductor Set",
	"Transistor Pack",
	"IC Chip Collection",
	"LED Assortment",
	"Sensor Kit",
	"Motor Driver Module",
	"Relay Module",
	"WiFi Module",
	"Bluetooth Module",
	"GPS Module",
	"RF Transceiver",
	"Antenna Kit",
	"PCB Prototype Board",
	"Wire Kit",
	"Connector Set",
	"Heat Sink Kit",
	"Test Lead Set",
}

const labelColumn = "Description"

type Options struct {
	Seed    int64
	Catalog []string // defaults to the built-in catalog
}

type Summary struct {
	Rows         int
	UniqueLabels int
	Mapping      map[string]string
}

// File rewrites inputPath to outputPath with every item description
// replaced by its synthetic counterpart. Only the label column
// changes; every other field is copied through verbatim, so amounts
// survive a relabel round trip. The mapping is deterministic for a
// fixed seed.
func File(inputPath, outputPath string, opts Options) (*Summary, error) {
	header, rows, err := readCSV(inputPath)
	if err != nil {
		return nil, apperrors.RelabelWrap(err, "read input csv")
	}

	labelIdx := -1
	for i, name := range header {
		if strings.TrimSpace(name) == labelColumn {
			labelIdx = i
			break
		}
	}
	if labelIdx < 0 {
		return nil, apperrors.RelabelWrap(fmt.Errorf("no %q column in header", labelColumn), "locate label column")
	}

	catalog := opts.Catalog
	if len(catalog) == 0 {
		catalog = Catalog
	}

	unique := uniqueLabels(rows, labelIdx)
	mapping := buildMapping(unique, catalog, opts.Seed)

	for _, row := range rows {
		if labelIdx < len(row) {
			if replacement, ok := mapping[row[labelIdx]]; ok {
				row[labelIdx] = replacement
			}
		}
	}

	if err := writeCSV(outputPath, header, rows); err != nil {
		return nil, apperrors.RelabelWrap(err, "write output csv")
	}

	return &Summary{
		Rows:         len(rows),
		UniqueLabels: len(unique),
		Mapping:      mapping,
	}, nil
}

// uniqueLabels collects label values in first-seen order so a fixed
// seed maps a given input file the same way every run.
func uniqueLabels(rows [][]string, labelIdx int) []string {
	seen := make(map[string]struct{})
	var unique []string
	for _, row := range rows {
		if labelIdx >= len(row) {
			continue
		}
		label := row[labelIdx]
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		unique = append(unique, label)
	}
	return unique
}

// buildMapping cycles the catalog up to the number of unique labels,
// shuffles it with the seeded generator, and zips the two lists.
func buildMapping(unique, catalog []string, seed int64) map[string]string {
	mapping := make(map[string]string, len(unique))
	if len(unique) == 0 || len(catalog) == 0 {
		return mapping
	}

	pool := make([]string, 0, len(unique))
	for len(pool) < len(unique) {
		pool = append(pool, catalog...)
	}
	pool = pool[:len(unique)]

	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	for i, label := range unique {
		mapping[label] = pool[i]
	}
	return mapping
}

func readCSV(path string) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	reader := csv.NewReader(transform.NewReader(f, charmap.ISO8859_1.NewDecoder()))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read rows: %w", err)
	}

	return header, rows, nil
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

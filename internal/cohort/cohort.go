package cohort

import (
	"fmt"
	"math"
	"slices"
	"time"

	"retail-insights/internal/models"
)

// Bucket is one calendar quarter. Buckets order chronologically, not
// by first appearance in the input: index assignment sorts the
// observed buckets before enumerating them, so unsorted input still
// yields non-negative offsets.
type Bucket struct {
	Year    int
	Quarter int
}

func BucketOf(t time.Time) Bucket {
	return Bucket{
		Year:    t.Year(),
		Quarter: (int(t.Month())-1)/3 + 1,
	}
}

func (b Bucket) Label() string {
	return fmt.Sprintf("Q%d/%d", b.Quarter, b.Year)
}

func (b Bucket) Before(o Bucket) bool {
	if b.Year != o.Year {
		return b.Year < o.Year
	}
	return b.Quarter < o.Quarter
}

func compareBuckets(a, b Bucket) int {
	if a.Before(b) {
		return -1
	}
	if b.Before(a) {
		return 1
	}
	return 0
}

// Cell is one retention measurement: how many of a cohort's customers
// were active at a given offset, as a percentage of the cohort's
// initial size. Defined is false when no data exists for the cell,
// which is distinct from a measured 0%.
type Cell struct {
	Customers int     `json:"customers"`
	Rate      float64 `json:"rate"`
	Defined   bool    `json:"defined"`
}

// Row is one cohort: all customers whose first activity fell in
// Bucket. Cells is ragged, running from offset 0 up to the last
// bucket observed in the dataset.
type Row struct {
	Bucket Bucket `json:"-"`
	Label  string `json:"label"`
	Size   int    `json:"size"`
	Cells  []Cell `json:"cells"`
}

// Matrix is the retention pivot, rows ordered chronologically by
// cohort bucket.
type Matrix struct {
	Rows []Row `json:"rows"`
}

// OffsetCount reports the number of offset columns (the length of the
// longest row).
func (m Matrix) OffsetCount() int {
	max := 0
	for _, row := range m.Rows {
		if len(row.Cells) > max {
			max = len(row.Cells)
		}
	}
	return max
}

// BuildMatrix computes the retention matrix for a set of transaction
// records. Records without a customer id carry no retention signal
// and are skipped. The retention count at each (cohort, offset) cell
// is distinct customers, not transactions.
func BuildMatrix(records []models.Transaction) Matrix {
	index := newBucketIndex(records)
	if len(index.ordered) == 0 {
		return Matrix{}
	}

	// Distinct bucket indices per customer.
	activity := make(map[string]map[int]struct{})
	for _, tx := range records {
		if tx.CustomerID == "" {
			continue
		}
		buckets := activity[tx.CustomerID]
		if buckets == nil {
			buckets = make(map[int]struct{})
			activity[tx.CustomerID] = buckets
		}
		buckets[index.of(BucketOf(tx.Timestamp))] = struct{}{}
	}

	lastIdx := len(index.ordered) - 1

	// counts[cohort][offset] = distinct customers active there.
	counts := make(map[int][]int)
	for _, buckets := range activity {
		cohortIdx := math.MaxInt
		for idx := range buckets {
			if idx < cohortIdx {
				cohortIdx = idx
			}
		}

		row := counts[cohortIdx]
		if row == nil {
			row = make([]int, lastIdx-cohortIdx+1)
			counts[cohortIdx] = row
		}
		for idx := range buckets {
			row[idx-cohortIdx]++
		}
	}

	cohortIndices := make([]int, 0, len(counts))
	for idx := range counts {
		cohortIndices = append(cohortIndices, idx)
	}
	slices.Sort(cohortIndices)

	matrix := Matrix{Rows: make([]Row, 0, len(cohortIndices))}
	for _, cohortIdx := range cohortIndices {
		row := counts[cohortIdx]
		size := row[0]

		cells := make([]Cell, len(row))
		for offset, customers := range row {
			if customers == 0 && offset != 0 {
				continue // undefined: nobody from the cohort reached this offset
			}
			cells[offset] = Cell{
				Customers: customers,
				Rate:      roundTo2(float64(customers) / float64(size) * 100),
				Defined:   true,
			}
		}

		bucket := index.ordered[cohortIdx]
		matrix.Rows = append(matrix.Rows, Row{
			Bucket: bucket,
			Label:  bucket.Label(),
			Size:   size,
			Cells:  cells,
		})
	}

	return matrix
}

// bucketIndex maps buckets to dense indices in chronological order.
type bucketIndex struct {
	ordered []Bucket
	indices map[Bucket]int
}

func newBucketIndex(records []models.Transaction) bucketIndex {
	seen := make(map[Bucket]struct{})
	for _, tx := range records {
		seen[BucketOf(tx.Timestamp)] = struct{}{}
	}

	ordered := make([]Bucket, 0, len(seen))
	for bucket := range seen {
		ordered = append(ordered, bucket)
	}
	slices.SortFunc(ordered, compareBuckets)

	indices := make(map[Bucket]int, len(ordered))
	for i, bucket := range ordered {
		indices[bucket] = i
	}

	return bucketIndex{ordered: ordered, indices: indices}
}

func (bi bucketIndex) of(b Bucket) int {
	return bi.indices[b]
}

func roundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}

package analytics

import (
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"retail-insights/internal/cohort"
	"retail-insights/internal/models"
)

// Snapshot holds every precomputed aggregate for one dataset. It is
// built once per run and read many times by the renderer.
type Snapshot struct {
	DailySales         []models.DailySales
	ItemsBySales       []models.ItemSales
	Frequency          []models.FrequencyBucket
	RegionsByAmount    []models.RegionAmount
	RegionsByCustomers []models.RegionCustomers
	ItemsByQuantity    []models.ItemQuantity
	QuarterlySales     []models.PeriodSales
	MonthlySales       []models.PeriodSales
	TotalAmount        float64
	RecordCount        int64
	ComputedAt         time.Time
}

type Analytics struct {
	mu     sync.RWMutex
	snap   *Snapshot
	logger *slog.Logger
}

func New(logger *slog.Logger) *Analytics {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analytics{
		snap:   &Snapshot{},
		logger: logger,
	}
}

func (a *Analytics) SetData(records []models.Transaction) {
	snap := compute(records)

	a.mu.Lock()
	a.snap = snap
	a.mu.Unlock()

	a.logger.Debug("aggregates computed",
		"records", snap.RecordCount,
		"items", len(snap.ItemsBySales),
		"regions", len(snap.RegionsByAmount),
		"months", len(snap.MonthlySales))
}

func compute(records []models.Transaction) *Snapshot {
	dailyGroups := make(map[string]float64)
	itemSalesGroups := make(map[string]float64)
	itemQuantityGroups := make(map[string]int)
	regionAmountGroups := make(map[string]float64)
	regionCustomerGroups := make(map[string]map[string]struct{})
	customerPurchases := make(map[string]int)
	quarterlyGroups := make(map[cohort.Bucket]float64)
	monthlyGroups := make(map[string]float64)

	total := 0.0

	for _, tx := range records {
		// Rows with an unparseable amount still count toward
		// frequency and distinct-customer metrics; they just add
		// nothing to the sums.
		if tx.HasAmount {
			day := tx.Timestamp.Format("2006-01-02")
			dailyGroups[day] += tx.Amount
			itemSalesGroups[tx.ItemLabel] += tx.Amount
			regionAmountGroups[tx.Region] += tx.Amount
			quarterlyGroups[cohort.BucketOf(tx.Timestamp)] += tx.Amount
			monthlyGroups[tx.Timestamp.Format("2006-01")] += tx.Amount
			total += tx.Amount
		}

		itemQuantityGroups[tx.ItemLabel] += tx.Quantity

		if tx.CustomerID != "" {
			customerPurchases[tx.CustomerID]++

			customers := regionCustomerGroups[tx.Region]
			if customers == nil {
				customers = make(map[string]struct{})
				regionCustomerGroups[tx.Region] = customers
			}
			customers[tx.CustomerID] = struct{}{}
		}
	}

	return &Snapshot{
		DailySales:         sortDailySales(dailyGroups),
		ItemsBySales:       sortItemSales(itemSalesGroups),
		Frequency:          bucketFrequencies(customerPurchases),
		RegionsByAmount:    sortRegionAmounts(regionAmountGroups),
		RegionsByCustomers: sortRegionCustomers(regionCustomerGroups),
		ItemsByQuantity:    sortItemQuantities(itemQuantityGroups),
		QuarterlySales:     sortQuarterlySales(quarterlyGroups),
		MonthlySales:       sortMonthlySales(monthlyGroups),
		TotalAmount:        total,
		RecordCount:        int64(len(records)),
		ComputedAt:         time.Now(),
	}
}

// DailySales returns per-day amount sums in chronological order.
func (a *Analytics) DailySales() []models.DailySales {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return slices.Clone(a.snap.DailySales)
}

// TopItemsBySales returns the best-selling item labels by amount,
// descending.
func (a *Analytics) TopItemsBySales(limit int) []models.ItemSales {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return headOf(a.snap.ItemsBySales, limit)
}

// FrequencyDistribution returns (purchase count, customers with that
// count) pairs ascending by purchase count. Records without a
// customer id are excluded.
func (a *Analytics) FrequencyDistribution() []models.FrequencyBucket {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return slices.Clone(a.snap.Frequency)
}

// RegionShare returns every region's amount sum, descending. The sum
// over all entries equals TotalAmount.
func (a *Analytics) RegionShare() []models.RegionAmount {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return slices.Clone(a.snap.RegionsByAmount)
}

func (a *Analytics) TopRegionsByAmount(limit int) []models.RegionAmount {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return headOf(a.snap.RegionsByAmount, limit)
}

// BottomRegionsByAmount returns the weakest regions, ascending by
// amount.
func (a *Analytics) BottomRegionsByAmount(limit int) []models.RegionAmount {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return tailOf(a.snap.RegionsByAmount, limit)
}

func (a *Analytics) TopRegionsByCustomers(limit int) []models.RegionCustomers {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return headOf(a.snap.RegionsByCustomers, limit)
}

func (a *Analytics) BottomRegionsByCustomers(limit int) []models.RegionCustomers {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return tailOf(a.snap.RegionsByCustomers, limit)
}

func (a *Analytics) TopItemsByQuantity(limit int) []models.ItemQuantity {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return headOf(a.snap.ItemsByQuantity, limit)
}

// BottomItemsByQuantity returns the items with the lowest net
// quantity, ascending. Heavily returned items surface here with
// negative totals.
func (a *Analytics) BottomItemsByQuantity(limit int) []models.ItemQuantity {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return tailOf(a.snap.ItemsByQuantity, limit)
}

// QuarterlySales returns per-quarter amount sums in chronological
// order.
func (a *Analytics) QuarterlySales() []models.PeriodSales {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return slices.Clone(a.snap.QuarterlySales)
}

// MonthlySales returns per-month amount sums in chronological order.
func (a *Analytics) MonthlySales() []models.PeriodSales {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return slices.Clone(a.snap.MonthlySales)
}

func (a *Analytics) TotalAmount() float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.snap.TotalAmount
}

// Stats summarizes the snapshot for logging.
func (a *Analytics) Stats() map[string]any {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return map[string]any{
		"record_count": a.snap.RecordCount,
		"computed_at":  a.snap.ComputedAt,
		"days":         len(a.snap.DailySales),
		"items":        len(a.snap.ItemsBySales),
		"regions":      len(a.snap.RegionsByAmount),
		"quarters":     len(a.snap.QuarterlySales),
		"months":       len(a.snap.MonthlySales),
	}
}

// headOf takes the first limit entries of a descending-sorted slice.
func headOf[T any](sorted []T, limit int) []T {
	if limit <= 0 || len(sorted) <= limit {
		return slices.Clone(sorted)
	}
	return slices.Clone(sorted[:limit])
}

// tailOf takes the last limit entries of a descending-sorted slice
// and reverses them, yielding an ascending bottom-N.
func tailOf[T any](sorted []T, limit int) []T {
	if limit <= 0 || limit > len(sorted) {
		limit = len(sorted)
	}
	bottom := slices.Clone(sorted[len(sorted)-limit:])
	slices.Reverse(bottom)
	return bottom
}

func sortDailySales(groups map[string]float64) []models.DailySales {
	result := make([]models.DailySales, 0, len(groups))
	for day, amount := range groups {
		result = append(result, models.DailySales{Day: day, Amount: amount})
	}
	slices.SortFunc(result, func(a, b models.DailySales) int {
		return strings.Compare(a.Day, b.Day)
	})
	return result
}

func sortItemSales(groups map[string]float64) []models.ItemSales {
	result := make([]models.ItemSales, 0, len(groups))
	for label, amount := range groups {
		result = append(result, models.ItemSales{ItemLabel: label, Amount: amount})
	}
	slices.SortFunc(result, func(a, b models.ItemSales) int {
		if a.Amount > b.Amount {
			return -1
		}
		if a.Amount < b.Amount {
			return 1
		}
		return strings.Compare(a.ItemLabel, b.ItemLabel)
	})
	return result
}

func sortItemQuantities(groups map[string]int) []models.ItemQuantity {
	result := make([]models.ItemQuantity, 0, len(groups))
	for label, quantity := range groups {
		result = append(result, models.ItemQuantity{ItemLabel: label, Quantity: quantity})
	}
	slices.SortFunc(result, func(a, b models.ItemQuantity) int {
		if a.Quantity > b.Quantity {
			return -1
		}
		if a.Quantity < b.Quantity {
			return 1
		}
		return strings.Compare(a.ItemLabel, b.ItemLabel)
	})
	return result
}

func sortRegionAmounts(groups map[string]float64) []models.RegionAmount {
	result := make([]models.RegionAmount, 0, len(groups))
	for region, amount := range groups {
		result = append(result, models.RegionAmount{Region: region, Amount: amount})
	}
	slices.SortFunc(result, func(a, b models.RegionAmount) int {
		if a.Amount > b.Amount {
			return -1
		}
		if a.Amount < b.Amount {
			return 1
		}
		return strings.Compare(a.Region, b.Region)
	})
	return result
}

func sortRegionCustomers(groups map[string]map[string]struct{}) []models.RegionCustomers {
	result := make([]models.RegionCustomers, 0, len(groups))
	for region, customers := range groups {
		result = append(result, models.RegionCustomers{Region: region, Customers: len(customers)})
	}
	slices.SortFunc(result, func(a, b models.RegionCustomers) int {
		if a.Customers > b.Customers {
			return -1
		}
		if a.Customers < b.Customers {
			return 1
		}
		return strings.Compare(a.Region, b.Region)
	})
	return result
}

func bucketFrequencies(customerPurchases map[string]int) []models.FrequencyBucket {
	buckets := make(map[int]int)
	for _, purchases := range customerPurchases {
		buckets[purchases]++
	}

	result := make([]models.FrequencyBucket, 0, len(buckets))
	for purchases, customers := range buckets {
		result = append(result, models.FrequencyBucket{Purchases: purchases, Customers: customers})
	}
	slices.SortFunc(result, func(a, b models.FrequencyBucket) int {
		return a.Purchases - b.Purchases
	})
	return result
}

func sortQuarterlySales(groups map[cohort.Bucket]float64) []models.PeriodSales {
	buckets := make([]cohort.Bucket, 0, len(groups))
	for bucket := range groups {
		buckets = append(buckets, bucket)
	}
	slices.SortFunc(buckets, func(a, b cohort.Bucket) int {
		if a.Before(b) {
			return -1
		}
		if b.Before(a) {
			return 1
		}
		return 0
	})

	result := make([]models.PeriodSales, 0, len(buckets))
	for _, bucket := range buckets {
		result = append(result, models.PeriodSales{Period: bucket.Label(), Amount: groups[bucket]})
	}
	return result
}

func sortMonthlySales(groups map[string]float64) []models.PeriodSales {
	result := make([]models.PeriodSales, 0, len(groups))
	for month, amount := range groups {
		result = append(result, models.PeriodSales{Period: month, Amount: amount})
	}
	slices.SortFunc(result, func(a, b models.PeriodSales) int {
		return strings.Compare(a.Period, b.Period)
	})
	return result
}

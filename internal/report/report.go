package report

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"retail-insights/internal/analytics"
	"retail-insights/internal/cohort"
	"retail-insights/internal/config"
	apperrors "retail-insights/internal/errors"
)

// Output artifact names. Each chart is a standalone HTML document;
// index.html collects all of them on one page.
const (
	FileDailySalesTrend        = "daily_sales_trend.html"
	FileTopProducts            = "top_products.html"
	FileCustomerFrequency      = "customer_frequency.html"
	FileRegionalSales          = "regional_sales.html"
	FileTopRegions             = "top_countries.html"
	FileBottomRegions          = "bottom_countries.html"
	FileTopRegionCustomers     = "top_countries_customers.html"
	FileBottomRegionCustomers  = "bottom_countries_customers.html"
	FileTopProductsQuantity    = "top_products_quantity.html"
	FileBottomProductsQuantity = "bottom_products_quantity.html"
	FileQuarterlySales         = "quarterly_sales.html"
	FileMonthlySales           = "monthly_sales.html"
	FileCohortRetention        = "cohort_retention.html"
	FileIndex                  = "index.html"
)

var retentionScale = []string{"#edf8e9", "#a1d99b", "#41ab5d", "#005a32"}

// Renderer turns precomputed aggregates into chart files. Styling is
// injected here rather than set as package state.
type Renderer struct {
	outDir    string
	theme     string
	palette   []string
	topN      int
	pageTitle string
	logger    *slog.Logger
}

func NewRenderer(cfg config.ChartsConfig, outDir string, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{
		outDir:    outDir,
		theme:     cfg.Theme,
		palette:   cfg.Palette,
		topN:      cfg.TopN,
		pageTitle: cfg.PageTitle,
		logger:    logger,
	}
}

type renderable interface {
	Render(w io.Writer) error
}

type namedChart struct {
	file  string
	chart components.Charter
}

// RenderAll writes every chart file plus the index page. Any write
// failure aborts the run.
func (r *Renderer) RenderAll(a *analytics.Analytics, matrix cohort.Matrix) error {
	if err := os.MkdirAll(r.outDir, 0o755); err != nil {
		return apperrors.RenderWrap(err, "create output directory")
	}

	chartList := []namedChart{
		{FileDailySalesTrend, r.dailyTrend(a)},
		{FileTopProducts, r.topItemsBySales(a)},
		{FileCustomerFrequency, r.customerFrequency(a)},
		{FileRegionalSales, r.regionShare(a)},
		{FileTopRegions, r.topRegionsByAmount(a)},
		{FileBottomRegions, r.bottomRegionsByAmount(a)},
		{FileTopRegionCustomers, r.topRegionsByCustomers(a)},
		{FileBottomRegionCustomers, r.bottomRegionsByCustomers(a)},
		{FileTopProductsQuantity, r.topItemsByQuantity(a)},
		{FileBottomProductsQuantity, r.bottomItemsByQuantity(a)},
		{FileQuarterlySales, r.quarterlySales(a)},
		{FileMonthlySales, r.monthlySales(a)},
		{FileCohortRetention, r.retentionHeatmap(matrix)},
	}

	for _, nc := range chartList {
		if err := r.writeChart(nc.file, nc.chart.(renderable)); err != nil {
			return err
		}
	}

	if err := r.writeIndex(chartList); err != nil {
		return err
	}

	r.logger.Info("report rendered", "dir", r.outDir, "charts", len(chartList))
	return nil
}

func (r *Renderer) writeChart(name string, chart renderable) error {
	path := filepath.Join(r.outDir, name)
	f, err := os.Create(path)
	if err != nil {
		return apperrors.RenderWrap(err, fmt.Sprintf("create %s", name))
	}
	defer f.Close()

	if err := chart.Render(f); err != nil {
		return apperrors.RenderWrap(err, fmt.Sprintf("render %s", name))
	}

	r.logger.Debug("chart written", "file", path)
	return nil
}

func (r *Renderer) writeIndex(namedCharts []namedChart) error {
	page := components.NewPage()
	page.PageTitle = r.pageTitle
	page.SetLayout(components.PageFlexLayout)
	for _, nc := range namedCharts {
		page.AddCharts(nc.chart)
	}
	return r.writeChart(FileIndex, page)
}

func (r *Renderer) initOpts(title string) charts.GlobalOpts {
	return charts.WithInitializationOpts(opts.Initialization{
		Theme:     r.theme,
		PageTitle: title,
		Width:     "1100px",
		Height:    "550px",
	})
}

func (r *Renderer) dailyTrend(a *analytics.Analytics) components.Charter {
	rows := a.DailySales()

	days := make([]string, 0, len(rows))
	points := make([]opts.LineData, 0, len(rows))
	for _, row := range rows {
		days = append(days, row.Day)
		points = append(points, opts.LineData{Value: row.Amount})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		r.initOpts("Daily Sales Trend"),
		charts.WithTitleOpts(opts.Title{Title: "Daily Sales Trend"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Date"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Daily Sales Volume"}),
		charts.WithColorsOpts(opts.Colors(r.palette)),
	)
	line.SetXAxis(days).AddSeries("Daily Sales", points,
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))
	return line
}

func (r *Renderer) topItemsBySales(a *analytics.Analytics) components.Charter {
	rows := a.TopItemsBySales(r.topN)
	labels := make([]string, 0, len(rows))
	values := make([]float64, 0, len(rows))
	for _, row := range rows {
		labels = append(labels, row.ItemLabel)
		values = append(values, row.Amount)
	}
	return r.barChart(fmt.Sprintf("Top %d Products by Sales", r.topN), "Product", "Sales Volume", labels, values)
}

func (r *Renderer) customerFrequency(a *analytics.Analytics) components.Charter {
	rows := a.FrequencyDistribution()
	labels := make([]string, 0, len(rows))
	values := make([]float64, 0, len(rows))
	for _, row := range rows {
		labels = append(labels, strconv.Itoa(row.Purchases))
		values = append(values, float64(row.Customers))
	}
	return r.barChart("Customer Purchase Frequency Distribution", "Number of Purchases", "Customers", labels, values)
}

func (r *Renderer) regionShare(a *analytics.Analytics) components.Charter {
	rows := a.RegionShare()

	data := make([]opts.PieData, 0, len(rows))
	for _, row := range rows {
		data = append(data, opts.PieData{Name: row.Region, Value: row.Amount})
	}

	pie := charts.NewPie()
	pie.SetGlobalOptions(
		r.initOpts("Sales Distribution by Region"),
		charts.WithTitleOpts(opts.Title{Title: "Sales Distribution by Region"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithColorsOpts(opts.Colors(r.palette)),
	)
	pie.AddSeries("Region Share", data).SetSeriesOptions(
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Formatter: "{b}: {d}%"}),
		charts.WithPieChartOpts(opts.PieChart{Radius: []string{"35%", "70%"}}),
	)
	return pie
}

func (r *Renderer) topRegionsByAmount(a *analytics.Analytics) components.Charter {
	rows := a.TopRegionsByAmount(r.topN)
	labels := make([]string, 0, len(rows))
	values := make([]float64, 0, len(rows))
	for _, row := range rows {
		labels = append(labels, row.Region)
		values = append(values, row.Amount)
	}
	return r.barChart(fmt.Sprintf("Top %d Countries by Purchase Amount", r.topN), "Countries", "Total Amount", labels, values)
}

func (r *Renderer) bottomRegionsByAmount(a *analytics.Analytics) components.Charter {
	rows := a.BottomRegionsByAmount(r.topN)
	labels := make([]string, 0, len(rows))
	values := make([]float64, 0, len(rows))
	for _, row := range rows {
		labels = append(labels, row.Region)
		values = append(values, row.Amount)
	}
	return r.barChart(fmt.Sprintf("Bottom %d Countries by Purchase Amount", r.topN), "Countries", "Total Amount", labels, values)
}

func (r *Renderer) topRegionsByCustomers(a *analytics.Analytics) components.Charter {
	rows := a.TopRegionsByCustomers(r.topN)
	labels := make([]string, 0, len(rows))
	values := make([]float64, 0, len(rows))
	for _, row := range rows {
		labels = append(labels, row.Region)
		values = append(values, float64(row.Customers))
	}
	return r.barChart(fmt.Sprintf("Top %d Countries by Unique Customers", r.topN), "Countries", "Number of Unique Customers", labels, values)
}

func (r *Renderer) bottomRegionsByCustomers(a *analytics.Analytics) components.Charter {
	rows := a.BottomRegionsByCustomers(r.topN)
	labels := make([]string, 0, len(rows))
	values := make([]float64, 0, len(rows))
	for _, row := range rows {
		labels = append(labels, row.Region)
		values = append(values, float64(row.Customers))
	}
	return r.barChart(fmt.Sprintf("Bottom %d Countries by Unique Customers", r.topN), "Countries", "Number of Unique Customers", labels, values)
}

func (r *Renderer) topItemsByQuantity(a *analytics.Analytics) components.Charter {
	rows := a.TopItemsByQuantity(r.topN)
	labels := make([]string, 0, len(rows))
	values := make([]float64, 0, len(rows))
	for _, row := range rows {
		labels = append(labels, row.ItemLabel)
		values = append(values, float64(row.Quantity))
	}
	return r.barChart(fmt.Sprintf("Top %d Bestselling Products", r.topN), "Products", "Total Quantity Sold", labels, values)
}

func (r *Renderer) bottomItemsByQuantity(a *analytics.Analytics) components.Charter {
	rows := a.BottomItemsByQuantity(r.topN)
	labels := make([]string, 0, len(rows))
	values := make([]float64, 0, len(rows))
	for _, row := range rows {
		labels = append(labels, row.ItemLabel)
		values = append(values, float64(row.Quantity))
	}
	return r.barChart(fmt.Sprintf("Top %d Products with Most Returns", r.topN), "Products", "Total Quantity Returned", labels, values)
}

func (r *Renderer) quarterlySales(a *analytics.Analytics) components.Charter {
	rows := a.QuarterlySales()
	labels := make([]string, 0, len(rows))
	values := make([]float64, 0, len(rows))
	for _, row := range rows {
		labels = append(labels, row.Period)
		values = append(values, row.Amount)
	}
	return r.barChart("Quarterly Sales Analysis", "Quarters", "Total Amount", labels, values)
}

func (r *Renderer) monthlySales(a *analytics.Analytics) components.Charter {
	rows := a.MonthlySales()
	labels := make([]string, 0, len(rows))
	values := make([]float64, 0, len(rows))
	for _, row := range rows {
		labels = append(labels, row.Period)
		values = append(values, row.Amount)
	}
	return r.barChart("Monthly Sales Analysis", "Months", "Total Amount", labels, values)
}

func (r *Renderer) barChart(title, xName, yName string, labels []string, values []float64) components.Charter {
	data := make([]opts.BarData, 0, len(values))
	for _, v := range values {
		data = append(data, opts.BarData{Value: v})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		r.initOpts(title),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: xName, AxisLabel: &opts.AxisLabel{Rotate: 30}}),
		charts.WithYAxisOpts(opts.YAxis{Name: yName}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
		charts.WithColorsOpts(opts.Colors(r.palette)),
	)
	bar.SetXAxis(labels).AddSeries(title, data)
	return bar
}

// retentionHeatmap renders the cohort matrix with cohorts on the Y
// axis newest-first and offsets on the X axis. Undefined cells are
// omitted, not drawn as zero.
func (r *Renderer) retentionHeatmap(matrix cohort.Matrix) components.Charter {
	offsetCount := matrix.OffsetCount()

	offsets := make([]string, 0, offsetCount)
	for i := 0; i < offsetCount; i++ {
		offsets = append(offsets, strconv.Itoa(i))
	}

	cohorts := make([]string, 0, len(matrix.Rows))
	data := make([]opts.HeatMapData, 0, len(matrix.Rows)*offsetCount)
	for i := len(matrix.Rows) - 1; i >= 0; i-- {
		row := matrix.Rows[i]
		y := len(cohorts)
		cohorts = append(cohorts, row.Label)
		for offset, cell := range row.Cells {
			if !cell.Defined {
				continue
			}
			data = append(data, opts.HeatMapData{Value: [3]interface{}{offset, y, cell.Rate}})
		}
	}

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		r.initOpts("Cohort Analysis: Customer Retention Rate"),
		charts.WithTitleOpts(opts.Title{Title: "Cohort Analysis: Customer Retention Rate"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Name: "Offset (quarters)"}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Name: "Cohort", Data: cohorts}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        100,
			InRange:    &opts.VisualMapInRange{Color: retentionScale},
		}),
	)
	hm.SetXAxis(offsets).AddSeries("Retention Rate", data,
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true)}))
	return hm
}

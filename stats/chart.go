package stats

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// ChartInclusionRender 輸出單頁 HTML：各位置 pi / expected / observed 長條圖，
// 以及 Σx 的次數分佈。
type ChartInclusionRender struct{}

func (cr *ChartInclusionRender) Write(w io.Writer, r *InclusionReport) error {
	page := components.NewPage()
	page.AddCharts(newInclusionChart(r), newCountChart(r))
	return page.Render(w)
}

func newInclusionChart(r *InclusionReport) *charts.Bar {
	n := len(r.Positions)
	labels := make([]string, n)
	pi := make([]opts.BarData, n)
	exp := make([]opts.BarData, n)
	obs := make([]opts.BarData, n)
	for i, p := range r.Positions {
		labels[i] = fmt.Sprintf("%d", p.Index)
		pi[i] = opts.BarData{Value: p.Pi}
		exp[i] = opts.BarData{Value: p.Expected}
		obs[i] = opts.BarData{Value: p.Observed}
	}
	title := fmt.Sprintf("%s inclusion", r.Summary.PlanName)
	subtitle := fmt.Sprintf("method=%s q=%d r=%d draws=%d max|z|=%.3f", r.Summary.Method, r.Summary.Q, r.Summary.R, r.Summary.Draws, r.Summary.MaxAbsZ)

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "1200px", Height: "600px"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "inside"}, opts.DataZoom{Type: "slider"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(labels).
		AddSeries("pi", pi).
		AddSeries("expected", exp).
		AddSeries("observed", obs).
		SetSeriesOptions(charts.WithLabelOpts(opts.Label{Show: opts.Bool(false)}))
	return bar
}

func newCountChart(r *InclusionReport) *charts.Bar {
	labels := make([]string, len(r.CountDist))
	items := make([]opts.BarData, len(r.CountDist))
	for k, c := range r.CountDist {
		labels[k] = fmt.Sprintf("%d", k)
		items[k] = opts.BarData{Value: c}
	}
	title := fmt.Sprintf("%s case count", r.Summary.PlanName)
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("violations=%d", r.Summary.Violations)}),
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "1200px", Height: "400px"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(labels).AddSeries("count", items)
	return bar
}

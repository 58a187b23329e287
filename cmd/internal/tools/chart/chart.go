package chart

import (
	"fmt"
	"io"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/nathanhack/bomp/benchmarking"
	"github.com/nathanhack/bomp/cmd/internal/tools"
	"github.com/nathanhack/bomp/cmd/internal/tools/csv"
	"github.com/spf13/cobra"
)

var OutputFile string
var CoefficientError bool
var ResidualNorm bool

var ChartRun = func(cmd *cobra.Command, args []string) {
	if len(args) < 1 {
		fmt.Println("requires at least one RESULTS_JSON")
		return
	}

	// loop through all the results files and collect data needed for displaying
	stats, probabilities, err := tools.LoadAllResults(args)
	if err != nil {
		fmt.Println(err)
		return
	}

	f, err := os.Create(OutputFile)
	if err != nil {
		fmt.Println(err)
		return
	}
	defer f.Close()

	err = Render(f, args, stats, probabilities, csv.Column(CoefficientError, ResidualNorm), yAxisName())
	if err != nil {
		fmt.Println(err)
	}
}

func yAxisName() string {
	switch {
	case CoefficientError:
		return "Coefficient Error"
	case ResidualNorm:
		return "Residual Norm"
	default:
		return "Support Error"
	}
}

//Render writes a bar chart with one series per results file.
func Render(w io.Writer, names []string, stats []*tools.SimulationStats, probabilities []float64, column func(benchmarking.Stats) float64, yName string) error {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Results",
			Subtitle: "Recovery Error",
			Left:     "20%",
		}),
		charts.WithLegendOpts(opts.Legend{Show: true,
			Orient: "vertical",
			Right:  "0",
			Top:    "top",
			Type:   "scroll",
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name:      "Activation Probability",
			SplitLine: &opts.SplitLine{Show: true},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name:      yName,
			SplitLine: &opts.SplitLine{Show: true},
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: true}),
	)

	xnames := make([]string, len(probabilities))
	for i, p := range probabilities {
		xnames[i] = fmt.Sprint(p)
	}
	bar.SetXAxis(xnames)

	for i, s := range stats {
		bar.AddSeries(names[i], series(s, probabilities, column))
	}

	return bar.Render(w)
}

func series(stat *tools.SimulationStats, values []float64, column func(benchmarking.Stats) float64) []opts.BarData {
	results := make([]opts.BarData, len(values))
	null := opts.BarData{Value: nil}
	for i, v := range values {
		x, has := stat.Stats[v]
		if !has {
			results[i] = null
			continue
		}

		results[i] = opts.BarData{
			Value: column(x),
		}
	}
	return results
}

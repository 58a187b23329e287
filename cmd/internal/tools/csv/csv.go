package csv

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nathanhack/bomp/benchmarking"
	"github.com/nathanhack/bomp/cmd/internal/tools"
	"github.com/spf13/cobra"
)

var OutputFile string
var CoefficientError bool
var ResidualNorm bool

var CSVRun = func(cmd *cobra.Command, args []string) {
	if len(args) < 1 {
		fmt.Println("requires at least one RESULTS_JSON")
		return
	}

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
	w := csv.NewWriter(f)
	defer w.Flush()

	err = Write(w, args, stats, probabilities, Column(CoefficientError, ResidualNorm))
	if err != nil {
		fmt.Println(err)
	}
}

//Column picks the benchmarking value written for each probability,
// the support error unless coefficient or residual is requested.
func Column(coefficient, residual bool) func(benchmarking.Stats) float64 {
	switch {
	case coefficient:
		return func(s benchmarking.Stats) float64 { return s.CoefficientError.Mean }
	case residual:
		return func(s benchmarking.Stats) float64 { return s.ResidualNorm.Mean }
	default:
		return func(s benchmarking.Stats) float64 { return s.SupportError.Mean }
	}
}

//Write writes a header of the probabilities and one record per results file.
func Write(w *csv.Writer, names []string, stats []*tools.SimulationStats, probabilities []float64, column func(benchmarking.Stats) float64) error {
	sort.Float64s(probabilities)

	header := []string{"Results File"}
	for _, p := range probabilities {
		header = append(header, fmt.Sprintf("%v", p))
	}

	err := w.Write(header)
	if err != nil {
		return err
	}

	for i, s := range stats {
		record := make([]string, len(header))
		record[0] = strings.TrimSuffix(names[i], filepath.Ext(names[i]))

		for j, p := range probabilities {
			if v, has := s.Stats[p]; has {
				record[j+1] = fmt.Sprintf("%v", column(v))
			}
		}

		err = w.Write(record)
		if err != nil {
			return err
		}
	}
	return nil
}

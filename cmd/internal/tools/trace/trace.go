package trace

import (
	"context"
	"fmt"

	"github.com/nathanhack/bomp/cmd/internal/tools"
	"github.com/nathanhack/bomp/dictionary"
	"github.com/nathanhack/bomp/pursuit/bomp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var (
	Width   float64
	Height  float64
	Verbose bool
	Params  tools.Hyperparameters
)

var TraceRun = func(cmd *cobra.Command, args []string) {
	if len(args) != 3 {
		fmt.Println("requires DICTIONARY_JSON OBSERVATIONS_CSV OUTPUT_PNG")
		return
	}

	if Verbose {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}

	dict, err := tools.LoadDictionary(args[0])
	if err != nil {
		fmt.Println(err)
		return
	}

	observations, err := tools.LoadMatrix(args[1])
	if err != nil {
		fmt.Println(err)
		return
	}

	ctx, cancel := tools.SignalContext()
	defer cancel()

	residual, support, err := Trace(ctx, dict, observations, Params.Config())
	if err != nil {
		fmt.Println("Unable to trace the recovery: ", err)
		return
	}

	p, err := Plot(residual, support)
	if err != nil {
		fmt.Println(err)
		return
	}

	err = p.Save(vg.Length(Width)*vg.Inch, vg.Length(Height)*vg.Inch, args[2])
	if err != nil {
		fmt.Println("unable to write file: ", err)
	}
}

//Trace runs the recovery and returns, per iteration, the mean residual norm
// and the mean support size over all observations. Iteration 0 is the start.
func Trace(ctx context.Context, dict *dictionary.Dictionary, observations mat.Matrix, cfg bomp.Config) (residual, support plotter.XYs, err error) {
	_, signals := observations.Dims()
	meanNorm := func(m mat.Matrix) float64 {
		total := 0.0
		for n := 0; n < signals; n++ {
			total += floats.Norm(mat.Col(nil, n, m), 2)
		}
		return total / float64(signals)
	}

	residual = plotter.XYs{{X: 0, Y: meanNorm(observations)}}
	support = plotter.XYs{{X: 0, Y: 0}}
	cfg.Monitor = func(iteration int, state *bomp.State) {
		r := meanNorm(state.Residual)
		residual = append(residual, plotter.XY{X: float64(iteration), Y: r})
		support = append(support, plotter.XY{X: float64(iteration), Y: state.MeanCardinality()})
		logrus.Debugf("iteration %v: residual %v support %v", iteration, r, state.MeanCardinality())
	}

	_, err = bomp.Run(ctx, dict.Atoms, observations, cfg)
	if err != nil {
		return nil, nil, err
	}
	return residual, support, nil
}

//Plot draws both curves against the iteration.
func Plot(residual, support plotter.XYs) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Recovery trace"
	p.X.Label.Text = "Iteration"
	p.Y.Label.Text = "Mean value"
	p.Add(plotter.NewGrid())

	residualLine, err := plotter.NewLine(residual)
	if err != nil {
		return nil, err
	}

	supportLine, err := plotter.NewLine(support)
	if err != nil {
		return nil, err
	}
	supportLine.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}

	p.Add(residualLine, supportLine)
	p.Legend.Add("residual norm", residualLine)
	p.Legend.Add("support size", supportLine)
	p.Legend.Top = true
	return p, nil
}

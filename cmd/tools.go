package cmd

import (
	"github.com/nathanhack/bomp/cmd/internal/tools"
	"github.com/nathanhack/bomp/cmd/internal/tools/chart"
	"github.com/nathanhack/bomp/cmd/internal/tools/csv"
	"github.com/nathanhack/bomp/cmd/internal/tools/recovery"
	"github.com/nathanhack/bomp/cmd/internal/tools/simulate"
	"github.com/nathanhack/bomp/cmd/internal/tools/trace"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// toolsCmd represents the tools command
var toolsCmd = &cobra.Command{
	Use:     "tools",
	Aliases: []string{"t"},
	Short:   "Tools for sparse recovery",
	Long:    `Tools for sparse recovery`,
}

// toolsRecoverCmd represents the recover command
var toolsRecoverCmd = &cobra.Command{
	Use:     "recover DICTIONARY_JSON OBSERVATIONS_CSV OUTPUT_CSV",
	Aliases: []string{"rec"},
	Short:   "Recovers the coefficients of every observation",
	Long:    `Recovers the sparse coefficients of every observation (one per CSV column) and writes them as a CSV with one column per observation.`,
	Run:     recovery.RecoverRun,
}

// toolsTraceCmd represents the trace command
var toolsTraceCmd = &cobra.Command{
	Use:   "trace DICTIONARY_JSON OBSERVATIONS_CSV OUTPUT_PNG",
	Short: "Plots the residual and support size per iteration",
	Long:  `Plots the mean residual norm and the mean support size over all observations for each iteration.`,
	Run:   trace.TraceRun,
}

// toolsSimulateCmd represents the simulate command
var toolsSimulateCmd = &cobra.Command{
	Use:     "simulate DICTIONARY_JSON RESULT_JSON",
	Aliases: []string{"sim", "s"},
	Short:   "A Bernoulli-Gaussian recovery simulator",
	Long:    `Recovers random Bernoulli-Gaussian signals observed through the dictionary with additive noise for each activation probability.`,
	Run:     simulate.SimulateRun,
}

// toolsResultsCmd represents the results command
var toolsResultsCmd = &cobra.Command{
	Use:     "results",
	Aliases: []string{"r"},
	Short:   "A tool to organize results for graphing and comparison",
	Long:    `A tool to organize results for graphing and comparison`,
}

// toolsCSVCmd represents the csv command
var toolsCSVCmd = &cobra.Command{
	Use:     "csv RESULTS_JSON [RESULTS_JSON] ...",
	Aliases: []string{"c"},
	Short:   "Export to a CSV file",
	Long:    `Export to a CSV file`,
	Run:     csv.CSVRun,
}

// toolsChartCmd represents the chart command
var toolsChartCmd = &cobra.Command{
	Use:   "chart RESULTS_JSON [RESULTS_JSON] ...",
	Short: "Export to an HTML chart",
	Long:  `Export to an HTML bar chart`,
	Run:   chart.ChartRun,
}

func hyperparameterFlags(flags *pflag.FlagSet, params *tools.Hyperparameters) {
	flags.Float64Var(&params.NoiseStd, "noise", 0.01, "σn: the standard deviation of the observation noise (>=0)")
	flags.Float64Var(&params.ActivationStd, "activation", 1, "σx: the standard deviation of the active coefficients (>0)")
	flags.Float64VarP(&params.BernoulliWeight, "weight", "b", 0, "b: the log odds of an atom being active; note 0 means derive it from the probability")
	flags.UintVarP(&params.Iterations, "iters", "i", 20, "the number of iterations")
	flags.UintVarP(&params.MinSupport, "min", "m", 0, "the minimum number of active atoms before the threshold applies")
	flags.UintVar(&params.Threads, "threads", 0, "number of threads to use (0 means to use the # of threads equal to the # of CPUs)")
}

func init() {
	rootCmd.AddCommand(toolsCmd)
	toolsCmd.AddCommand(toolsRecoverCmd)
	toolsCmd.AddCommand(toolsTraceCmd)
	toolsCmd.AddCommand(toolsSimulateCmd)
	toolsCmd.AddCommand(toolsResultsCmd)

	hyperparameterFlags(toolsRecoverCmd.Flags(), &recovery.Params)
	toolsRecoverCmd.Flags().Float64VarP(&recovery.Params.Probability, "probability", "p", 0.1, "the probability of an atom being active (0,1)")
	toolsRecoverCmd.Flags().BoolVarP(&recovery.Normalize, "normalize", "n", false, "normalize the atoms when the dictionary is not unit norm")
	toolsRecoverCmd.Flags().StringVarP(&recovery.Reconstruction, "reconstruction", "r", "", "also write the dictionary*coefficients reconstruction to this CSV")
	toolsRecoverCmd.Flags().BoolVarP(&recovery.Verbose, "verbose", "v", false, "enable verbose info")

	hyperparameterFlags(toolsTraceCmd.Flags(), &trace.Params)
	toolsTraceCmd.Flags().Float64VarP(&trace.Params.Probability, "probability", "p", 0.1, "the probability of an atom being active (0,1)")
	toolsTraceCmd.Flags().Float64Var(&trace.Width, "width", 6, "width of the image in inches")
	toolsTraceCmd.Flags().Float64Var(&trace.Height, "height", 4, "height of the image in inches")
	toolsTraceCmd.Flags().BoolVarP(&trace.Verbose, "verbose", "v", false, "enable verbose info")

	hyperparameterFlags(toolsSimulateCmd.Flags(), &simulate.Params)
	toolsSimulateCmd.Flags().UintVarP(&simulate.Trials, "trials", "t", 10_000, "the number of trials per step")
	toolsSimulateCmd.Flags().Float64SliceVarP(&simulate.Probability, "probability", "p", []float64{0.01, 0.02, 0.05, 0.10, 0.15, 0.20, 0.25, 0.30}, "activation probabilities to test (0, 1)")
	toolsSimulateCmd.Flags().BoolVarP(&simulate.Exact, "exact", "e", false, "use exactly round(p*atoms) active atoms per signal instead of Bernoulli draws")
	toolsSimulateCmd.Flags().BoolVarP(&simulate.Verbose, "verbose", "v", false, "enable verbose info")

	toolsResultsCmd.AddCommand(toolsCSVCmd)
	toolsCSVCmd.Flags().StringVarP(&csv.OutputFile, "output", "o", "results.csv", "filename of the combined csv")
	toolsCSVCmd.Flags().BoolVarP(&csv.CoefficientError, "coefficient", "c", false, "outputs the CoefficientError instead of SupportError or ResidualNorm")
	toolsCSVCmd.Flags().BoolVarP(&csv.ResidualNorm, "residual", "r", false, "outputs the ResidualNorm instead of SupportError or CoefficientError")

	toolsResultsCmd.AddCommand(toolsChartCmd)
	toolsChartCmd.Flags().StringVarP(&chart.OutputFile, "output", "o", "results.html", "filename of the chart")
	toolsChartCmd.Flags().BoolVarP(&chart.CoefficientError, "coefficient", "c", false, "charts the CoefficientError instead of SupportError or ResidualNorm")
	toolsChartCmd.Flags().BoolVarP(&chart.ResidualNorm, "residual", "r", false, "charts the ResidualNorm instead of SupportError or CoefficientError")
}

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "bomp",
	Short: "Sparse signal recovery with Bayesian Orthogonal Matching Pursuit",
	Long: `bomp recovers sparse coefficient vectors from observations through an
overcomplete dictionary using the Bernoulli-Gaussian model. It can create
dictionaries, recover observations, trace the iterations and benchmark
recovery over a range of activation probabilities.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

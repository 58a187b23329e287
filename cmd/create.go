package cmd

import (
	"github.com/nathanhack/bomp/cmd/internal/create/dct"
	"github.com/nathanhack/bomp/cmd/internal/create/gaussian"

	"github.com/spf13/cobra"
)

// createCmd represents the create command
var createCmd = &cobra.Command{
	Use:     "create",
	Aliases: []string{"c"},
	Short:   "used to create a new dictionary",
	Long:    `create provides the ability to make a new dictionary from the list of built-in dictionaries and save them so they can be used later by the tools.`,
}

// createDictionaryCmd represents the dictionary command
var createDictionaryCmd = &cobra.Command{
	Use:     "dictionary",
	Aliases: []string{"dict", "d"},
	Short:   "creates dictionaries",
	Long:    `Creates dictionaries with unit norm atoms.`,
}

// createGaussianCmd represents the gaussian command
var createGaussianCmd = &cobra.Command{
	Use:     "gaussian OUTPUT_JSON",
	Aliases: []string{"g"},
	Short:   "Creates a random Gaussian dictionary",
	Long:    `Creates a dictionary with i.i.d. N(0,1) entries whose atoms are then normalized.`,
	Args:    cobra.ExactArgs(1),
	Run:     gaussian.GaussianRun,
}

// createDCTCmd represents the dct command
var createDCTCmd = &cobra.Command{
	Use:   "dct OUTPUT_JSON",
	Short: "Creates a (overcomplete) cosine dictionary",
	Long:  `Creates the orthonormal DCT-II basis, or an overcomplete cosine frame when atoms > size.`,
	Args:  cobra.ExactArgs(1),
	Run:   dct.DCTRun,
}

func init() {
	rootCmd.AddCommand(createCmd)
	createCmd.AddCommand(createDictionaryCmd)

	createDictionaryCmd.AddCommand(createGaussianCmd)
	createGaussianCmd.Flags().UintVarP(&gaussian.Rows, "rows", "r", 64, "the length of the signals (rows of the dictionary)")
	createGaussianCmd.Flags().UintVarP(&gaussian.Atoms, "atoms", "a", 256, "the number of atoms (columns of the dictionary)")
	createGaussianCmd.Flags().Int64VarP(&gaussian.Seed, "seed", "s", 0, "the random seed; note 0 means use the current time")
	createGaussianCmd.Flags().UintVarP(&gaussian.Threads, "threads", "t", 0, "the number of threads used for the coherence; note 0 means use the number of cpus")
	createGaussianCmd.Flags().BoolVarP(&gaussian.Verbose, "verbose", "v", false, "enable verbose info")

	createDictionaryCmd.AddCommand(createDCTCmd)
	createDCTCmd.Flags().UintVarP(&dct.Size, "size", "s", 64, "the length of the signals (rows of the dictionary)")
	createDCTCmd.Flags().UintVarP(&dct.Atoms, "atoms", "a", 0, "the number of atoms; note 0 means equal to size")
	createDCTCmd.Flags().UintVarP(&dct.Threads, "threads", "t", 0, "the number of threads used for the coherence; note 0 means use the number of cpus")
	createDCTCmd.Flags().BoolVarP(&dct.Verbose, "verbose", "v", false, "enable verbose info")
}

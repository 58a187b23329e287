package recovery

import (
	"fmt"

	"github.com/nathanhack/bomp/cmd/internal/tools"
	"github.com/nathanhack/bomp/pursuit/bomp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	Normalize      bool
	Reconstruction string
	Verbose        bool
	Params         tools.Hyperparameters
)

var RecoverRun = func(cmd *cobra.Command, args []string) {
	if len(args) != 3 {
		fmt.Println("requires DICTIONARY_JSON OBSERVATIONS_CSV OUTPUT_CSV")
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
	if !dict.IsUnitNorm(1e-9) {
		if Normalize {
			dict.Normalize()
		} else {
			logrus.Warnf("dictionary %v does not have unit norm atoms", args[0])
		}
	}

	observations, err := tools.LoadMatrix(args[1])
	if err != nil {
		fmt.Println(err)
		return
	}

	ctx, cancel := tools.SignalContext()
	defer cancel()

	cfg := Params.Config()
	logrus.Debugf("recovering %v with %v", args[1], Params)
	coefficients, err := bomp.Recover(ctx, dict.Atoms, observations, cfg)
	if err != nil {
		fmt.Println("Unable to recover the observations: ", err)
		return
	}

	err = tools.SaveMatrix(args[2], coefficients)
	if err != nil {
		fmt.Println(err)
		return
	}

	if Reconstruction != "" {
		err = tools.SaveMatrix(Reconstruction, dict.Synthesize(coefficients))
		if err != nil {
			fmt.Println(err)
		}
	}
}

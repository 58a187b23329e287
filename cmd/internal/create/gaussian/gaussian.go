package gaussian

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/nathanhack/bomp/cmd/internal/tools"
	"github.com/nathanhack/bomp/dictionary/gaussian"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	Rows    uint
	Atoms   uint
	Seed    int64
	Threads uint
	Verbose bool
)

var GaussianRun = func(cmd *cobra.Command, args []string) {
	if Verbose {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}

	//we seed the randomizer so we get something different every time
	seed := Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	logrus.Debugf("using seed %v", seed)

	d, err := gaussian.New(int(Rows), int(Atoms), rand.New(rand.NewSource(seed)))
	if err != nil {
		fmt.Println("Unable to create gaussian dictionary: ", err)
		return
	}

	tools.LogCoherence(d, int(Threads), true)

	err = tools.SaveDictionary(args[0], d)
	if err != nil {
		fmt.Println(err)
	}
}

package dct

import (
	"fmt"

	"github.com/nathanhack/bomp/cmd/internal/tools"
	"github.com/nathanhack/bomp/dictionary"
	"github.com/nathanhack/bomp/dictionary/dct"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	Size    uint
	Atoms   uint
	Threads uint
	Verbose bool
)

var DCTRun = func(cmd *cobra.Command, args []string) {
	if Verbose {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}

	var d *dictionary.Dictionary
	var err error
	if Atoms == 0 || Atoms == Size {
		d, err = dct.New(int(Size))
	} else {
		d, err = dct.Overcomplete(int(Size), int(Atoms))
	}
	if err != nil {
		fmt.Println("Unable to create DCT dictionary: ", err)
		return
	}

	tools.LogCoherence(d, int(Threads), true)

	err = tools.SaveDictionary(args[0], d)
	if err != nil {
		fmt.Println(err)
	}
}

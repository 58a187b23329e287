package simulate

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"runtime"
	"sync"

	"github.com/cheggaaa/pb/v3"
	"github.com/nathanhack/bomp/benchmarking"
	"github.com/nathanhack/bomp/cmd/internal/tools"
	"github.com/nathanhack/bomp/dictionary"
	"github.com/nathanhack/bomp/pursuit/bomp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"
)

var (
	Trials      uint
	Probability []float64
	Exact       bool
	Verbose     bool
	Params      tools.Hyperparameters
)

var SimulateRun = func(cmd *cobra.Command, args []string) {
	if len(args) != 2 {
		fmt.Println("requires both DICTIONARY_JSON RESULT_JSON")
		return
	}

	if Verbose {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}

	//first get the dictionary to use
	dict, err := tools.LoadDictionary(args[0])
	if err != nil {
		fmt.Println(err)
		return
	}
	if !dict.IsUnitNorm(1e-9) {
		logrus.Warnf("dictionary %v does not have unit norm atoms", args[0])
	}

	//next we see if the RESULT_JSON exists if so we load it and validate we're running it against the right thing
	data, err := tools.LoadResults(args[1])
	if err != nil {
		fmt.Println(err)
		return
	}

	//if data is nil then we create it
	if data == nil {
		data = &tools.SimulationStats{
			TypeInfo:       typeInfo(),
			DictionaryInfo: tools.Md5Sum(dict),
			Stats:          make(map[float64]benchmarking.Stats),
		}
	}

	//in either case lets validate it
	if data.TypeInfo != typeInfo() {
		fmt.Printf("results loaded do not match the same type expected %v but found %v\n", typeInfo(), data.TypeInfo)
		return
	}
	if data.DictionaryInfo != tools.Md5Sum(dict) {
		fmt.Println("results loaded do not match the dictionary")
		return
	}

	ctx, cancel := tools.SignalContext()
	defer cancel()

	runSimulation(ctx, data, dict, args[1])

	err = tools.SaveResults(args[1], data)
	if err != nil {
		fmt.Println(err)
	}
}

func typeInfo() string {
	t := reflect.TypeOf(bomp.Config{})
	model := "BG"
	if Exact {
		model = "BG-exact"
	}
	return fmt.Sprintf("%v:%v/%v%v", model, t.PkgPath(), t.Name(), Params)
}

//RunBernoulliGaussian benchmarks the dictionary with signals drawn from the
// Bernoulli-Gaussian model with activation probability p. When exact is set
// every signal has exactly round(p*atoms) active atoms instead.
func RunBernoulliGaussian(ctx context.Context,
	dict *dictionary.Dictionary,
	params tools.Hyperparameters,
	p float64, exact bool, trials, threads int,
	previousStats benchmarking.Stats,
	checkpoints benchmarking.Checkpoints,
	showProgress bool) benchmarking.Stats {
	rows, atoms := dict.Dims()
	cfg := params.ConfigFor(p)
	cfg.Threads = 1 // the trials are already run in parallel

	active := int(math.Round(p * float64(atoms)))
	createSignal := func(trial int) *mat.VecDense {
		if exact {
			return benchmarking.RandomAmplitudes(benchmarking.RandomSupportCount(atoms, active), cfg.ActivationStd)
		}
		return benchmarking.RandomBernoulliGaussian(atoms, p, cfg.ActivationStd)
	}

	observe := func(coefficients *mat.VecDense) *mat.VecDense {
		clean := mat.NewVecDense(rows, nil)
		clean.MulVec(dict.Atoms, coefficients)
		logrus.Tracef("observation SNR %0.2fdB", benchmarking.SNR(clean, cfg.NoiseStd))
		return benchmarking.RandomNoise(clean, cfg.NoiseStd)
	}

	recoverSignal := func(observation *mat.VecDense) (*mat.VecDense, error) {
		x, err := bomp.Recover(ctx, dict.Atoms, observation, cfg)
		if err != nil {
			if ctx.Err() == nil {
				logrus.Errorf("recovery failed: %v", err)
			}
			return nil, err
		}
		return mat.NewVecDense(atoms, mat.Col(nil, 0, x)), nil
	}

	return benchmarking.BenchmarkContinueStats(ctx, trials, threads, createSignal, observe, recoverSignal, benchmarking.Metrics(dict.Atoms), checkpoints, previousStats, showProgress)
}

func runSimulation(ctx context.Context, data *tools.SimulationStats, dict *dictionary.Dictionary, outputFilename string) {
	checkpointMux := sync.Mutex{}
	checkpointCount := 0

	numberOfThread := int(Params.Threads)
	if numberOfThread == 0 {
		numberOfThread = runtime.NumCPU()
	}

	trialsPerIter := numberOfThread * 10
	bar := pb.StartNew(int(Trials) * len(Probability))
trialLoops:
	for t := trialsPerIter; t < int(Trials)+trialsPerIter; t += trialsPerIter {
		select {
		case <-ctx.Done():
			break trialLoops
		default:
		}

		for _, p := range Probability {
			checkpoint := func(stats benchmarking.Stats) {
				//we want to save the checkpoint
				checkpointMux.Lock()
				defer checkpointMux.Unlock()

				data.Stats[p] = stats

				if checkpointCount%trialsPerIter == 0 {
					err := tools.SaveResults(outputFilename, data)
					if err != nil {
						fmt.Println(err)
					}
				}
				checkpointCount++
			}
			stats := RunBernoulliGaussian(ctx, dict, Params, p, Exact, min(t, int(Trials)), numberOfThread, data.Stats[p], checkpoint, false)
			checkpointMux.Lock()
			data.Stats[p] = stats
			checkpointMux.Unlock()
			bar.Add(trialsPerIter)
		}
	}
	bar.Finish()
}

package tools

import (
	"context"
	"crypto/md5"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"syscall"

	"github.com/nathanhack/bomp/benchmarking"
	"github.com/nathanhack/bomp/dictionary"
	"github.com/nathanhack/bomp/pursuit/bomp"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
)

type SimulationStats struct {
	TypeInfo       string
	DictionaryInfo string
	Stats          map[float64]benchmarking.Stats
}
type simulationStats struct {
	TypeInfo       string
	DictionaryInfo string
	Stats          map[string]benchmarking.Stats
}

func (s *SimulationStats) MarshalJSON() ([]byte, error) {
	ss := simulationStats{
		TypeInfo:       s.TypeInfo,
		DictionaryInfo: s.DictionaryInfo,
		Stats:          map[string]benchmarking.Stats{},
	}

	for f, stat := range s.Stats {
		ss.Stats[fmt.Sprintf("%v", f)] = stat
	}

	return json.Marshal(ss)
}

func (s *SimulationStats) UnmarshalJSON(bytes []byte) error {
	var ss simulationStats

	err := json.Unmarshal(bytes, &ss)
	if err != nil {
		return err
	}

	s.TypeInfo = ss.TypeInfo
	s.DictionaryInfo = ss.DictionaryInfo
	s.Stats = map[float64]benchmarking.Stats{}

	for fs, stat := range ss.Stats {
		f, err := strconv.ParseFloat(fs, 64)
		if err != nil {
			return err
		}
		s.Stats[f] = stat
	}
	return nil
}

func Md5Sum(d *dictionary.Dictionary) string {
	return fmt.Sprintf("%x", md5.Sum([]byte(d.String())))
}

//SignalContext returns a context canceled on SIGINT or SIGTERM
func SignalContext() (context.Context, context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case sig := <-sigs:
			fmt.Println()
			fmt.Println(sig)
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigs)
	}()
	return ctx, cancel
}

//LogCoherence logs the coherence of d at debug level. The coherence is only
// computed when debug is enabled, it returns whether it was.
func LogCoherence(d *dictionary.Dictionary, threads int, showProgress bool) bool {
	if !logrus.IsLevelEnabled(logrus.DebugLevel) {
		return false
	}
	ctx, cancel := SignalContext()
	defer cancel()
	logrus.Debugf("dictionary coherence %v", d.Coherence(ctx, threads, showProgress))
	return true
}

func LoadDictionary(filepath string) (*dictionary.Dictionary, error) {
	if _, err := os.Stat(filepath); os.IsNotExist(err) {
		return nil, fmt.Errorf("the DICTIONARY_JSON must exist")
	}

	bs, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("error while reading file %v: %v", filepath, err)
	}

	var d dictionary.Dictionary
	err = json.Unmarshal(bs, &d)
	if err != nil {
		return nil, fmt.Errorf("error while reading file %v: %v", filepath, err)
	}

	return &d, nil
}

func SaveDictionary(filepath string, d *dictionary.Dictionary) error {
	bs, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("unable to serialize the dictionary: %v", err)
	}

	err = os.WriteFile(filepath, bs, 0644)
	if err != nil {
		return fmt.Errorf("unable to write file %v: %v", filepath, err)
	}
	return nil
}

func LoadResults(filepath string) (*SimulationStats, error) {
	if _, err := os.Stat(filepath); os.IsNotExist(err) {
		return nil, nil
	}

	bs, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("error while reading file %v: %v", filepath, err)
	}

	var stat SimulationStats
	err = json.Unmarshal(bs, &stat)
	if err != nil {
		return nil, fmt.Errorf("error while unmarshalling file %v: %v", filepath, err)
	}
	return &stat, nil
}

func SaveResults(filepath string, data *SimulationStats) error {
	bs, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("error serializing results: %v", err)
	}

	err = os.WriteFile(filepath, bs, 0644)
	if err != nil {
		return fmt.Errorf("error while saving results to %v: %v", filepath, err)
	}
	return nil
}

//LoadMatrix reads a CSV file where every record is one row of the matrix.
func LoadMatrix(filepath string) (*mat.Dense, error) {
	f, err := os.Open(filepath)
	if err != nil {
		return nil, fmt.Errorf("error while opening file %v: %v", filepath, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("error while reading file %v: %v", filepath, err)
	}
	if len(records) == 0 || len(records[0]) == 0 {
		return nil, fmt.Errorf("file %v contains no values", filepath)
	}

	rows, cols := len(records), len(records[0])
	data := make([]float64, 0, rows*cols)
	for r, record := range records {
		for c, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("file %v row %v column %v: %v", filepath, r+1, c+1, err)
			}
			data = append(data, v)
		}
	}
	return mat.NewDense(rows, cols, data), nil
}

//SaveMatrix writes m as a CSV file, one record per row.
func SaveMatrix(filepath string, m mat.Matrix) error {
	f, err := os.Create(filepath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	rows, cols := m.Dims()
	record := make([]string, cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			record[c] = strconv.FormatFloat(m.At(r, c), 'g', -1, 64)
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

//Hyperparameters are the algorithm settings shared by the commands.
type Hyperparameters struct {
	NoiseStd        float64
	ActivationStd   float64
	Probability     float64 // activation probability, used when BernoulliWeight is 0
	BernoulliWeight float64
	Iterations      uint
	MinSupport      uint
	Threads         uint
}

//Config returns the bomp.Config for the activation probability of the hyperparameters.
func (h Hyperparameters) Config() bomp.Config {
	return h.ConfigFor(h.Probability)
}

//ConfigFor returns the bomp.Config for activation probability p.
// A zero BernoulliWeight means the weight is derived from p.
func (h Hyperparameters) ConfigFor(p float64) bomp.Config {
	weight := h.BernoulliWeight
	if weight == 0 {
		weight = bomp.LogOdds(p)
	}
	return bomp.Config{
		NoiseStd:        h.NoiseStd,
		ActivationStd:   h.ActivationStd,
		BernoulliWeight: weight,
		MinSupport:      int(h.MinSupport),
		Iterations:      int(h.Iterations),
		Threads:         int(h.Threads),
	}
}

func (h Hyperparameters) String() string {
	return fmt.Sprintf("{σn:%v σx:%v b:%v iter:%v min:%v}", h.NoiseStd, h.ActivationStd, h.BernoulliWeight, h.Iterations, h.MinSupport)
}

//LoadAllResults loads every results file and collects the probabilities found in any of them.
func LoadAllResults(filepaths []string) ([]*SimulationStats, []float64, error) {
	stats := make([]*SimulationStats, len(filepaths))
	seen := make(map[float64]bool)
	probabilities := make([]float64, 0)
	for i, resultFile := range filepaths {
		s, err := LoadResults(resultFile)
		if err != nil {
			return nil, nil, err
		}
		if s == nil {
			return nil, nil, fmt.Errorf("results file %v does not exist", resultFile)
		}
		stats[i] = s
		for p := range s.Stats {
			if !seen[p] {
				seen[p] = true
				probabilities = append(probabilities, p)
			}
		}
	}
	sort.Float64s(probabilities)
	return stats, probabilities, nil
}

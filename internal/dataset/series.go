// Package dataset loads and prepares input/output time series for Volterra models.
//
// A Series holds a sampled system input u[t] and its measured output y[t]. Window
// turns it into model rows: row t holds the memory taps u[t], u[t-1], ...,
// u[t-M+1] and its target is y[t].
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
)

// ErrTooShort is returned when a series holds fewer samples than the model memory.
var ErrTooShort = errors.New("series shorter than memory")

// Series is a sampled input/output pair of equal length.
type Series struct {
	Input  []float64
	Output []float64
}

// Len returns the number of samples.
func (s *Series) Len() int {
	return len(s.Input)
}

// LoadCSV reads a series from a CSV file with a header row.
//
// CSV Format:
//
//	input,output
//	0.12,0.034
//	-0.40,-0.210
//
// inputCol and outputCol name the columns to read. maxRows limits the number of
// samples (0 = load all).
func LoadCSV(path, inputCol, outputCol string, maxRows int) (*Series, error) {
	//nolint:gosec // G304: path comes from the run configuration
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("CSV file is empty or missing header")
	}

	header := records[0]
	in := slices.Index(header, inputCol)
	if in < 0 {
		return nil, fmt.Errorf("input column %q not found in header %v", inputCol, header)
	}
	out := slices.Index(header, outputCol)
	if out < 0 {
		return nil, fmt.Errorf("output column %q not found in header %v", outputCol, header)
	}

	records = records[1:]
	if maxRows > 0 && len(records) > maxRows {
		records = records[:maxRows]
	}

	s := &Series{
		Input:  make([]float64, len(records)),
		Output: make([]float64, len(records)),
	}
	for i, record := range records {
		if s.Input[i], err = strconv.ParseFloat(record[in], 64); err != nil {
			return nil, fmt.Errorf("invalid %s at row %d: %w", inputCol, i+1, err)
		}
		if s.Output[i], err = strconv.ParseFloat(record[out], 64); err != nil {
			return nil, fmt.Errorf("invalid %s at row %d: %w", outputCol, i+1, err)
		}
	}
	return s, nil
}

// WriteCSV writes s with an "input,output" header.
func WriteCSV(path string, s *Series) error {
	//nolint:gosec // G304: path comes from the command line
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create dataset: %w", err)
	}

	w := csv.NewWriter(file)
	_ = w.Write([]string{"input", "output"})
	for i := range s.Input {
		_ = w.Write([]string{
			strconv.FormatFloat(s.Input[i], 'g', -1, 64),
			strconv.FormatFloat(s.Output[i], 'g', -1, 64),
		})
	}
	w.Flush()

	if err := w.Error(); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	return file.Close()
}

// Window builds model rows of memory taps, most recent first, and their targets.
// The first memory-1 samples only serve as history.
func Window(s *Series, memory int) ([][]float64, []float64, error) {
	if memory <= 0 {
		return nil, nil, fmt.Errorf("memory must be > 0 (got %d)", memory)
	}
	if len(s.Input) != len(s.Output) {
		return nil, nil, fmt.Errorf("input has %d samples, output has %d", len(s.Input), len(s.Output))
	}
	if s.Len() < memory {
		return nil, nil, fmt.Errorf("%w: %d samples, memory %d", ErrTooShort, s.Len(), memory)
	}

	n := s.Len() - memory + 1
	x := make([][]float64, n)
	y := make([]float64, n)
	for i := range n {
		t := i + memory - 1
		row := make([]float64, memory)
		for k := range memory {
			row[k] = s.Input[t-k]
		}
		x[i] = row
		y[i] = s.Output[t]
	}
	return x, y, nil
}

// Split keeps the order of the rows and puts the last fraction of them in the
// validation set. fraction must be in [0, 1).
func Split(x [][]float64, y []float64, fraction float64) (trainX [][]float64, trainY []float64, valX [][]float64, valY []float64, err error) {
	if fraction < 0 || fraction >= 1 {
		return nil, nil, nil, nil, fmt.Errorf("validation fraction must be in [0, 1) (got %g)", fraction)
	}
	if len(x) != len(y) {
		return nil, nil, nil, nil, fmt.Errorf("x has %d rows, y has %d", len(x), len(y))
	}
	cut := len(x) - int(float64(len(x))*fraction)
	return x[:cut], y[:cut], x[cut:], y[cut:], nil
}

// Package summary writes TensorBoard event files.
//
// Each Writer owns one events file under its directory, named
// events.out.tfevents.<unix>.<hostname>.<id>. Records use TFRecord framing and carry
// serialized Event messages holding scalar and histogram summaries, so the
// directories can be opened directly with TensorBoard.
package summary

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrWriterClosed is returned by writes after Close.
var ErrWriterClosed = errors.New("summary writer is closed")

// Writer appends summaries to an events file.
//
// Writer is safe for concurrent use.
type Writer struct {
	mu     sync.Mutex
	file   *os.File
	buf    *bufio.Writer
	now    func() time.Time
	closed bool
}

// NewWriter creates dir if needed and opens a new events file in it.
func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create summary dir: %w", err)
	}

	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "localhost"
	}
	name := fmt.Sprintf("events.out.tfevents.%d.%s.%s",
		time.Now().Unix(), host, strings.SplitN(uuid.NewString(), "-", 2)[0])

	//nolint:gosec // G304: directory comes from the run configuration
	file, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("failed to create events file: %w", err)
	}

	w := &Writer{
		file: file,
		buf:  bufio.NewWriter(file),
		now:  time.Now,
	}
	if err := w.write(Event{FileVersion: fileVersion}); err != nil {
		_ = file.Close()
		return nil, err
	}
	return w, nil
}

// Path returns the events file path.
func (w *Writer) Path() string {
	return w.file.Name()
}

// AddScalar records a scalar value under tag at step.
func (w *Writer) AddScalar(tag string, step int64, value float64) error {
	return w.Add(step, Value{Tag: tag, Scalar: value})
}

// AddHistogram records a histogram of values under tag at step.
func (w *Writer) AddHistogram(tag string, step int64, values []float64) error {
	return w.Add(step, Value{Tag: tag, Histogram: NewHistogram(values)})
}

// Add records several values as one summary event at step.
func (w *Writer) Add(step int64, values ...Value) error {
	if len(values) == 0 {
		return nil
	}
	return w.write(Event{Step: step, Values: values})
}

func (w *Writer) write(e Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWriterClosed
	}
	e.WallTime = float64(w.now().UnixNano()) / 1e9
	if err := writeRecord(w.buf, encodeEvent(e)); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	return nil
}

// Flush writes buffered events to disk.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWriterClosed
	}
	return w.buf.Flush()
}

// Close flushes and closes the events file. Closing twice is a no-op.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	flushErr := w.buf.Flush()
	closeErr := w.file.Close()
	return errors.Join(flushErr, closeErr)
}

// ReadEvents decodes every event in an events file.
func ReadEvents(path string) ([]Event, error) {
	//nolint:gosec // G304: path is supplied by the caller
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := bufio.NewReader(file)
	var events []Event
	for {
		data, err := readRecord(r)
		if errors.Is(err, io.EOF) {
			return events, nil
		}
		if err != nil {
			return events, err
		}
		e, err := decodeEvent(data)
		if err != nil {
			return events, err
		}
		events = append(events, e)
	}
}

// EventFiles lists the events files in dir in name order.
func EventFiles(dir string) ([]string, error) {
	return filepath.Glob(filepath.Join(dir, "events.out.tfevents.*"))
}

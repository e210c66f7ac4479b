package summary

import (
	"bytes"
	"math"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeRecord(&buf, []byte("hello")))
	require.NoError(t, writeRecord(&buf, nil))

	first, err := readRecord(&buf)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), first)

	second, err := readRecord(&buf)
	require.NoError(t, err)
	assert.Empty(t, second)
}

func TestRecord_Corrupt(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeRecord(&buf, []byte("payload")))
	raw := buf.Bytes()
	raw[14] ^= 0x01 // inside the payload

	_, err := readRecord(bytes.NewReader(raw))
	assert.ErrorIs(t, err, ErrCorruptRecord)
}

func TestMaskedCRC_Deterministic(t *testing.T) {
	a := maskedCRC([]byte("abc"))
	b := maskedCRC([]byte("abc"))
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, maskedCRC([]byte("abd")))
}

func TestWriter_ScalarsAndHistograms(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir)
	require.NoError(t, err)

	require.NoError(t, w.AddScalar("loss", 1, 0.5))
	require.NoError(t, w.Add(2,
		Value{Tag: "loss", Scalar: 0.25},
		Value{Tag: "volterra.h1/grad/hist", Histogram: NewHistogram([]float64{-1, 0, 0, 2})},
	))
	require.NoError(t, w.Close())
	require.NoError(t, w.Close(), "second close is a no-op")
	assert.ErrorIs(t, w.AddScalar("loss", 3, 1), ErrWriterClosed)

	files, err := EventFiles(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, w.Path(), files[0])

	events, err := ReadEvents(files[0])
	require.NoError(t, err)
	require.Len(t, events, 3)

	assert.Equal(t, fileVersion, events[0].FileVersion)

	assert.Equal(t, int64(1), events[1].Step)
	require.Len(t, events[1].Values, 1)
	assert.Equal(t, "loss", events[1].Values[0].Tag)
	assert.InDelta(t, 0.5, events[1].Values[0].Scalar, 1e-7)

	assert.Equal(t, int64(2), events[2].Step)
	require.Len(t, events[2].Values, 2)
	h := events[2].Values[1].Histogram
	require.NotNil(t, h)
	assert.Equal(t, 4.0, h.Num)
	assert.Equal(t, -1.0, h.Min)
	assert.Equal(t, 2.0, h.Max)
	assert.Equal(t, 1.0, h.Sum)
	assert.Equal(t, 5.0, h.SumSquares)
	assert.Equal(t, len(h.BucketLimits), len(h.Buckets))
	assert.Greater(t, events[2].WallTime, 0.0)
}

func TestNewHistogram(t *testing.T) {
	h := NewHistogram([]float64{0.5, 0.5, -3, math.NaN(), math.Inf(1)})

	assert.Equal(t, 3.0, h.Num, "non-finite values are dropped")
	require.Len(t, h.Buckets, 2)
	assert.Equal(t, []float64{1, 2}, h.Buckets)
	// Each limit is the smallest standard limit above the bucket's values.
	assert.Greater(t, h.BucketLimits[0], -3.0)
	assert.LessOrEqual(t, h.BucketLimits[0]*1.1, -3.0+1e-9)
	assert.Greater(t, h.BucketLimits[1], 0.5)

	empty := NewHistogram(nil)
	assert.Equal(t, 0.0, empty.Num)
	assert.Empty(t, empty.Buckets)
}

func TestZeroFraction(t *testing.T) {
	assert.Equal(t, 0.0, ZeroFraction(nil))
	assert.Equal(t, 0.5, ZeroFraction([]float64{0, 1, 0, 2}))
	assert.Equal(t, 1.0, ZeroFraction([]float64{0}))
}

func TestReadEvents_Missing(t *testing.T) {
	_, err := ReadEvents("does-not-exist")
	assert.True(t, os.IsNotExist(err))
}

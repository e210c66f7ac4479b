package summary

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers from tensorflow/core/util/event.proto and
// tensorflow/core/framework/summary.proto.
const (
	eventWallTime    protowire.Number = 1
	eventStep        protowire.Number = 2
	eventFileVersion protowire.Number = 3
	eventSummary     protowire.Number = 5

	summaryValue protowire.Number = 1

	valueTag         protowire.Number = 1
	valueSimpleValue protowire.Number = 2
	valueHisto       protowire.Number = 5

	histoMin         protowire.Number = 1
	histoMax         protowire.Number = 2
	histoNum         protowire.Number = 3
	histoSum         protowire.Number = 4
	histoSumSquares  protowire.Number = 5
	histoBucketLimit protowire.Number = 6
	histoBucket      protowire.Number = 7
)

// fileVersion is the first event of every events file.
const fileVersion = "brain.Event:2"

// Value is one tagged entry of a summary: a scalar, or a histogram when
// Histogram is non-nil.
type Value struct {
	Tag       string
	Scalar    float64
	Histogram *Histogram
}

// Event is a decoded event record.
type Event struct {
	WallTime    float64
	Step        int64
	FileVersion string
	Values      []Value
}

// encodeEvent serializes an Event message.
func encodeEvent(e Event) []byte {
	var b []byte
	b = protowire.AppendTag(b, eventWallTime, protowire.Fixed64Type)
	b = protowire.AppendFixed64(b, math.Float64bits(e.WallTime))
	if e.Step != 0 {
		b = protowire.AppendTag(b, eventStep, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(e.Step))
	}
	if e.FileVersion != "" {
		b = protowire.AppendTag(b, eventFileVersion, protowire.BytesType)
		b = protowire.AppendString(b, e.FileVersion)
		return b
	}

	var s []byte
	for _, v := range e.Values {
		s = protowire.AppendTag(s, summaryValue, protowire.BytesType)
		s = protowire.AppendBytes(s, encodeValue(v))
	}
	b = protowire.AppendTag(b, eventSummary, protowire.BytesType)
	return protowire.AppendBytes(b, s)
}

func encodeValue(v Value) []byte {
	var b []byte
	b = protowire.AppendTag(b, valueTag, protowire.BytesType)
	b = protowire.AppendString(b, v.Tag)
	if v.Histogram != nil {
		b = protowire.AppendTag(b, valueHisto, protowire.BytesType)
		return protowire.AppendBytes(b, encodeHistogram(v.Histogram))
	}
	b = protowire.AppendTag(b, valueSimpleValue, protowire.Fixed32Type)
	return protowire.AppendFixed32(b, math.Float32bits(float32(v.Scalar)))
}

func encodeHistogram(h *Histogram) []byte {
	var b []byte
	for _, f := range []struct {
		num protowire.Number
		v   float64
	}{
		{histoMin, h.Min},
		{histoMax, h.Max},
		{histoNum, h.Num},
		{histoSum, h.Sum},
		{histoSumSquares, h.SumSquares},
	} {
		b = protowire.AppendTag(b, f.num, protowire.Fixed64Type)
		b = protowire.AppendFixed64(b, math.Float64bits(f.v))
	}
	b = appendPackedDoubles(b, histoBucketLimit, h.BucketLimits)
	return appendPackedDoubles(b, histoBucket, h.Buckets)
}

func appendPackedDoubles(b []byte, num protowire.Number, vs []float64) []byte {
	if len(vs) == 0 {
		return b
	}
	packed := make([]byte, 0, 8*len(vs))
	for _, v := range vs {
		packed = protowire.AppendFixed64(packed, math.Float64bits(v))
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, packed)
}

// decodeEvent parses the subset of Event written by this package.
func decodeEvent(b []byte) (Event, error) {
	var e Event
	err := walkFields(b, func(num protowire.Number, typ protowire.Type, field []byte) error {
		switch {
		case num == eventWallTime && typ == protowire.Fixed64Type:
			v, _ := protowire.ConsumeFixed64(field)
			e.WallTime = math.Float64frombits(v)
		case num == eventStep && typ == protowire.VarintType:
			v, _ := protowire.ConsumeVarint(field)
			e.Step = int64(v)
		case num == eventFileVersion && typ == protowire.BytesType:
			v, _ := protowire.ConsumeBytes(field)
			e.FileVersion = string(v)
		case num == eventSummary && typ == protowire.BytesType:
			s, _ := protowire.ConsumeBytes(field)
			return walkFields(s, func(num protowire.Number, typ protowire.Type, field []byte) error {
				if num != summaryValue || typ != protowire.BytesType {
					return nil
				}
				raw, _ := protowire.ConsumeBytes(field)
				v, err := decodeValue(raw)
				if err != nil {
					return err
				}
				e.Values = append(e.Values, v)
				return nil
			})
		}
		return nil
	})
	return e, err
}

func decodeValue(b []byte) (Value, error) {
	var v Value
	err := walkFields(b, func(num protowire.Number, typ protowire.Type, field []byte) error {
		switch {
		case num == valueTag && typ == protowire.BytesType:
			s, _ := protowire.ConsumeBytes(field)
			v.Tag = string(s)
		case num == valueSimpleValue && typ == protowire.Fixed32Type:
			f, _ := protowire.ConsumeFixed32(field)
			v.Scalar = float64(math.Float32frombits(f))
		case num == valueHisto && typ == protowire.BytesType:
			raw, _ := protowire.ConsumeBytes(field)
			h, err := decodeHistogram(raw)
			if err != nil {
				return err
			}
			v.Histogram = h
		}
		return nil
	})
	return v, err
}

func decodeHistogram(b []byte) (*Histogram, error) {
	h := &Histogram{}
	err := walkFields(b, func(num protowire.Number, typ protowire.Type, field []byte) error {
		if typ == protowire.Fixed64Type {
			raw, _ := protowire.ConsumeFixed64(field)
			f := math.Float64frombits(raw)
			switch num {
			case histoMin:
				h.Min = f
			case histoMax:
				h.Max = f
			case histoNum:
				h.Num = f
			case histoSum:
				h.Sum = f
			case histoSumSquares:
				h.SumSquares = f
			}
			return nil
		}
		if typ != protowire.BytesType {
			return nil
		}
		packed, _ := protowire.ConsumeBytes(field)
		vs := make([]float64, 0, len(packed)/8)
		for len(packed) >= 8 {
			raw, n := protowire.ConsumeFixed64(packed)
			if n < 0 {
				return protowire.ParseError(n)
			}
			vs = append(vs, math.Float64frombits(raw))
			packed = packed[n:]
		}
		switch num {
		case histoBucketLimit:
			h.BucketLimits = vs
		case histoBucket:
			h.Buckets = vs
		}
		return nil
	})
	return h, err
}

// walkFields calls fn for each field of a message with the field's value bytes.
func walkFields(b []byte, fn func(num protowire.Number, typ protowire.Type, field []byte) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: %w", ErrCorruptRecord, protowire.ParseError(n))
		}
		b = b[n:]
		m := protowire.ConsumeFieldValue(num, typ, b)
		if m < 0 {
			return fmt.Errorf("%w: %w", ErrCorruptRecord, protowire.ParseError(m))
		}
		if err := fn(num, typ, b[:m]); err != nil {
			return err
		}
		b = b[m:]
	}
	return nil
}

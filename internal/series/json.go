package series

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

// Number is a float64 that survives JSON: NaN encodes as null and the
// infinities as the strings "Infinity" / "-Infinity".
type Number float64

func (n Number) MarshalJSON() ([]byte, error) {
	return appendNumber(nil, float64(n)), nil
}

func (n *Number) UnmarshalJSON(b []byte) error {
	v, err := parseNumber(b)
	if err != nil {
		return err
	}
	*n = Number(v)
	return nil
}

// Numbers is a []float64 with the same encoding rules as Number.
type Numbers []float64

func (ns Numbers) MarshalJSON() ([]byte, error) {
	if ns == nil {
		return []byte("[]"), nil
	}
	buf := make([]byte, 0, len(ns)*8+2)
	buf = append(buf, '[')
	for i, v := range ns {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = appendNumber(buf, v)
	}
	return append(buf, ']'), nil
}

func (ns *Numbers) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make([]float64, len(raw))
	for i, r := range raw {
		v, err := parseNumber(r)
		if err != nil {
			return err
		}
		out[i] = v
	}
	*ns = out
	return nil
}

func appendNumber(buf []byte, v float64) []byte {
	switch {
	case math.IsNaN(v):
		return append(buf, "null"...)
	case math.IsInf(v, 1):
		return append(buf, `"Infinity"`...)
	case math.IsInf(v, -1):
		return append(buf, `"-Infinity"`...)
	}
	return strconv.AppendFloat(buf, v, 'g', -1, 64)
}

func parseNumber(b []byte) (float64, error) {
	b = bytes.TrimSpace(b)
	switch string(b) {
	case "null":
		return math.NaN(), nil
	case `"Infinity"`:
		return math.Inf(1), nil
	case `"-Infinity"`:
		return math.Inf(-1), nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return 0, err
	}
	return f, nil
}

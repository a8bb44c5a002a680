package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Number is a measurement that may be missing from an API payload.
// Decoding never fails: null, absent, non-numeric strings, objects and
// arrays all decode to an invalid Number.
type Number struct {
	Value float64
	Valid bool
}

func Num(v float64) Number {
	return Number{Value: v, Valid: true}
}

func (n *Number) UnmarshalJSON(b []byte) error {
	*n = Number{}

	s := bytes.TrimSpace(b)
	if len(s) == 0 || bytes.Equal(s, []byte("null")) {
		return nil
	}

	if s[0] == '"' {
		var str string
		if err := json.Unmarshal(s, &str); err != nil {
			return nil
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		*n = Num(f)
		return nil
	}

	var f float64
	if err := json.Unmarshal(s, &f); err != nil {
		return nil
	}
	*n = Num(f)
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// Round returns the value rounded half away from zero.
func (n Number) Round() (int, bool) {
	if !n.Valid {
		return 0, false
	}
	return int(math.Round(n.Value)), true
}

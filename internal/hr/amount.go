package hr

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Amount is a number that older data may hold as a numeric string. Anything
// that is not a finite number decodes as 0. It always encodes as a number.
type Amount float64

func (a *Amount) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case float64:
		*a = finite(x)
	case string:
		*a = ParseAmount(x)
	default:
		*a = 0
	}
	return nil
}

// ParseAmount reads s as a decimal number, returning 0 when it is not one.
func ParseAmount(s string) Amount {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return finite(f)
}

func finite(f float64) Amount {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return Amount(f)
}

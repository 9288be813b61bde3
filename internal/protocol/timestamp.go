package protocol

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Timestamp is a client supplied time value kept as raw JSON. Clients may
// send a number or any string; either is relayed byte for byte.
type Timestamp json.RawMessage

// MarshalJSON returns the original bytes.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if len(t) == 0 {
		return []byte("null"), nil
	}
	return t, nil
}

// UnmarshalJSON keeps a copy of the raw value. null leaves t empty.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*t = nil
		return nil
	}
	*t = append(Timestamp(nil), data...)
	return nil
}

// IsZero reports whether no time was supplied.
func (t Timestamp) IsZero() bool {
	return len(bytes.TrimSpace(t)) == 0
}

// String formats the value the way a browser client stringifies it: string
// content without quotes, numbers in their shortest form.
func (t Timestamp) String() string {
	raw := bytes.TrimSpace(t)
	if len(raw) == 0 {
		return ""
	}
	switch c := raw[0]; {
	case c == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	case c == '-' || (c >= '0' && c <= '9'):
		return formatNumber(string(raw))
	}
	return string(raw)
}

func formatNumber(literal string) string {
	f, err := strconv.ParseFloat(literal, 64)
	if err != nil {
		return literal
	}
	if f == 0 {
		return "0"
	}
	if abs := math.Abs(f); abs >= 1e-6 && abs < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	// Exponent form without zero padding: 1e+21, 1.5e-7.
	mantissa, exp, _ := strings.Cut(strconv.FormatFloat(f, 'e', -1, 64), "e")
	return mantissa + "e" + exp[:1] + strings.TrimLeft(exp[1:], "0")
}

// NumberTime returns a numeric Timestamp, as browsers send Date.now().
func NumberTime(ms int64) Timestamp {
	return Timestamp(strconv.FormatInt(ms, 10))
}

// StringTime returns a string Timestamp such as "10:30 AM".
func StringTime(s string) Timestamp {
	raw, _ := json.Marshal(s)
	return Timestamp(raw)
}

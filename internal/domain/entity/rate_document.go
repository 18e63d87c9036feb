package entity

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/damon-houk/ratepivot/internal/apperrors"
)

// RateDocument is the date-keyed rate payload produced by exchangeratesapi-style history endpoints.
// Only Rates takes part in the pivot; the other fields are accepted and ignored.
type RateDocument struct {
	Base    string     `json:"base"`
	Rates   RateSeries `json:"rates"`
	StartAt string     `json:"start_at,omitempty"`
	EndAt   string     `json:"end_at,omitempty"`
}

// DatedRates holds the rates published for one date
type DatedRates struct {
	Date  string
	Rates RateMap
}

// RateSeries is the "rates" object decoded in document order.
// Go maps lose key order, and the first entry decides the currency set.
type RateSeries []DatedRates

// UnmarshalJSON decodes a date -> rate map object preserving key order.
// A repeated date keeps its first position and its last value.
func (s *RateSeries) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*s = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("%w: rates must be an object, got %v", apperrors.ErrMalformedInput, tok)
	}

	var out RateSeries
	index := make(map[string]int)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		date := keyTok.(string)

		var m RateMap
		if err := dec.Decode(&m); err != nil {
			return fmt.Errorf("rates for %s: %w", date, err)
		}

		if i, ok := index[date]; ok {
			out[i].Rates = m
			continue
		}
		index[date] = len(out)
		out = append(out, DatedRates{Date: date, Rates: m})
	}

	// closing brace
	if _, err := dec.Token(); err != nil {
		return err
	}

	*s = out
	return nil
}

// MarshalJSON encodes the series back into a date-keyed object
func (s RateSeries) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, day := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(day.Date)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(day.Rates)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// RateMap maps currency codes to "currency per unit of base" rates, remembering insertion order
type RateMap struct {
	order  []string
	values map[string]float64
}

// Set records a rate, appending the currency to the order the first time it is seen
func (m *RateMap) Set(currency string, rate float64) {
	if m.values == nil {
		m.values = make(map[string]float64)
	}
	if _, ok := m.values[currency]; !ok {
		m.order = append(m.order, currency)
	}
	m.values[currency] = rate
}

// Rate returns the rate for a currency and whether it was present
func (m RateMap) Rate(currency string) (float64, bool) {
	r, ok := m.values[currency]
	return r, ok
}

// Currencies returns the currency codes in document order
func (m RateMap) Currencies() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// Len returns the number of currencies
func (m RateMap) Len() int {
	return len(m.order)
}

// UnmarshalJSON decodes a currency -> rate object preserving key order
func (m *RateMap) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("%w: rate map must be an object, got %v", apperrors.ErrMalformedInput, tok)
	}

	var out RateMap
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		currency := keyTok.(string)

		var rate *float64
		if err := dec.Decode(&rate); err != nil {
			return fmt.Errorf("%w: rate for %s is not a number: %v", apperrors.ErrMalformedInput, currency, err)
		}
		if rate == nil {
			return fmt.Errorf("%w: rate for %s is null", apperrors.ErrMalformedInput, currency)
		}
		out.Set(currency, *rate)
	}

	if _, err := dec.Token(); err != nil {
		return err
	}

	*m = out
	return nil
}

// MarshalJSON encodes the map in insertion order
func (m RateMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, currency := range m.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(currency)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(m.values[currency])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

package entity

import (
	"encoding/json"
	"testing"

	"github.com/damon-houk/ratepivot/internal/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateDocument_UnmarshalKeepsOrder(t *testing.T) {
	raw := `{
		"base": "USD",
		"rates": {
			"2019-01-03": {"ZAR": 14.1, "EUR": 0.9, "BRL": 3.8},
			"2019-01-01": {"EUR": 0.8, "ZAR": 14.0, "BRL": 3.7}
		},
		"start_at": "2019-01-01",
		"end_at": "2019-01-03"
	}`

	var doc RateDocument
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))

	assert.Equal(t, "USD", doc.Base)
	assert.Equal(t, "2019-01-01", doc.StartAt)
	assert.Equal(t, "2019-01-03", doc.EndAt)
	require.Len(t, doc.Rates, 2)
	assert.Equal(t, "2019-01-03", doc.Rates[0].Date)
	assert.Equal(t, "2019-01-01", doc.Rates[1].Date)
	assert.Equal(t, []string{"ZAR", "EUR", "BRL"}, doc.Rates[0].Rates.Currencies())
	assert.Equal(t, []string{"EUR", "ZAR", "BRL"}, doc.Rates[1].Rates.Currencies())

	rate, ok := doc.Rates[1].Rates.Rate("ZAR")
	assert.True(t, ok)
	assert.Equal(t, 14.0, rate)

	_, ok = doc.Rates[1].Rates.Rate("JPY")
	assert.False(t, ok)
}

func TestRateSeries_DuplicateDate(t *testing.T) {
	var s RateSeries
	require.NoError(t, json.Unmarshal([]byte(`{"2019-01-01":{"EUR":0.8},"2019-01-02":{"EUR":0.85},"2019-01-01":{"EUR":0.7}}`), &s))

	require.Len(t, s, 2)
	assert.Equal(t, "2019-01-01", s[0].Date)
	rate, _ := s[0].Rates.Rate("EUR")
	assert.Equal(t, 0.7, rate)
}

func TestRateSeries_Null(t *testing.T) {
	var doc RateDocument
	require.NoError(t, json.Unmarshal([]byte(`{"base":"USD","rates":null}`), &doc))
	assert.Nil(t, doc.Rates)
}

func TestRateDocument_MalformedValues(t *testing.T) {
	cases := map[string]string{
		"RatesNotObject":   `{"rates":[1,2]}`,
		"DateNotObject":    `{"rates":{"2019-01-01":5}}`,
		"DateNull":         `{"rates":{"2019-01-01":null}}`,
		"RateNull":         `{"rates":{"2019-01-01":{"EUR":null}}}`,
		"RateString":       `{"rates":{"2019-01-01":{"EUR":"0.8"}}}`,
		"RateNestedObject": `{"rates":{"2019-01-01":{"EUR":{"v":1}}}}`,
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			var doc RateDocument
			err := json.Unmarshal([]byte(raw), &doc)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrMalformedInput)
		})
	}
}

func TestRateMap_Set(t *testing.T) {
	var m RateMap
	m.Set("EUR", 0.8)
	m.Set("BRL", 3.7)
	m.Set("EUR", 0.9)

	assert.Equal(t, 2, m.Len())
	assert.Equal(t, []string{"EUR", "BRL"}, m.Currencies())
	rate, _ := m.Rate("EUR")
	assert.Equal(t, 0.9, rate)

	// callers get a copy
	currencies := m.Currencies()
	currencies[0] = "XXX"
	assert.Equal(t, []string{"EUR", "BRL"}, m.Currencies())
}

func TestRateSeries_MarshalJSON(t *testing.T) {
	var eur, brl RateMap
	eur.Set("EUR", 0.8)
	eur.Set("BRL", 3.7)
	brl.Set("EUR", 0.9)
	brl.Set("BRL", 3.8)

	s := RateSeries{
		{Date: "2019-01-03", Rates: brl},
		{Date: "2019-01-01", Rates: eur},
	}

	out, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Equal(t, `{"2019-01-03":{"EUR":0.9,"BRL":3.8},"2019-01-01":{"EUR":0.8,"BRL":3.7}}`, string(out))
}

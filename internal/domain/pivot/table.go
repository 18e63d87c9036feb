// Package pivot turns date-keyed rate tables into currency-keyed price series.
//
// Dates are handled as YYYY-MM-DD strings and compared lexicographically,
// which for that layout is the same as chronological order.
package pivot

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/damon-houk/ratepivot/internal/apperrors"
	"github.com/damon-houk/ratepivot/internal/domain/entity"
)

type cell struct {
	currency string
	date     string
}

// Table is a (currency, date) -> rate table. It starts sparse and becomes
// dense once FillForward has run.
type Table struct {
	currencies []string
	rates      map[cell]float64
	dates      map[string]struct{}
	filled     int
}

// Flatten builds the sparse table from the document. The currency set comes
// from the first dated entry; every later entry must carry all of them.
func Flatten(series entity.RateSeries) (*Table, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("%w: no rates in document", apperrors.ErrMalformedInput)
	}

	if series[0].Rates.Len() == 0 {
		return nil, fmt.Errorf("%w: no currencies on %s", apperrors.ErrMalformedInput, series[0].Date)
	}

	currencies := series[0].Rates.Currencies()
	t := &Table{
		currencies: currencies,
		rates:      make(map[cell]float64, len(currencies)*len(series)),
		dates:      make(map[string]struct{}, len(series)),
	}

	for _, currency := range currencies {
		for _, day := range series {
			rate, ok := day.Rates.Rate(currency)
			if !ok {
				return nil, fmt.Errorf("%w: no %s rate on %s", apperrors.ErrMalformedInput, currency, day.Date)
			}
			t.set(currency, day.Date, rate)
		}
	}

	return t, nil
}

func (t *Table) set(currency, date string, rate float64) {
	t.rates[cell{currency, date}] = rate
	t.dates[date] = struct{}{}
}

// Currencies returns the currencies in the order they were flattened
func (t *Table) Currencies() []string {
	out := make([]string, len(t.currencies))
	copy(out, t.currencies)
	return out
}

// Rate returns the rate stored for a currency on a date
func (t *Table) Rate(currency, date string) (float64, bool) {
	r, ok := t.rates[cell{currency, date}]
	return r, ok
}

// Filled returns how many cells FillForward added
func (t *Table) Filled() int {
	return t.filled
}

// MinDate returns the earliest date in the table
func (t *Table) MinDate() string {
	first := true
	var earliest string
	for d := range t.dates {
		if first || d < earliest {
			earliest, first = d, false
		}
	}
	return earliest
}

// MaxDate returns the latest date in the table
func (t *Table) MaxDate() string {
	var latest string
	for d := range t.dates {
		if d > latest {
			latest = d
		}
	}
	return latest
}

// cancelCheckInterval is how many walked days pass between context checks
const cancelCheckInterval = 1024

// FillForward walks every calendar day from the earliest date while the day
// is strictly before maxDate, copying the previous day's rate into any gap.
// maxDate itself is never filled, so a bound past the last native date ends
// the range on the day before the bound.
func (t *Table) FillForward(maxDate string) error {
	return t.FillForwardContext(context.Background(), maxDate, 0)
}

// FillForwardContext is FillForward with cancellation and a cap of maxDays
// walked days per currency. A maxDays of zero walks without a cap.
func (t *Table) FillForwardContext(ctx context.Context, maxDate string, maxDays int) error {
	minDate := t.MinDate()

	for _, currency := range t.currencies {
		day := minDate
		for walked := 0; day < maxDate; walked++ {
			if maxDays > 0 && walked >= maxDays {
				return fmt.Errorf("%w: filling from %s to %s walks more than %d days",
					apperrors.ErrLimitExceeded, minDate, maxDate, maxDays)
			}
			if walked%cancelCheckInterval == 0 {
				if err := ctx.Err(); err != nil {
					return fmt.Errorf("forward-fill stopped at %s: %w", day, err)
				}
			}

			if _, ok := t.rates[cell{currency, day}]; !ok {
				prev, err := previousDay(day)
				if err != nil {
					return err
				}
				rate, ok := t.rates[cell{currency, prev}]
				if !ok {
					return fmt.Errorf("%w: no %s rate on %s to carry into %s",
						apperrors.ErrMalformedInput, currency, prev, day)
				}
				t.set(currency, day, rate)
				t.filled++
			}

			next, err := nextDay(day)
			if err != nil {
				return err
			}
			day = next
		}
	}

	return nil
}

// Dates returns every date present in the table in ascending order
func (t *Table) Dates() []string {
	out := make([]string, 0, len(t.dates))
	for d := range t.dates {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// Invert pivots the table into one series per currency, pricing each date
// as 1/rate so the result reads "base per unit of currency".
func (t *Table) Invert() ([]entity.PriceSeries, error) {
	dates := t.Dates()
	out := make([]entity.PriceSeries, 0, len(t.currencies))

	for _, currency := range t.currencies {
		prices := make([]entity.PricePoint, 0, len(dates))
		for _, date := range dates {
			rate, ok := t.rates[cell{currency, date}]
			if !ok {
				return nil, fmt.Errorf("%w: no %s rate on %s", apperrors.ErrMalformedInput, currency, date)
			}
			price := 1 / rate
			if math.IsInf(price, 0) || math.IsNaN(price) {
				return nil, fmt.Errorf("%w: %s rate %v on %s has no finite inverse",
					apperrors.ErrMalformedInput, currency, rate, date)
			}
			prices = append(prices, entity.PricePoint{Date: date, Price: price})
		}
		out = append(out, entity.PriceSeries{Currency: currency, Prices: prices})
	}

	return out, nil
}

// Options tunes a pivot run
type Options struct {
	// MaxFillDays caps the calendar days walked per currency; zero means no cap
	MaxFillDays int
}

// Result is a finished pivot along with figures describing how it was built
type Result struct {
	Series     []entity.PriceSeries
	Currencies []string
	MinDate    string
	MaxDate    string
	Dates      int
	Filled     int
}

// Run performs the whole pivot: flatten, fill up to the bound (or the latest
// input date when bound is empty), then invert.
func Run(ctx context.Context, doc *entity.RateDocument, bound string, opts Options) (*Result, error) {
	if err := ValidateBound(bound); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: no document", apperrors.ErrMalformedInput)
	}

	t, err := Flatten(doc.Rates)
	if err != nil {
		return nil, err
	}

	maxDate := bound
	if maxDate == "" {
		maxDate = t.MaxDate()
	}

	if err := t.FillForwardContext(ctx, maxDate, opts.MaxFillDays); err != nil {
		return nil, err
	}

	series, err := t.Invert()
	if err != nil {
		return nil, err
	}

	return &Result{
		Series:     series,
		Currencies: t.Currencies(),
		MinDate:    t.MinDate(),
		MaxDate:    maxDate,
		Dates:      len(t.dates),
		Filled:     t.Filled(),
	}, nil
}

// Transform runs an uncapped pivot and returns only the series
func Transform(doc *entity.RateDocument, bound string) ([]entity.PriceSeries, error) {
	r, err := Run(context.Background(), doc, bound, Options{})
	if err != nil {
		return nil, err
	}
	return r.Series, nil
}

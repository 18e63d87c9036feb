package entity

// PricePoint is the price of one unit of a currency, expressed in the base currency, on a date
type PricePoint struct {
	Date  string  `json:"date"`
	Price float64 `json:"price"`
}

// PriceSeries groups the dense daily prices of a single currency
type PriceSeries struct {
	Currency string       `json:"currency"`
	Prices   []PricePoint `json:"prices"`
}

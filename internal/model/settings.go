package model

// IndicatorSettings are the parameter sets for one (symbol, timeframe).
// Settings maps indicator source name -> parameter name -> value.
type IndicatorSettings struct {
	Symbol    string                        `json:"symbol"`
	Timeframe Timeframe                     `json:"timeframe"`
	Settings  map[string]map[string]float64 `json:"settings"`
}

// EmissionSettings toggles which indicators and timeframes the upstream
// feed emits for a symbol.
type EmissionSettings struct {
	Symbol     string      `json:"symbol"`
	Indicators []string    `json:"indicators"`
	Timeframes []Timeframe `json:"timeframes"`
}

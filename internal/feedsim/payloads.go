package feedsim

// Wire shapes of the live-data-all feed. Struct field order is the JSON key
// order, which the dashboard uses for candlestick flags and standard pivots.

type priceEvent struct {
	Symbol      string  `json:"symbol"`
	MarketPrice float64 `json:"marketPrice"`
	Volume      float64 `json:"volume"`
}

type indicatorEvent struct {
	Symbol              string           `json:"symbol"`
	Timeframe           string           `json:"timeframe"`
	EMA50               *valuePayload    `json:"EMA50,omitempty"`
	EMA200              *valuePayload    `json:"EMA200,omitempty"`
	RSI                 *rsiPayload      `json:"RSI,omitempty"`
	MACD                *macdPayload     `json:"MACD,omitempty"`
	BB                  *bandsPayload    `json:"BB,omitempty"`
	Candlestick         *candlePayload   `json:"Candlestick,omitempty"`
	NWLux               *nwPayload       `json:"NWLux,omitempty"`
	PivotHighLow        []pivotPoint     `json:"PivotHighLow,omitempty"`
	SRv2                []srLevel        `json:"SRv2,omitempty"`
	PivotPointsStandard *standardPayload `json:"PivotPointsStandard,omitempty"`
}

type valuePayload struct {
	Value float64 `json:"value"`
}

type rsiPayload struct {
	Value      float64 `json:"value"`
	Overbought float64 `json:"overbought"`
	Oversold   float64 `json:"oversold"`
}

type macdPayload struct {
	MACD      float64 `json:"macd"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
}

type bandsPayload struct {
	Upper float64 `json:"upper"`
	Basis float64 `json:"basis"`
	Lower float64 `json:"lower"`
}

type candlePayload struct {
	Doji         int   `json:"Doji"`
	Hammer       int   `json:"Hammer"`
	ShootingStar int   `json:"Shooting Star"`
	Engulfing    int   `json:"Engulfing"`
	Time         int64 `json:"$time"`
}

type bandLine struct {
	Y1 float64 `json:"y1"`
	Y2 float64 `json:"y2"`
}

type nwPayload struct {
	Lines []bandLine `json:"lines"`
}

type pivotPoint struct {
	Type  string  `json:"type"`
	Value float64 `json:"value"`
}

type srLevel struct {
	Value float64 `json:"value"`
}

type standardPayload struct {
	P  float64 `json:"P"`
	R1 float64 `json:"R1"`
	S1 float64 `json:"S1"`
	R2 float64 `json:"R2"`
	S2 float64 `json:"S2"`
}

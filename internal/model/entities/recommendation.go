package entities

// Recommendation is a static record selected from the catalog, not computed.
type Recommendation struct {
	Name        string `json:"name" yaml:"name"`
	Variety     string `json:"variety" yaml:"variety"`
	Emoji       string `json:"emoji" yaml:"emoji"`
	Suitability int    `json:"suitability" yaml:"suitability"` // %
	Profit      int    `json:"profit" yaml:"profit"`
	Risk        int    `json:"risk" yaml:"risk"`
	Yield       string `json:"yield" yaml:"yield"`
	Revenue     string `json:"revenue" yaml:"revenue"`
	Image       string `json:"image" yaml:"image"`
	Description string `json:"description" yaml:"description"`
}

// Weights are the recommendation factor weights. They are declared and
// validated but no scoring model consumes them.
type Weights struct {
	Environmental float64 `json:"environmental" yaml:"environmental"`
	Profit        float64 `json:"profit" yaml:"profit"`
	Risk          float64 `json:"risk" yaml:"risk"`
	Technical     float64 `json:"technical" yaml:"technical"`
	Market        float64 `json:"market" yaml:"market"`
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	return w.Environmental + w.Profit + w.Risk + w.Technical + w.Market
}

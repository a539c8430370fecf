// Package cost attributes USD cost to research executor calls.
package cost

import "github.com/sells-group/institution-research/internal/config"

// Provider names used in Usage.
const (
	ProviderAnthropic  = "anthropic"
	ProviderPerplexity = "perplexity"
	ProviderGemini     = "gemini"
)

// Rates holds per-provider pricing configuration.
type Rates struct {
	Anthropic  map[string]ModelRate
	Gemini     map[string]ModelRate
	Jina       JinaRate
	Perplexity PerplexityRate
}

// ModelRate holds per-model token pricing (per million tokens).
type ModelRate struct {
	Input  float64
	Output float64
}

// JinaRate holds Jina Reader and Search pricing.
type JinaRate struct {
	PerMTok float64
}

// PerplexityRate holds Perplexity pricing: a flat request fee plus tokens.
type PerplexityRate struct {
	PerQuery float64
	Input    float64
	Output   float64
}

// Usage is the metered consumption of a single executor call.
type Usage struct {
	Provider     string
	Model        string
	InputTokens  int
	OutputTokens int
	// JinaTokens counts tokens billed by Jina Reader/Search for context.
	JinaTokens int
	Queries    int
}

// Add accumulates o into u. Provider and model are kept from u when set.
func (u *Usage) Add(o Usage) {
	if u.Provider == "" {
		u.Provider = o.Provider
	}
	if u.Model == "" {
		u.Model = o.Model
	}
	u.InputTokens += o.InputTokens
	u.OutputTokens += o.OutputTokens
	u.JinaTokens += o.JinaTokens
	u.Queries += o.Queries
}

// Calculator computes costs for API usage.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// Claude computes the cost for a Claude API call.
func (c *Calculator) Claude(model string, input, output int) float64 {
	return tokens(c.rates.Anthropic[model], input, output)
}

// Gemini computes the cost for a Gemini API call.
func (c *Calculator) Gemini(model string, input, output int) float64 {
	return tokens(c.rates.Gemini[model], input, output)
}

// Jina computes the cost for Jina token usage.
func (c *Calculator) Jina(tokens int) float64 {
	return (float64(tokens) / 1e6) * c.rates.Jina.PerMTok
}

// Perplexity computes the cost of a Perplexity call: per-query fee plus tokens.
func (c *Calculator) Perplexity(queries, input, output int) float64 {
	r := c.rates.Perplexity
	return float64(queries)*r.PerQuery + tokens(ModelRate{Input: r.Input, Output: r.Output}, input, output)
}

// Cost prices a Usage record. Unknown providers and models cost zero.
func (c *Calculator) Cost(u Usage) float64 {
	total := c.Jina(u.JinaTokens)
	switch u.Provider {
	case ProviderAnthropic:
		total += c.Claude(u.Model, u.InputTokens, u.OutputTokens)
	case ProviderGemini:
		total += c.Gemini(u.Model, u.InputTokens, u.OutputTokens)
	case ProviderPerplexity:
		total += c.Perplexity(u.Queries, u.InputTokens, u.OutputTokens)
	}
	return total
}

func tokens(rate ModelRate, input, output int) float64 {
	return (float64(input)/1e6)*rate.Input + (float64(output)/1e6)*rate.Output
}

// DefaultRates returns the default pricing rates.
func DefaultRates() Rates {
	return Rates{
		Anthropic: map[string]ModelRate{
			"claude-haiku-4-5-20251001":  {Input: 1.00, Output: 5.00},
			"claude-sonnet-4-5-20250929": {Input: 3.00, Output: 15.00},
			"claude-opus-4-6":            {Input: 15.00, Output: 75.00},
		},
		Gemini: map[string]ModelRate{
			"gemini-2.5-flash": {Input: 0.30, Output: 2.50},
			"gemini-2.5-pro":   {Input: 1.25, Output: 10.00},
		},
		Jina:       JinaRate{PerMTok: 0.02},
		Perplexity: PerplexityRate{PerQuery: 0.005, Input: 3.00, Output: 15.00},
	}
}

// RatesFromConfig overlays configured pricing on DefaultRates. Zero values in
// the config leave the default in place.
func RatesFromConfig(p config.PricingConfig) Rates {
	r := DefaultRates()
	for model, mp := range p.Anthropic {
		r.Anthropic[model] = ModelRate{Input: mp.Input, Output: mp.Output}
	}
	for model, mp := range p.Gemini {
		r.Gemini[model] = ModelRate{Input: mp.Input, Output: mp.Output}
	}
	if p.Jina.PerMTok > 0 {
		r.Jina.PerMTok = p.Jina.PerMTok
	}
	if p.Perplexity.PerQuery > 0 {
		r.Perplexity.PerQuery = p.Perplexity.PerQuery
	}
	if p.Perplexity.Input > 0 {
		r.Perplexity.Input = p.Perplexity.Input
	}
	if p.Perplexity.Output > 0 {
		r.Perplexity.Output = p.Perplexity.Output
	}
	return r
}

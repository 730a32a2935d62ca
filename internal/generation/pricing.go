package generation

import "strings"

// ModelPrice is USD per one million tokens.
type ModelPrice struct {
	InputPerM  float64
	OutputPerM float64
}

// pricing is the static per-model price table. Unknown models fall back to
// defaultPrice so cost reporting degrades to an estimate, never to zero.
var pricing = map[string]ModelPrice{
	"gemini-2.5-flash":  {InputPerM: 0.30, OutputPerM: 2.50},
	"gemini-2.5-pro":    {InputPerM: 1.25, OutputPerM: 10.00},
	"gemini-2.0-flash":  {InputPerM: 0.10, OutputPerM: 0.40},
	"gpt-4o":            {InputPerM: 2.50, OutputPerM: 10.00},
	"gpt-4o-mini":       {InputPerM: 0.15, OutputPerM: 0.60},
	"claude-sonnet-4-5": {InputPerM: 3.00, OutputPerM: 15.00},
}

var defaultPrice = ModelPrice{InputPerM: 1.00, OutputPerM: 5.00}

// EstimateCost returns the estimated USD cost of one call.
func EstimateCost(model string, inputTokens, outputTokens int) float64 {
	price, ok := pricing[model]
	if !ok {
		// Versioned model IDs (e.g. gemini-2.5-flash-001) share base pricing.
		for name, p := range pricing {
			if strings.HasPrefix(model, name) {
				price, ok = p, true
				break
			}
		}
	}
	if !ok {
		price = defaultPrice
	}
	return float64(inputTokens)/1e6*price.InputPerM + float64(outputTokens)/1e6*price.OutputPerM
}

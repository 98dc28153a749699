package exchange

// MajorProducts are placed at the front of every fetch pass so the most
// watched markets are always covered even when the symbol budget is tight.
var MajorProducts = []string{
	"BTC-USD", "ETH-USD", "SOL-USD", "ADA-USD", "DOT-USD",
	"LINK-USD", "MATIC-USD", "AVAX-USD", "ATOM-USD", "ALGO-USD",
	"XRP-USD", "DOGE-USD", "SHIB-USD", "UNI-USD", "AAVE-USD",
	"BCH-USD", "LTC-USD", "ICP-USD", "INJ-USD", "ONDO-USD",
	"CRO-USD", "FLR-USD", "WLD-USD", "POL-USD", "JUP-USD",
	"SEI-USD", "TAO-USD", "NEAR-USD", "HBAR-USD", "FIL-USD",
}

// FilterActiveUSD returns the products that are online and quoted in USD,
// preserving input order.
func FilterActiveUSD(products []Product) []Product {
	filtered := make([]Product, 0, len(products))
	for _, p := range products {
		if p.QuoteCurrency == "USD" && p.Status == "online" {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

// Prioritize reorders products so members of priority come first (in priority
// order), then the rest in input order, truncated to limit. The result is
// deterministic for a given input.
func Prioritize(products []Product, priority []string, limit int) []string {
	byID := make(map[string]bool, len(products))
	for _, p := range products {
		byID[p.ID] = true
	}

	seen := make(map[string]bool, len(products))
	ordered := make([]string, 0, len(products))

	for _, id := range priority {
		if byID[id] && !seen[id] {
			ordered = append(ordered, id)
			seen[id] = true
		}
	}
	for _, p := range products {
		if !seen[p.ID] {
			ordered = append(ordered, p.ID)
			seen[p.ID] = true
		}
	}

	if limit > 0 && len(ordered) > limit {
		ordered = ordered[:limit]
	}
	return ordered
}

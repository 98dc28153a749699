package exchange

// Product represents a tradable product from the exchange products endpoint
type Product struct {
	ID            string `json:"id"`
	BaseCurrency  string `json:"base_currency"`
	QuoteCurrency string `json:"quote_currency"`
	Status        string `json:"status"`
}

// TickerResponse represents the response from the ticker endpoint
type TickerResponse struct {
	TradeID int64  `json:"trade_id"`
	Price   string `json:"price"`
	Size    string `json:"size"`
	Time    string `json:"time"`
	Bid     string `json:"bid"`
	Ask     string `json:"ask"`
	Volume  string `json:"volume"`
}

// StatsResponse represents the response from the 24h stats endpoint
type StatsResponse struct {
	Open        string `json:"open"`
	High        string `json:"high"`
	Low         string `json:"low"`
	Volume      string `json:"volume"`
	Last        string `json:"last"`
	Volume30Day string `json:"volume_30day"`
}

// ErrorResponse represents an error payload from the exchange
type ErrorResponse struct {
	Message string `json:"message"`
}

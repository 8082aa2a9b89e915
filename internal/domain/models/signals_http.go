package models

// Requests for the REST endpoints. Defined in domain for consistency and reuse.

type RegisterRequest struct {
	Token string `json:"token" validate:"required"`
}

type SignalsRequest struct {
	Limit  int    `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=500"`
	Search string `query:"search" json:"search"`
}

type PreferencesRequest struct {
	Token string `query:"token" json:"token" validate:"required"`
}

type SavePreferencesRequest struct {
	Token     string   `json:"token" validate:"required"`
	MinBuy    int      `json:"min_buy"`
	MinSell   int      `json:"min_sell"`
	Whitelist []string `json:"whitelist"`
	Blacklist []string `json:"blacklist"`
}

func (r *SavePreferencesRequest) Preference() Preference {
	p := Preference{
		MinBuyPct:  r.MinBuy,
		MinSellPct: r.MinSell,
		Whitelist:  r.Whitelist,
		Blacklist:  r.Blacklist,
	}
	if p.Whitelist == nil {
		p.Whitelist = []string{}
	}
	if p.Blacklist == nil {
		p.Blacklist = []string{}
	}
	return p
}

type IngestRequest struct {
	Title     string     `json:"title" validate:"required"`
	Body      string     `json:"body"`
	Timestamp int64      `json:"timestamp" validate:"required,gt=0"`
	Data      SignalData `json:"data"`
	Tickers   []string   `json:"tickers"`
}

func (r *IngestRequest) Signal() *Signal {
	return &Signal{
		Title:     r.Title,
		Body:      r.Body,
		Timestamp: r.Timestamp,
		Data:      r.Data,
		Tickers:   r.Tickers,
	}
}

// PreferenceResponse mirrors the mobile settings screen payload.
type PreferenceResponse struct {
	MinBuy    int      `json:"min_buy"`
	MinSell   int      `json:"min_sell"`
	Whitelist []string `json:"whitelist"`
	Blacklist []string `json:"blacklist"`
}

func NewPreferenceResponse(p Preference) *PreferenceResponse {
	return &PreferenceResponse{
		MinBuy:    p.MinBuyPct,
		MinSell:   p.MinSellPct,
		Whitelist: p.Whitelist,
		Blacklist: p.Blacklist,
	}
}

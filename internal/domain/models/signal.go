package models

// Source types classify a signal's provenance, following the feed taxonomy.
const (
	SourceFato          = "FATO"
	SourceInterpretacao = "INTERPRETACAO"
	SourcePercepcao     = "PERCEPCAO"
)

// Direction is the trading direction parsed from a signal title.
type Direction int

const (
	DirectionNeutral Direction = iota
	DirectionBuy
	DirectionSell
)

func (d Direction) String() string {
	switch d {
	case DirectionBuy:
		return "BUY"
	case DirectionSell:
		return "SELL"
	default:
		return "NEUTRAL"
	}
}

// SignalData carries the structured payload attached to a signal and
// forwarded verbatim inside push notifications.
type SignalData struct {
	URL        string `json:"url"`
	SourceType string `json:"source_type" validate:"omitempty,oneof=FATO INTERPRETACAO PERCEPCAO"`
	SourceName string `json:"source_name"`
}

// Signal is a single market alert. Immutable once appended to the ledger.
// Timestamp is seconds since epoch, supplied by the ingester.
type Signal struct {
	Seq       uint64     `json:"-"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	Timestamp int64      `json:"timestamp"`
	Data      SignalData `json:"data"`
	// Tickers is the structured ticker list supplied by the ingester's
	// matcher. May be empty; dispatch falls back to scanning title/body.
	Tickers []string `json:"tickers,omitempty"`
}

// PushNotification is the payload handed to the push gateway, one per
// matching device.
type PushNotification struct {
	Title string     `json:"title"`
	Body  string     `json:"body"`
	Data  SignalData `json:"data"`
}

// NotificationFor builds the delivery payload for this signal.
func (s *Signal) NotificationFor() *PushNotification {
	return &PushNotification{Title: s.Title, Body: s.Body, Data: s.Data}
}

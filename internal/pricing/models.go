package pricing

// Amounts are expressed in minor units (cents) using int64.

// VoiceRate is the per-minute price of one provider voice.
type VoiceRate struct {
	Voice string `json:"voice"`
	// RatePerMinuteMinor is the price per minute of talk time.
	RatePerMinuteMinor int64 `json:"rate_per_minute_minor"`
	// BillingIncrementSeconds: 1 for per-second billing, 60 for per started minute.
	BillingIncrementSeconds int `json:"billing_increment_seconds"`
	// MinimumBillableSeconds enforces a minimum charge duration.
	MinimumBillableSeconds int `json:"minimum_billable_seconds"`
}

// CallCost is the priced result for one call.
type CallCost struct {
	Voice              string `json:"voice"`
	Currency           string `json:"currency"`
	BillableSeconds    int    `json:"billable_seconds"`
	RatePerMinuteMinor int64  `json:"rate_per_minute_minor"`
	TotalMinor         int64  `json:"total_minor"`
}

const Currency = "USD"

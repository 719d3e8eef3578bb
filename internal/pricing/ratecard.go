package pricing

import "strings"

const (
	StandardRateMinor = 9
	PremiumRateMinor  = 12
)

// RateCard resolves the rate for a voice, falling back to Default.
type RateCard struct {
	Default VoiceRate
	Voices  map[string]VoiceRate
}

// DefaultRateCard is the provider price list: per-second billing at the
// standard rate, premium voices at the higher rate.
func DefaultRateCard() RateCard {
	standard := VoiceRate{Voice: "standard", RatePerMinuteMinor: StandardRateMinor, BillingIncrementSeconds: 1}
	premium := func(v string) VoiceRate {
		return VoiceRate{Voice: v, RatePerMinuteMinor: PremiumRateMinor, BillingIncrementSeconds: 1}
	}
	return RateCard{
		Default: standard,
		Voices: map[string]VoiceRate{
			"june":  premium("june"),
			"paige": premium("paige"),
		},
	}
}

func (c RateCard) Rate(voice string) VoiceRate {
	if r, ok := c.Voices[strings.ToLower(strings.TrimSpace(voice))]; ok {
		return r
	}
	r := c.Default
	if voice != "" {
		r.Voice = voice
	}
	return r
}

package pricing

import (
	"errors"
)

// Service prices calls. Pure calculation; no provider calls.
type Service struct {
	card RateCard
}

func NewService(card RateCard) *Service {
	return &Service{card: card}
}

var ErrInvalidPricingReq = errors.New("invalid pricing request")

// CallCost prices durationSeconds of talk time on voice. Zero duration costs
// nothing; the total is rounded half-up to the nearest cent.
func (s *Service) CallCost(voice string, durationSeconds int) (CallCost, error) {
	if durationSeconds < 0 {
		return CallCost{}, ErrInvalidPricingReq
	}
	rate := s.card.Rate(voice)

	billable := 0
	if durationSeconds > 0 {
		billable = billableSeconds(durationSeconds, rate.MinimumBillableSeconds, rate.BillingIncrementSeconds)
	}
	return CallCost{
		Voice:              rate.Voice,
		Currency:           Currency,
		BillableSeconds:    billable,
		RatePerMinuteMinor: rate.RatePerMinuteMinor,
		TotalMinor:         costMinor(rate.RatePerMinuteMinor, billable),
	}, nil
}

// costMinor converts per-minute pricing to a per-second charge, rounding half-up.
func costMinor(ratePerMinute int64, seconds int) int64 {
	if seconds <= 0 || ratePerMinute <= 0 {
		return 0
	}
	return (ratePerMinute*int64(seconds) + 30) / 60
}

func billableSeconds(actualSec int, minSec int, incrementSec int) int {
	if actualSec < 0 {
		return 0
	}
	if minSec <= 0 {
		minSec = 0
	}
	if incrementSec <= 0 {
		incrementSec = 60
	}

	sec := actualSec
	if sec < minSec {
		sec = minSec
	}

	// round up to nearest increment
	q := sec / incrementSec
	r := sec % incrementSec
	if r != 0 {
		q++
	}
	return q * incrementSec
}

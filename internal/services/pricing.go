package services

import (
	"github.com/shopspring/decimal"
)

var (
	offeredDurations = []int{30, 45, 60, 90, 120}
	tutorShare       = decimal.RequireFromString("0.70")
	minorPerMajor    = decimal.NewFromInt(100)
)

func ValidDuration(minutes int) bool {
	for _, offered := range offeredDurations {
		if minutes == offered {
			return true
		}
	}
	return false
}

// PriceMajor is the session fee in naira. 30 and 60 minutes carry flat rates.
func PriceMajor(minutes int) int64 {
	switch minutes {
	case 30:
		return 1000
	case 60:
		return 1500
	default:
		return int64(minutes) * 25
	}
}

// AmountForDuration is the stored fee in kobo.
func AmountForDuration(minutes int) int64 {
	return PriceMajor(minutes) * 100
}

// SplitPayout returns the tutor's floor(70%) share and the retained platform fee.
func SplitPayout(amount int64) (int64, int64) {
	payout := decimal.NewFromInt(amount).Mul(tutorShare).Floor().IntPart()
	return payout, amount - payout
}

// MajorUnits renders minor units as a two-decimal major amount.
func MajorUnits(amount int64) decimal.Decimal {
	return decimal.NewFromInt(amount).DivRound(minorPerMajor, 2)
}

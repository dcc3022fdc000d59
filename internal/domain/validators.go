package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseStake converts user input into a whole stake amount.
func ParseStake(s string) (int64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0, ErrInvalidStake("stake is required")
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, ErrInvalidStake(fmt.Sprintf("stake %q is not a number", s))
	}
	if f != math.Trunc(f) {
		return 0, ErrInvalidStake(fmt.Sprintf("stake %q is not a whole amount", s))
	}
	if f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, ErrInvalidStake(fmt.Sprintf("stake %q is out of range", s))
	}
	return int64(f), nil
}

// ValidateStake checks that a stake is positive and covered by the balance.
func ValidateStake(stake, balance int64) error {
	if stake <= 0 {
		return ErrInvalidStake(fmt.Sprintf("stake must be positive, got %d", stake))
	}
	if stake > balance {
		return ErrInvalidStake(fmt.Sprintf("stake %d exceeds balance %d", stake, balance))
	}
	return nil
}

// QuickStakeMax stakes the whole balance.
const QuickStakeMax = "max"

// QuickStakes are the preset stake buttons in display order.
var QuickStakes = []string{"1000", "5000", "10000", "50000", "100000", QuickStakeMax}

// QuickStake is a preset resolved against a balance.
type QuickStake struct {
	Label     string `json:"label"`
	Amount    int64  `json:"amount"`
	Available bool   `json:"available"`
}

// ResolveQuickStake turns a preset label into an amount.
func ResolveQuickStake(label string, balance int64) (int64, error) {
	if label == QuickStakeMax {
		if balance <= 0 {
			return 0, ErrInvalidStake("balance is empty")
		}
		return balance, nil
	}
	for _, q := range QuickStakes {
		if q == label {
			return ParseStake(label)
		}
	}
	return 0, ErrValidation(fmt.Sprintf("unknown quick stake %q", label))
}

// ResolveQuickStakes resolves every preset against a balance.
func ResolveQuickStakes(balance int64) []QuickStake {
	out := make([]QuickStake, 0, len(QuickStakes))
	for _, label := range QuickStakes {
		amount, err := ResolveQuickStake(label, balance)
		out = append(out, QuickStake{
			Label:     label,
			Amount:    amount,
			Available: err == nil && amount <= balance,
		})
	}
	return out
}

package handler

import (
	"bytes"
	"encoding/json"

	"github.com/attaboy/faketoto/internal/domain"
)

// stakeInput accepts a stake as a JSON number, a numeric string ("10,000"),
// or a quick stake label such as "max".
type stakeInput struct {
	raw   string
	label bool
}

func (s *stakeInput) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		s.raw, s.label = str, true
		return nil
	}
	s.raw = string(b)
	return nil
}

// resolve turns the input into an amount against the current balance.
func (s stakeInput) resolve(balance int64) (int64, error) {
	if s.label && s.raw == domain.QuickStakeMax {
		return domain.ResolveQuickStake(s.raw, balance)
	}
	if s.raw == "null" {
		return domain.ParseStake("")
	}
	return domain.ParseStake(s.raw)
}

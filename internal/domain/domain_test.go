package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Validator Tests ---

func TestParseStake(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{"plain", "10000", 10000, false},
		{"thousands separator", "10,000", 10000, false},
		{"whole float", "500.0", 500, false},
		{"padded", " 42 ", 42, false},
		{"negative parses", "-5", -5, false},
		{"empty", "", 0, true},
		{"letters", "abc", 0, true},
		{"fraction", "10.5", 0, true},
		{"infinity", "Inf", 0, true},
		{"nan", "NaN", 0, true},
		{"just past int64", "9223372036854775808", 0, true},
		{"huge exponent", "1e19", 0, true},
		{"huge negative", "-1e19", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStake(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, HasCode(err, CodeInvalidStake))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseStake_OutOfRange(t *testing.T) {
	_, err := ParseStake("9223372036854775808")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")

	got, err := ParseStake("9223372036854775807")
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), got)
}

func TestValidateStake(t *testing.T) {
	tests := []struct {
		name    string
		stake   int64
		balance int64
		wantErr bool
	}{
		{"within balance", 10000, 100000, false},
		{"whole balance", 100000, 100000, false},
		{"zero", 0, 100000, true},
		{"negative", -1, 100000, true},
		{"exceeds balance", 100001, 100000, true},
		{"empty balance", 1, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStake(tt.stake, tt.balance)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, HasCode(err, CodeInvalidStake))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestResolveQuickStake(t *testing.T) {
	amount, err := ResolveQuickStake("max", 73500)
	require.NoError(t, err)
	assert.Equal(t, int64(73500), amount)

	amount, err = ResolveQuickStake("5000", 73500)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), amount)

	_, err = ResolveQuickStake("max", 0)
	assert.True(t, HasCode(err, CodeInvalidStake))

	_, err = ResolveQuickStake("777", 1000)
	assert.True(t, HasCode(err, "VALIDATION_ERROR"))
}

func TestResolveQuickStakes(t *testing.T) {
	got := ResolveQuickStakes(20000)
	require.Len(t, got, len(QuickStakes))
	assert.True(t, got[0].Available)
	assert.True(t, got[2].Available)
	assert.False(t, got[3].Available, "50000 exceeds balance")
	assert.Equal(t, int64(20000), got[5].Amount)
	assert.True(t, got[5].Available)
}

// --- Match Tests ---

func drawOdds(v float64) *float64 { return &v }

func TestMatchOddsFor(t *testing.T) {
	soccer := Match{ID: "m1", Sport: SportSoccer, Odds: Odds{Home: 2.1, Draw: drawOdds(3.2), Away: 3.5}}
	baseball := Match{ID: "m2", Sport: SportBaseball, Odds: Odds{Home: 1.8, Away: 2.0}}

	odds, ok := soccer.OddsFor(OutcomeDraw)
	assert.True(t, ok)
	assert.Equal(t, 3.2, odds)

	_, ok = baseball.OddsFor(OutcomeDraw)
	assert.False(t, ok)

	odds, ok = baseball.OddsFor(OutcomeAway)
	assert.True(t, ok)
	assert.Equal(t, 2.0, odds)

	assert.True(t, SportSoccer.AllowsDraw())
	assert.False(t, SportBasketball.AllowsDraw())
}

func TestOutcomeLabels(t *testing.T) {
	assert.Equal(t, "Home win", OutcomeHome.Label())
	assert.Equal(t, "Draw", OutcomeDraw.Label())
	assert.Equal(t, "Away win", OutcomeAway.Label())
}

func TestSelectionKeyRoundTrip(t *testing.T) {
	key := SelectionKey{MatchID: "epl-2024-01", Outcome: OutcomeAway}
	assert.Equal(t, "epl-2024-01-away", key.String())

	parsed, err := ParseSelectionKey(key.String())
	require.NoError(t, err)
	assert.Equal(t, key, parsed)

	for _, bad := range []string{"", "nodash", "m1-", "-home", "m1-win"} {
		_, err := ParseSelectionKey(bad)
		assert.Error(t, err, bad)
	}
}

func TestNewBetLine(t *testing.T) {
	m := Match{ID: "m1", Sport: SportBaseball, HomeTeam: "Bears", AwayTeam: "Lions", Odds: Odds{Home: 1.8, Away: 2.0}}

	line, err := NewBetLine(m, OutcomeHome)
	require.NoError(t, err)
	assert.Equal(t, "m1-home", line.Key.String())
	assert.Equal(t, "Home win", line.Selection)
	assert.Equal(t, 1.8, line.Odds)

	_, err = NewBetLine(m, OutcomeDraw)
	assert.True(t, HasCode(err, CodeInvalidSelection))
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("horse")
	require.NoError(t, err)
	assert.Equal(t, ModeHorse, m)

	_, err = ParseMode("poker")
	assert.True(t, HasCode(err, "NOT_FOUND"))
}

// --- Error Tests ---

func TestAppErrorWrapping(t *testing.T) {
	cause := errors.New("connection refused")
	err := ErrInternal("save balance", cause)
	assert.Equal(t, "INTERNAL_ERROR: save balance: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)

	wrapped := fmt.Errorf("place bet: %w", ErrRoundInProgress(ModeSnail))
	assert.True(t, HasCode(wrapped, CodeRoundInProgress))
	assert.False(t, HasCode(wrapped, CodeInvalidStake))
	assert.False(t, HasCode(errors.New("plain"), CodeRoundInProgress))

	var appErr *AppError
	require.ErrorAs(t, wrapped, &appErr)
	assert.Equal(t, 409, appErr.Status)
	assert.Contains(t, appErr.Message, "snail")
}

// --- Event Tests ---

func TestNewTransactionPostedEvent(t *testing.T) {
	tx := &Transaction{ID: uuid.New(), SessionID: "s-1", Type: TxDebit, Amount: 100, BalanceAfter: 900}
	evt := NewTransactionPostedEvent(tx)

	assert.Equal(t, EventTransactionPosted, evt.EventType)
	assert.Equal(t, AggregateLedger, evt.AggregateType)
	assert.Equal(t, "s-1", evt.PartitionKey)
	assert.NotEqual(t, uuid.Nil, evt.EventID)

	var decoded Transaction
	require.NoError(t, json.Unmarshal(evt.Payload, &decoded))
	assert.Equal(t, int64(900), decoded.BalanceAfter)
	assert.Equal(t, TxDebit, decoded.Type)
}

func TestNewRoundSettledEvent(t *testing.T) {
	r := &RoundResult{RoundID: "r-1", SessionID: "s-1", Mode: ModeLadder, Round: 3, Won: true, Payout: 19500}
	evt := NewRoundSettledEvent(r)
	assert.Equal(t, EventRoundSettled, evt.EventType)
	assert.Equal(t, "r-1", evt.AggregateID)
	assert.Equal(t, "s-1", evt.PartitionKey)
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "0", FormatAmount(0))
	assert.Equal(t, "950", FormatAmount(950))
	assert.Equal(t, "10,000", FormatAmount(10000))
	assert.Equal(t, "1,234,567", FormatAmount(1234567))
}

// Package planner computes the savings plan for buying game time with
// gold: how many tokens a real-money cost converts to, how much gold is
// still missing, and whether the configured daily farm rate reaches the
// goal before the deadline.
package planner

import (
	"errors"
	"math"
	"time"

	"github.com/luphoeux/dantaes/internal/core"
)

// tokenValueUSD is the fixed account-balance value of one token.
const tokenValueUSD = 15

// minDailyFarm is the floor applied to the auto-computed daily rate.
// Grinding under this is not worth scheduling around.
const minDailyFarm = 15000

// neverHorizonDays caps the projection. Past ten years the estimated
// date is reported as unreachable.
const neverHorizonDays = 3650

type Status string

const (
	// StatusPending: plan exists but no progress has been made yet.
	StatusPending Status = "pending"
	// StatusOnTrack: the daily rate reaches the goal in time.
	StatusOnTrack Status = "on_track"
	// StatusBehind: the manually set daily rate misses the deadline.
	StatusBehind Status = "behind"
	// StatusDone: the goal is already covered by current gold.
	StatusDone Status = "done"
)

var ErrNoTokenPrice = errors.New("planner: token price required")

// Input is one planning request. DailyFarm zero means auto: the strict
// daily rate, clamped to the minimum, is used and echoed back.
type Input struct {
	TokenPriceGold int64  `json:"tokenPriceGold"`
	CurrentGold    int64  `json:"currentGold"`
	CostUSD        int64  `json:"costUsd"`
	Deadline       string `json:"deadline"` // canonical date
	DailyFarm      int64  `json:"dailyFarm,omitempty"`
}

type Plan struct {
	TokensNeeded    int64  `json:"tokensNeeded"`
	TotalGoldNeeded int64  `json:"totalGoldNeeded"`
	MissingGold     int64  `json:"missingGold"`
	ProgressPercent int    `json:"progressPercent"`
	DaysRemaining   int64  `json:"daysRemaining"`
	DailyStrict     int64  `json:"dailyStrict"`
	DailyFarm       int64  `json:"dailyFarm"`
	AutoDaily       bool   `json:"autoDaily"`
	Status          Status `json:"status"`
	DaysToGoal      int64  `json:"daysToGoal"`
	EstimatedDate   string `json:"estimatedDate,omitempty"` // empty when unreachable
}

// Compute evaluates a plan as of now. The deadline is interpreted in
// the local zone, matching how ledger dates are read.
func Compute(in Input, now time.Time) (Plan, error) {
	if in.TokenPriceGold <= 0 {
		return Plan{}, ErrNoTokenPrice
	}
	deadline, ok := core.NormalizeDate(in.Deadline)
	if !ok {
		return Plan{}, core.ErrInvalidDate
	}

	var p Plan
	p.TokensNeeded = ceilDiv(in.CostUSD, tokenValueUSD)
	p.TotalGoldNeeded = p.TokensNeeded * in.TokenPriceGold

	p.MissingGold = p.TotalGoldNeeded - in.CurrentGold
	if p.MissingGold < 0 {
		p.MissingGold = 0
	}

	if p.TotalGoldNeeded > 0 {
		pct := float64(in.CurrentGold) / float64(p.TotalGoldNeeded) * 100
		if pct > 100 {
			pct = 100
		}
		p.ProgressPercent = int(math.Round(pct))
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	end, _ := time.ParseInLocation(core.CanonicalDate, deadline, now.Location())
	p.DaysRemaining = int64(math.Ceil(end.Sub(today).Hours() / 24))
	if p.DaysRemaining < 0 {
		p.DaysRemaining = 0
	}

	switch {
	case p.DaysRemaining > 0:
		p.DailyStrict = ceilDiv(p.MissingGold, p.DaysRemaining)
	case p.MissingGold > 0:
		// Deadline already passed: everything is due now.
		p.DailyStrict = p.MissingGold
	}

	p.DailyFarm = in.DailyFarm
	if p.DailyFarm <= 0 {
		p.AutoDaily = true
		p.DailyFarm = p.DailyStrict
		if p.DailyFarm < minDailyFarm {
			p.DailyFarm = minDailyFarm
		}
	}

	switch {
	case p.MissingGold == 0:
		p.Status = StatusDone
	case !p.AutoDaily:
		if p.DailyFarm < p.DailyStrict {
			p.Status = StatusBehind
		} else {
			p.Status = StatusOnTrack
		}
	case in.CurrentGold > 0:
		p.Status = StatusOnTrack
	default:
		p.Status = StatusPending
	}

	if p.DailyFarm > 0 {
		p.DaysToGoal = ceilDiv(p.MissingGold, p.DailyFarm)
	}
	if p.DaysToGoal <= neverHorizonDays {
		p.EstimatedDate = today.AddDate(0, 0, int(p.DaysToGoal)).Format(core.CanonicalDate)
	}
	return p, nil
}

func ceilDiv(a, b int64) int64 {
	if b <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

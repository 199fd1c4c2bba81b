// internal/session/baseline.go
package session

import "github.com/rovshanmuradov/dlmm-bot/internal/dlmm"

// CloseValuation - результат закрытия позиции в base units и USD
type CloseValuation struct {
	Withdrawn     dlmm.Capital
	Fees          dlmm.Capital
	WithdrawnUSD  float64
	FeeReserveUSD float64
	FeeTokenUSD   float64
}

// RedeployPlan - что уходит в новую позицию и что реализуется в кошелек
type RedeployPlan struct {
	Mode          CompoundMode
	Capital       dlmm.Capital
	RedeployedUSD float64
	CompoundedUSD float64
	ClaimedUSD    float64
}

// PlanRedeploy применяет ветку режима компаундинга:
//
//	both:       P + fr + ft
//	sol_only:   P + fr,  ft в кошелек
//	token_only: P + ft,  fr в кошелек
//	none:       P,       fr + ft в кошелек
func PlanRedeploy(mode CompoundMode, v CloseValuation) RedeployPlan {
	plan := RedeployPlan{
		Mode:          mode,
		Capital:       v.Withdrawn,
		RedeployedUSD: v.WithdrawnUSD,
	}

	if mode.compoundsReserve() {
		plan.Capital.Reserve += v.Fees.Reserve
		plan.RedeployedUSD += v.FeeReserveUSD
		plan.CompoundedUSD += v.FeeReserveUSD
	} else {
		plan.ClaimedUSD += v.FeeReserveUSD
	}

	if mode.compoundsToken() {
		plan.Capital.Token += v.Fees.Token
		plan.RedeployedUSD += v.FeeTokenUSD
		plan.CompoundedUSD += v.FeeTokenUSD
	} else {
		plan.ClaimedUSD += v.FeeTokenUSD
	}

	return plan
}

// PlanSwaplessRedeploy - PlanRedeploy для swapless переоткрытия. Сторона,
// которая не попадет в новую позицию, не компаундится: ее комиссии
// уходят в кошелек и считаются заклейменными.
func PlanSwaplessRedeploy(mode CompoundMode, direction dlmm.Direction, v CloseValuation) RedeployPlan {
	effective := mode
	switch direction {
	case dlmm.DirectionUp:
		effective = mode.withoutReserve()
	case dlmm.DirectionDown:
		effective = mode.withoutToken()
	}
	plan := PlanRedeploy(effective, v)
	plan.Mode = mode
	return plan
}

// Package simulate forecasts weekly sales, inventory, and revenue for a
// candidate discount schedule using a fitted elasticity model.
package simulate

import (
	"math"

	"github.com/rotisserie/eris"

	"github.com/retaillab/markdown-cli/internal/model"
)

// Params are the fixed inputs of one simulation run. The discount vector
// varies per optimizer trial; everything here stays constant.
type Params struct {
	Coefficients model.ElasticityCoefficients
	Price        float64 // fixed sell price (MRP)
	Horizon      int
	Liquidation  float64 // flat discount applied to leftover stock after the horizon
}

// NewState seeds the simulation state from the week prior to the horizon.
func NewState(inputs model.ScenarioInputs) model.SimulationState {
	return model.SimulationState{
		LogLagSales:    math.Log(inputs.PrevSales + model.Epsilon),
		LogLagDiscount: math.Log(inputs.PrevDiscount + model.Epsilon),
		Inventory:      inputs.StartInventory,
		Age:            inputs.StartAge,
	}
}

// Run simulates the horizon week by week. It is pure: state is received
// and threaded by value, so repeated calls with different discount
// vectors can never contaminate each other.
//
// Every horizon week is treated as promotional; age advances by one each
// week. Sales are capped at remaining inventory, and whatever stock
// survives the horizon is liquidated once at the flat liquidation
// discount.
func Run(p Params, state model.SimulationState, discounts []float64) (*model.RevenueResult, error) {
	if err := validate(p, state, discounts); err != nil {
		return nil, err
	}

	result := &model.RevenueResult{Weeks: make([]model.WeekOutcome, 0, p.Horizon)}
	for i := 0; i < p.Horizon; i++ {
		var outcome model.WeekOutcome
		state, outcome = step(p, state, i, discounts[i])
		result.Weeks = append(result.Weeks, outcome)
		result.TotalRevenue += outcome.Revenue
	}

	result.ResidualInventory = state.Inventory
	result.ResidualRevenue = state.Inventory * p.Price * (1 - p.Liquidation)
	result.TotalRevenue += result.ResidualRevenue

	return result, nil
}

// step advances one week. It takes state by value and returns the new
// state alongside the week's outcome.
func step(p Params, state model.SimulationState, week int, discount float64) (model.SimulationState, model.WeekOutcome) {
	c := p.Coefficients
	age := state.Age + 1

	logSales := c.Intercept +
		c.LagSales*state.LogLagSales +
		c.LogDiscount*math.Log(discount+model.Epsilon) +
		c.LagLogDiscount*state.LogLagDiscount +
		c.Promo*1 + // horizon weeks are always promotional
		c.Age*age

	predicted := math.Exp(logSales)
	actual := math.Min(predicted, state.Inventory)

	revenue := actual * p.Price * (1 - discount)

	next := model.SimulationState{
		WeekIndex:      week + 1,
		LogLagSales:    math.Log(actual + model.Epsilon),
		LogLagDiscount: math.Log(discount + model.Epsilon),
		Inventory:      state.Inventory - actual,
		Age:            age,
	}

	return next, model.WeekOutcome{
		Week:           week + 1,
		Discount:       discount,
		PredictedSales: predicted,
		ActualSales:    actual,
		Revenue:        revenue,
	}
}

func validate(p Params, state model.SimulationState, discounts []float64) error {
	if p.Price <= 0 {
		return eris.Wrapf(model.ErrSimulation, "simulate: price must be positive, got %g", p.Price)
	}
	if p.Horizon <= 0 {
		return eris.Wrapf(model.ErrSimulation, "simulate: horizon must be positive, got %d", p.Horizon)
	}
	if p.Liquidation < 0 || p.Liquidation > 1 {
		return eris.Wrapf(model.ErrSimulation, "simulate: liquidation discount %g outside [0,1]", p.Liquidation)
	}
	if state.Inventory < 0 {
		return eris.Wrapf(model.ErrSimulation, "simulate: starting inventory %g is negative", state.Inventory)
	}
	if len(discounts) != p.Horizon {
		return eris.Wrapf(model.ErrSimulation, "simulate: %d discounts for horizon %d", len(discounts), p.Horizon)
	}
	for i, d := range discounts {
		if d < 0 || d > 1 {
			return eris.Wrapf(model.ErrSimulation, "simulate: week %d discount %g outside [0,1]", i+1, d)
		}
	}
	return nil
}

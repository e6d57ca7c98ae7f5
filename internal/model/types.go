// Package model holds the domain types shared across the markdown
// planning pipeline: observed sales history, fitted elasticity models,
// simulation state, and optimization results.
package model

import "time"

// Epsilon is the additive smoothing constant applied before every log
// transform so that zero sales or zero discount never hit log(0).
const Epsilon = 1e-9

// WeeklyObservation is one week of sales history for a single product.
// Series are ordered by (Year, Week) and unique per (Year, Week).
type WeeklyObservation struct {
	Year       int     `json:"year" csv:"year_no"`
	Week       int     `json:"week" csv:"week_no"`
	SalesUnits float64 `json:"sales_units" csv:"sales_units"`
	Discount   float64 `json:"discount_per" csv:"discount_per"` // fraction 0-1
	PromoWeek  int     `json:"promo_week_flg" csv:"promo_week_flg"`
	Age        int     `json:"age" csv:"age"` // weeks since launch
}

// FeatureRow is the log-space regression row derived from two consecutive
// weekly observations. Rows without a defined predecessor are never built.
type FeatureRow struct {
	LogSales       float64 `json:"log_sales"`
	LogLagSales    float64 `json:"log_lag_sales"`
	LogDiscount    float64 `json:"log_discount"`
	LogLagDiscount float64 `json:"log_lag_discount"`
	PromoFlag      float64 `json:"promo_flag"`
	Age            float64 `json:"age"`

	// Year and Week identify the observation the row was built from,
	// so training-window cutoffs can be applied after building.
	Year int `json:"year"`
	Week int `json:"week"`
}

// ElasticityCoefficients is the fitted log-log demand model. It is a
// read-only value object: the fitter produces it once and the simulator
// and optimizer receive it by value.
type ElasticityCoefficients struct {
	Intercept      float64 `json:"intercept"`
	LagSales       float64 `json:"beta_lag_sales"`
	LogDiscount    float64 `json:"beta_log_discount"` // price elasticity of demand to discount depth
	LagLogDiscount float64 `json:"beta_lag_discount"`
	Promo          float64 `json:"beta_promo"`
	Age            float64 `json:"beta_age"`
}

// SimulationState is the per-week state threaded through a single
// simulation run. It is passed by value between week steps so no step can
// retain a reference to another step's buffer.
type SimulationState struct {
	WeekIndex      int     `json:"week_index"`
	LogLagSales    float64 `json:"log_lag_sales"`
	LogLagDiscount float64 `json:"log_lag_discount"`
	Inventory      float64 `json:"remaining_inventory"`
	Age            float64 `json:"current_age"`
}

// WeekOutcome is the simulated result for one horizon week.
type WeekOutcome struct {
	Week           int     `json:"week"`
	Discount       float64 `json:"discount"`
	PredictedSales float64 `json:"predicted_sales"`
	ActualSales    float64 `json:"actual_sales"` // inventory-capped
	Revenue        float64 `json:"revenue"`
}

// RevenueResult is the outcome of one simulator run over a full horizon.
type RevenueResult struct {
	TotalRevenue      float64       `json:"total_revenue"`
	Weeks             []WeekOutcome `json:"weeks"`
	ResidualInventory float64       `json:"residual_inventory"`
	ResidualRevenue   float64       `json:"residual_revenue"` // liquidation of leftover stock
}

// PlanStatus describes how an optimization run ended.
type PlanStatus string

const (
	PlanStatusConverged PlanStatus = "converged"
	PlanStatusFailed    PlanStatus = "failed"
)

// Plan is a persisted optimization run: the business inputs, the accepted
// discount schedule, and its predicted revenue.
type Plan struct {
	ID        string          `json:"id"`
	Inputs    ScenarioInputs  `json:"inputs"`
	Discounts []float64       `json:"discounts"`
	Revenue   float64         `json:"revenue"`
	Status    PlanStatus      `json:"status"`
	Result    *RevenueResult  `json:"result,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// ScenarioInputs are the scalar business parameters that seed a
// simulation or optimization run.
type ScenarioInputs struct {
	StartInventory float64 `json:"start_inventory"`
	StartAge       float64 `json:"start_age"`
	PrevSales      float64 `json:"prev_sales"`    // previous week's actual sales (lag seed)
	PrevDiscount   float64 `json:"prev_discount"` // previous week's discount (lag seed)
	Price          float64 `json:"price"`         // fixed sell price (MRP)
	Horizon        int     `json:"horizon"`
	LowerBound     float64 `json:"lower_bound"`
	UpperBound     float64 `json:"upper_bound"`
	Liquidation    float64 `json:"liquidation_discount"`
}

package engine

import "time"

// MarketData holds aggregated metrics for the filtered comparable set.
// Produced fresh per run and never mutated afterwards.
type MarketData struct {
	RevPAR           float64 `json:"revpar"`
	Occupancy        float64 `json:"occupancy"`
	ADR20thPctl      float64 `json:"adr_20th_pctl"`
	PeakFutureADR    float64 `json:"peak_future_adr"`
	AvgFutureADR     float64 `json:"avg_future_adr"`
	AnnualRevPAR     float64 `json:"annual_revpar"`
	AvgADR           float64 `json:"avg_adr"`
	AvgBookingLength float64 `json:"avg_booking_length,omitempty"`
}

// PropertyData holds the subject property's own metrics for the run.
type PropertyData struct {
	RevPAR             float64 `json:"revpar"`
	Occupancy          float64 `json:"occupancy"`
	LastYearLowestSold float64 `json:"last_year_lowest_sold"`
	CurrentPrice       float64 `json:"current_price"`
	ADR                float64 `json:"adr,omitempty"`
	AvgBookingLength   float64 `json:"avg_booking_length,omitempty"`
}

// PerformanceMultipliers are property/market ratios with floored denominators.
type PerformanceMultipliers struct {
	Occupancy float64 `json:"occupancy"`
	RevPAR    float64 `json:"revpar"`
	ADR       float64 `json:"adr"`
}

// DiagnosisType discriminates the mispricing decision tree outcome.
type DiagnosisType string

const (
	DiagnosisUnderpricing DiagnosisType = "CLASSIC_UNDERPRICING"
	DiagnosisOverpricing  DiagnosisType = "CLASSIC_OVERPRICING"
	DiagnosisAcceptable   DiagnosisType = "ACCEPTABLE_PERFORMANCE"
)

func (d DiagnosisType) String() string { return string(d) }

// Diagnosis is the outcome of the monthly error-forecasting decision tree.
type Diagnosis struct {
	Type             DiagnosisType          `json:"type"`
	PriceErrorFactor float64                `json:"price_error_factor"`
	CorrectionFactor float64                `json:"correction_factor"`
	Explanation      string                 `json:"explanation"`
	Multipliers      PerformanceMultipliers `json:"multipliers"`
}

// AdjustmentType labels the direction of a target-rent correction.
type AdjustmentType string

const (
	AdjustIncrease AdjustmentType = "INCREASE"
	AdjustDecrease AdjustmentType = "DECREASE"
	AdjustNoChange AdjustmentType = "NO_CHANGE"
)

// CorrectionResult is the smoothed target-rent correction derived from a Diagnosis.
// Invariant: NewTargetRent == PreviousTargetRent * AppliedMultiplier.
type CorrectionResult struct {
	PreviousTargetRent float64        `json:"previous_target_rent"`
	NewTargetRent      float64        `json:"new_target_rent"`
	AppliedMultiplier  float64        `json:"applied_multiplier"`
	AdjustmentType     AdjustmentType `json:"adjustment_type"`
	AdjustmentAmount   float64        `json:"adjustment_amount"`
	AdjustmentPercent  float64        `json:"adjustment_percent"`
}

// RecommendationType discriminates scheduler and promotion outputs.
type RecommendationType string

const (
	RecRateIncrease  RecommendationType = "RATE_INCREASE"
	RecPriceDrop     RecommendationType = "PRICE_DROP"
	RecApplyPromo    RecommendationType = "APPLY_PROMOTION"
	RecLastMinute    RecommendationType = "LAST_MINUTE_DEAL"
	RecExtendedStay  RecommendationType = "EXTENDED_STAY_INCENTIVE"
	// RecNoAction is defined for completeness but never constructed: days with
	// no matching rule are omitted from the schedule, not emitted as no-ops.
	RecNoAction RecommendationType = "NO_ACTION"
)

// BookingPhase classifies a day by distance from arrival.
type BookingPhase string

const (
	PhaseBackHalf  BookingPhase = "BACK_HALF"  // far out, maximize ADR
	PhaseFrontHalf BookingPhase = "FRONT_HALF" // close in, maximize occupancy
)

// MarketState classifies forward demand pace for the whole run.
type MarketState string

const (
	MarketHot     MarketState = "HOT"
	MarketNeutral MarketState = "NEUTRAL"
	MarketCold    MarketState = "COLD"
)

func (m MarketState) String() string { return string(m) }

// OperatingMode carries the discount posture selected from MarketState.
type OperatingMode struct {
	Name               string  `json:"name"`
	BaseDiscount       float64 `json:"base_discount"`
	MaxDiscount        float64 `json:"max_discount"`
	OccupancyThreshold float64 `json:"occupancy_threshold"`
}

// Recommendation is one pricing or promotion action for a single day or rule.
type Recommendation struct {
	Date           time.Time          `json:"date"`
	DaysToArrival  int                `json:"days_to_arrival"`
	Type           RecommendationType `json:"type"`
	CurrentPrice   float64            `json:"current_price"`
	SuggestedPrice float64            `json:"suggested_price"`
	Rationale      string             `json:"rationale"`
	Phase          BookingPhase       `json:"phase,omitempty"`
	MarketState    MarketState        `json:"market_state,omitempty"`
	OperatingMode  string             `json:"operating_mode,omitempty"`
}

// DiscountResult is the sliding-scale discount for one day-out bracket.
type DiscountResult struct {
	Discount    float64 `json:"discount"`
	Bracket     string  `json:"bracket"`
	Multiplier  float64 `json:"multiplier"`
	CappedByMax bool    `json:"capped_by_max"`
}

// FormulaOutputs bundles the core formula results for one run.
type FormulaOutputs struct {
	PerformanceIndex float64 `json:"performance_index"`
	NewAPS           float64 `json:"new_aps"`
	AnnualTarget     float64 `json:"annual_target"`
	MinPrice         float64 `json:"min_price"`
	MaxPrice         float64 `json:"max_price"`
	DynamicCentroid  float64 `json:"dynamic_centroid"`
	BasePrice        float64 `json:"base_price"`
}

// ScheduleSummary counts the weekly schedule output by recommendation type.
type ScheduleSummary struct {
	DaysAudited    int                        `json:"days_audited"`
	DaysWithAction int                        `json:"days_with_action"`
	ByType         map[RecommendationType]int `json:"by_type"`
}

// RunInput is the single entry-point argument for an engine run.
type RunInput struct {
	Property          PropertyData `json:"property"`
	Market            MarketData   `json:"market"`
	PreviousAPS       float64      `json:"previous_aps"`
	CurrentTargetRent float64      `json:"current_target_rent"`
	DaysOut           int          `json:"days_out"`
	Today             time.Time    `json:"today"`
	Pacing            PacingInputs `json:"pacing,omitempty"`
}

// RunResult bundles everything a caller needs to render any report format
// without re-deriving values.
type RunResult struct {
	Formulas   FormulaOutputs   `json:"formulas"`
	Diagnosis  Diagnosis        `json:"diagnosis"`
	Correction CorrectionResult `json:"correction"`
	State      MarketState      `json:"market_state"`
	Mode       OperatingMode    `json:"operating_mode"`
	Schedule   []Recommendation `json:"schedule"`
	Summary    ScheduleSummary  `json:"summary"`
	Promotions []Recommendation `json:"promotions"`
}

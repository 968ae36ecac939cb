package credit

// Metrics is the fixed-shape behavioural bundle gathered for an address.
// Value fields are ADA (major units); counts are raw.
type Metrics struct {
	TotalTransactions    int
	TotalValueTransacted float64
	AccountAgeDays       int
	StakingActivity      bool
	NFTCount             int
	DexInteractions      int
	AverageBalance       float64
	ConsistentActivity   bool
}

// Impact qualifies a factor's contribution to the final score.
type Impact string

const (
	ImpactPositive Impact = "positive"
	ImpactNegative Impact = "negative"
	ImpactNeutral  Impact = "neutral"
)

// Factor reports one scoring input with its exact numeric contribution.
type Factor struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Impact Impact `json:"impact"`
	Weight int    `json:"weight"`
}

// RiskLevel is the ordered four-tier risk classification.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskVeryHigh RiskLevel = "very-high"
)

// Assessment is the scoring engine output. MaxLoanAmount is ADA;
// SuggestedInterestRate is basis points.
type Assessment struct {
	Score                 int       `json:"score"`
	RiskLevel             RiskLevel `json:"riskLevel"`
	Factors               []Factor  `json:"factors"`
	Recommendation        string    `json:"recommendation"`
	MaxLoanAmount         float64   `json:"maxLoanAmount"`
	SuggestedInterestRate int       `json:"suggestedInterestRate"`
}

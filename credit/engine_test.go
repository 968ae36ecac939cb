package credit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreZeroMetricsClampsToFloor(t *testing.T) {
	// All-zero metrics carry the consistency penalty (300 - 30) and clamp
	// back to the floor.
	got := Score(Metrics{}, 1000)

	assert.Equal(t, 300, got.Score)
	assert.Equal(t, RiskVeryHigh, got.RiskLevel)
	assert.Equal(t, 1500, got.SuggestedInterestRate)
	assert.Equal(t, float64(0), got.MaxLoanAmount)
	assert.Contains(t, got.Recommendation, "exceeds maximum approved amount")
}

func TestScoreStrongProfileClampsToCeiling(t *testing.T) {
	m := Metrics{
		TotalTransactions:    150,
		TotalValueTransacted: 20000,
		AccountAgeDays:       400,
		StakingActivity:      true,
		NFTCount:             12,
		DexInteractions:      25,
		AverageBalance:       20000,
		ConsistentActivity:   true,
	}
	got := Score(m, 100)

	require.Len(t, got.Factors, 8)
	byName := map[string]Factor{}
	for _, f := range got.Factors {
		byName[f.Name] = f
	}
	assert.Equal(t, 100, byName["Account Age"].Weight)
	assert.Equal(t, 150, byName["Transaction History"].Weight)
	assert.Equal(t, 100, byName["Total Value Transacted"].Weight)
	assert.Equal(t, 80, byName["Staking Activity"].Weight)
	assert.Equal(t, 70, byName["Activity Consistency"].Weight)
	assert.Equal(t, 50, byName["DeFi Experience"].Weight)
	assert.Equal(t, 50, byName["NFT Portfolio"].Weight)
	assert.Equal(t, 50, byName["Average Balance"].Weight)

	assert.Equal(t, 850, got.Score)
	assert.Equal(t, RiskLow, got.RiskLevel)
	assert.Equal(t, 500, got.SuggestedInterestRate)
	assert.Equal(t, float64(10000), got.MaxLoanAmount)
	assert.Contains(t, got.Recommendation, "Excellent credit profile")
}

func TestScoreWeightsSumToPreClampDelta(t *testing.T) {
	cases := []Metrics{
		{},
		{TotalTransactions: 7, AccountAgeDays: 45, AverageBalance: 250},
		{TotalTransactions: 30, TotalValueTransacted: 700, DexInteractions: 7, NFTCount: 3, ConsistentActivity: true},
		{TotalTransactions: 60, TotalValueTransacted: 6000, AccountAgeDays: 200, StakingActivity: true, AverageBalance: 1500},
	}
	for _, m := range cases {
		got := Score(m, 50)
		sum := 0
		for _, f := range got.Factors {
			sum += f.Weight
		}
		preClamp := 300 + sum
		assert.Equal(t, clamp(preClamp, 300, 850), got.Score, "metrics %+v", m)
	}
}

func TestScoreDeterministic(t *testing.T) {
	m := Metrics{
		TotalTransactions:    42,
		TotalValueTransacted: 1234.56,
		AccountAgeDays:       123,
		StakingActivity:      true,
		NFTCount:             4,
		DexInteractions:      11,
		AverageBalance:       876.5,
		ConsistentActivity:   true,
	}
	first := Score(m, 500)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Score(m, 500))
	}
	assert.GreaterOrEqual(t, first.Score, 300)
	assert.LessOrEqual(t, first.Score, 850)
}

func TestPiecewiseBranches(t *testing.T) {
	assert.Equal(t, 0, scoreAccountAge(29))
	assert.Equal(t, 20, scoreAccountAge(30))
	assert.Equal(t, 40, scoreAccountAge(90))
	assert.Equal(t, 70, scoreAccountAge(180))
	assert.Equal(t, 100, scoreAccountAge(365))

	assert.Equal(t, 18, scoreTransactionHistory(9))
	assert.Equal(t, 30, scoreTransactionHistory(10))
	assert.Equal(t, 60, scoreTransactionHistory(20))
	assert.Equal(t, 100, scoreTransactionHistory(50))
	assert.Equal(t, 150, scoreTransactionHistory(100))

	assert.Equal(t, 9, scoreValueTransacted(99))
	assert.Equal(t, 20, scoreValueTransacted(100))
	assert.Equal(t, 40, scoreValueTransacted(500))
	assert.Equal(t, 60, scoreValueTransacted(1000))
	assert.Equal(t, 80, scoreValueTransacted(5000))
	assert.Equal(t, 100, scoreValueTransacted(10000))

	assert.Equal(t, 12, scoreDeFiActivity(4))
	assert.Equal(t, 20, scoreDeFiActivity(5))
	assert.Equal(t, 35, scoreDeFiActivity(10))
	assert.Equal(t, 50, scoreDeFiActivity(20))

	assert.Equal(t, 5, scoreNFTHoldings(1))
	assert.Equal(t, 15, scoreNFTHoldings(2))
	assert.Equal(t, 30, scoreNFTHoldings(5))
	assert.Equal(t, 50, scoreNFTHoldings(10))

	assert.Equal(t, 0, scoreBalance(99))
	assert.Equal(t, 10, scoreBalance(100))
	assert.Equal(t, 20, scoreBalance(500))
	assert.Equal(t, 30, scoreBalance(1000))
	assert.Equal(t, 40, scoreBalance(5000))
	assert.Equal(t, 50, scoreBalance(10000))
}

func TestRiskTiersAndRates(t *testing.T) {
	assert.Equal(t, RiskVeryHigh, determineRiskLevel(549))
	assert.Equal(t, RiskHigh, determineRiskLevel(550))
	assert.Equal(t, RiskMedium, determineRiskLevel(650))
	assert.Equal(t, RiskLow, determineRiskLevel(750))

	assert.Equal(t, 1500, suggestedRate(549))
	assert.Equal(t, 1200, suggestedRate(550))
	assert.Equal(t, 800, suggestedRate(650))
	assert.Equal(t, 500, suggestedRate(750))
}

func TestMaxLoanBalanceCap(t *testing.T) {
	// Tier base max applies only when half the balance exceeds it.
	assert.Equal(t, float64(400), maxLoanAmount(800, 800))
	assert.Equal(t, float64(10000), maxLoanAmount(800, 50000))
	assert.Equal(t, float64(500), maxLoanAmount(400, 100000))
}

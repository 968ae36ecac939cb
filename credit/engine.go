package credit

import (
	"fmt"
	"math"
)

// Score bounds and tier thresholds.
const (
	baseScore = 300
	maxScore  = 850

	lowThreshold    = 750
	mediumThreshold = 650
	highThreshold   = 550
)

// Score derives a credit assessment from on-chain metrics. The function is
// pure and deterministic: identical metrics always reproduce the same
// assessment bit for bit. requestedAmount (ADA) only influences the
// recommendation text, never the score.
func Score(m Metrics, requestedAmount float64) Assessment {
	factors := make([]Factor, 0, 8)
	total := baseScore

	ageScore := scoreAccountAge(m.AccountAgeDays)
	total += ageScore
	factors = append(factors, Factor{
		Name:   "Account Age",
		Value:  fmt.Sprintf("%d days", m.AccountAgeDays),
		Impact: impactWhen(ageScore > 0),
		Weight: ageScore,
	})

	txScore := scoreTransactionHistory(m.TotalTransactions)
	total += txScore
	factors = append(factors, Factor{
		Name:   "Transaction History",
		Value:  fmt.Sprintf("%d transactions", m.TotalTransactions),
		Impact: impactWhen(txScore > 50),
		Weight: txScore,
	})

	valueScore := scoreValueTransacted(m.TotalValueTransacted)
	total += valueScore
	factors = append(factors, Factor{
		Name:   "Total Value Transacted",
		Value:  fmt.Sprintf("%.2f ADA", m.TotalValueTransacted),
		Impact: impactWhen(valueScore > 30),
		Weight: valueScore,
	})

	stakingScore := 0
	if m.StakingActivity {
		stakingScore = 80
	}
	total += stakingScore
	factors = append(factors, Factor{
		Name:   "Staking Activity",
		Value:  activeLabel(m.StakingActivity),
		Impact: positiveOrNegative(m.StakingActivity),
		Weight: stakingScore,
	})

	// Consistency is the only factor that can subtract points.
	consistencyScore := -30
	if m.ConsistentActivity {
		consistencyScore = 70
	}
	total += consistencyScore
	factors = append(factors, Factor{
		Name:   "Activity Consistency",
		Value:  consistentLabel(m.ConsistentActivity),
		Impact: positiveOrNegative(m.ConsistentActivity),
		Weight: consistencyScore,
	})

	defiScore := scoreDeFiActivity(m.DexInteractions)
	total += defiScore
	factors = append(factors, Factor{
		Name:   "DeFi Experience",
		Value:  fmt.Sprintf("%d interactions", m.DexInteractions),
		Impact: impactWhen(defiScore > 20),
		Weight: defiScore,
	})

	nftScore := scoreNFTHoldings(m.NFTCount)
	total += nftScore
	factors = append(factors, Factor{
		Name:   "NFT Portfolio",
		Value:  fmt.Sprintf("%d NFTs", m.NFTCount),
		Impact: impactWhen(nftScore > 20),
		Weight: nftScore,
	})

	balanceScore := scoreBalance(m.AverageBalance)
	total += balanceScore
	factors = append(factors, Factor{
		Name:   "Average Balance",
		Value:  fmt.Sprintf("%.2f ADA", m.AverageBalance),
		Impact: impactWhen(balanceScore > 20),
		Weight: balanceScore,
	})

	final := clamp(total, baseScore, maxScore)
	risk := determineRiskLevel(final)
	maxLoan := maxLoanAmount(final, m.AverageBalance)

	return Assessment{
		Score:                 final,
		RiskLevel:             risk,
		Factors:               factors,
		Recommendation:        recommendation(requestedAmount, maxLoan, risk),
		MaxLoanAmount:         maxLoan,
		SuggestedInterestRate: suggestedRate(final),
	}
}

func scoreAccountAge(days int) int {
	switch {
	case days >= 365:
		return 100
	case days >= 180:
		return 70
	case days >= 90:
		return 40
	case days >= 30:
		return 20
	default:
		return 0
	}
}

func scoreTransactionHistory(count int) int {
	switch {
	case count >= 100:
		return 150
	case count >= 50:
		return 100
	case count >= 20:
		return 60
	case count >= 10:
		return 30
	default:
		return count * 2
	}
}

func scoreValueTransacted(value float64) int {
	switch {
	case value >= 10000:
		return 100
	case value >= 5000:
		return 80
	case value >= 1000:
		return 60
	case value >= 500:
		return 40
	case value >= 100:
		return 20
	default:
		return int(math.Floor(value / 10))
	}
}

func scoreDeFiActivity(interactions int) int {
	switch {
	case interactions >= 20:
		return 50
	case interactions >= 10:
		return 35
	case interactions >= 5:
		return 20
	default:
		return interactions * 3
	}
}

func scoreNFTHoldings(count int) int {
	switch {
	case count >= 10:
		return 50
	case count >= 5:
		return 30
	case count >= 2:
		return 15
	default:
		return count * 5
	}
}

func scoreBalance(balance float64) int {
	switch {
	case balance >= 10000:
		return 50
	case balance >= 5000:
		return 40
	case balance >= 1000:
		return 30
	case balance >= 500:
		return 20
	case balance >= 100:
		return 10
	default:
		return 0
	}
}

func determineRiskLevel(score int) RiskLevel {
	switch {
	case score >= lowThreshold:
		return RiskLow
	case score >= mediumThreshold:
		return RiskMedium
	case score >= highThreshold:
		return RiskHigh
	default:
		return RiskVeryHigh
	}
}

// maxLoanAmount caps the tier base maximum at half the average balance.
func maxLoanAmount(score int, balance float64) float64 {
	var baseMax float64
	switch {
	case score >= lowThreshold:
		baseMax = 10000
	case score >= mediumThreshold:
		baseMax = 5000
	case score >= highThreshold:
		baseMax = 2000
	default:
		baseMax = 500
	}
	return math.Min(baseMax, balance*0.5)
}

func suggestedRate(score int) int {
	switch {
	case score >= lowThreshold:
		return 500
	case score >= mediumThreshold:
		return 800
	case score >= highThreshold:
		return 1200
	default:
		return 1500
	}
}

func recommendation(requested, maxLoan float64, risk RiskLevel) string {
	if requested > maxLoan {
		return fmt.Sprintf("Requested amount (%.0f ADA) exceeds maximum approved amount (%.0f ADA). Consider reducing loan amount or building credit history.", requested, maxLoan)
	}
	switch risk {
	case RiskLow:
		return "Excellent credit profile! Approved for loan with favorable terms."
	case RiskMedium:
		return "Good credit profile. Approved with standard terms. Consider staking more ADA to improve score."
	case RiskHigh:
		return "Moderate credit risk. Loan approved with higher interest rate. Increase on-chain activity to improve terms."
	default:
		return "High credit risk. Loan approved with maximum interest rate and lower limits. Build transaction history to improve creditworthiness."
	}
}

func impactWhen(positive bool) Impact {
	if positive {
		return ImpactPositive
	}
	return ImpactNeutral
}

func positiveOrNegative(positive bool) Impact {
	if positive {
		return ImpactPositive
	}
	return ImpactNegative
}

func activeLabel(active bool) string {
	if active {
		return "Active"
	}
	return "Inactive"
}

func consistentLabel(consistent bool) string {
	if consistent {
		return "Consistent"
	}
	return "Inactive"
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"lendada/agent"
	"lendada/models"
)

// latestCreditCheck returns the newest check for the address recorded
// strictly within the freshness window.
func (s *Server) latestCreditCheck(address string) (models.CreditCheck, bool, error) {
	cutoff := s.Now().Add(-s.Market.FreshnessWindow())
	var check models.CreditCheck
	err := s.DB.Where("wallet_address = ? AND created_at > ?", address, cutoff).
		Order("created_at DESC").
		First(&check).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.CreditCheck{}, false, nil
	}
	if err != nil {
		return models.CreditCheck{}, false, err
	}
	return check, true, nil
}

// freshCreditCheck returns a cached check when one is fresh, otherwise runs
// the scoring pipeline through the job manager and persists the outcome.
func (s *Server) freshCreditCheck(r *http.Request, address string, amount int64, duration int) (models.CreditCheck, error) {
	if check, ok, err := s.latestCreditCheck(address); err != nil {
		return models.CreditCheck{}, err
	} else if ok {
		return check, nil
	}

	job, err := s.Jobs.StartJob(agent.Request{
		BorrowerAddress: address,
		LoanAmount:      float64(amount) / 1_000_000,
		Duration:        duration,
	})
	if err != nil {
		return models.CreditCheck{}, errValidation("%v", err)
	}
	assessment, err := s.Poller.Await(r.Context(), job.ID)
	if err != nil {
		if errors.Is(err, agent.ErrPollTimeout) {
			return models.CreditCheck{}, errTimeout("credit scoring timed out", err)
		}
		return models.CreditCheck{}, errUpstream("credit scoring failed", err)
	}

	check := models.CreditCheck{
		ID:            uuid.New(),
		WalletAddress: address,
		Score:         assessment.Score,
		RiskLevel:     string(assessment.RiskLevel),
		MaxLoanAmount: int64(assessment.MaxLoanAmount * 1_000_000),
		InterestRate:  assessment.SuggestedInterestRate,
		JobID:         job.ID,
		CreatedAt:     s.Now(),
	}
	if err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&check).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).
			Where("wallet_address = ?", address).
			UpdateColumn("credit_score", check.Score).Error
	}); err != nil {
		return models.CreditCheck{}, err
	}
	return check, nil
}

// GetCreditScore returns the cached credit check for an address when fresh,
// otherwise computes a new one. Optional amount/duration query parameters
// feed the scoring request; they default to the market minimum.
func (s *Server) GetCreditScore(w http.ResponseWriter, r *http.Request) {
	address, err := parseAddressParam(r, "address")
	if err != nil {
		writeError(w, err)
		return
	}

	amount := s.Market.MinLoanAmount
	if raw := r.URL.Query().Get("amount"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			writeError(w, errValidation("invalid amount"))
			return
		}
		amount = parsed
	}
	duration := s.Market.MinDurationDays
	if raw := r.URL.Query().Get("duration"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, errValidation("invalid duration"))
			return
		}
		duration = parsed
	}

	cached := false
	check, ok, err := s.latestCreditCheck(address)
	if err != nil {
		writeError(w, err)
		return
	}
	if ok {
		cached = true
	} else {
		check, err = s.freshCreditCheck(r, address, amount, duration)
		if err != nil {
			writeError(w, err)
			return
		}
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"walletAddress": check.WalletAddress,
		"score":         check.Score,
		"riskLevel":     check.RiskLevel,
		"maxLoanAmount": check.MaxLoanAmount,
		"interestRate":  check.InterestRate,
		"checkedAt":     check.CreatedAt,
		"cached":        cached,
	})
}

// GetReputation returns the reputation read model for an address: points,
// loan totals and the repayment rate.
func (s *Server) GetReputation(w http.ResponseWriter, r *http.Request) {
	address, err := parseAddressParam(r, "address")
	if err != nil {
		writeError(w, err)
		return
	}
	user, err := s.userByAddress(s.DB, address)
	if err != nil {
		writeError(w, err)
		return
	}

	var total, repaid, defaulted int64
	if err := s.DB.Model(&models.Loan{}).Where("borrower_id = ?", user.ID).Count(&total).Error; err != nil {
		writeError(w, err)
		return
	}
	if err := s.DB.Model(&models.Loan{}).
		Where("borrower_id = ? AND status = ?", user.ID, models.StatusRepaid).Count(&repaid).Error; err != nil {
		writeError(w, err)
		return
	}
	if err := s.DB.Model(&models.Loan{}).
		Where("borrower_id = ? AND status = ?", user.ID, models.StatusDefaulted).Count(&defaulted).Error; err != nil {
		writeError(w, err)
		return
	}

	repaymentRate := 0.0
	if settled := repaid + defaulted; settled > 0 {
		repaymentRate = float64(repaid) / float64(settled)
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"walletAddress":    user.WalletAddress,
		"reputationPoints": user.ReputationPoints,
		"totalLoans":       total,
		"repaidLoans":      repaid,
		"defaultedLoans":   defaulted,
		"repaymentRate":    repaymentRate,
	})
}

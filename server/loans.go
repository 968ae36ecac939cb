package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"lendada/chain"
	"lendada/models"
)

const maxLoanPageSize = 50

// CreateLoan validates the request, locks collateral on the ledger and
// persists the loan in PENDING state. The borrower needs a minted identity
// and a fresh cached credit check covering the requested principal; scoring
// never runs inline here, the credit endpoint produces the cache entry.
func (s *Server) CreateLoan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BorrowerAddress string `json:"borrowerAddress"`
		Amount          int64  `json:"amount"`       // lovelace
		InterestRate    int    `json:"interestRate"` // basis points
		Duration        int    `json:"duration"`     // days
	}
	if err := s.decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := chain.ValidateAddress(req.BorrowerAddress); err != nil {
		writeError(w, errValidation("invalid borrower address"))
		return
	}
	if req.Amount < s.Market.MinLoanAmount || req.Amount > s.Market.MaxLoanAmount {
		writeError(w, errValidation("amount must be between %d and %d lovelace", s.Market.MinLoanAmount, s.Market.MaxLoanAmount))
		return
	}
	if req.Duration < s.Market.MinDurationDays || req.Duration > s.Market.MaxDurationDays {
		writeError(w, errValidation("duration must be between %d and %d days", s.Market.MinDurationDays, s.Market.MaxDurationDays))
		return
	}
	if req.InterestRate < 0 {
		writeError(w, errValidation("interest rate must not be negative"))
		return
	}

	borrower, err := s.userByAddress(s.DB, req.BorrowerAddress)
	if err != nil {
		writeError(w, err)
		return
	}
	if !borrower.HasIdentity() {
		writeError(w, errPrecondition("borrower has no identity credential"))
		return
	}

	check, ok, err := s.latestCreditCheck(req.BorrowerAddress)
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok {
		writeError(w, errPrecondition("credit check required, run a credit check first"))
		return
	}
	if req.Amount > check.MaxLoanAmount {
		writeError(w, errPrecondition("amount exceeds approved maximum of %d lovelace", check.MaxLoanAmount))
		return
	}
	// An omitted rate falls back to the rate suggested by the credit check.
	if req.InterestRate == 0 {
		req.InterestRate = check.InterestRate
	}

	collateral := req.Amount * int64(s.Market.CollateralRatioBps) / 10000

	submitted, err := s.submit(r, chain.CreateLoanEscrow{
		Borrower:        req.BorrowerAddress,
		Principal:       req.Amount,
		InterestRateBps: req.InterestRate,
		DurationDays:    req.Duration,
		Collateral:      collateral,
		IdentityToken:   borrower.IdentityToken,
		MinCreditScore:  check.Score,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	now := s.Now()
	loan := models.Loan{
		ID:           uuid.New(),
		BorrowerID:   borrower.ID,
		Principal:    req.Amount,
		InterestRate: req.InterestRate,
		Duration:     req.Duration,
		Collateral:   collateral,
		Status:       models.StatusPending,
		TxHash:       submitted.TxHash,
		UtxoRef:      submitted.UtxoRef,
		CreatedAt:    now,
		UpdatedAt:    now,
		DueAt:        now.AddDate(0, 0, req.Duration),
	}
	if err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&loan).Error; err != nil {
			return err
		}
		// The create transaction locks collateral, not principal, so that is
		// the amount the audit row carries.
		return s.appendAudit(tx, borrower.ID, &loan.ID, models.TxTypeLoanCreate, loan.Collateral, submitted.TxHash)
	}); err != nil {
		s.Logger.Error("persist loan after ledger submit", "loan", loan.ID, "txHash", submitted.TxHash, "error", err)
		writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, loan)
}

// FundLoan moves a PENDING loan to FUNDED, recording the lender and the
// funding transaction. The ledger submission happens under the row lock so
// concurrent funders serialize; exactly one wins.
func (s *Server) FundLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := parseLoanID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		LenderAddress string `json:"lenderAddress"`
	}
	if err := s.decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := chain.ValidateAddress(req.LenderAddress); err != nil {
		writeError(w, errValidation("invalid lender address"))
		return
	}

	loan, err := s.transitionLoan(loanID, models.StatusFunded, func(tx *gorm.DB, loan *models.Loan) error {
		lender, err := s.ensureUser(tx, req.LenderAddress)
		if err != nil {
			return err
		}
		if lender.ID == loan.BorrowerID {
			return errForbidden("borrower cannot fund their own loan")
		}
		submitted, err := s.submit(r, chain.FundLoan{
			Lender:    req.LenderAddress,
			UtxoRef:   loan.UtxoRef,
			Principal: loan.Principal,
		})
		if err != nil {
			return err
		}
		now := s.Now()
		loan.LenderID = &lender.ID
		loan.FundedAt = &now
		loan.TxHash = submitted.TxHash
		return s.appendAudit(tx, lender.ID, &loan.ID, models.TxTypeLoanFund, loan.Principal, submitted.TxHash)
	})
	if err != nil {
		writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, loan)
}

// ClaimLoan releases the escrowed principal to the borrower, moving the loan
// from FUNDED to ACTIVE.
func (s *Server) ClaimLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := parseLoanID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		BorrowerAddress string `json:"borrowerAddress"`
	}
	if err := s.decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := chain.ValidateAddress(req.BorrowerAddress); err != nil {
		writeError(w, errValidation("invalid borrower address"))
		return
	}

	loan, err := s.transitionLoan(loanID, models.StatusActive, func(tx *gorm.DB, loan *models.Loan) error {
		borrower, err := s.userByAddress(tx, req.BorrowerAddress)
		if err != nil {
			return err
		}
		if borrower.ID != loan.BorrowerID {
			return errForbidden("only the borrower can claim the principal")
		}
		submitted, err := s.submit(r, chain.ClaimLoan{
			Borrower: req.BorrowerAddress,
			UtxoRef:  loan.UtxoRef,
		})
		if err != nil {
			return err
		}
		now := s.Now()
		loan.ClaimedAt = &now
		loan.TxHash = submitted.TxHash
		return s.appendAudit(tx, borrower.ID, &loan.ID, models.TxTypeLoanClaim, loan.Principal, submitted.TxHash)
	})
	if err != nil {
		writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, loan)
}

// RepayLoan settles an ACTIVE loan. The supplied amount is recorded as-is;
// the service neither rejects nor adjusts under- or over-payment. Repayment
// credits the borrower one reputation point per whole ADA of principal.
func (s *Server) RepayLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := parseLoanID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		BorrowerAddress string `json:"borrowerAddress"`
		Amount          int64  `json:"amount"` // lovelace
	}
	if err := s.decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := chain.ValidateAddress(req.BorrowerAddress); err != nil {
		writeError(w, errValidation("invalid borrower address"))
		return
	}
	if req.Amount <= 0 {
		writeError(w, errValidation("amount must be positive"))
		return
	}

	var borrower models.User
	loan, err := s.transitionLoan(loanID, models.StatusRepaid, func(tx *gorm.DB, loan *models.Loan) error {
		var err error
		borrower, err = s.userByAddress(tx, req.BorrowerAddress)
		if err != nil {
			return err
		}
		if borrower.ID != loan.BorrowerID {
			return errForbidden("only the borrower can repay the loan")
		}
		submitted, err := s.submit(r, chain.RepayLoan{
			Borrower: req.BorrowerAddress,
			UtxoRef:  loan.UtxoRef,
			Amount:   req.Amount,
		})
		if err != nil {
			return err
		}
		now := s.Now()
		loan.RepaidAt = &now
		loan.TxHash = submitted.TxHash
		points := loan.Principal / 1_000_000
		if err := tx.Model(&models.User{}).
			Where("id = ?", borrower.ID).
			UpdateColumn("reputation_points", gorm.Expr("reputation_points + ?", points)).Error; err != nil {
			return err
		}
		return s.appendAudit(tx, borrower.ID, &loan.ID, models.TxTypeLoanRepay, req.Amount, submitted.TxHash)
	})
	if err != nil {
		writeError(w, err)
		return
	}

	// The reputation mint is advisory. The repayment is already committed, so
	// a mint failure is logged rather than surfaced.
	if _, err := s.submit(r, chain.MintReputation{
		Owner:      req.BorrowerAddress,
		LoanAmount: loan.Principal,
		RepaidAt:   *loan.RepaidAt,
		DueAt:      loan.DueAt,
	}); err != nil {
		s.Logger.Warn("reputation mint failed", "loan", loan.ID, "error", err)
	}

	s.writeJSON(w, http.StatusOK, loan)
}

// ListLoans returns loans newest-first, capped at 50, optionally filtered by
// status and participant wallet address.
func (s *Server) ListLoans(w http.ResponseWriter, r *http.Request) {
	query := s.DB.Model(&models.Loan{}).Order("created_at DESC")

	if status := r.URL.Query().Get("status"); status != "" {
		query = query.Where("status = ?", models.LoanStatus(status))
	}
	if participant := r.URL.Query().Get("participant"); participant != "" {
		var user models.User
		err := s.DB.First(&user, "wallet_address = ?", participant).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.writeJSON(w, http.StatusOK, []models.Loan{})
			return
		}
		if err != nil {
			writeError(w, err)
			return
		}
		query = query.Where("borrower_id = ? OR lender_id = ?", user.ID, user.ID)
	}

	limit := maxLoanPageSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, errValidation("invalid limit"))
			return
		}
		if parsed < limit {
			limit = parsed
		}
	}

	var loans []models.Loan
	if err := query.Limit(limit).Find(&loans).Error; err != nil {
		writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, loans)
}

// GetLoan returns one loan with its participants and audit trail.
func (s *Server) GetLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := parseLoanID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var loan models.Loan
	if err := s.DB.Preload("Borrower").Preload("Lender").Preload("Transactions").
		First(&loan, "id = ?", loanID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeError(w, errNotFound("loan not found"))
			return
		}
		writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, loan)
}

// ListLoanTransactions returns the audit rows for one loan, oldest first.
func (s *Server) ListLoanTransactions(w http.ResponseWriter, r *http.Request) {
	loanID, err := parseLoanID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var count int64
	if err := s.DB.Model(&models.Loan{}).Where("id = ?", loanID).Count(&count).Error; err != nil {
		writeError(w, err)
		return
	}
	if count == 0 {
		writeError(w, errNotFound("loan not found"))
		return
	}
	var transactions []models.Transaction
	if err := s.DB.Where("loan_id = ?", loanID).Order("created_at ASC").Find(&transactions).Error; err != nil {
		writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, transactions)
}

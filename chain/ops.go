package chain

import "time"

// Operation is a closed set of ledger submissions. Each lifecycle transition
// maps to exactly one variant; the wallet service builds, signs and submits
// the corresponding transaction.
type Operation interface {
	Kind() string
}

// Operation kinds understood by the wallet submitter.
const (
	KindCreateLoanEscrow = "create_loan_escrow"
	KindFundLoan         = "fund_loan"
	KindClaimLoan        = "claim_loan"
	KindRepayLoan        = "repay_loan"
	KindMintIdentity     = "mint_identity"
	KindMintReputation   = "mint_reputation"
)

// CreateLoanEscrow locks collateral into the loan escrow script and produces
// the UTxO that anchors all later transitions.
type CreateLoanEscrow struct {
	Borrower        string `json:"borrower"`
	Principal       int64  `json:"principal"`     // lovelace
	InterestRateBps int    `json:"interestRate"`  // basis points
	DurationDays    int    `json:"duration"`      // days
	Collateral      int64  `json:"collateral"`    // lovelace
	IdentityToken   string `json:"identityToken"` // policy.assetName
	MinCreditScore  int    `json:"minCreditScore"`
}

func (CreateLoanEscrow) Kind() string { return KindCreateLoanEscrow }

// FundLoan spends the escrow UTxO with the fund redeemer, transferring the
// principal into escrow.
type FundLoan struct {
	Lender    string `json:"lender"`
	UtxoRef   string `json:"utxoRef"`
	Principal int64  `json:"principal"` // lovelace
}

func (FundLoan) Kind() string { return KindFundLoan }

// ClaimLoan releases the escrowed principal to the borrower.
type ClaimLoan struct {
	Borrower string `json:"borrower"`
	UtxoRef  string `json:"utxoRef"`
}

func (ClaimLoan) Kind() string { return KindClaimLoan }

// RepayLoan spends the escrow UTxO with the repay redeemer carrying the
// repayment amount.
type RepayLoan struct {
	Borrower string `json:"borrower"`
	UtxoRef  string `json:"utxoRef"`
	Amount   int64  `json:"amount"` // lovelace
}

func (RepayLoan) Kind() string { return KindRepayLoan }

// MintIdentity mints the non-transferable identity credential carrying the
// KYC commitment hash.
type MintIdentity struct {
	Owner          string `json:"owner"`
	CommitmentHash string `json:"commitmentHash"`
	KYCLevel       int    `json:"kycLevel"`
	CountryCode    string `json:"countryCode"`
}

func (MintIdentity) Kind() string { return KindMintIdentity }

// MintReputation mints a reputation token after repayment. The due/repaid
// timestamps travel with the mint so a future late-penalty policy can use
// them.
type MintReputation struct {
	Owner      string    `json:"owner"`
	LoanAmount int64     `json:"loanAmount"` // lovelace
	RepaidAt   time.Time `json:"repaidAt"`
	DueAt      time.Time `json:"dueAt"`
}

func (MintReputation) Kind() string { return KindMintReputation }

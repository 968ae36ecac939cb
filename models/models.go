package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LoanStatus represents a state in the loan lifecycle.
type LoanStatus string

// All lifecycle states. DEFAULTED and CANCELLED are terminal states reserved
// for future overdue/cancellation handling; no operation currently produces
// them.
const (
	StatusPending   LoanStatus = "PENDING"
	StatusFunded    LoanStatus = "FUNDED"
	StatusActive    LoanStatus = "ACTIVE"
	StatusRepaid    LoanStatus = "REPAID"
	StatusDefaulted LoanStatus = "DEFAULTED"
	StatusCancelled LoanStatus = "CANCELLED"
)

// Transaction types recorded in the audit log.
const (
	TxTypeIdentityMint = "IDENTITY_MINT"
	TxTypeLoanCreate   = "LOAN_CREATE"
	TxTypeLoanFund     = "LOAN_FUND"
	TxTypeLoanClaim    = "LOAN_CLAIM"
	TxTypeLoanRepay    = "LOAN_REPAY"
)

// User stores marketplace participants keyed by wallet address. A user holds
// at most one identity credential; issuance upserts in place.
type User struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	WalletAddress    string    `gorm:"uniqueIndex;size:128"`
	IdentityToken    string    `gorm:"size:128"`
	CommitmentHash   string    `gorm:"size:64"`
	KYCLevel         int
	CreditScore      int
	ReputationPoints int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// HasIdentity reports whether the user holds a minted identity credential.
func (u *User) HasIdentity() bool {
	return u.IdentityToken != ""
}

// CreditCheck is one row per scoring computation. Rows are append-only;
// later checks supersede earlier ones without overwriting them.
type CreditCheck struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	WalletAddress string    `gorm:"index;size:128"`
	Score         int       `gorm:"not null"`
	RiskLevel     string    `gorm:"size:16"`
	MaxLoanAmount int64     `gorm:"not null"` // lovelace
	InterestRate  int       `gorm:"not null"` // basis points
	JobID         string    `gorm:"size:64"`
	CreatedAt     time.Time `gorm:"index"`
}

// Loan is the central mutable entity. Amounts are lovelace; collateral is
// fixed at creation from the global collateral ratio and never recomputed.
type Loan struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	BorrowerID   uuid.UUID  `gorm:"type:uuid;index"`
	LenderID     *uuid.UUID `gorm:"type:uuid;index"`
	Principal    int64      `gorm:"not null"`
	InterestRate int        `gorm:"not null"` // basis points
	Duration     int        `gorm:"not null"` // days
	Collateral   int64      `gorm:"not null"`
	Status       LoanStatus `gorm:"size:16;index"`
	TxHash       string     `gorm:"size:128"`
	UtxoRef      string     `gorm:"size:136"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	FundedAt     *time.Time
	ClaimedAt    *time.Time
	RepaidAt     *time.Time
	DueAt        time.Time

	Borrower     User          `gorm:"foreignKey:BorrowerID"`
	Lender       *User         `gorm:"foreignKey:LenderID"`
	Transactions []Transaction `gorm:"foreignKey:LoanID"`
}

// Transaction is the append-only audit trail for ledger submissions.
type Transaction struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID  `gorm:"type:uuid;index"`
	LoanID    *uuid.UUID `gorm:"type:uuid;index"`
	Type      string     `gorm:"size:32;index"`
	Amount    int64      `gorm:"not null"`
	TxHash    string     `gorm:"size:128"`
	Status    string     `gorm:"size:16"`
	Metadata  string     `gorm:"type:text"`
	CreatedAt time.Time
}

// IdempotencyKey stores request idempotency metadata.
type IdempotencyKey struct {
	Key       string `gorm:"primaryKey;size:128"`
	RequestID string `gorm:"size:64"`
	Method    string `gorm:"size:8"`
	Path      string `gorm:"size:255"`
	Status    int
	Response  string `gorm:"type:text"`
	CreatedAt time.Time
}

// AutoMigrate performs all schema migrations for the service.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&CreditCheck{},
		&Loan{},
		&Transaction{},
		&IdempotencyKey{},
	)
}

package server

import (
	"net/http"

	"gorm.io/gorm"

	"lendada/chain"
	"lendada/identity"
	"lendada/models"
)

const defaultKYCLevel = 1

// CreateIdentity hashes the private KYC attributes into a commitment, mints
// the identity credential on the ledger and upserts the user record. The raw
// attributes are discarded; only the commitment hash is stored.
func (s *Server) CreateIdentity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WalletAddress string              `json:"walletAddress"`
		Attributes    identity.Attributes `json:"attributes"`
	}
	if err := s.decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := chain.ValidateAddress(req.WalletAddress); err != nil {
		writeError(w, errValidation("invalid wallet address"))
		return
	}
	commitment, err := identity.Commit(req.Attributes)
	if err != nil {
		writeError(w, errValidation("%v", err))
		return
	}

	submitted, err := s.submit(r, chain.MintIdentity{
		Owner:          req.WalletAddress,
		CommitmentHash: commitment.Hash,
		KYCLevel:       defaultKYCLevel,
		CountryCode:    commitment.PublicInputs[0],
	})
	if err != nil {
		writeError(w, err)
		return
	}

	var user models.User
	if err := s.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		user, err = s.ensureUser(tx, req.WalletAddress)
		if err != nil {
			return err
		}
		user.IdentityToken = submitted.TxHash
		user.CommitmentHash = commitment.Hash
		user.KYCLevel = defaultKYCLevel
		user.UpdatedAt = s.Now()
		if err := tx.Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]any{
			"identity_token":  user.IdentityToken,
			"commitment_hash": user.CommitmentHash,
			"kyc_level":       user.KYCLevel,
			"updated_at":      user.UpdatedAt,
		}).Error; err != nil {
			return err
		}
		return s.appendAudit(tx, user.ID, nil, models.TxTypeIdentityMint, 0, submitted.TxHash)
	}); err != nil {
		s.Logger.Error("persist identity after ledger submit", "address", req.WalletAddress, "txHash", submitted.TxHash, "error", err)
		writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, map[string]any{
		"walletAddress":  user.WalletAddress,
		"identityToken":  user.IdentityToken,
		"commitmentHash": user.CommitmentHash,
		"kycLevel":       user.KYCLevel,
		"publicInputs":   commitment.PublicInputs,
	})
}

// VerifyIdentity checks whether the supplied attributes reproduce the
// commitment stored for the wallet.
func (s *Server) VerifyIdentity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WalletAddress string              `json:"walletAddress"`
		Attributes    identity.Attributes `json:"attributes"`
	}
	if err := s.decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	user, err := s.userByAddress(s.DB, req.WalletAddress)
	if err != nil {
		writeError(w, err)
		return
	}
	if !user.HasIdentity() {
		writeError(w, errPrecondition("no identity credential minted for this wallet"))
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"walletAddress": user.WalletAddress,
		"verified":      identity.Verify(req.Attributes, user.CommitmentHash),
	})
}

// GetIdentity returns the public identity state for a wallet.
func (s *Server) GetIdentity(w http.ResponseWriter, r *http.Request) {
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

	s.writeJSON(w, http.StatusOK, map[string]any{
		"walletAddress":  user.WalletAddress,
		"hasIdentity":    user.HasIdentity(),
		"identityToken":  user.IdentityToken,
		"commitmentHash": user.CommitmentHash,
		"kycLevel":       user.KYCLevel,
	})
}

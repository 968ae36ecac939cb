package server

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"lendada/models"
)

// ExportTransactions streams the full audit trail as CSV for operator
// reconciliation. Optional since/until query parameters (RFC 3339) bound the
// window.
func (s *Server) ExportTransactions(w http.ResponseWriter, r *http.Request) {
	query := s.DB.Model(&models.Transaction{}).Order("created_at ASC")

	if raw := r.URL.Query().Get("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, errValidation("invalid since timestamp"))
			return
		}
		query = query.Where("created_at >= ?", since)
	}
	if raw := r.URL.Query().Get("until"); raw != "" {
		until, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, errValidation("invalid until timestamp"))
			return
		}
		query = query.Where("created_at < ?", until)
	}

	var transactions []models.Transaction
	if err := query.Find(&transactions).Error; err != nil {
		writeError(w, err)
		return
	}

	filename := fmt.Sprintf("transactions_%s.csv", s.Now().UTC().Format("20060102T150405Z"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)

	writer := csv.NewWriter(w)
	_ = writer.Write([]string{"id", "user_id", "loan_id", "type", "amount", "tx_hash", "status", "created_at"})
	for _, record := range transactions {
		loanID := ""
		if record.LoanID != nil {
			loanID = record.LoanID.String()
		}
		_ = writer.Write([]string{
			record.ID.String(),
			record.UserID.String(),
			loanID,
			record.Type,
			strconv.FormatInt(record.Amount, 10),
			record.TxHash,
			record.Status,
			record.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		s.Logger.Error("csv export flush failed", "error", err)
	}
}

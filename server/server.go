package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lendada/agent"
	"lendada/chain"
	"lendada/config"
	lmw "lendada/middleware"
	"lendada/models"
)

// Config captures the dependencies required to construct the server.
type Config struct {
	DB            *gorm.DB
	Submitter     chain.Submitter
	Jobs          *agent.Manager
	Poller        *agent.Poller
	Market        config.MarketConfig
	Ops           config.OpsConfig
	SubmitTimeout time.Duration
	Logger        *slog.Logger
}

// Server encapsulates dependencies for the HTTP API.
type Server struct {
	DB            *gorm.DB
	Submitter     chain.Submitter
	Jobs          *agent.Manager
	Poller        *agent.Poller
	Market        config.MarketConfig
	Ops           config.OpsConfig
	SubmitTimeout time.Duration
	Logger        *slog.Logger
	Now           func() time.Time

	obs    *lmw.Observability
	router http.Handler
}

// New constructs a configured HTTP router with idempotency, rate limiting
// and observability wired in.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.SubmitTimeout <= 0 {
		cfg.SubmitTimeout = 15 * time.Second
	}
	srv := &Server{
		DB:            cfg.DB,
		Submitter:     cfg.Submitter,
		Jobs:          cfg.Jobs,
		Poller:        cfg.Poller,
		Market:        cfg.Market,
		Ops:           cfg.Ops,
		SubmitTimeout: cfg.SubmitTimeout,
		Logger:        cfg.Logger,
		Now:           time.Now,
	}
	srv.obs = lmw.NewObservability(lmw.ObservabilityConfig{
		ServiceName: "lendada",
		LogRequests: true,
	}, cfg.Logger)
	srv.router = srv.buildRouter()
	return srv
}

// Handler exposes the configured HTTP router.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Get("/health", s.Health)
	r.Handle("/metrics", s.obs.MetricsHandler())

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(s.obs.Middleware("api"))
		api.Use(func(next http.Handler) http.Handler { return lmw.WithIdempotency(s.DB, next) })

		api.Post("/loans", s.CreateLoan)
		api.Get("/loans", s.ListLoans)
		api.Get("/loans/{id}", s.GetLoan)
		api.Get("/loans/{id}/transactions", s.ListLoanTransactions)
		api.Post("/loans/{id}/fund", s.FundLoan)
		api.Post("/loans/{id}/claim", s.ClaimLoan)
		api.Post("/loans/{id}/repay", s.RepayLoan)

		api.Post("/identity/create", s.CreateIdentity)
		api.Post("/identity/verify", s.VerifyIdentity)
		api.Get("/identity/{address}", s.GetIdentity)

		api.Get("/credit/{address}", s.GetCreditScore)
		api.Get("/reputation/{address}", s.GetReputation)
	})

	r.Route("/agent", func(ag chi.Router) {
		ag.Use(s.obs.Middleware("agent"))
		ag.Get("/availability", s.AgentAvailability)
		ag.Get("/input_schema", s.AgentInputSchema)
		ag.Post("/start_job", s.AgentStartJob)
		ag.Get("/status/{jobId}", s.AgentJobStatus)
	})

	// The operator surface only exists when a secret is configured.
	if s.Ops.JWTSecret != "" {
		auth := lmw.NewAuthenticator(lmw.AuthConfig{
			HMACSecret: s.Ops.JWTSecret,
			Issuer:     s.Ops.Issuer,
		}, s.Logger)
		limiter := lmw.NewRateLimiter(map[string]lmw.RateLimit{
			"ops": {RequestsPerMinute: s.Ops.RatePerMin, Burst: int(s.Ops.RatePerMin)},
		}, s.Logger)
		r.Route("/ops", func(ops chi.Router) {
			ops.Use(s.obs.Middleware("ops"))
			ops.Use(limiter.Middleware("ops"))
			ops.Use(auth.Middleware)
			ops.Get("/export/transactions", s.ExportTransactions)
		})
	}

	return r
}

// Health reports service liveness and database reachability.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	sqlDB, err := s.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(r.Context())
	}
	if err != nil {
		status = "degraded"
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  status,
		"service": "lendada",
		"time":    s.Now().UTC().Format(time.RFC3339),
	})
}

// transitionLoan wraps a state change with the per-loan row lock, transition
// validation and a status-conditioned update. The hook runs while the lock is
// held and performs the ledger submission and any extra mutations; its writes
// to the loan struct are persisted by the final update.
func (s *Server) transitionLoan(loanID uuid.UUID, next models.LoanStatus, hook func(tx *gorm.DB, loan *models.Loan) error) (models.Loan, error) {
	var result models.Loan
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var loan models.Loan
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&loan, "id = ?", loanID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errNotFound("loan not found")
			}
			return err
		}
		prev := loan.Status
		if err := ValidateTransition(prev, next); err != nil {
			return err
		}
		if hook != nil {
			if err := hook(tx, &loan); err != nil {
				return err
			}
		}
		loan.Status = next
		loan.UpdatedAt = s.Now()
		update := tx.Model(&models.Loan{}).
			Where("id = ? AND status = ?", loan.ID, prev).
			Select("*").
			Updates(&loan)
		if update.Error != nil {
			return update.Error
		}
		if update.RowsAffected != 1 {
			return errPrecondition("loan was modified concurrently")
		}
		result = loan
		return nil
	})
	return result, err
}

// appendAudit records a ledger submission in the audit trail.
func (s *Server) appendAudit(tx *gorm.DB, userID uuid.UUID, loanID *uuid.UUID, txType string, amount int64, txHash string) error {
	record := models.Transaction{
		ID:        uuid.New(),
		UserID:    userID,
		LoanID:    loanID,
		Type:      txType,
		Amount:    amount,
		TxHash:    txHash,
		Status:    "CONFIRMED",
		CreatedAt: s.Now(),
	}
	return tx.Create(&record).Error
}

// userByAddress loads the user registered for a wallet address.
func (s *Server) userByAddress(tx *gorm.DB, address string) (models.User, error) {
	var user models.User
	if err := tx.First(&user, "wallet_address = ?", address).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, errNotFound("no user registered for %s", address)
		}
		return models.User{}, err
	}
	return user, nil
}

// ensureUser loads or creates the user record for a wallet address.
func (s *Server) ensureUser(tx *gorm.DB, address string) (models.User, error) {
	var user models.User
	err := tx.First(&user, "wallet_address = ?", address).Error
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, err
	}
	now := s.Now()
	user = models.User{
		ID:            uuid.New(),
		WalletAddress: address,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := tx.Create(&user).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (s *Server) submit(r *http.Request, op chain.Operation) (chain.SubmitResult, error) {
	ctx, cancel := context.WithTimeout(r.Context(), s.SubmitTimeout)
	defer cancel()
	result, err := s.Submitter.Submit(ctx, op)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return chain.SubmitResult{}, errTimeout("ledger submission timed out", err)
		}
		return chain.SubmitResult{}, errUpstream("ledger submission failed", err)
	}
	return result, nil
}

func (s *Server) decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errValidation("invalid payload")
	}
	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func parseAddressParam(r *http.Request, name string) (string, error) {
	address := chi.URLParam(r, name)
	if err := chain.ValidateAddress(address); err != nil {
		return "", errValidation("invalid wallet address")
	}
	return address, nil
}

func parseLoanID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, errValidation("invalid loan id")
	}
	return id, nil
}

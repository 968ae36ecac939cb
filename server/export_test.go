package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"lendada/agent"
	"lendada/config"
)

func opsToken(t *testing.T, secret, issuer string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss": issuer,
		"sub": "ops",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestExportTransactionsRequiresToken(t *testing.T) {
	db := setupTestDB(t)
	jobs := agent.NewManager(fixedScorer{assessment: defaultAssessment()}, time.Hour, nil)
	srv := New(Config{
		DB:        db,
		Submitter: &fakeSubmitter{},
		Jobs:      jobs,
		Poller:    agent.NewPoller(jobs, time.Millisecond, 100),
		Market:    testMarket(),
		Ops:       config.OpsConfig{JWTSecret: "ops-secret", Issuer: "lendada", RatePerMin: 600},
	})
	handler := srv.Handler()

	borrower := testAddress(t, 20)
	createPendingLoan(t, handler, borrower)

	recorder := doJSON(t, handler, http.MethodGet, "/ops/export/transactions", "")
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", recorder.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/ops/export/transactions", nil)
	req.Header.Set("Authorization", "Bearer "+opsToken(t, "ops-secret", "lendada"))
	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", recorder.Code, recorder.Body.String())
	}
	if ct := recorder.Header().Get("Content-Type"); ct != "text/csv" {
		t.Fatalf("expected text/csv got %q", ct)
	}
	lines := strings.Split(strings.TrimSpace(recorder.Body.String()), "\n")
	if len(lines) < 3 {
		t.Fatalf("expected header plus identity and loan rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "id,user_id,loan_id,type,") {
		t.Fatalf("unexpected header %q", lines[0])
	}
}

func TestOpsSurfaceAbsentWithoutSecret(t *testing.T) {
	db := setupTestDB(t)
	srv := newTestServer(t, db, &fakeSubmitter{}, defaultAssessment())

	recorder := doJSON(t, srv.Handler(), http.MethodGet, "/ops/export/transactions", "")
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected 404 when ops disabled got %d", recorder.Code)
	}
}

package server

import (
	"testing"

	"lendada/models"
)

func TestValidateTransition(t *testing.T) {
	valid := []struct {
		from, to models.LoanStatus
	}{
		{models.StatusPending, models.StatusFunded},
		{models.StatusPending, models.StatusCancelled},
		{models.StatusFunded, models.StatusActive},
		{models.StatusActive, models.StatusRepaid},
		{models.StatusActive, models.StatusDefaulted},
	}
	for _, tc := range valid {
		if err := ValidateTransition(tc.from, tc.to); err != nil {
			t.Fatalf("%s -> %s should be allowed: %v", tc.from, tc.to, err)
		}
	}

	invalid := []struct {
		from, to models.LoanStatus
	}{
		{models.StatusPending, models.StatusActive},
		{models.StatusPending, models.StatusRepaid},
		{models.StatusFunded, models.StatusRepaid},
		{models.StatusFunded, models.StatusPending},
		{models.StatusActive, models.StatusFunded},
		{models.StatusRepaid, models.StatusActive},
		{models.StatusDefaulted, models.StatusActive},
		{models.StatusCancelled, models.StatusFunded},
	}
	for _, tc := range invalid {
		if err := ValidateTransition(tc.from, tc.to); err == nil {
			t.Fatalf("%s -> %s should be rejected", tc.from, tc.to)
		}
	}
}

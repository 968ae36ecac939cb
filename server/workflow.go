package server

import (
	"lendada/models"
)

var allowedTransitions = map[models.LoanStatus][]models.LoanStatus{
	models.StatusPending: {models.StatusFunded, models.StatusCancelled},
	models.StatusFunded:  {models.StatusActive},
	models.StatusActive:  {models.StatusRepaid, models.StatusDefaulted},
}

// ValidateTransition ensures the transition follows the loan state machine.
func ValidateTransition(current, next models.LoanStatus) error {
	allowed, ok := allowedTransitions[current]
	if !ok {
		return errPrecondition("loan in terminal state %s", current)
	}
	for _, status := range allowed {
		if status == next {
			return nil
		}
	}
	return errPrecondition("loan is %s, cannot move to %s", current, next)
}

package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"lendada/agent"
)

// AgentAvailability reports that the scoring agent accepts jobs.
func (s *Server) AgentAvailability(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "available",
		"type":    "masumi-agent",
		"message": "Credit scoring agent is ready",
	})
}

// AgentInputSchema describes the start_job request payload.
func (s *Server) AgentInputSchema(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"input_data": []map[string]any{
			{"key": "borrowerAddress", "type": "string", "description": "Cardano wallet address to score"},
			{"key": "loanAmount", "type": "number", "description": "Requested loan amount in ADA"},
			{"key": "duration", "type": "number", "description": "Requested duration in days"},
		},
	})
}

// AgentStartJob registers an asynchronous scoring job and returns its id
// immediately.
func (s *Server) AgentStartJob(w http.ResponseWriter, r *http.Request) {
	var req agent.Request
	if err := s.decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	job, err := s.Jobs.StartJob(req)
	if err != nil {
		if errors.Is(err, agent.ErrMissingFields) {
			writeError(w, errValidation("%v", err))
			return
		}
		writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, job)
}

// AgentJobStatus returns the current snapshot of a scoring job.
func (s *Server) AgentJobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobId")
	job, err := s.Jobs.GetStatus(jobID)
	if err != nil {
		if errors.Is(err, agent.ErrJobNotFound) {
			writeError(w, errNotFound("job not found"))
			return
		}
		writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, job)
}

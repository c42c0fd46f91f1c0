package httpapi

import (
	"errors"
	"net/http"

	"github.com/spin-match/spin-match/internal/application/engine"
	domainPairing "github.com/spin-match/spin-match/internal/domain/pairing"
	"github.com/spin-match/spin-match/internal/domain/participant"
	domainQueue "github.com/spin-match/spin-match/internal/domain/queue"
)

type voteRequest struct {
	Vote string `json:"vote"`
}

func (s *Server) requestAvailability(w http.ResponseWriter, r *http.Request) {
	var prof engine.Profile
	if err := decodeBody(r, &prof); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	st, err := s.engine.RequestAvailability(r.Context(), prof)
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrCoolingDown):
			respondError(w, http.StatusConflict, "COOLING_DOWN", err.Error())
		case errors.Is(err, engine.ErrNotAvailable):
			respondError(w, http.StatusConflict, "NOT_AVAILABLE", err.Error())
		case errors.Is(err, domainQueue.ErrDuplicateEnqueue):
			respondError(w, http.StatusConflict, "ALREADY_ENQUEUED", err.Error())
		default:
			respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		}
		return
	}
	respondJSON(w, http.StatusOK, st)
}

func (s *Server) pollStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "participantId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid participantId")
		return
	}
	st, err := s.engine.PollStatus(r.Context(), id)
	if err != nil {
		if errors.Is(err, participant.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "participant not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, st)
}

func (s *Server) submitVote(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "participantId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid participantId")
		return
	}
	var req voteRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	st, err := s.engine.SubmitVote(r.Context(), id, domainPairing.Vote(req.Vote))
	if err != nil {
		switch {
		case errors.Is(err, domainPairing.ErrStaleInput):
			respondError(w, http.StatusConflict, "NO_OPEN_PAIRING", "no open pairing to vote on")
		case errors.Is(err, domainPairing.ErrNotMember):
			respondError(w, http.StatusForbidden, "NOT_MEMBER", err.Error())
		case errors.Is(err, participant.ErrNotFound):
			respondError(w, http.StatusNotFound, "NOT_FOUND", "participant not found")
		default:
			respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		}
		return
	}
	respondJSON(w, http.StatusOK, st)
}

func (s *Server) heartbeat(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "participantId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid participantId")
		return
	}
	if err := s.engine.Heartbeat(r.Context(), id); err != nil {
		if errors.Is(err, participant.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "participant not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"status": "ok"})
}

func (s *Server) disconnect(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "participantId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid participantId")
		return
	}
	if err := s.engine.Disconnect(r.Context(), id); err != nil {
		if errors.Is(err, participant.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "participant not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"status": "disconnected"})
}

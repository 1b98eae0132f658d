package main

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/abacsys/decision-service/pkg/abacerr"
	"github.com/abacsys/decision-service/pkg/environment"
	"github.com/abacsys/decision-service/pkg/pdp"
)

// evaluateRequest is the JSON projection of spec.md §6.1's input. The
// handler-facing shape is deliberately minimal — object-to-object DTO
// layers belong to the surrounding collaborator (spec.md §1), not to
// this service.
type evaluateRequest struct {
	SubjectID     string            `json:"subjectId"`
	ResourceID    string            `json:"resourceId"`
	ActionID      string            `json:"actionId"`
	Environment   map[string]string `json:"environment"`
	IPAddress     string            `json:"ipAddress"`
	RequestMethod string            `json:"requestMethod"`
	RequestPath   string            `json:"requestPath"`
	UserAgent     string            `json:"userAgent"`
}

// evaluateResponse is the JSON projection of spec.md §6.1's output.
type evaluateResponse struct {
	Decision             string  `json:"decision"`
	Reason               string  `json:"reason"`
	DecidingPolicyID     *string `json:"decidingPolicyId,omitempty"`
	EvaluatedPolicyCount int     `json:"evaluatedPolicyCount"`
}

// errorResponse is returned for abacerr-tagged fatal paths (spec.md
// §7): ResourceNotFound, AuditWriteError, StoreUnavailable,
// EvaluationTimeout.
type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func newEvaluateHandler(facade *pdp.Facade) http.Handler {
	logger := slog.Default().With("component", "abacd.http")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		var reqBody evaluateRequest
		if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
			return
		}

		subjectID, err := uuid.Parse(reqBody.SubjectID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "subjectId must be a uuid"})
			return
		}
		resourceID, err := uuid.Parse(reqBody.ResourceID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "resourceId must be a uuid"})
			return
		}
		actionID, err := uuid.Parse(reqBody.ActionID)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "actionId must be a uuid"})
			return
		}

		envReq := environment.Request{
			IPAddress:     firstNonEmpty(reqBody.IPAddress, r.RemoteAddr),
			RequestMethod: firstNonEmpty(reqBody.RequestMethod, r.Method),
			RequestPath:   firstNonEmpty(reqBody.RequestPath, r.URL.Path),
			UserAgent:     firstNonEmpty(reqBody.UserAgent, r.UserAgent()),
		}

		decision, err := facade.CheckAccess(r.Context(), pdp.CheckAccessRequest{
			SubjectID:    subjectID,
			ResourceID:   resourceID,
			ActionID:     actionID,
			Environment:  envReq,
			EnvOverrides: reqBody.Environment,
		})
		if err != nil {
			status, kind := statusForError(err)
			logger.Error("checkAccess failed", "error", err, "kind", kind)
			writeJSON(w, status, errorResponse{Error: err.Error(), Kind: kind})
			return
		}

		resp := evaluateResponse{
			Decision:             string(decision.Result),
			Reason:               decision.Reason,
			EvaluatedPolicyCount: decision.EvaluatedPolicyCount,
		}
		if decision.DecidingPolicyID != nil {
			id := decision.DecidingPolicyID.String()
			resp.DecidingPolicyID = &id
		}
		writeJSON(w, http.StatusOK, resp)
	})
}

func statusForError(err error) (int, string) {
	e, ok := abacerr.As(err)
	if !ok {
		return http.StatusInternalServerError, ""
	}
	switch e.Kind {
	case abacerr.ResourceNotFound:
		return http.StatusNotFound, string(e.Kind)
	case abacerr.EvaluationTimeout:
		return http.StatusGatewayTimeout, string(e.Kind)
	case abacerr.StoreUnavailable, abacerr.AuditWriteError:
		return http.StatusServiceUnavailable, string(e.Kind)
	default:
		return http.StatusInternalServerError, string(e.Kind)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

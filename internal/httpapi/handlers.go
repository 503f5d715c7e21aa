package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/roach88/irgate/internal/catalog"
	"github.com/roach88/irgate/internal/queryir"
	"github.com/roach88/irgate/internal/translate"
)

// QueryResponse is the body of a successful POST /query.
type QueryResponse struct {
	SQL         string `json:"sql"`
	Explanation string `json:"explanation"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Detail string `json:"detail"`
	Code   string `json:"code,omitempty"`
}

// SchemaResponse is the body of GET /schema.
type SchemaResponse struct {
	Tables []catalog.Table `json:"tables"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	q, err := queryir.DecodeJSON(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{Detail: "request body too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Detail: err.Error(),
			Code:   string(queryir.ErrCodeInvalidShape),
		})
		return
	}

	res, err := s.svc.Translate(r.Context(), q)
	if err != nil {
		if verr, ok := queryir.AsValidationError(err); ok {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Detail: verr.Error(), Code: string(verr.Code)})
			return
		}
		// Logged by the service; the client gets no catalog internals.
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Detail: "schema catalog unavailable"})
		return
	}

	w.Header().Set(FingerprintHeader, res.Fingerprint)
	writeJSON(w, http.StatusOK, QueryResponse{SQL: res.SQL, Explanation: res.Explanation})
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	tables, err := catalog.Describe(r.Context(), s.schema)
	if err != nil {
		s.logger.Error("describe schema failed", "error", err, "request_id", translate.RequestIDFrom(r.Context()))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Detail: "schema catalog unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, SchemaResponse{Tables: tables})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spigell/skillmatrix/internal/extraction"
	"github.com/spigell/skillmatrix/internal/ingest"
	"github.com/spigell/skillmatrix/internal/matrix"
	"go.uber.org/zap"
)

const (
	msgInvalidPayload = "Invalid JSON payload."
	msgMissingJD      = "Job description is required."
	msgBodyTooLarge   = "Request body is too large."
	msgInvalidFormat  = "Format must be one of text, html or auto."
)

// extractRequest is the body of POST /api/extract.
type extractRequest struct {
	JD string `json:"jd" validate:"required"`
	// Format is text (default), html, or auto to detect markup.
	Format string `json:"format" validate:"omitempty,oneof=text html auto"`
}

// envelope is the {data, error} body of the extract endpoint.
type envelope struct {
	Data  any     `json:"data"`
	Error *string `json:"error"`
}

type validateResponse struct {
	Valid      bool                `json:"valid"`
	Data       *matrix.SkillMatrix `json:"data,omitempty"`
	Violations []matrix.Violation  `json:"violations,omitempty"`
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	log := s.requestLogger(r)

	var req extractRequest
	if err := s.decode(w, r, &req); err != nil {
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.As(err, &typeErr) && typeErr.Field == "jd":
			writeEnvelope(w, http.StatusBadRequest, nil, msgMissingJD)
		case isTooLarge(err):
			writeEnvelope(w, http.StatusRequestEntityTooLarge, nil, msgBodyTooLarge)
		default:
			writeEnvelope(w, http.StatusBadRequest, nil, msgInvalidPayload)
		}
		return
	}

	req.JD = strings.TrimSpace(req.JD)
	if err := s.validate.Struct(req); err != nil {
		writeEnvelope(w, http.StatusBadRequest, nil, requestViolation(err))
		return
	}

	document := req.JD
	if req.Format == "html" || req.Format == "auto" {
		text, err := ingest.Text(req.JD, req.Format == "html")
		if err != nil {
			log.Warn("html conversion failed", zap.Error(err))
			writeEnvelope(w, http.StatusBadRequest, nil, "Job description could not be converted: "+err.Error())
			return
		}
		document = text
	}

	result, err := s.pipeline.Extract(r.Context(), document)
	if err != nil {
		log.Error("extraction failed", zap.Error(err))
		writeEnvelope(w, HTTPStatus(err), nil, FailureMessage(err))
		return
	}

	if result.Degraded() {
		writeEnvelope(w, http.StatusMultiStatus, result.Matrix, result.Failures[0].Err.Error())
		return
	}
	writeEnvelope(w, http.StatusOK, result.Matrix, "")
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		status := http.StatusBadRequest
		if isTooLarge(err) {
			status = http.StatusRequestEntityTooLarge
		}
		writeJSON(w, status, validateResponse{Violations: []matrix.Violation{{Path: "(root)", Message: err.Error()}}})
		return
	}

	record, err := matrix.ValidateJSON(raw)
	if err != nil {
		var verr *matrix.ValidationError
		if !errors.As(err, &verr) {
			writeJSON(w, http.StatusInternalServerError, validateResponse{Violations: []matrix.Violation{{Path: "(root)", Message: err.Error()}}})
			return
		}
		writeJSON(w, http.StatusUnprocessableEntity, validateResponse{Violations: verr.Violations})
		return
	}

	writeJSON(w, http.StatusOK, validateResponse{Valid: true, Data: record})
}

func (s *Server) handleStrategies(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"strategies": s.pipeline.Describe()})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
	return json.NewDecoder(r.Body).Decode(dst)
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

func requestViolation(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if fe.Field() == "Format" {
				return msgInvalidFormat
			}
		}
	}
	return msgMissingJD
}

// FailureMessage picks the message reported when no strategy produced a record.
// The first failure is the preferred strategy's, which is the most useful to a caller.
func FailureMessage(err error) string {
	var exhausted *extraction.ExhaustedError
	if errors.As(err, &exhausted) && len(exhausted.Failures) > 0 {
		return exhausted.Failures[0].Err.Error()
	}
	return err.Error()
}

func writeEnvelope(w http.ResponseWriter, status int, data any, message string) {
	body := envelope{Data: data}
	if message != "" {
		body.Error = &message
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

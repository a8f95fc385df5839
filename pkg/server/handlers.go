package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/matzehuels/clausetree/pkg/buildinfo"
	"github.com/matzehuels/clausetree/pkg/clause"
	"github.com/matzehuels/clausetree/pkg/errors"
	"github.com/matzehuels/clausetree/pkg/observability"
	"github.com/matzehuels/clausetree/pkg/pipeline"
)

// Response headers describing a conversion.
const (
	headerRunID = "X-Clausetree-Run"
	headerCache = "X-Cache"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, buildinfo.Get())
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	opts, err := s.convertOptions(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	input, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			s.writeError(w, r, errTooLarge(tooLarge.Limit))
			return
		}
		s.writeError(w, r, errors.Wrap(errors.ErrCodeMalformedInput, err, "read request body"))
		return
	}

	result, err := s.runner.Execute(r.Context(), input, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	format := opts.Formats[0]
	w.Header().Set("Content-Type", pipeline.ContentType(format))
	w.Header().Set(headerRunID, result.RunID)
	if result.CacheHit {
		w.Header().Set(headerCache, "HIT")
	} else {
		w.Header().Set(headerCache, "MISS")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Artifacts[format])
}

// convertOptions builds pipeline options from the query string and headers.
func (s *Server) convertOptions(r *http.Request) (pipeline.Options, error) {
	q := r.URL.Query()
	opts := pipeline.Options{
		Name:          q.Get("name"),
		FontName:      q.Get("font"),
		RenderTimeout: s.cfg.RenderTimeout,
		Logger:        s.logger.With("request_id", RequestIDFrom(r.Context())),
	}

	format := strings.ToLower(q.Get("format"))
	if format == "" {
		format = pipeline.DefaultFormat
	}
	if err := pipeline.ValidateFormat(format); err != nil {
		return opts, err
	}
	opts.Formats = []string{format}

	input, err := inputFormat(q.Get("input"), r.Header.Get("Content-Type"))
	if err != nil {
		return opts, err
	}
	opts.InputFormat = input

	if v := q.Get("transparent"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, errors.New(errors.ErrCodeInvalidFormat, "invalid transparent value: %q", v)
		}
		opts.Transparent = b
	}
	if v := q.Get("scale"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 || f > 10 {
			return opts, errors.New(errors.ErrCodeInvalidFormat, "invalid scale: %q (must be in (0, 10])", v)
		}
		opts.Scale = f
	}
	return opts, nil
}

// inputFormat picks the decoder. An explicit input parameter wins over the
// Content-Type; anything that is not TOML decodes as JSON.
func inputFormat(param, contentType string) (clause.Format, error) {
	if param != "" {
		return clause.ParseFormat(param)
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return clause.FormatJSON, nil
	}
	switch mt {
	case "application/toml", "text/toml", "application/x-toml", "text/x-toml":
		return clause.FormatTOML, nil
	default:
		return clause.FormatJSON, nil
	}
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Unit      *int   `json:"unit,omitempty"`
	Field     string `json:"field,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// tooLargeError marks a body that exceeded the size limit.
type tooLargeError struct{ limit int64 }

func (e tooLargeError) Error() string {
	return "request body exceeds " + strconv.FormatInt(e.limit, 10) + " bytes"
}

func errTooLarge(limit int64) error {
	return errors.Wrap(errors.ErrCodeMalformedInput, tooLargeError{limit}, "request body too large")
}

// StatusFor maps a pipeline error to an HTTP status.
func StatusFor(err error) int {
	var tl tooLargeError
	if stderrors.As(err, &tl) {
		return http.StatusRequestEntityTooLarge
	}
	switch errors.GetCode(err) {
	case errors.ErrCodeMalformedInput, errors.ErrCodeInvalidFormat:
		return http.StatusBadRequest
	case errors.ErrCodeMissingHead, errors.ErrCodeMultipleHeads:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	code := string(errors.GetCode(err))
	if code == "" {
		code = string(errors.ErrCodeInternal)
		if status == http.StatusGatewayTimeout {
			code = string(errors.ErrCodeTimeout)
		}
	}

	body := errorBody{
		Code:      code,
		Message:   errors.UserMessage(err),
		RequestID: RequestIDFrom(r.Context()),
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("conversion failed", "error", err, "request_id", body.RequestID)
		if errors.GetCode(err) == "" {
			body.Message = "internal error"
		}
	}
	if loc, ok := errors.GetLocation(err); ok {
		if loc.Unit != errors.NoUnit {
			unit := loc.Unit
			body.Unit = &unit
		}
		body.Field = loc.Field
	}

	observability.HTTP().OnError(r.Context(), r.Method, r.URL.Path, code)
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

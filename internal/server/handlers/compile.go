package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"git.home.luguber.info/inful/latexd/internal/compiler"
	ferrors "git.home.luguber.info/inful/latexd/internal/foundation/errors"
	"git.home.luguber.info/inful/latexd/internal/logfields"
	"git.home.luguber.info/inful/latexd/internal/server/middleware"
	"git.home.luguber.info/inful/latexd/internal/server/responses"
)

const (
	mediaPDF  = "application/pdf"
	mediaJSON = "application/json"

	fieldSource = "tex_content"
	fieldAccept = "accept"
)

// Compiler runs one compilation request.
type Compiler interface {
	Compile(ctx context.Context, req compiler.Request) (*compiler.Outcome, error)
}

// CompileHandlers serves POST /compile.
type CompileHandlers struct {
	compiler     Compiler
	maxBodyBytes int64
	logger       *slog.Logger
	errorAdapter *ferrors.HTTPErrorAdapter
}

// NewCompileHandlers creates the compile endpoint handlers.
func NewCompileHandlers(c Compiler, maxBodyBytes int64, logger *slog.Logger) *CompileHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &CompileHandlers{
		compiler:     c,
		maxBodyBytes: maxBodyBytes,
		logger:       logger,
		errorAdapter: ferrors.NewHTTPErrorAdapter(logger),
	}
}

type compileRequest struct {
	Source string `json:"tex_content"`
	Accept string `json:"accept"`
}

// HandleCompile compiles the submitted document and answers with the PDF or
// with the structured JSON result.
func (h *CompileHandlers) HandleCompile(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
		return
	case http.MethodPost:
	default:
		err := ferrors.ValidationError("invalid HTTP method").
			WithContext("method", r.Method).
			WithContext("allowed_method", "POST").
			Build()
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}

	req, err := h.parse(w, r)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}

	requestID := middleware.RequestIDFrom(r.Context())
	preference := req.Accept
	if preference == "" {
		preference = r.Header.Get("Accept")
	}
	h.logger.Debug("Received compilation request",
		logfields.RequestID(requestID),
		logfields.Accept(preference),
		logfields.Bytes(len(req.Source)))

	outcome, err := h.compiler.Compile(r.Context(), compiler.Request{ID: requestID, Source: req.Source})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			// client went away; nobody reads the response
			return
		}
		if !ferrors.IsClassified(err) {
			err = ferrors.WrapError(err, ferrors.CategoryInternal, "compilation aborted").Build()
		}
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}

	if wantsPDF(preference) && outcome.Success() && h.writePDF(w, outcome, requestID) {
		return
	}
	h.writeOutcome(w, r, outcome)
}

// parse reads the source and preference from a JSON body or a form.
func (h *CompileHandlers) parse(w http.ResponseWriter, r *http.Request) (compileRequest, error) {
	if h.maxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	var req compileRequest
	var err error
	switch mediaType {
	case mediaJSON:
		err = json.NewDecoder(r.Body).Decode(&req)
	case "multipart/form-data":
		if err = r.ParseMultipartForm(h.maxBodyBytes); err == nil {
			req.Source, req.Accept = r.FormValue(fieldSource), r.FormValue(fieldAccept)
		}
	default:
		if err = r.ParseForm(); err == nil {
			req.Source, req.Accept = r.PostFormValue(fieldSource), r.PostFormValue(fieldAccept)
		}
	}
	if err == nil {
		return req, nil
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return req, ferrors.ValidationError("request body too large").
			WithContext("limit_bytes", tooLarge.Limit).
			Build()
	}
	return req, ferrors.WrapError(err, ferrors.CategoryValidation, "malformed request body").
		WithContext("content_type", mediaType).
		Build()
}

// writePDF sends the raw artifact. It reports false, having written nothing,
// when the encoded artifact does not decode to a usable PDF.
func (h *CompileHandlers) writePDF(w http.ResponseWriter, outcome *compiler.Outcome, requestID string) bool {
	pdf, err := compiler.Decode(outcome.Encoded())
	if err != nil || len(pdf) == 0 {
		h.logger.Error("Failed to send PDF response, falling back to JSON",
			logfields.RequestID(requestID),
			logfields.Error(err))
		return false
	}

	w.Header().Set("Content-Type", mediaPDF)
	w.Header().Set("Content-Disposition", "inline")
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(pdf); err != nil {
		h.logger.Warn("Failed writing PDF body", logfields.RequestID(requestID), logfields.Error(err))
	}
	h.logger.Info("Sent PDF response", logfields.RequestID(requestID), logfields.Bytes(len(pdf)))
	return true
}

func (h *CompileHandlers) writeOutcome(w http.ResponseWriter, r *http.Request, outcome *compiler.Outcome) {
	var (
		status = http.StatusOK
		body   any
	)
	if outcome.Success() {
		body = responses.CompileSuccess{Success: true, PDF: outcome.Encoded(), Log: outcome.Log()}
	} else {
		status = h.errorAdapter.StatusCodeFor(outcome.Err())
		body = responses.CompileFailure{
			Success: false,
			Error:   outcome.Message(),
			Log:     outcome.Log(),
			Output:  outcome.Output(),
		}
	}

	if err := writeJSON(w, status, body); err != nil {
		internalErr := ferrors.WrapError(err, ferrors.CategoryInternal, "failed to write compile response").Build()
		h.errorAdapter.WriteErrorResponse(w, r, internalErr)
	}
}

// wantsPDF reports whether the preferred media type is application/pdf.
// Only the first entry of a comma-separated list is considered.
func wantsPDF(preference string) bool {
	first, _, _ := strings.Cut(preference, ",")
	mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(first))
	return err == nil && mediaType == mediaPDF
}

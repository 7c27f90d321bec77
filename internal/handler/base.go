package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/fracturedetect/internal/media"
	"github.com/fracturedetect/internal/middleware"
	"github.com/fracturedetect/internal/model"
	"github.com/fracturedetect/internal/session"
)

type envelope map[string]any

// maxJSONBody bounds JSON request bodies; overlay requests are tiny.
const maxJSONBody = 64 << 10

type BaseHandler struct {
	Logger *slog.Logger
}

func (h *BaseHandler) logError(r *http.Request, err error) {
	h.Logger.Error(err.Error(), "method", r.Method, "uri", r.URL.RequestURI())
}

func (h *BaseHandler) errorResponse(w http.ResponseWriter, r *http.Request, status int, message any) {
	env := envelope{"error": message}

	if err := h.writeJSON(w, status, env, nil); err != nil {
		h.logError(r, err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (h *BaseHandler) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	h.logError(r, err)

	message := "the server encountered a problem and could not process your request"
	h.errorResponse(w, r, http.StatusInternalServerError, message)
}

func (h *BaseHandler) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	h.errorResponse(w, r, http.StatusBadRequest, err.Error())
}

// sessionErrorResponse maps session and upload errors to a status code and
// the message the UI shows inline.
func (h *BaseHandler) sessionErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, session.ErrNoRequestSelected):
		h.errorResponse(w, r, http.StatusBadRequest, session.UserMessage(err))
	case errors.Is(err, session.ErrAnalysisPending):
		h.errorResponse(w, r, http.StatusConflict, session.UserMessage(err))
	case errors.Is(err, session.ErrConnectivity):
		h.logError(r, err)
		h.errorResponse(w, r, http.StatusBadGateway, session.UserMessage(err))
	case errors.Is(err, media.ErrTooLarge):
		h.errorResponse(w, r, http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, media.ErrUnsupportedType), errors.Is(err, media.ErrEmpty):
		h.errorResponse(w, r, http.StatusUnsupportedMediaType, "Please upload a valid image file (X-ray mock).")
	default:
		h.serverErrorResponse(w, r, err)
	}
}

// stateResponse is the JSON view of a session state.
type stateResponse struct {
	Phase  session.Phase           `json:"phase"`
	Image  *media.Image            `json:"image"`
	Report *model.DiagnosticReport `json:"report"`
	Error  string                  `json:"error,omitempty"`
}

func newStateResponse(st session.State) stateResponse {
	return stateResponse{
		Phase:  st.Phase,
		Image:  st.Image,
		Report: st.Report,
		Error:  st.Message(),
	}
}

// currentSession returns the request's session. Routes are always mounted
// behind middleware.Session, so a missing session is a wiring bug.
func (h *BaseHandler) currentSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s := middleware.SessionFromContext(r.Context())
	if s == nil {
		h.serverErrorResponse(w, r, errors.New("request has no session"))
		return nil, false
	}
	return s, true
}

func (h *BaseHandler) writeJSON(w http.ResponseWriter, status int, data any, headers http.Header) error {
	for k, v := range headers {
		for _, value := range v {
			w.Header().Add(k, value)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

func (h *BaseHandler) readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError
		var maxBytesError *http.MaxBytesError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case errors.As(err, &maxBytesError):
			return fmt.Errorf("body must not be larger than %d bytes", maxBytesError.Limit)
		case errors.As(err, &invalidUnmarshalError):
			panic(err)
		default:
			return err
		}
	}

	// Ensure only a single JSON value is present in the body
	err = dec.Decode(&struct{}{})
	if !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}

	return nil
}

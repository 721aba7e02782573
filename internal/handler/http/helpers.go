package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/cart"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/catalog"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/checkout"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/store"
)

type ValidationErrorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details"`
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		log.Error().Err(err).Msg("Failed to write JSON response")
	}
}

func formatValidationErrors(validationErrors validator.ValidationErrors) map[string]string {
	details := make(map[string]string, len(validationErrors))
	for _, fieldError := range validationErrors {
		details[fieldError.Field()] = fmt.Sprintf("failed on the '%s' rule", fieldError.Tag())
	}
	return details
}

func mapErrorToStatusCode(err error) int {
	var bizErr *catalog.BusinessError
	if errors.As(err, &bizErr) {
		return http.StatusUnprocessableEntity
	}

	switch {
	case errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, checkout.ErrMissingTableNumber),
		errors.Is(err, checkout.ErrMissingAddress),
		errors.Is(err, checkout.ErrInvalidFulfillment):
		return http.StatusBadRequest
	case errors.Is(err, cart.ErrLineNotFound):
		return http.StatusNotFound
	case errors.Is(err, cart.ErrOutOfStock),
		errors.Is(err, checkout.ErrEmptyCheckoutSet):
		return http.StatusConflict
	case errors.Is(err, checkout.ErrSubmissionInFlight):
		return http.StatusAccepted
	default:
		return http.StatusInternalServerError
	}
}

// clientMessage picks what the user sees. Business rejections surface the
// service message verbatim; everything else gets the supplied fallback.
func clientMessage(err error, fallback string) string {
	var bizErr *catalog.BusinessError
	if errors.As(err, &bizErr) {
		return bizErr.Error()
	}

	switch {
	case errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, cart.ErrOutOfStock),
		errors.Is(err, cart.ErrLineNotFound),
		errors.Is(err, checkout.ErrMissingTableNumber),
		errors.Is(err, checkout.ErrMissingAddress),
		errors.Is(err, checkout.ErrEmptyCheckoutSet),
		errors.Is(err, checkout.ErrInvalidFulfillment):
		return err.Error()
	default:
		return fallback
	}
}

// decodeAndValidate parses a JSON request body into payload and runs the
// validator over it, writing the error response itself on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, validate *validator.Validate, payload interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return false
	}

	if err := validate.Struct(payload); err != nil {
		validationErrors, ok := err.(validator.ValidationErrors)
		if ok {
			respondWithJSON(w, http.StatusBadRequest, ValidationErrorResponse{
				Error:   "Validation failed",
				Details: formatValidationErrors(validationErrors),
			})
		} else {
			log.Error().Err(err).Msg("Unexpected error type during validation")
			respondWithError(w, http.StatusInternalServerError, "Internal validation error")
		}
		return false
	}

	return true
}

// userID identifies the authenticated user from the request.
func userID(r *http.Request) (string, error) {
	id := r.Header.Get("X-User-ID")
	if id == "" {
		return "", errors.New("missing X-User-ID header")
	}
	return id, nil
}

// scopedStore namespaces the shared store by the authenticated user.
func scopedStore(base store.Store, r *http.Request) (store.Store, error) {
	id, err := userID(r)
	if err != nil {
		return nil, err
	}
	return store.NewScoped(base, "user:"+id), nil
}

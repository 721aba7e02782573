package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/catalog"
)

// Points history paging defaults, matching the remote service.
const (
	defaultPointsPage     = 1
	defaultPointsPageSize = 20
)

type AddressRequest struct {
	Name      string `json:"name" validate:"required"`
	Phone     string `json:"phone" validate:"required"`
	Region    string `json:"region" validate:"required"`
	Address   string `json:"address" validate:"required"`
	IsDefault bool   `json:"is_default"`
}

// AccountHandler proxies the address book and loyalty points surface of the
// remote service.
type AccountHandler struct {
	catalog  catalog.Client
	validate *validator.Validate
}

func NewAccountHandler(client catalog.Client) *AccountHandler {
	return &AccountHandler{
		catalog:  client,
		validate: validator.New(),
	}
}

func (h *AccountHandler) RegisterRoutes(router chi.Router) {
	router.Get("/addresses", h.handleListAddresses)
	router.Get("/addresses/{addressID}", h.handleAddressDetail)
	router.Post("/addresses", h.handleCreateAddress)
	router.Put("/addresses/{addressID}", h.handleUpdateAddress)
	router.Get("/points", h.handlePointsBalance)
	router.Get("/points/history", h.handlePointsHistory)
	router.Post("/points/sign-in", h.handleSignIn)
}

func (h *AccountHandler) handleListAddresses(w http.ResponseWriter, r *http.Request) {
	addresses, err := h.catalog.AddressList(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch addresses")
		respondWithError(w, mapErrorToStatusCode(err), clientMessage(err, "Failed to fetch addresses"))
		return
	}
	respondWithJSON(w, http.StatusOK, addresses)
}

func (h *AccountHandler) parseAddressID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idParam := chi.URLParam(r, "addressID")
	addressID, err := strconv.ParseInt(idParam, 10, 64)
	if err != nil {
		log.Warn().Err(err).Str("address_id", idParam).Msg("Failed to parse address id parameter")
		respondWithError(w, http.StatusBadRequest, "Invalid address id")
		return 0, false
	}
	return addressID, true
}

func (h *AccountHandler) handleAddressDetail(w http.ResponseWriter, r *http.Request) {
	addressID, ok := h.parseAddressID(w, r)
	if !ok {
		return
	}

	address, err := h.catalog.AddressDetail(r.Context(), addressID)
	if err != nil {
		log.Error().Err(err).Int64("address_id", addressID).Msg("Failed to fetch address")
		respondWithError(w, mapErrorToStatusCode(err), clientMessage(err, "Failed to fetch address"))
		return
	}
	respondWithJSON(w, http.StatusOK, address)
}

// addressInputFrom splits the free-form region line into the wire's
// province/city/district triple, whitespace-separated.
func addressInputFrom(requestPayload AddressRequest) *catalog.AddressInput {
	in := &catalog.AddressInput{
		Name:      requestPayload.Name,
		Phone:     requestPayload.Phone,
		Address:   requestPayload.Address,
		IsDefault: requestPayload.IsDefault,
	}

	parts := strings.Fields(requestPayload.Region)
	if len(parts) > 0 {
		in.Province = parts[0]
	}
	if len(parts) > 1 {
		in.City = parts[1]
	}
	if len(parts) > 2 {
		in.District = parts[2]
	}

	return in
}

func (h *AccountHandler) handleCreateAddress(w http.ResponseWriter, r *http.Request) {
	var requestPayload AddressRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	if err := h.catalog.CreateAddress(r.Context(), addressInputFrom(requestPayload)); err != nil {
		log.Error().Err(err).Msg("Failed to create address")
		respondWithError(w, mapErrorToStatusCode(err), clientMessage(err, "Failed to create address"))
		return
	}
	respondWithJSON(w, http.StatusCreated, map[string]string{"status": "created"})
}

func (h *AccountHandler) handleUpdateAddress(w http.ResponseWriter, r *http.Request) {
	addressID, ok := h.parseAddressID(w, r)
	if !ok {
		return
	}

	var requestPayload AddressRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	if err := h.catalog.UpdateAddress(r.Context(), addressID, addressInputFrom(requestPayload)); err != nil {
		log.Error().Err(err).Int64("address_id", addressID).Msg("Failed to update address")
		respondWithError(w, mapErrorToStatusCode(err), clientMessage(err, "Failed to update address"))
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *AccountHandler) handlePointsBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := h.catalog.UserPoints(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch points balance")
		respondWithError(w, mapErrorToStatusCode(err), clientMessage(err, "Failed to fetch points"))
		return
	}
	respondWithJSON(w, http.StatusOK, balance)
}

func (h *AccountHandler) handlePointsHistory(w http.ResponseWriter, r *http.Request) {
	page := defaultPointsPage
	if raw := r.URL.Query().Get("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			respondWithError(w, http.StatusBadRequest, "Invalid page")
			return
		}
		page = parsed
	}

	pageSize := defaultPointsPageSize
	if raw := r.URL.Query().Get("page_size"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			respondWithError(w, http.StatusBadRequest, "Invalid page_size")
			return
		}
		pageSize = parsed
	}

	records, err := h.catalog.PointsHistory(r.Context(), page, pageSize)
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch points history")
		respondWithError(w, mapErrorToStatusCode(err), clientMessage(err, "Failed to fetch points history"))
		return
	}
	respondWithJSON(w, http.StatusOK, records)
}

func (h *AccountHandler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	result, err := h.catalog.SignIn(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to sign in")
		respondWithError(w, mapErrorToStatusCode(err), clientMessage(err, "Failed to sign in"))
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

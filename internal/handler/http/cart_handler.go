package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/cart"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/catalog"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/store"
)

type AddItemRequest struct {
	GoodsID  int64             `json:"goods_id" validate:"required"`
	Quantity int               `json:"quantity" validate:"required,min=1"`
	Specs    map[string]string `json:"specs"`
}

type SetQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type SetSelectionRequest struct {
	Selected *bool `json:"selected" validate:"required"`
}

type CartResponse struct {
	Lines         []cart.Line `json:"lines"`
	TotalPrice    int64       `json:"total_price"`
	TotalQuantity int         `json:"total_quantity"`
	AllSelected   bool        `json:"all_selected"`
}

type CartHandler struct {
	store    store.Store
	catalog  catalog.Client
	validate *validator.Validate
}

func NewCartHandler(st store.Store, client catalog.Client) *CartHandler {
	return &CartHandler{
		store:    st,
		catalog:  client,
		validate: validator.New(),
	}
}

func (h *CartHandler) RegisterRoutes(router chi.Router) {
	router.Get("/cart", h.handleGetCart)
	router.Delete("/cart", h.handleClearCart)
	router.Post("/cart/items", h.handleAddItem)
	router.Patch("/cart/items/{lineID}", h.handleSetQuantity)
	router.Post("/cart/items/{lineID}/toggle", h.handleToggleSelect)
	router.Delete("/cart/items/{lineID}", h.handleRemoveItem)
	router.Put("/cart/selection", h.handleSetAllSelected)
	router.Get("/goods", h.handleListGoods)
}

func (h *CartHandler) loadLedger(w http.ResponseWriter, r *http.Request) (*cart.Ledger, store.Store, bool) {
	st, err := scopedStore(h.store, r)
	if err != nil {
		respondWithError(w, http.StatusUnauthorized, err.Error())
		return nil, nil, false
	}

	ledger, err := cart.Load(r.Context(), st)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load cart")
		respondWithError(w, http.StatusInternalServerError, "Failed to load cart")
		return nil, nil, false
	}

	return ledger, st, true
}

func cartResponseFrom(ledger *cart.Ledger) CartResponse {
	totalPrice, totalQuantity := ledger.Totals()
	return CartResponse{
		Lines:         ledger.Lines(),
		TotalPrice:    totalPrice,
		TotalQuantity: totalQuantity,
		AllSelected:   ledger.IsFullySelected(),
	}
}

func (h *CartHandler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	ledger, _, ok := h.loadLedger(w, r)
	if !ok {
		return
	}
	respondWithJSON(w, http.StatusOK, cartResponseFrom(ledger))
}

func (h *CartHandler) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var requestPayload AddItemRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	ledger, _, ok := h.loadLedger(w, r)
	if !ok {
		return
	}

	// Snapshot price and stock from the catalog at add time.
	goods, err := h.catalog.GoodsDetail(r.Context(), requestPayload.GoodsID)
	if err != nil {
		log.Error().Err(err).Int64("goods_id", requestPayload.GoodsID).Msg("Failed to fetch goods detail")
		respondWithError(w, mapErrorToStatusCode(err), clientMessage(err, "Failed to fetch goods"))
		return
	}

	if goods.HasSpecs && len(goods.SpecsList) > 0 && len(requestPayload.Specs) != len(goods.SpecsList) {
		respondWithError(w, http.StatusBadRequest, "All goods specs must be chosen")
		return
	}

	// Stock is validated here, not inside the merge: the held quantity for
	// this exact goods+specs combination plus the increment must fit.
	held := cart.QuantityFor(ledger.Lines(), requestPayload.GoodsID, requestPayload.Specs)
	if held+requestPayload.Quantity > goods.Stock {
		respondWithError(w, http.StatusConflict, "Not enough stock")
		return
	}

	var image string
	if len(goods.Images) > 0 {
		image = goods.Images[0]
	}

	line, err := ledger.AddOrIncrement(r.Context(), cart.AddInput{
		GoodsID:   goods.ID,
		Name:      goods.Name,
		Image:     image,
		UnitPrice: goods.Price,
		Stock:     goods.Stock,
		Quantity:  requestPayload.Quantity,
		Specs:     requestPayload.Specs,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to add cart line")
		respondWithError(w, mapErrorToStatusCode(err), clientMessage(err, "Failed to add to cart"))
		return
	}

	respondWithJSON(w, http.StatusCreated, line)
}

func (h *CartHandler) parseLineID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	idParam := chi.URLParam(r, "lineID")
	lineID, err := uuid.FromString(idParam)
	if err != nil {
		log.Warn().Err(err).Str("line_id", idParam).Msg("Failed to parse line id parameter")
		respondWithError(w, http.StatusBadRequest, "Invalid line id")
		return uuid.Nil, false
	}
	return lineID, true
}

func (h *CartHandler) handleSetQuantity(w http.ResponseWriter, r *http.Request) {
	lineID, ok := h.parseLineID(w, r)
	if !ok {
		return
	}

	var requestPayload SetQuantityRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	ledger, _, ok := h.loadLedger(w, r)
	if !ok {
		return
	}

	if err := ledger.SetQuantity(r.Context(), lineID, requestPayload.Quantity); err != nil {
		respondWithError(w, mapErrorToStatusCode(err), clientMessage(err, "Failed to change quantity"))
		return
	}

	respondWithJSON(w, http.StatusOK, cartResponseFrom(ledger))
}

func (h *CartHandler) handleToggleSelect(w http.ResponseWriter, r *http.Request) {
	lineID, ok := h.parseLineID(w, r)
	if !ok {
		return
	}

	ledger, _, ok := h.loadLedger(w, r)
	if !ok {
		return
	}

	if _, err := ledger.ToggleSelect(r.Context(), lineID); err != nil {
		respondWithError(w, mapErrorToStatusCode(err), clientMessage(err, "Failed to toggle selection"))
		return
	}

	respondWithJSON(w, http.StatusOK, cartResponseFrom(ledger))
}

func (h *CartHandler) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	lineID, ok := h.parseLineID(w, r)
	if !ok {
		return
	}

	ledger, _, ok := h.loadLedger(w, r)
	if !ok {
		return
	}

	if err := ledger.Remove(r.Context(), lineID); err != nil {
		respondWithError(w, mapErrorToStatusCode(err), clientMessage(err, "Failed to remove line"))
		return
	}

	respondWithJSON(w, http.StatusOK, cartResponseFrom(ledger))
}

func (h *CartHandler) handleSetAllSelected(w http.ResponseWriter, r *http.Request) {
	var requestPayload SetSelectionRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	ledger, _, ok := h.loadLedger(w, r)
	if !ok {
		return
	}

	if err := ledger.SetAllSelected(r.Context(), *requestPayload.Selected); err != nil {
		log.Error().Err(err).Msg("Failed to change selection")
		respondWithError(w, http.StatusInternalServerError, "Failed to change selection")
		return
	}

	respondWithJSON(w, http.StatusOK, cartResponseFrom(ledger))
}

func (h *CartHandler) handleClearCart(w http.ResponseWriter, r *http.Request) {
	ledger, _, ok := h.loadLedger(w, r)
	if !ok {
		return
	}

	if err := ledger.Clear(r.Context()); err != nil {
		log.Error().Err(err).Msg("Failed to clear cart")
		respondWithError(w, http.StatusInternalServerError, "Failed to clear cart")
		return
	}

	respondWithJSON(w, http.StatusOK, cartResponseFrom(ledger))
}

func (h *CartHandler) handleListGoods(w http.ResponseWriter, r *http.Request) {
	ledger, _, ok := h.loadLedger(w, r)
	if !ok {
		return
	}

	var categoryID int64
	if raw := r.URL.Query().Get("category_id"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid category_id")
			return
		}
		categoryID = parsed
	}

	goods, err := h.catalog.GoodsList(r.Context(), categoryID, r.URL.Query().Get("keyword"))
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch goods list")
		respondWithError(w, mapErrorToStatusCode(err), clientMessage(err, "Failed to fetch goods"))
		return
	}

	respondWithJSON(w, http.StatusOK, cart.AnnotateCartQuantities(goods, ledger.Lines()))
}

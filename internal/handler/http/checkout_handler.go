package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/cart"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/catalog"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/checkout"
	"github.com/vasiliy-maslov/restaurant-ordering/internal/store"
)

// Defaults applied when the confirm screen leaves a field blank.
const (
	defaultPeopleCount  = 2
	defaultTableware    = 1
	defaultDeliveryTime = "as soon as possible"
)

type BuyNowRequest struct {
	GoodsID  int64             `json:"goods_id" validate:"required"`
	Quantity int               `json:"quantity" validate:"required,min=1"`
	Specs    map[string]string `json:"specs"`
}

type SetFulfillmentRequest struct {
	Fulfillment int `json:"fulfillment" validate:"required"`
}

type RememberTableRequest struct {
	Code string `json:"code" validate:"required"`
}

type SubmitOrderRequest struct {
	Fulfillment    int    `json:"fulfillment" validate:"required,oneof=1 2"`
	TableNo        string `json:"table_no"`
	PeopleCount    int    `json:"people_count" validate:"omitempty,min=1"`
	AddressID      int64  `json:"address_id"`
	DeliveryTime   string `json:"delivery_time"`
	Tableware      int    `json:"tableware" validate:"omitempty,min=1"`
	CouponID       int64  `json:"coupon_id"`
	CouponDiscount int64  `json:"coupon_discount" validate:"omitempty,min=0"`
	Remark         string `json:"remark"`
}

type CheckoutViewResponse struct {
	Lines       []cart.Line       `json:"lines"`
	Fulfillment int               `json:"fulfillment"`
	TableNo     string            `json:"table_no,omitempty"`
	Addresses   []catalog.Address `json:"addresses,omitempty"`
	Address     *catalog.Address  `json:"address,omitempty"`
	Totals      checkout.Totals   `json:"totals"`
}

type SubmitOrderResponse struct {
	OrderID    int64  `json:"order_id"`
	PaymentURL string `json:"payment_url,omitempty"`
	Next       string `json:"next"`
}

type CheckoutHandler struct {
	store     store.Store
	catalog   catalog.Client
	composers *checkout.Registry
	validate  *validator.Validate
}

func NewCheckoutHandler(st store.Store, client catalog.Client, composers *checkout.Registry) *CheckoutHandler {
	return &CheckoutHandler{
		store:     st,
		catalog:   client,
		composers: composers,
		validate:  validator.New(),
	}
}

func (h *CheckoutHandler) RegisterRoutes(router chi.Router) {
	router.Post("/checkout", h.handlePrepareCheckout)
	router.Post("/checkout/buy-now", h.handleBuyNow)
	router.Get("/checkout", h.handleGetCheckout)
	router.Put("/checkout/fulfillment", h.handleSetFulfillment)
	router.Post("/checkout/submit", h.handleSubmitOrder)
	router.Post("/session/table", h.handleRememberTable)
	router.Get("/orders", h.handleListOrders)
	router.Get("/orders/{orderID}", h.handleOrderDetail)
	router.Post("/orders/{orderID}/cancel", h.handleCancelOrder)
}

// userContext resolves the caller's scoped store and composer. Both are keyed
// by the user id, so table codes, fulfillment preferences, and the submission
// latch never leak between users.
func (h *CheckoutHandler) userContext(w http.ResponseWriter, r *http.Request) (store.Store, *checkout.Composer, bool) {
	id, err := userID(r)
	if err != nil {
		respondWithError(w, http.StatusUnauthorized, err.Error())
		return nil, nil, false
	}
	return store.NewScoped(h.store, "user:"+id), h.composers.For(id), true
}

// handlePrepareCheckout snapshots the selected cart lines into the checkout
// set. An empty selection is rejected so the client stays on the cart screen.
func (h *CheckoutHandler) handlePrepareCheckout(w http.ResponseWriter, r *http.Request) {
	st, composer, ok := h.userContext(w, r)
	if !ok {
		return
	}

	ledger, err := cart.Load(r.Context(), st)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load cart")
		respondWithError(w, http.StatusInternalServerError, "Failed to load cart")
		return
	}

	if err := composer.PrepareCheckout(r.Context(), st, ledger.SelectedLines()); err != nil {
		respondWithError(w, mapErrorToStatusCode(err), clientMessage(err, "Failed to prepare checkout"))
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]string{"status": "ready"})
}

func (h *CheckoutHandler) handleBuyNow(w http.ResponseWriter, r *http.Request) {
	var requestPayload BuyNowRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	st, composer, ok := h.userContext(w, r)
	if !ok {
		return
	}

	goods, err := h.catalog.GoodsDetail(r.Context(), requestPayload.GoodsID)
	if err != nil {
		log.Error().Err(err).Int64("goods_id", requestPayload.GoodsID).Msg("Failed to fetch goods detail")
		respondWithError(w, mapErrorToStatusCode(err), clientMessage(err, "Failed to fetch goods"))
		return
	}

	if err := composer.PrepareBuyNow(r.Context(), st, goods, requestPayload.Quantity, requestPayload.Specs); err != nil {
		respondWithError(w, mapErrorToStatusCode(err), clientMessage(err, "Failed to prepare checkout"))
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]string{"status": "ready"})
}

// handleGetCheckout renders the confirm screen data: the checkout set, the
// fulfillment preference, the resolved table number or address book, and a
// totals preview.
func (h *CheckoutHandler) handleGetCheckout(w http.ResponseWriter, r *http.Request) {
	st, composer, ok := h.userContext(w, r)
	if !ok {
		return
	}

	lines, err := composer.LoadCheckoutSet(r.Context(), st)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load checkout set")
		respondWithError(w, http.StatusInternalServerError, "Failed to load checkout set")
		return
	}
	if len(lines) == 0 {
		respondWithJSON(w, http.StatusConflict, map[string]string{
			"error":    checkout.ErrEmptyCheckoutSet.Error(),
			"redirect": "cart",
		})
		return
	}

	view := CheckoutViewResponse{
		Lines:       lines,
		Fulfillment: composer.FulfillmentPreference(r.Context(), st),
	}

	var deliveryFee, packingFee int64
	switch view.Fulfillment {
	case catalog.FulfillmentDineIn:
		view.TableNo = composer.ResolveTableNumber(r.Context(), st, r.URL.Query().Get("table_no"))
	case catalog.FulfillmentDelivery:
		addresses, err := h.catalog.AddressList(r.Context())
		if err != nil {
			log.Error().Err(err).Msg("Failed to fetch addresses")
			respondWithError(w, mapErrorToStatusCode(err), clientMessage(err, "Failed to fetch addresses"))
			return
		}
		view.Addresses = addresses
		view.Address = pickAddress(addresses, 0)

		deliveryFee, packingFee = h.deliveryFees(r)
	}

	view.Totals = checkout.ComputeTotals(lines, view.Fulfillment, deliveryFee, packingFee, 0)

	respondWithJSON(w, http.StatusOK, view)
}

// deliveryFees fetches the delivery fee config; an unreachable config endpoint
// degrades to zero fees rather than blocking the checkout.
func (h *CheckoutHandler) deliveryFees(r *http.Request) (int64, int64) {
	cfg, err := h.catalog.DeliveryConfig(r.Context())
	if err != nil {
		log.Warn().Err(err).Msg("Failed to fetch delivery config, using zero fees")
		return 0, 0
	}
	return cfg.DeliveryFee, cfg.PackingFee
}

// pickAddress chooses the delivery address: the requested id if present, else
// the default one, else the first.
func pickAddress(addresses []catalog.Address, addressID int64) *catalog.Address {
	if len(addresses) == 0 {
		return nil
	}

	if addressID != 0 {
		for i := range addresses {
			if addresses[i].ID == addressID {
				return &addresses[i]
			}
		}
		return nil
	}

	for i := range addresses {
		if addresses[i].IsDefault {
			return &addresses[i]
		}
	}
	return &addresses[0]
}

func (h *CheckoutHandler) handleSetFulfillment(w http.ResponseWriter, r *http.Request) {
	var requestPayload SetFulfillmentRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	st, composer, ok := h.userContext(w, r)
	if !ok {
		return
	}

	if err := composer.SetFulfillmentPreference(r.Context(), st, requestPayload.Fulfillment); err != nil {
		respondWithError(w, mapErrorToStatusCode(err), clientMessage(err, "Failed to set fulfillment"))
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]int{"fulfillment": requestPayload.Fulfillment})
}

func (h *CheckoutHandler) handleRememberTable(w http.ResponseWriter, r *http.Request) {
	var requestPayload RememberTableRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	st, composer, ok := h.userContext(w, r)
	if !ok {
		return
	}

	if err := composer.RememberTableCode(r.Context(), st, requestPayload.Code); err != nil {
		log.Error().Err(err).Msg("Failed to remember table code")
		respondWithError(w, http.StatusInternalServerError, "Failed to remember table code")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"table_no": requestPayload.Code})
}

func (h *CheckoutHandler) handleSubmitOrder(w http.ResponseWriter, r *http.Request) {
	var requestPayload SubmitOrderRequest
	if !decodeAndValidate(w, r, h.validate, &requestPayload) {
		return
	}

	st, composer, ok := h.userContext(w, r)
	if !ok {
		return
	}

	in := checkout.DraftInput{
		Fulfillment:    requestPayload.Fulfillment,
		PeopleCount:    requestPayload.PeopleCount,
		DeliveryTime:   requestPayload.DeliveryTime,
		Tableware:      requestPayload.Tableware,
		CouponID:       requestPayload.CouponID,
		CouponDiscount: requestPayload.CouponDiscount,
		Remark:         requestPayload.Remark,
	}

	switch requestPayload.Fulfillment {
	case catalog.FulfillmentDineIn:
		in.TableNo = composer.ResolveTableNumber(r.Context(), st, requestPayload.TableNo)
		if in.PeopleCount == 0 {
			in.PeopleCount = defaultPeopleCount
		}
	case catalog.FulfillmentDelivery:
		addresses, err := h.catalog.AddressList(r.Context())
		if err != nil {
			log.Error().Err(err).Msg("Failed to fetch addresses")
			respondWithError(w, mapErrorToStatusCode(err), clientMessage(err, "Failed to fetch addresses"))
			return
		}
		in.Address = pickAddress(addresses, requestPayload.AddressID)
		in.DeliveryFee, in.PackingFee = h.deliveryFees(r)
		if in.DeliveryTime == "" {
			in.DeliveryTime = defaultDeliveryTime
		}
		if in.Tableware == 0 {
			in.Tableware = defaultTableware
		}
	}

	result, err := composer.Submit(r.Context(), st, in)
	if err != nil {
		if errors.Is(err, checkout.ErrSubmissionInFlight) {
			respondWithJSON(w, http.StatusAccepted, map[string]string{"status": "submitting"})
			return
		}
		respondWithError(w, mapErrorToStatusCode(err), clientMessage(err, "Failed to submit order"))
		return
	}

	next := "order_detail"
	if result.PaymentURL != "" {
		next = "payment"
	}

	respondWithJSON(w, http.StatusCreated, SubmitOrderResponse{
		OrderID:    result.OrderID,
		PaymentURL: result.PaymentURL,
		Next:       next,
	})
}

func (h *CheckoutHandler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.catalog.OrderList(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch orders")
		respondWithError(w, mapErrorToStatusCode(err), clientMessage(err, "Failed to fetch orders"))
		return
	}
	respondWithJSON(w, http.StatusOK, orders)
}

func (h *CheckoutHandler) parseOrderID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idParam := chi.URLParam(r, "orderID")
	orderID, err := strconv.ParseInt(idParam, 10, 64)
	if err != nil {
		log.Warn().Err(err).Str("order_id", idParam).Msg("Failed to parse order id parameter")
		respondWithError(w, http.StatusBadRequest, "Invalid order id")
		return 0, false
	}
	return orderID, true
}

func (h *CheckoutHandler) handleOrderDetail(w http.ResponseWriter, r *http.Request) {
	orderID, ok := h.parseOrderID(w, r)
	if !ok {
		return
	}

	detail, err := h.catalog.OrderDetail(r.Context(), orderID)
	if err != nil {
		log.Error().Err(err).Int64("order_id", orderID).Msg("Failed to fetch order detail")
		respondWithError(w, mapErrorToStatusCode(err), clientMessage(err, "Failed to fetch order"))
		return
	}
	respondWithJSON(w, http.StatusOK, detail)
}

func (h *CheckoutHandler) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := h.parseOrderID(w, r)
	if !ok {
		return
	}

	if err := h.catalog.CancelOrder(r.Context(), orderID); err != nil {
		log.Error().Err(err).Int64("order_id", orderID).Msg("Failed to cancel order")
		respondWithError(w, mapErrorToStatusCode(err), clientMessage(err, "Failed to cancel order"))
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

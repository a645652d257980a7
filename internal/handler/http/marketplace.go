package http

import (
	"net/http"

	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/marketplace"
	"github.com/cmlabs-hris/hris-policy-engine/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-policy-engine/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
)

type MarketplaceHandler interface {
	CreateItem(w http.ResponseWriter, r *http.Request)
	ListItems(w http.ResponseWriter, r *http.Request)

	Purchase(w http.ResponseWriter, r *http.Request)
	ApproveOrder(w http.ResponseWriter, r *http.Request)
	RejectOrder(w http.ResponseWriter, r *http.Request)
	ConsumeOrder(w http.ResponseWriter, r *http.Request)
	ListMyOrders(w http.ResponseWriter, r *http.Request)
	ListOrders(w http.ResponseWriter, r *http.Request)

	Wallet(w http.ResponseWriter, r *http.Request)
	GrantPoints(w http.ResponseWriter, r *http.Request)
}

type marketplaceHandlerImpl struct {
	marketplaceService marketplace.MarketplaceService
}

func NewMarketplaceHandler(marketplaceService marketplace.MarketplaceService) MarketplaceHandler {
	return &marketplaceHandlerImpl{marketplaceService: marketplaceService}
}

// CreateItem implements MarketplaceHandler.
func (h *marketplaceHandlerImpl) CreateItem(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrUnauthorized(w, r)
	if !ok {
		return
	}

	var req marketplace.CreateItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	item, err := h.marketplaceService.CreateItem(r.Context(), caller, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Item created successfully", item)
}

// ListItems implements MarketplaceHandler.
func (h *marketplaceHandlerImpl) ListItems(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrUnauthorized(w, r)
	if !ok {
		return
	}

	items, err := h.marketplaceService.ListItems(r.Context(), caller)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, items)
}

// Purchase debits the wallet and opens a pending order.
func (h *marketplaceHandlerImpl) Purchase(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrUnauthorized(w, r)
	if !ok {
		return
	}

	var req marketplace.PurchaseRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	order, err := h.marketplaceService.Purchase(r.Context(), caller, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Order placed successfully", order)
}

// ApproveOrder implements MarketplaceHandler.
func (h *marketplaceHandlerImpl) ApproveOrder(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrUnauthorized(w, r)
	if !ok {
		return
	}

	order, err := h.marketplaceService.Approve(r.Context(), caller, chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Order approved", order)
}

// RejectOrder refunds the points.
func (h *marketplaceHandlerImpl) RejectOrder(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrUnauthorized(w, r)
	if !ok {
		return
	}

	var req marketplace.RejectOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	order, err := h.marketplaceService.Reject(r.Context(), caller, chi.URLParam(r, "id"), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Order rejected", order)
}

// ConsumeOrder implements MarketplaceHandler.
func (h *marketplaceHandlerImpl) ConsumeOrder(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrUnauthorized(w, r)
	if !ok {
		return
	}

	order, err := h.marketplaceService.Consume(r.Context(), caller, chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Order consumed", order)
}

// ListMyOrders implements MarketplaceHandler.
func (h *marketplaceHandlerImpl) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrUnauthorized(w, r)
	if !ok {
		return
	}

	orders, err := h.marketplaceService.ListMyOrders(r.Context(), caller)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, orders)
}

// ListOrders implements MarketplaceHandler. Query: status.
func (h *marketplaceHandlerImpl) ListOrders(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrUnauthorized(w, r)
	if !ok {
		return
	}

	var status *marketplace.OrderStatus
	if s := optionalQuery(r, "status"); s != nil {
		v := marketplace.OrderStatus(*s)
		switch v {
		case marketplace.OrderStatusPending, marketplace.OrderStatusApproved,
			marketplace.OrderStatusRejected, marketplace.OrderStatusConsumed:
			status = &v
		default:
			response.HandleError(w, validator.ValidationErrors{{Field: "status", Message: "unknown order status"}})
			return
		}
	}

	orders, err := h.marketplaceService.ListOrders(r.Context(), caller, status)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, orders)
}

// Wallet implements MarketplaceHandler.
func (h *marketplaceHandlerImpl) Wallet(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrUnauthorized(w, r)
	if !ok {
		return
	}

	wallet, err := h.marketplaceService.Wallet(r.Context(), caller)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, wallet)
}

// GrantPoints implements MarketplaceHandler.
func (h *marketplaceHandlerImpl) GrantPoints(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrUnauthorized(w, r)
	if !ok {
		return
	}

	var req marketplace.GrantPointsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	wallet, err := h.marketplaceService.GrantPoints(r.Context(), caller, chi.URLParam(r, "employeeID"), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Points granted", wallet)
}

package api

import (
	"net/http"

	"github.com/safar/go-order-engine/internal/manager"
)

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req manager.PlaceOrderRequest
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := h.orders.PlaceOrder(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	status := http.StatusCreated
	if res.ConfirmationToken != nil {
		status = http.StatusAccepted
	}
	respondJSON(w, status, res)
}

func (h *Handler) confirmOrder(w http.ResponseWriter, r *http.Request) {
	tokenID, ok := pathID(w, r, "token")
	if !ok {
		return
	}

	order, err := h.orders.ConfirmOrder(r.Context(), tokenID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, order)
}

func (h *Handler) cancelOrderPublic(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	reason, ok := decodeCancel(w, r)
	if !ok {
		return
	}

	order, err := h.orders.CancelOrderPublic(r.Context(), orderID, reason)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	reason, ok := decodeCancel(w, r)
	if !ok {
		return
	}

	order, err := h.orders.CancelOrder(r.Context(), orderID, ownerFrom(r), reason)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

func (h *Handler) processOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req manager.ProcessOrderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.OrderID = orderID
	req.OwnerID = ownerFrom(r)

	order, err := h.orders.ProcessOrder(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

func (h *Handler) filterOrders(w http.ResponseWriter, r *http.Request) {
	q := newQueryParser(r.URL.Query())
	req := q.orderRequest(ownerFrom(r))
	p := q.paging()
	if err := q.err(); err != nil {
		writeError(w, r, err)
		return
	}

	page, err := h.orders.FilterOrders(r.Context(), req, p.pageSize, p.pageNumber)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (h *Handler) orderFeed(w http.ResponseWriter, r *http.Request) {
	q := newQueryParser(r.URL.Query())
	limit := q.integer("limit")
	if err := q.err(); err != nil {
		writeError(w, r, err)
		return
	}

	page, err := h.orders.OrderFeed(r.Context(), ownerFrom(r), r.URL.Query().Get("cursor"), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (h *Handler) orderStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.orders.Stats(r.Context(), ownerFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	order, err := h.orders.GetOrder(r.Context(), orderID, ownerFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

func (h *Handler) restaurantOrders(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	orders, err := h.orders.RestaurantOrders(r.Context(), restaurantID, ownerFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

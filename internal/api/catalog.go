package api

import "net/http"

func (h *Handler) listRestaurants(w http.ResponseWriter, r *http.Request) {
	q := newQueryParser(r.URL.Query())
	req := q.restaurantRequest()
	p := q.paging()
	if err := q.err(); err != nil {
		writeError(w, r, err)
		return
	}

	page, err := h.catalog.FilterRestaurants(r.Context(), req, p.pageSize, p.pageNumber)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (h *Handler) listMenu(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	q := newQueryParser(r.URL.Query())
	req := q.productRequest()
	p := q.paging()
	if err := q.err(); err != nil {
		writeError(w, r, err)
		return
	}

	page, err := h.catalog.Menu(r.Context(), restaurantID, req, p.pageSize, p.pageNumber)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/JakeFAU/catalog-ingest/internal/catalog"
)

// Paging limits for the product listing.
const (
	DefaultLimit = 50
	MaxLimit     = 500
)

type productList struct {
	Items  []catalog.ProductSummary `json:"items"`
	Limit  int                      `json:"limit"`
	Offset int                      `json:"offset"`
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", DefaultLimit)
	if err != nil || limit < 1 {
		s.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}
	limit = min(limit, MaxLimit)
	offset, err := queryInt(r, "offset", 0)
	if err != nil || offset < 0 {
		s.writeError(w, http.StatusBadRequest, "offset must be a non-negative integer")
		return
	}

	items, err := s.reader.ListProducts(r.Context(), limit, offset)
	if err != nil {
		s.logger.Error("list products failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to list products")
		return
	}
	if items == nil {
		items = []catalog.ProductSummary{}
	}
	s.writeJSON(w, http.StatusOK, productList{Items: items, Limit: limit, Offset: offset})
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		s.writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	product, err := s.reader.GetProduct(r.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "product not found")
			return
		}
		s.logger.Error("get product failed", zap.Int64("product_id", id), zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to load product")
		return
	}
	s.writeJSON(w, http.StatusOK, product)
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

package products

import (
	"context"
	"errors"
	"net/http"
	"time"

	"shopfront/models"
	"shopfront/utils"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// CachedCatalog puts a read-through cache in front of another Catalog.
type CachedCatalog struct {
	source Catalog
	cache  ProductCache
	sfg    singleflight.Group // collapses concurrent misses for one id
	logger *zap.Logger
}

func NewCachedCatalog(source Catalog, cache ProductCache, logger *zap.Logger) *CachedCatalog {
	return &CachedCatalog{source: source, cache: cache, logger: logger}
}

func (c *CachedCatalog) GetProductByID(ctx context.Context, id string) (models.Product, error) {
	v, err, _ := c.sfg.Do(id, func() (interface{}, error) {
		p, err := c.cache.Get(ctx, id)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			c.logger.Warn("product cache get failed", zap.String("product_id", id), zap.Error(err))
		}

		p, err = c.source.GetProductByID(ctx, id)
		if err != nil {
			return models.Product{}, err
		}

		go func() {
			setCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := c.cache.Set(setCtx, p); err != nil {
				c.logger.Warn("product cache set failed", zap.String("product_id", id), zap.Error(err))
			}
		}()
		return p, nil
	})
	if err != nil {
		return models.Product{}, err
	}
	return v.(models.Product), nil
}

// Handler serves product detail lookups.
type Handler struct {
	catalog Catalog
	logger  *zap.Logger
}

func NewHandler(catalog Catalog, logger *zap.Logger) *Handler {
	return &Handler{catalog: catalog, logger: logger}
}

// GetProductDetails returns one catalog entry.
func (h *Handler) GetProductDetails(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id := ps.ByName("id")
	product, err := h.catalog.GetProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("catalog lookup failed", zap.String("product_id", id), zap.Error(err))
		utils.RespondWithError(w, http.StatusBadGateway, "catalog unavailable, please retry")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, product)
}

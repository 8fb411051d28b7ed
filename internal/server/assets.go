package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"github.com/desertthunder/lbx/internal/models"
	"github.com/desertthunder/lbx/internal/services"
	"github.com/desertthunder/lbx/internal/shared"
)

const maxBodyBytes = 1 << 20

// AssetHandler exposes a [services.Catalog] over JSON.
type AssetHandler struct {
	catalog services.Catalog
	logger  *log.Logger
}

// NewAssetHandler creates an AssetHandler backed by catalog.
func NewAssetHandler(catalog services.Catalog, logger *log.Logger) *AssetHandler {
	return &AssetHandler{catalog: catalog, logger: logger}
}

// Mount registers the /assets routes.
func (h *AssetHandler) Mount(r chi.Router) {
	r.Route("/assets", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.get)
			r.Get("/type", h.lookup(h.typeOf))
			r.Get("/kind", h.lookup(h.kind))
			r.Get("/author", h.lookup(h.authorOrDirector))
			r.Get("/isbn", h.lookup(h.isbn))
			r.Get("/dewey", h.lookup(h.dewey))
			r.Get("/location", h.lookup(h.location))
			r.Get("/title", h.lookup(h.title))
			r.Get("/card", h.lookup(h.card))
			r.Get("/describe", h.lookup(h.describe))
		})
	})
}

// fail writes err as a JSON error, logging anything that is not a client error.
func (h *AssetHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "path", r.URL.Path, "error", err, "request_id", RequestIDFrom(r.Context()))
		message = "an internal error occurred"
	}
	writeError(w, r, status, code, message)
}

func assetID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: asset id %q", shared.ErrInvalidArgument, raw)
	}
	return id, nil
}

// lookupFunc resolves one derived fact about an asset. A nil value means the fact is absent.
type lookupFunc func(ctx context.Context, id int64) (any, error)

func (h *AssetHandler) lookup(fn lookupFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := assetID(r)
		if err != nil {
			h.fail(w, r, err)
			return
		}

		v, err := fn(r.Context(), id)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		if v == nil {
			writeError(w, r, http.StatusNotFound, "not_found", fmt.Sprintf("nothing found for asset %d", id))
			return
		}

		writeJSON(w, r, http.StatusOK, v)
	}
}

func (h *AssetHandler) list(w http.ResponseWriter, r *http.Request) {
	assets, err := h.catalog.GetAll(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if assets == nil {
		assets = []*models.Asset{}
	}
	writeJSON(w, r, http.StatusOK, assets)
}

func (h *AssetHandler) create(w http.ResponseWriter, r *http.Request) {
	var asset models.Asset
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&asset); err != nil {
		if errors.Is(err, shared.ErrUnknownVariant) {
			h.fail(w, r, err)
			return
		}
		if errors.Is(err, io.EOF) {
			err = errors.New("empty body")
		}
		h.fail(w, r, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err))
		return
	}

	// Relations are referenced by id only.
	if asset.Status != nil {
		asset.Status = &models.Status{ID: asset.Status.ID}
	}
	if asset.Location != nil {
		asset.Location = &models.Branch{ID: asset.Location.ID}
	}
	asset.ID = 0

	if err := h.catalog.Add(r.Context(), &asset); err != nil {
		h.fail(w, r, err)
		return
	}

	created, err := h.catalog.Get(r.Context(), asset.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if created == nil {
		created = &asset
	}

	w.Header().Set("Location", fmt.Sprintf("/assets/%d", asset.ID))
	writeJSON(w, r, http.StatusCreated, created)
}

func (h *AssetHandler) get(w http.ResponseWriter, r *http.Request) {
	h.lookup(func(ctx context.Context, id int64) (any, error) {
		asset, err := h.catalog.Get(ctx, id)
		if asset == nil {
			return nil, err
		}
		return asset, err
	})(w, r)
}

func (h *AssetHandler) typeOf(ctx context.Context, id int64) (any, error) {
	typ, err := h.catalog.GetType(ctx, id)
	return map[string]any{"id": id, "type": typ}, err
}

func (h *AssetHandler) kind(ctx context.Context, id int64) (any, error) {
	kind, err := h.catalog.Kind(ctx, id)
	return map[string]any{"id": id, "kind": kind}, err
}

func (h *AssetHandler) authorOrDirector(ctx context.Context, id int64) (any, error) {
	name, err := h.catalog.GetAuthorOrDirector(ctx, id)
	return map[string]any{"id": id, "author_or_director": name}, err
}

func (h *AssetHandler) isbn(ctx context.Context, id int64) (any, error) {
	isbn, err := h.catalog.GetIsbn(ctx, id)
	return map[string]any{"id": id, "isbn": isbn}, err
}

func (h *AssetHandler) dewey(ctx context.Context, id int64) (any, error) {
	index, err := h.catalog.GetDeweyIndex(ctx, id)
	return map[string]any{"id": id, "dewey_index": index}, err
}

func (h *AssetHandler) location(ctx context.Context, id int64) (any, error) {
	branch, err := h.catalog.GetCurrentLocation(ctx, id)
	if branch == nil {
		return nil, err
	}
	return branch, err
}

func (h *AssetHandler) title(ctx context.Context, id int64) (any, error) {
	title, ok, err := h.catalog.GetTitle(ctx, id)
	if !ok {
		return nil, err
	}
	return map[string]any{"id": id, "title": title}, err
}

func (h *AssetHandler) card(ctx context.Context, id int64) (any, error) {
	card, err := h.catalog.GetLibraryCardByAssetID(ctx, id)
	if card == nil {
		return nil, err
	}
	return card, err
}

func (h *AssetHandler) describe(ctx context.Context, id int64) (any, error) {
	desc, err := h.catalog.Describe(ctx, id)
	if desc == nil {
		return nil, err
	}
	return desc, err
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler serves /healthz.
type HealthHandler struct {
	db Pinger
}

// NewHealthHandler creates a HealthHandler that pings db.
func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

// Mount registers the /healthz route.
func (h *HealthHandler) Mount(r chi.Router) {
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := h.db.PingContext(r.Context()); err != nil {
			writeError(w, r, http.StatusServiceUnavailable, "unavailable", shared.ErrServiceUnavailable.Error())
			return
		}
		writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})
}

// NewRouter assembles the catalog API: middleware, health check and asset routes.
func NewRouter(catalog services.Catalog, db Pinger, logger *log.Logger, limiter *RateLimiter) *ChiRouter {
	router := NewChiRouter()
	router.Use(RequestID, AccessLog(logger), Recover(logger))
	if limiter != nil {
		router.Use(limiter.Middleware)
	}

	router.Handler(NewHealthHandler(db))
	router.Handler(NewAssetHandler(catalog, logger))
	return router
}

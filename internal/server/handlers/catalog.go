package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/iudanet/matswap/internal/catalog"
	"github.com/iudanet/matswap/internal/models"
	"github.com/iudanet/matswap/pkg/api"
)

// Catalog определяет операции каталога, используемые handlers
type Catalog interface {
	Lookup(id string) (*models.Record, bool)
	Contains(id string) bool
	Insert(ctx context.Context, id string, fields models.RecordFields) error
	ListByType(t models.RecordType) []*models.Record
	GenerateID(t models.RecordType) (string, error)
	ResolvePair(styleID, materialID string) (*models.SwapPair, error)
}

var _ Catalog = (*catalog.Catalog)(nil)

// CatalogHandler обрабатывает запросы к каталогу
type CatalogHandler struct {
	responder
	catalog Catalog
}

// NewCatalogHandler создает новый handler каталога
func NewCatalogHandler(logger *slog.Logger, c Catalog) *CatalogHandler {
	return &CatalogHandler{
		responder: newResponder(logger),
		catalog:   c,
	}
}

func toAPIRecord(r *models.Record) api.Record {
	return api.Record{
		ID:          r.ID,
		Type:        string(r.Type),
		Name:        r.Name,
		ImageURL:    r.ImageURL,
		Description: r.Description,
	}
}

// Lookup обрабатывает GET /api/v1/catalog/{id}
func (h *CatalogHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	record, ok := h.catalog.Lookup(id)
	if !ok {
		h.sendError(w, "record not found", http.StatusNotFound)
		return
	}

	h.sendJSON(w, toAPIRecord(record), http.StatusOK)
}

// List обрабатывает GET /api/v1/catalog?type=style
// Неизвестный тип дает пустой список.
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	recordType := r.URL.Query().Get("type")
	if recordType == "" {
		h.sendError(w, "type query parameter is required", http.StatusBadRequest)
		return
	}

	records := h.catalog.ListByType(models.RecordType(recordType))

	resp := api.RecordListResponse{
		Type:    recordType,
		Records: make([]api.Record, 0, len(records)),
	}
	for _, rec := range records {
		resp.Records = append(resp.Records, toAPIRecord(rec))
	}

	h.sendJSON(w, resp, http.StatusOK)
}

// Assign обрабатывает PUT /api/v1/catalog/{id}
// Привязывает штрихкод к записи, перезаписывая существующую целиком.
func (h *CatalogHandler) Assign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	var req api.AssignRequest
	if err := h.decode(w, r, &req); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	existed := h.catalog.Contains(id)

	fields := models.RecordFields{
		Type:        models.RecordType(req.Type),
		Name:        req.Name,
		ImageURL:    req.ImageURL,
		Description: req.Description,
	}

	if err := h.catalog.Insert(ctx, id, fields); err != nil {
		switch {
		case errors.Is(err, catalog.ErrInvalidFormat), errors.Is(err, catalog.ErrTypeMismatch):
			h.logger.WarnContext(ctx, "rejected catalog assignment",
				slog.String("id", id),
				slog.Any("error", err))
			h.sendError(w, err.Error(), http.StatusBadRequest)
		default:
			h.logger.ErrorContext(ctx, "failed to store catalog entry", slog.Any("error", err))
			h.sendError(w, "internal server error", http.StatusInternalServerError)
		}
		return
	}

	status := http.StatusOK
	if !existed {
		status = http.StatusCreated
	}

	h.sendJSON(w, api.AssignResponse{
		Record:  toAPIRecord(models.NewRecord(id, fields)),
		Created: !existed,
	}, status)
}

// NextID обрабатывает GET /api/v1/catalog/next-id?type=style
func (h *CatalogHandler) NextID(w http.ResponseWriter, r *http.Request) {
	recordType := models.RecordType(r.URL.Query().Get("type"))

	id, err := h.catalog.GenerateID(recordType)
	if err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.sendJSON(w, api.NextIDResponse{ID: id}, http.StatusOK)
}

// Swap обрабатывает POST /api/v1/swap
// Возвращает пару записей; генерация описания выполняется вызывающей стороной.
func (h *CatalogHandler) Swap(w http.ResponseWriter, r *http.Request) {
	var req api.SwapRequest
	if err := h.decode(w, r, &req); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	pair, err := h.catalog.ResolvePair(req.StyleID, req.MaterialID)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrRecordNotFound):
			h.sendError(w, err.Error(), http.StatusNotFound)
		default:
			h.sendError(w, err.Error(), http.StatusBadRequest)
		}
		return
	}

	h.sendJSON(w, api.SwapResponse{
		Style:    toAPIRecord(pair.Style),
		Material: toAPIRecord(pair.Material),
	}, http.StatusOK)
}

package handler

import (
	"encoding/json"
	"net/http"

	"itemshare/internal/items/service"
	apperrors "itemshare/pkg/errors"
	httputil "itemshare/pkg/http"
	"itemshare/pkg/logger"
	"itemshare/pkg/model"
	"itemshare/pkg/sanitizer"

	"github.com/julienschmidt/httprouter"
)

type ItemHandler struct {
	items        service.ItemService
	reservations service.ReservationService
	advancer     service.AdvancerService
	log          *logger.Logger
}

func NewItemHandler(
	items service.ItemService,
	reservations service.ReservationService,
	advancer service.AdvancerService,
	log *logger.Logger,
) *ItemHandler {
	return &ItemHandler{
		items:        items,
		reservations: reservations,
		advancer:     advancer,
		log:          log,
	}
}

func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	identity, ok := h.identity(w, r, "Create")
	if !ok {
		return
	}

	var req model.CreateItemRequest
	if !h.decode(w, r, &req, "Create") {
		return
	}

	view, err := h.items.Create(r.Context(), identity, &req)
	if err != nil {
		h.writeError(w, err, "Create")
		return
	}

	if err := httputil.WriteCreated(w, view); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	identity, ok := h.identity(w, r, "List")
	if !ok {
		return
	}

	views, err := h.items.List(r.Context(), identity)
	if err != nil {
		h.writeError(w, err, "List")
		return
	}
	h.writeSuccess(w, views, "List")
}

func (h *ItemHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	identity, ok := h.identity(w, r, "GetByID")
	if !ok {
		return
	}

	view, err := h.items.GetByID(r.Context(), ps.ByName("id"), identity)
	if err != nil {
		h.writeError(w, err, "GetByID")
		return
	}
	h.writeSuccess(w, view, "GetByID")
}

func (h *ItemHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	identity, ok := h.identity(w, r, "Delete")
	if !ok {
		return
	}

	if err := h.items.Delete(r.Context(), ps.ByName("id"), identity); err != nil {
		h.writeError(w, err, "Delete")
		return
	}
	httputil.WriteNoContent(w)
}

func (h *ItemHandler) Rename(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	identity, ok := h.identity(w, r, "Rename")
	if !ok {
		return
	}

	var req model.RenameItemRequest
	if !h.decode(w, r, &req, "Rename") {
		return
	}

	res, err := h.items.Rename(r.Context(), ps.ByName("id"), identity, &req)
	h.writeResult(w, res, err, "Rename")
}

func (h *ItemHandler) Share(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	identity, ok := h.identity(w, r, "Share")
	if !ok {
		return
	}

	var req model.ShareRequest
	if !h.decode(w, r, &req, "Share") {
		return
	}

	res, err := h.items.Share(r.Context(), ps.ByName("id"), identity, &req)
	h.writeResult(w, res, err, "Share")
}

func (h *ItemHandler) Unshare(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	identity, ok := h.identity(w, r, "Unshare")
	if !ok {
		return
	}

	res, err := h.items.Unshare(r.Context(), ps.ByName("id"), identity, ps.ByName("identity"))
	h.writeResult(w, res, err, "Unshare")
}

func (h *ItemHandler) ReserveImmediate(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	identity, ok := h.identity(w, r, "ReserveImmediate")
	if !ok {
		return
	}

	var req model.ImmediateReservationRequest
	if r.ContentLength != 0 && !h.decode(w, r, &req, "ReserveImmediate") {
		return
	}

	res, err := h.reservations.ReserveImmediate(r.Context(), ps.ByName("id"), identity, &req)
	h.writeResult(w, res, err, "ReserveImmediate")
}

func (h *ItemHandler) ReserveScheduled(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	identity, ok := h.identity(w, r, "ReserveScheduled")
	if !ok {
		return
	}

	var req model.ScheduledReservationRequest
	if !h.decode(w, r, &req, "ReserveScheduled") {
		return
	}

	res, err := h.reservations.ReserveScheduled(r.Context(), ps.ByName("id"), identity, &req)
	h.writeResult(w, res, err, "ReserveScheduled")
}

func (h *ItemHandler) Relinquish(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	identity, ok := h.identity(w, r, "Relinquish")
	if !ok {
		return
	}

	res, err := h.reservations.Relinquish(r.Context(), ps.ByName("id"), identity)
	h.writeResult(w, res, err, "Relinquish")
}

func (h *ItemHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	identity, ok := h.identity(w, r, "Cancel")
	if !ok {
		return
	}

	index, err := httputil.ParseIndex(ps.ByName("index"))
	if err != nil {
		h.writeError(w, err, "Cancel")
		return
	}

	res, err := h.reservations.Cancel(r.Context(), ps.ByName("id"), identity, index)
	h.writeResult(w, res, err, "Cancel")
}

// DeleteAccount runs the cleanup for the caller's own account.
func (h *ItemHandler) DeleteAccount(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	identity, ok := h.identity(w, r, "DeleteAccount")
	if !ok {
		return
	}
	if sanitizer.NormalizeIdentity(ps.ByName("identity")) != identity {
		h.writeError(w, apperrors.Forbidden("Accounts can only be deleted by their owner"), "DeleteAccount")
		return
	}

	cleanup, err := h.items.DeleteAccount(r.Context(), identity)
	if err != nil {
		h.writeError(w, err, "DeleteAccount")
		return
	}
	h.writeSuccess(w, cleanup, "DeleteAccount")
}

func (h *ItemHandler) Advance(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	summary, err := h.advancer.Advance(r.Context())
	if err != nil {
		h.writeError(w, err, "Advance")
		return
	}
	h.writeSuccess(w, summary, "Advance")
}

func (h *ItemHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/items", h.Create)
	router.GET("/api/v1/items", h.List)
	router.GET("/api/v1/items/id/:id", h.GetByID)
	router.DELETE("/api/v1/items/id/:id", h.Delete)
	router.PATCH("/api/v1/items/id/:id", h.Rename)
	router.POST("/api/v1/items/id/:id/share", h.Share)
	router.DELETE("/api/v1/items/id/:id/share/:identity", h.Unshare)
	router.POST("/api/v1/items/id/:id/reserve/immediate", h.ReserveImmediate)
	router.POST("/api/v1/items/id/:id/reserve/scheduled", h.ReserveScheduled)
	router.POST("/api/v1/items/id/:id/relinquish", h.Relinquish)
	router.DELETE("/api/v1/items/id/:id/reservations/:index", h.Cancel)
	router.DELETE("/api/v1/accounts/:identity", h.DeleteAccount)
	router.POST("/api/v1/advance", h.Advance)
}

func (h *ItemHandler) identity(w http.ResponseWriter, r *http.Request, handler string) (string, bool) {
	identity, err := httputil.ExtractIdentity(r)
	if err != nil {
		h.writeError(w, err, handler)
		return "", false
	}
	return identity, true
}

func (h *ItemHandler) decode(w http.ResponseWriter, r *http.Request, dst any, handler string) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.writeError(w, apperrors.BadRequest("Invalid request body"), handler)
		return false
	}
	return true
}

func (h *ItemHandler) writeResult(w http.ResponseWriter, res *service.Result, err error, handler string) {
	if err != nil {
		h.writeError(w, err, handler)
		return
	}
	h.writeSuccess(w, res.Item, handler)
}

func (h *ItemHandler) writeSuccess(w http.ResponseWriter, data any, handler string) {
	if err := httputil.WriteSuccess(w, data); err != nil {
		h.log.Error("failed to write success response", "handler", handler, "operation", "WriteSuccess", "error", err)
	}
}

func (h *ItemHandler) writeError(w http.ResponseWriter, err error, handler string) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

package intake

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"leadhook_backend/platform/apperr"
	"leadhook_backend/platform/httpkit"
)

// Handler handles the inbound hook HTTP requests.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// HandleSubmission processes an inbound form submission.
// POST /hook/:secret
func (h *Handler) HandleSubmission(c *gin.Context) {
	lead, err := ParseRequest(c.Request)
	if httpkit.HandleError(c, err) {
		return
	}

	result, err := h.service.Submit(c.Request.Context(), lead, c.ClientIP())
	if err != nil {
		h.respondError(c, err)
		return
	}

	httpkit.JSON(c, result.Status, result.Response)
}

// respondError maps pipeline errors onto the wire contract. A failed CRM
// create echoes the provider's response body so the site can log it; every
// other rejection uses the standard error shape.
func (h *Handler) respondError(c *gin.Context, err error) {
	if appErr, ok := err.(*apperr.Error); ok && appErr.Kind == apperr.KindUpstream {
		resp := SubmitResponse{OK: false}
		if raw, ok := appErr.Details.(json.RawMessage); ok {
			resp.Bitrix = raw
		}
		c.JSON(http.StatusInternalServerError, resp)
		return
	}
	httpkit.HandleError(c, err)
}

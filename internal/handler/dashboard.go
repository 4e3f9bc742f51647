package handler

import "net/http"

func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context())
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取统计信息成功", summary)
}

package handler

import (
	"bhrc/backend/internal/api/response"
	"bhrc/backend/internal/complaint"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
)

type statusRequest struct {
	Status string `json:"status" form:"status"`
	Notes  string `json:"notes" form:"notes"`
}

// SubmitComplaint accepts the public complaint form, as JSON or as multipart
// with files under "documents".
func (h *Handler) SubmitComplaint(c *gin.Context) {
	var in complaint.Input
	if err := c.ShouldBind(&in); err != nil {
		bindFailed(c, err)
		return
	}
	var files []*multipart.FileHeader
	if c.ContentType() == gin.MIMEMultipartPOSTForm {
		form, err := c.MultipartForm()
		if err != nil {
			bindFailed(c, err)
			return
		}
		files = append(form.File["documents"], form.File["documents[]"]...)
	}

	created, err := h.Complaints.Submit(c.Request.Context(), c.ClientIP(), in, files)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusCreated, "Your complaint has been registered. Use the complaint ID to track its status.", gin.H{
		"complaint_id": created.ComplaintID,
		"status":       created.Status,
		"submitted_at": created.CreatedAt,
	})
}

// ComplaintStatus is the public tracking lookup.
func (h *Handler) ComplaintStatus(c *gin.Context) {
	status, err := h.Complaints.GetStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, "", status)
}

func (h *Handler) ListComplaints(c *gin.Context) {
	page, err := h.Complaints.List(c.Request.Context(), principal(c), listQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, "", page)
}

func (h *Handler) GetComplaint(c *gin.Context) {
	found, err := h.Complaints.Get(c.Request.Context(), principal(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, "", found)
}

// UpdateComplaintStatus moves a complaint to a new status with optional notes.
func (h *Handler) UpdateComplaintStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBind(&req); err != nil {
		bindFailed(c, err)
		return
	}
	updated, err := h.Complaints.UpdateStatus(c.Request.Context(), principal(c), c.Param("id"), req.Status, req.Notes)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, "complaint status updated", updated)
}

func (h *Handler) DeleteComplaint(c *gin.Context) {
	if err := h.Complaints.Delete(c.Request.Context(), principal(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, "complaint deleted", nil)
}

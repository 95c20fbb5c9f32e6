package handler

import (
	"bhrc/backend/internal/api/response"
	"bhrc/backend/internal/events"
	"bhrc/backend/internal/models"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type subscribeRequest struct {
	Email string `json:"email" form:"email"`
	Name  string `json:"name" form:"name"`
}

type unsubscribeRequest struct {
	Token string `json:"token" form:"token"`
	Email string `json:"email" form:"email"`
}

// RegisterForEvent signs a visitor up for an upcoming event.
func (h *Handler) RegisterForEvent(c *gin.Context) {
	var in events.RegistrationInput
	if err := c.ShouldBind(&in); err != nil {
		bindFailed(c, err)
		return
	}
	reg, err := h.Events.Register(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusCreated, "registration confirmed", reg)
}

func (h *Handler) EventRegistrations(c *gin.Context) {
	regs, err := h.Events.ListRegistrations(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, "", regs)
}

// SetEventImage replaces an event's image with the upload in "image".
func (h *Handler) SetEventImage(c *gin.Context) {
	fh, err := formFile(c, "image")
	if err != nil {
		bindFailed(c, err)
		return
	}
	if fh == nil {
		response.BadRequest(c, "an image file is required")
		return
	}
	event, err := h.Events.SetImage(c.Request.Context(), c.Param("id"), fh)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, "event image updated", event)
}

// RegisterMember is the public membership form, with an optional "photo".
func (h *Handler) RegisterMember(c *gin.Context) {
	input, err := readInput(c)
	if err != nil {
		bindFailed(c, err)
		return
	}
	photo, err := formFile(c, "photo")
	if err != nil {
		bindFailed(c, err)
		return
	}
	member, err := h.Members.Register(c.Request.Context(), input, photo)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusCreated, "Thank you for registering. Your membership is pending approval.", member)
}

func (h *Handler) ApproveMember(c *gin.Context) {
	member, err := h.Members.Approve(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, "member approved", member)
}

// Donate records and charges a public donation.
func (h *Handler) Donate(c *gin.Context) {
	input, err := readInput(c)
	if err != nil {
		bindFailed(c, err)
		return
	}
	d, err := h.Donations.Donate(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	msg := "Thank you for your donation."
	if d.Status != models.DonationCompleted {
		msg = "The payment was declined."
	}
	response.OK(c, http.StatusCreated, msg, d)
}

// UploadGalleryItem stores the multipart "file" with its metadata.
func (h *Handler) UploadGalleryItem(c *gin.Context) {
	input, err := readInput(c)
	if err != nil {
		bindFailed(c, err)
		return
	}
	file, err := formFile(c, "file")
	if err != nil {
		bindFailed(c, err)
		return
	}
	item, err := h.Gallery.Upload(c.Request.Context(), input, file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusCreated, "gallery item created", item)
}

func (h *Handler) Subscribe(c *gin.Context) {
	var req subscribeRequest
	if err := c.ShouldBind(&req); err != nil {
		bindFailed(c, err)
		return
	}
	sub, err := h.Newsletter.Subscribe(c.Request.Context(), req.Email, req.Name)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, "You are subscribed to our newsletter.", sub)
}

// AddSubscriber is the admin create for subscribers. It goes through the
// public subscribe flow so the welcome email is sent either way.
func (h *Handler) AddSubscriber(c *gin.Context) {
	var req subscribeRequest
	if err := c.ShouldBind(&req); err != nil {
		bindFailed(c, err)
		return
	}
	sub, err := h.Newsletter.Subscribe(c.Request.Context(), req.Email, req.Name)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusCreated, "subscriber created", sub)
}

// Unsubscribe takes a token or email from the query (the link in every
// campaign) or from the body.
func (h *Handler) Unsubscribe(c *gin.Context) {
	req := unsubscribeRequest{Token: c.Query("token"), Email: c.Query("email")}
	if c.Request.Method == http.MethodPost && c.Request.ContentLength != 0 {
		var body unsubscribeRequest
		if err := c.ShouldBind(&body); err != nil {
			bindFailed(c, err)
			return
		}
		if strings.TrimSpace(body.Token) != "" || strings.TrimSpace(body.Email) != "" {
			req = body
		}
	}
	if err := h.Newsletter.Unsubscribe(c.Request.Context(), req.Token, req.Email); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, "You have been unsubscribed.", nil)
}

func (h *Handler) SendCampaign(c *gin.Context) {
	campaign, err := h.Newsletter.SendCampaign(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, "campaign sent", campaign)
}

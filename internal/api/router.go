// Package api assembles the HTTP surface of the site.
package api

import (
	"bhrc/backend/internal/api/handler"
	"bhrc/backend/internal/api/middleware"
	"bhrc/backend/internal/auth"
	"bhrc/backend/internal/events"
	"bhrc/backend/internal/gallery"
	"bhrc/backend/internal/members"
	"bhrc/backend/internal/models"
	"path/filepath"

	"github.com/gin-gonic/gin"
)

// Options configures the engine around the handlers.
type Options struct {
	// UploadRoot is served read-only for the public buckets. Complaint
	// documents are never served.
	UploadRoot     string
	TrustedProxies []string
	// MaxMultipartMemory bounds the part of a form held in memory.
	MaxMultipartMemory int64
}

// NewRouter builds the gin engine with every route.
func NewRouter(h *handler.Handler, opts Options) (*gin.Engine, error) {
	r := gin.New()
	if err := r.SetTrustedProxies(opts.TrustedProxies); err != nil {
		return nil, err
	}
	if opts.MaxMultipartMemory > 0 {
		r.MaxMultipartMemory = opts.MaxMultipartMemory
	}
	r.Use(gin.Recovery(), middleware.CORS(), middleware.RequestLogger(), middleware.Authenticate(h.Auth))

	r.GET("/health", h.Health)
	if opts.UploadRoot != "" {
		for _, bucket := range []string{gallery.Bucket, events.Bucket, members.Bucket} {
			r.Static("/uploads/"+bucket, filepath.Join(opts.UploadRoot, bucket))
		}
	}

	p := h.Policy
	require := func(action auth.Action, resource auth.Resource) gin.HandlerFunc {
		return middleware.Require(p, action, resource)
	}
	g := r.Group("/api")

	g.POST("/auth/login", h.Login)
	g.POST("/auth/logout", h.Logout)
	g.GET("/auth/me", h.Me)
	g.GET("/admin/users", require(auth.ActionList, auth.ResourceAdmins), h.ListAdmins)
	g.POST("/admin/users", require(auth.ActionCreate, auth.ResourceAdmins), h.CreateAdmin)

	g.POST("/complaints", require(auth.ActionSubmit, auth.ResourceComplaints), h.SubmitComplaint)
	g.GET("/complaints/:id/status", require(auth.ActionTrack, auth.ResourceComplaints), h.ComplaintStatus)
	g.GET("/complaints", h.ListComplaints)
	g.GET("/complaints/:id", h.GetComplaint)
	g.PUT("/complaints/:id/status", h.UpdateComplaintStatus)
	g.DELETE("/complaints/:id", h.DeleteComplaint)

	(&handler.Resource[models.Event]{
		Service: h.Events, Policy: p, Name: auth.ResourceEvents, Label: "event",
	}).Mount(g, "/events")
	g.POST("/events/:id/register", require(auth.ActionRegister, auth.ResourceEvents), h.RegisterForEvent)
	g.GET("/events/:id/registrations", require(auth.ActionList, auth.ResourceEventRegistrations), h.EventRegistrations)
	g.POST("/events/:id/image", require(auth.ActionUpdate, auth.ResourceEvents), h.SetEventImage)

	(&handler.Resource[models.Member]{
		Service: h.Members, Policy: p, Name: auth.ResourceMembers, Label: "member",
		Create: h.RegisterMember,
	}).Mount(g, "/members")
	g.POST("/members/:id/approve", require(auth.ActionApprove, auth.ResourceMembers), h.ApproveMember)

	(&handler.Resource[models.Donation]{
		Service: h.Donations, Policy: p, Name: auth.ResourceDonations, Label: "donation",
		Create: h.Donate,
	}).Mount(g, "/donations")

	(&handler.Resource[models.GalleryItem]{
		Service: h.Gallery, Policy: p, Name: auth.ResourceGallery, Label: "gallery item",
		PublicScope: gallery.PublicScope, Create: h.UploadGalleryItem,
	}).Mount(g, "/gallery")

	g.POST("/newsletter/subscribe", require(auth.ActionSubscribe, auth.ResourceSubscribers), h.Subscribe)
	g.POST("/newsletter/unsubscribe", require(auth.ActionUnsubscribe, auth.ResourceSubscribers), h.Unsubscribe)
	g.GET("/newsletter/unsubscribe", require(auth.ActionUnsubscribe, auth.ResourceSubscribers), h.Unsubscribe)
	(&handler.Resource[models.NewsletterSubscriber]{
		Service: h.Newsletter.Subscribers, Policy: p, Name: auth.ResourceSubscribers, Label: "subscriber",
		Create: h.AddSubscriber,
	}).Mount(g, "/newsletter/subscribers")
	(&handler.Resource[models.NewsletterCampaign]{
		Service: h.Newsletter.Campaigns, Policy: p, Name: auth.ResourceCampaigns, Label: "campaign",
	}).Mount(g, "/newsletter/campaigns")
	g.POST("/newsletter/campaigns/:id/send", require(auth.ActionSend, auth.ResourceCampaigns), h.SendCampaign)

	return r, nil
}

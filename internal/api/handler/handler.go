// Package handler turns HTTP requests into service calls.
package handler

import (
	"bhrc/backend/internal/api/response"
	"bhrc/backend/internal/apperrors"
	"bhrc/backend/internal/auth"
	"bhrc/backend/internal/complaint"
	"bhrc/backend/internal/crud"
	"bhrc/backend/internal/donations"
	"bhrc/backend/internal/events"
	"bhrc/backend/internal/gallery"
	"bhrc/backend/internal/members"
	"bhrc/backend/internal/newsletter"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger reports whether the backing stores answer.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services are the domain services the handlers call.
type Services struct {
	Auth       *auth.Service
	Policy     *auth.Policy
	Complaints *complaint.Service
	Events     *events.Service
	Members    *members.Service
	Donations  *donations.Service
	Gallery    *gallery.Service
	Newsletter *newsletter.Service
	Store      Pinger
}

// Handler holds the services behind every route.
type Handler struct {
	Services
	// SecureCookies marks the session cookie Secure; set when served over HTTPS.
	SecureCookies bool
}

func NewHandler(s Services) *Handler {
	return &Handler{Services: s}
}

// Health answers 200 while Postgres and Redis respond.
func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if h.Store != nil {
		if err := h.Store.Ping(ctx); err != nil {
			response.Error(c, apperrors.NewServiceUnavailable("storage is unavailable", err))
			return
		}
	}
	response.OK(c, http.StatusOK, "ok", gin.H{"time": time.Now().UTC()})
}

// principal returns the caller attached by the Authenticate middleware.
func principal(c *gin.Context) auth.Principal {
	return auth.FromContext(c.Request.Context())
}

// listQuery reads page, page_size (or limit) and search (or q). Every other
// parameter is an equality filter; the service drops those it does not know.
func listQuery(c *gin.Context) crud.Query {
	q := crud.Query{Filters: make(map[string]string)}
	for key, values := range c.Request.URL.Query() {
		if len(values) == 0 {
			continue
		}
		v := values[0]
		switch key {
		case "page":
			q.Page, _ = strconv.Atoi(v)
		case "page_size", "limit":
			q.PageSize, _ = strconv.Atoi(v)
		case "search", "q":
			q.Search = strings.TrimSpace(v)
		default:
			q.Filters[key] = v
		}
	}
	return q
}

// readInput decodes a JSON object, a multipart form or a urlencoded form
// into field values. A repeated form field becomes a list.
func readInput(c *gin.Context) (map[string]any, error) {
	input := make(map[string]any)
	switch c.ContentType() {
	case gin.MIMEJSON:
		if c.Request.ContentLength == 0 {
			return input, nil
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			return nil, err
		}
		return input, nil
	case gin.MIMEMultipartPOSTForm:
		form, err := c.MultipartForm()
		if err != nil {
			return nil, err
		}
		return formValues(form.Value, input), nil
	default:
		if err := c.Request.ParseForm(); err != nil {
			return nil, err
		}
		return formValues(c.Request.PostForm, input), nil
	}
}

func formValues(values map[string][]string, into map[string]any) map[string]any {
	for key, v := range values {
		switch len(v) {
		case 0:
		case 1:
			into[key] = v[0]
		default:
			into[key] = v
		}
	}
	return into
}

// formFile returns the named upload, or nil when the request carries none.
func formFile(c *gin.Context, name string) (*multipart.FileHeader, error) {
	if c.ContentType() != gin.MIMEMultipartPOSTForm {
		return nil, nil
	}
	fh, err := c.FormFile(name)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	return fh, err
}

// bindFailed answers a body that could not be decoded.
func bindFailed(c *gin.Context, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, response.Envelope{
			Success: false,
			Message: "request body is too large",
			Error:   &response.ErrorBody{Code: "request_too_large"},
		})
		return
	}
	response.BadRequest(c, "request body could not be read")
}

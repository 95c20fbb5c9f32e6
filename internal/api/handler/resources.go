package handler

import (
	"bhrc/backend/internal/api/middleware"
	"bhrc/backend/internal/api/response"
	"bhrc/backend/internal/auth"
	"bhrc/backend/internal/crud"
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// EntityService is the CRUD surface shared by the entity services.
type EntityService[T any] interface {
	List(ctx context.Context, q crud.Query) (*crud.Page[T], error)
	Get(ctx context.Context, id string, scope map[string]any) (*T, error)
	Create(ctx context.Context, input map[string]any) (*T, error)
	Update(ctx context.Context, id string, input map[string]any) (*T, error)
	Delete(ctx context.Context, id string) error
}

// Resource serves list, get, create, update and delete for one entity.
type Resource[T any] struct {
	Service EntityService[T]
	Policy  *auth.Policy
	Name    auth.Resource
	// Label names the entity in response messages.
	Label string
	// PublicScope restricts callers who may not update the entity,
	// e.g. to published rows.
	PublicScope map[string]any
	// Create replaces the generic create, for entities that take uploads
	// or run extra steps.
	Create gin.HandlerFunc
}

// Mount registers the five routes under path, each guarded by the policy.
func (r *Resource[T]) Mount(g *gin.RouterGroup, path string) {
	create := r.Create
	if create == nil {
		create = r.create
	}
	g.GET(path, middleware.Require(r.Policy, auth.ActionList, r.Name), r.list)
	g.GET(path+"/:id", middleware.Require(r.Policy, auth.ActionRead, r.Name), r.get)
	g.POST(path, middleware.Require(r.Policy, auth.ActionCreate, r.Name), create)
	g.PUT(path+"/:id", middleware.Require(r.Policy, auth.ActionUpdate, r.Name), r.update)
	g.DELETE(path+"/:id", middleware.Require(r.Policy, auth.ActionDelete, r.Name), r.delete)
}

func (r *Resource[T]) scope(c *gin.Context) map[string]any {
	if r.PublicScope == nil || r.Policy.Allow(principal(c), auth.ActionUpdate, r.Name) {
		return nil
	}
	return r.PublicScope
}

func (r *Resource[T]) list(c *gin.Context) {
	q := listQuery(c)
	q.Scope = r.scope(c)
	page, err := r.Service.List(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, "", page)
}

func (r *Resource[T]) get(c *gin.Context) {
	item, err := r.Service.Get(c.Request.Context(), c.Param("id"), r.scope(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, "", item)
}

func (r *Resource[T]) create(c *gin.Context) {
	input, err := readInput(c)
	if err != nil {
		bindFailed(c, err)
		return
	}
	item, err := r.Service.Create(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusCreated, r.Label+" created", item)
}

func (r *Resource[T]) update(c *gin.Context) {
	input, err := readInput(c)
	if err != nil {
		bindFailed(c, err)
		return
	}
	item, err := r.Service.Update(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, r.Label+" updated", item)
}

func (r *Resource[T]) delete(c *gin.Context) {
	if err := r.Service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, r.Label+" deleted", nil)
}

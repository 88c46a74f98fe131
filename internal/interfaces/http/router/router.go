package router

import (
	"github.com/gin-gonic/gin"
)

// RouteRegistrar registers a set of routes on a gin router group.
type RouteRegistrar interface {
	RegisterRoutes(group *gin.RouterGroup)
}

// RouteRegistrarFunc adapts a function to the RouteRegistrar interface.
type RouteRegistrarFunc func(group *gin.RouterGroup)

func (f RouteRegistrarFunc) RegisterRoutes(group *gin.RouterGroup) {
	f(group)
}

// DomainGroup groups registrars under a common path prefix with optional
// group-level middleware.
type DomainGroup struct {
	Prefix     string
	Middleware []gin.HandlerFunc
	Registrars []RouteRegistrar
}

// Router assembles the HTTP route tree. Registration is deferred until
// Setup so handlers can be constructed in any order.
type Router struct {
	engine     *gin.Engine
	apiPrefix  string
	groups     []DomainGroup
	standalone []RouteRegistrar
}

// New creates a router on top of an existing gin engine.
func New(engine *gin.Engine) *Router {
	return &Router{
		engine:    engine,
		apiPrefix: "/api/v1",
	}
}

// WithAPIPrefix overrides the default /api/v1 prefix.
func (r *Router) WithAPIPrefix(prefix string) *Router {
	r.apiPrefix = prefix
	return r
}

// AddGroup adds a domain group to be registered on Setup.
func (r *Router) AddGroup(group DomainGroup) *Router {
	r.groups = append(r.groups, group)
	return r
}

// AddRegistrar adds a registrar at the API root (no extra prefix).
func (r *Router) AddRegistrar(registrar RouteRegistrar) *Router {
	r.standalone = append(r.standalone, registrar)
	return r
}

// Setup wires all registered groups and registrars onto the engine.
func (r *Router) Setup() {
	api := r.engine.Group(r.apiPrefix)

	for _, registrar := range r.standalone {
		registrar.RegisterRoutes(api)
	}

	for _, group := range r.groups {
		g := api.Group(group.Prefix, group.Middleware...)
		for _, registrar := range group.Registrars {
			registrar.RegisterRoutes(g)
		}
	}
}

// Engine returns the underlying gin engine.
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

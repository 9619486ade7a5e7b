// Package web serves the portfolio over HTTP: the full page, the HTMX
// fragments that drive the project showcase, a JSON API and the contact
// form.
package web

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/abuelmaaref/portfolio/internal/admin"
	"github.com/abuelmaaref/portfolio/internal/catalog"
	"github.com/abuelmaaref/portfolio/internal/contact"
	"github.com/abuelmaaref/portfolio/internal/session"
)

// Check reports the health of one dependency.
type Check func(context.Context) error

type Options struct {
	Catalog  *catalog.Catalog
	Sessions *session.Manager
	Contact  *contact.Service

	// Tracker records page views; nil disables tracking.
	Tracker *admin.Tracker
	// Admin is mounted under /admin/api when set.
	Admin *admin.Handler

	Checks        map[string]Check
	Logger        *zap.Logger
	ServiceName   string
	Version       string
	CORSOrigins   []string
	StaticDir     string
	ImagesDir     string
	SessionTTL    time.Duration
	SecureCookies bool
}

type server struct {
	cat      *catalog.Catalog
	sessions *session.Manager
	contact  *contact.Service
	log      *zap.Logger
	version  string
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(opts Options) (*gin.Engine, error) {
	if opts.Catalog == nil || opts.Sessions == nil || opts.Contact == nil {
		return nil, errors.New("web: catalog, sessions and contact are required")
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	tmpl, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(log), cors.New(corsConfig(opts.CORSOrigins)))
	if opts.Tracker != nil {
		r.Use(opts.Tracker.Middleware())
	}
	r.SetHTMLTemplate(tmpl)

	if opts.StaticDir != "" {
		r.Static("/static", opts.StaticDir)
	}
	if opts.ImagesDir != "" {
		r.Static("/images", opts.ImagesDir)
	}

	health := NewHealthHandler(opts.ServiceName, opts.Version, opts.Checks)
	health.RegisterRoutes(r)

	s := &server{
		cat:      opts.Catalog,
		sessions: opts.Sessions,
		contact:  opts.Contact,
		log:      log,
		version:  opts.Version,
	}

	api := r.Group("/api")
	api.GET("/projects", s.apiProjects)
	api.GET("/projects/:id", s.apiProject)
	api.GET("/filters", s.apiFilters)

	r.GET("/contact-form", s.contactForm)
	r.POST("/contact", s.submitContact)

	pages := r.Group("/", sessionMiddleware(opts.SessionTTL, opts.SecureCookies))
	pages.GET("/", s.index)

	p := pages.Group("/projects")
	p.GET("", s.projects)
	p.POST("/type/:label", s.toggleType)
	p.POST("/technology/:label", s.toggleTechnology)
	p.POST("/search", s.search)
	p.POST("/sort", s.sort)
	p.POST("/clear", s.clear)
	p.POST("/expand/:id", s.expand)

	ui := pages.Group("/ui")
	ui.POST("/dark-mode", s.toggleDarkMode)
	ui.POST("/menu", s.toggleMenu)
	ui.POST("/filter-panel", s.toggleFilterPanel)
	ui.POST("/cursor", s.setCursor)

	if opts.Admin != nil {
		opts.Admin.Register(r.Group("/admin/api"))
	}
	return r, nil
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "HX-Request", "HX-Target", "HX-Trigger", "HX-Current-URL"},
		ExposeHeaders: []string{requestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cfg
}

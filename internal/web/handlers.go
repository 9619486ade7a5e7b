package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/abuelmaaref/portfolio/internal/catalog"
	"github.com/abuelmaaref/portfolio/internal/projects"
	"github.com/abuelmaaref/portfolio/internal/viewstate"
)

type option struct {
	Label    string
	Selected bool
}

type sortOption struct {
	Value    projects.SortOption
	Label    string
	Selected bool
}

type card struct {
	catalog.Record
	Expanded bool
}

type projectsView struct {
	Types               []option
	Technologies        []option
	Sorts               []sortOption
	Query               string
	HasActiveFilters    bool
	FilterPanelExpanded bool
	Featured            []catalog.Record
	Cards               []card
	Count               int
}

type pageView struct {
	Site           catalog.Site
	Projects       projectsView
	DarkMode       bool
	MobileMenuOpen bool
	Version        string
}

func (s *server) projectsView(ctrl *viewstate.Controller) projectsView {
	v := projectsView{
		Query:               ctrl.Query(),
		HasActiveFilters:    ctrl.HasActiveFilters(),
		FilterPanelExpanded: ctrl.FilterPanelExpanded(),
		Featured:            ctrl.Featured(),
	}
	for _, l := range s.cat.Filters.Types {
		v.Types = append(v.Types, option{Label: l, Selected: ctrl.IsTypeSelected(l)})
	}
	for _, l := range s.cat.Filters.Technologies {
		v.Technologies = append(v.Technologies, option{Label: l, Selected: ctrl.IsTechnologySelected(l)})
	}
	for _, sc := range projects.SortChoices() {
		v.Sorts = append(v.Sorts, sortOption{Value: sc.Value, Label: sc.Label, Selected: sc.Value == ctrl.Sort()})
	}
	for _, r := range ctrl.Visible() {
		v.Cards = append(v.Cards, card{Record: r, Expanded: ctrl.IsExpanded(r.ID)})
	}
	v.Count = len(v.Cards)
	return v
}

// withSession runs fn on the caller's controller. Mutations never fail, so
// an error here only means the snapshot could not be persisted; the
// in-memory state is still current and the request carries on.
func (s *server) withSession(c *gin.Context, fn func(*viewstate.Controller)) {
	err := s.sessions.Do(c.Request.Context(), c.GetString(sessionKey), func(ctrl *viewstate.Controller) error {
		fn(ctrl)
		return nil
	})
	if err != nil {
		s.log.Warn("session not persisted", zap.String("request_id", RequestID(c.Request.Context())), zap.Error(err))
	}
}

// peekSession runs a read-only fn on the caller's controller. Visitors who
// have never changed anything get the default state and no stored session.
func (s *server) peekSession(c *gin.Context, fn func(*viewstate.Controller)) {
	s.sessions.Peek(c.Request.Context(), c.GetString(sessionKey), fn)
}

func (s *server) index(c *gin.Context) {
	var view pageView
	s.peekSession(c, func(ctrl *viewstate.Controller) {
		view = pageView{
			Site:           s.cat.Site,
			Projects:       s.projectsView(ctrl),
			DarkMode:       ctrl.DarkMode(),
			MobileMenuOpen: ctrl.MobileMenuOpen(),
			Version:        s.version,
		}
	})
	c.HTML(http.StatusOK, "index.html", view)
}

// renderProjects applies fn and answers with the refreshed showcase
// fragment.
func (s *server) renderProjects(c *gin.Context, fn func(*viewstate.Controller)) {
	var view projectsView
	s.withSession(c, func(ctrl *viewstate.Controller) {
		fn(ctrl)
		view = s.projectsView(ctrl)
	})
	c.HTML(http.StatusOK, "projects.html", view)
}

func (s *server) projects(c *gin.Context) {
	var view projectsView
	s.peekSession(c, func(ctrl *viewstate.Controller) { view = s.projectsView(ctrl) })
	c.HTML(http.StatusOK, "projects.html", view)
}

func (s *server) toggleType(c *gin.Context) {
	label := c.Param("label")
	if !s.cat.IsTypeOption(label) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown project type"})
		return
	}
	s.renderProjects(c, func(ctrl *viewstate.Controller) { ctrl.ToggleType(label) })
}

func (s *server) toggleTechnology(c *gin.Context) {
	label := c.Param("label")
	if !s.cat.IsTechnologyOption(label) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown technology"})
		return
	}
	s.renderProjects(c, func(ctrl *viewstate.Controller) { ctrl.ToggleTechnology(label) })
}

func (s *server) search(c *gin.Context) {
	q := c.PostForm("q")
	s.renderProjects(c, func(ctrl *viewstate.Controller) { ctrl.SetSearchQuery(q) })
}

func (s *server) sort(c *gin.Context) {
	opt, err := projects.ParseSortOption(c.PostForm("sort"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.renderProjects(c, func(ctrl *viewstate.Controller) { ctrl.SetSortOption(opt) })
}

func (s *server) clear(c *gin.Context) {
	s.renderProjects(c, func(ctrl *viewstate.Controller) { ctrl.ClearAllFilters() })
}

func (s *server) expand(c *gin.Context) {
	id := c.Param("id")
	if _, ok := s.cat.Lookup(id); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
		return
	}
	s.renderProjects(c, func(ctrl *viewstate.Controller) { ctrl.ToggleProjectExpansion(id) })
}

// UI toggles answer with the whole snapshot so the client can sync.

func (s *server) uiState(c *gin.Context, fn func(*viewstate.Controller)) {
	var st viewstate.State
	s.withSession(c, func(ctrl *viewstate.Controller) {
		fn(ctrl)
		st = ctrl.Snapshot()
	})
	c.JSON(http.StatusOK, gin.H{"ok": true, "state": st})
}

func (s *server) toggleDarkMode(c *gin.Context) {
	s.uiState(c, func(ctrl *viewstate.Controller) { ctrl.ToggleDarkMode() })
}

func (s *server) toggleMenu(c *gin.Context) {
	s.uiState(c, func(ctrl *viewstate.Controller) { ctrl.ToggleMobileMenu() })
}

func (s *server) toggleFilterPanel(c *gin.Context) {
	s.uiState(c, func(ctrl *viewstate.Controller) { ctrl.ToggleFilterPanel() })
}

func (s *server) setCursor(c *gin.Context) {
	label := c.PostForm("label")
	s.uiState(c, func(ctrl *viewstate.Controller) { ctrl.SetCursorLabel(label) })
}

package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/abuelmaaref/portfolio/internal/catalog"
	"github.com/abuelmaaref/portfolio/internal/contact"
	"github.com/abuelmaaref/portfolio/internal/projects"
)

// apiProjects runs the pipeline statelessly over the query parameters.
// type and technology may repeat.
func (s *server) apiProjects(c *gin.Context) {
	f := projects.DefaultFilters()
	if types := c.QueryArray("type"); len(types) > 0 {
		for _, t := range types {
			if !s.cat.IsTypeOption(t) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "unknown project type: " + t})
				return
			}
		}
		f.Type = types
	}
	for _, t := range c.QueryArray("technology") {
		if !s.cat.IsTechnologyOption(t) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown technology: " + t})
			return
		}
		f.Technology = append(f.Technology, t)
	}
	opt, err := projects.ParseSortOption(c.Query("sort"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	out := projects.Derive(s.cat.Records(), f, c.Query("q"), opt)
	c.JSON(http.StatusOK, gin.H{
		"projects": out,
		"count":    len(out),
		"sort":     opt,
	})
}

func (s *server) apiProject(c *gin.Context) {
	r, ok := s.cat.Lookup(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
		return
	}
	c.JSON(http.StatusOK, r)
}

func (s *server) apiFilters(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"types":        s.cat.Filters.Types,
		"technologies": s.cat.Filters.Technologies,
		"sorts":        projects.SortChoices(),
		"allTypes":     catalog.AllTypes,
	})
}

func (s *server) contactForm(c *gin.Context) {
	c.HTML(http.StatusOK, "contact.html", gin.H{
		"title": "Contact Me",
	})
}

// submitContact always answers 200 with a fragment so HTMX swaps it in.
func (s *server) submitContact(c *gin.Context) {
	var sub contact.Submission
	if err := c.ShouldBind(&sub); err != nil {
		c.HTML(http.StatusOK, "contact-error.html", gin.H{"error": "Please fill in every field."})
		return
	}

	if _, err := s.contact.Submit(c.Request.Context(), sub); err != nil {
		msg := "Sorry, there was an error sending your message. Please try again later."
		if errors.Is(err, contact.ErrInvalid) {
			msg = invalidReason(err)
		} else {
			s.log.Error("contact submission", zap.String("request_id", RequestID(c.Request.Context())), zap.Error(err))
		}
		c.HTML(http.StatusOK, "contact-error.html", gin.H{"error": msg})
		return
	}

	c.HTML(http.StatusOK, "contact-success.html", gin.H{
		"success": "Thank you for your message! I'll get back to you soon.",
	})
}

// invalidReason strips the sentinel prefix, leaving e.g. "name is required".
func invalidReason(err error) string {
	msg := strings.TrimPrefix(err.Error(), contact.ErrInvalid.Error()+": ")
	return "Please check your input: " + msg + "."
}

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"jobboard/internal/jobs"
)

type staticPage struct {
	Title    string   `json:"title"`
	Sections []string `json:"sections"`
}

var staticPages = map[string]staticPage{
	"about": {
		Title: "About Us",
		Sections: []string{
			"JobBoard connects candidates with employers looking for talent.",
			"Candidates browse and apply to listings; employers post jobs and review applications.",
		},
	},
	"contact": {
		Title: "Contact Us",
		Sections: []string{
			"Email: support@jobboard.local",
			"We usually reply within two business days.",
		},
	},
	"faq": {
		Title: "Frequently Asked Questions",
		Sections: []string{
			"How do I verify my account? Enter the 5-digit code we emailed you after registering.",
			"Can I apply twice to the same job? No, each candidate may apply once per listing.",
			"How do I know my application status changed? We email you and push a live update when you are online.",
		},
	},
}

// PagesHandler serves the landing page data and the static pages.
type PagesHandler struct {
	jobs *jobs.Service
}

func NewPagesHandler(svc *jobs.Service) *PagesHandler {
	return &PagesHandler{jobs: svc}
}

func (h *PagesHandler) Home(c *gin.Context) {
	home, err := h.jobs.Home(c.Request.Context())
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"featured_jobs":   toListingDTOs(home.Featured),
		"recent_jobs":     toListingDTOs(home.Recent),
		"total_jobs":      home.TotalJobs,
		"total_companies": home.TotalCompanies,
	})
}

func (h *PagesHandler) Static(c *gin.Context) {
	page, ok := staticPages[c.Param("slug")]
	if !ok {
		NotFound(c, "Page not found.")
		return
	}
	c.JSON(http.StatusOK, page)
}

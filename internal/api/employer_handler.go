package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"jobboard/internal/api/middleware"
	"jobboard/internal/database"
	"jobboard/internal/jobs"
)

// EmployerHandler serves listing management for company accounts.
type EmployerHandler struct {
	jobs *jobs.Service
}

func NewEmployerHandler(svc *jobs.Service) *EmployerHandler {
	return &EmployerHandler{jobs: svc}
}

type listingRequest struct {
	Title               string `json:"title" form:"title"`
	Description         string `json:"description" form:"description"`
	Location            string `json:"location" form:"location"`
	JobType             string `json:"job_type" form:"job_type"`
	Experience          string `json:"experience" form:"experience"`
	Salary              string `json:"salary" form:"salary"`
	Requirements        string `json:"requirements" form:"requirements"`
	SkillsRequired      string `json:"skills_required" form:"skills_required"`
	Responsibilities    string `json:"responsibilities" form:"responsibilities"`
	Benefits            string `json:"benefits" form:"benefits"`
	Vacancies           string `json:"vacancies" form:"vacancies"`
	ApplicationDeadline string `json:"application_deadline" form:"application_deadline"`
}

func (r listingRequest) input() jobs.ListingInput {
	return jobs.ListingInput{
		Title:               r.Title,
		Description:         r.Description,
		Location:            r.Location,
		JobType:             r.JobType,
		Experience:          r.Experience,
		Salary:              r.Salary,
		Requirements:        r.Requirements,
		SkillsRequired:      r.SkillsRequired,
		Responsibilities:    r.Responsibilities,
		Benefits:            r.Benefits,
		Vacancies:           r.Vacancies,
		ApplicationDeadline: r.ApplicationDeadline,
	}
}

func (h *EmployerHandler) Post(c *gin.Context) {
	var req listingRequest
	if err := c.ShouldBind(&req); err != nil {
		BadRequest(c, "Invalid request body.")
		return
	}
	l, err := h.jobs.Post(c.Request.Context(), middleware.PrincipalFromContext(c), req.input())
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Job '" + l.Title + "' has been posted successfully!",
		"listing": toListingDTO(*l),
	})
}

func (h *EmployerHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	l, err := h.jobs.Listing(c.Request.Context(), middleware.PrincipalFromContext(c), id)
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"listing": toListingDTO(*l)})
}

func (h *EmployerHandler) Edit(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req listingRequest
	if err := c.ShouldBind(&req); err != nil {
		BadRequest(c, "Invalid request body.")
		return
	}
	l, err := h.jobs.Edit(c.Request.Context(), middleware.PrincipalFromContext(c), id, req.input())
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Job '" + l.Title + "' has been updated successfully!",
		"listing": toListingDTO(*l),
	})
}

func (h *EmployerHandler) Delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	title, err := h.jobs.Delete(c.Request.Context(), middleware.PrincipalFromContext(c), id)
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Job '" + title + "' has been deleted successfully!"})
}

func (h *EmployerHandler) MyJobs(c *gin.Context) {
	owned, err := h.jobs.MyListings(c.Request.Context(), middleware.PrincipalFromContext(c))
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": toOwnedDTOs(owned)})
}

// Applications 列出某职位的全部申请及可选状态。
func (h *EmployerHandler) Applications(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	l, apps, err := h.jobs.ListingApplications(c.Request.Context(), middleware.PrincipalFromContext(c), id)
	if err != nil {
		Fail(c, err)
		return
	}
	choices := make([]gin.H, 0, len(database.Statuses))
	for _, s := range database.Statuses {
		choices = append(choices, gin.H{"value": s, "label": s.Label()})
	}
	c.JSON(http.StatusOK, gin.H{
		"listing":        toListingDTO(*l),
		"applications":   toApplicationDTOs(apps),
		"status_choices": choices,
	})
}

type statusRequest struct {
	Status string `json:"status" form:"status"`
}

// UpdateStatus 更新申请状态，状态变化时通知候选人。
func (h *EmployerHandler) UpdateStatus(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req statusRequest
	if err := c.ShouldBind(&req); err != nil {
		BadRequest(c, "Invalid request body.")
		return
	}
	res, err := h.jobs.UpdateStatus(c.Request.Context(), middleware.PrincipalFromContext(c), id, req.Status)
	if err != nil {
		Fail(c, err)
		return
	}
	msg := "Application status unchanged."
	if res.Notified {
		msg = "Application status updated to " + res.Application.Status.Label() + ". Candidate has been notified."
	}
	c.JSON(http.StatusOK, gin.H{
		"message":         msg,
		"notified":        res.Notified,
		"previous_status": res.Previous,
		"application":     toApplicationDTO(res.Application),
	})
}

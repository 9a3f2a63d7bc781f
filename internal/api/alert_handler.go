package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"jobboard/internal/api/middleware"
	"jobboard/internal/jobs"
)

// AlertHandler manages a candidate's job alerts.
type AlertHandler struct {
	jobs *jobs.Service
}

func NewAlertHandler(svc *jobs.Service) *AlertHandler {
	return &AlertHandler{jobs: svc}
}

type alertRequest struct {
	Keywords string `json:"keywords" form:"keywords"`
	Location string `json:"location" form:"location"`
	JobType  string `json:"job_type" form:"job_type"`
}

func (h *AlertHandler) List(c *gin.Context) {
	alerts, err := h.jobs.Alerts(c.Request.Context(), middleware.PrincipalFromContext(c))
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": toAlertDTOs(alerts)})
}

func (h *AlertHandler) Create(c *gin.Context) {
	var req alertRequest
	if err := c.ShouldBind(&req); err != nil {
		BadRequest(c, "Invalid request body.")
		return
	}
	a, err := h.jobs.CreateAlert(c.Request.Context(), middleware.PrincipalFromContext(c), jobs.AlertInput{
		Keywords: req.Keywords,
		Location: req.Location,
		JobType:  req.JobType,
	})
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Job alert created successfully!", "alert": toAlertDTO(*a)})
}

func (h *AlertHandler) Toggle(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	a, err := h.jobs.ToggleAlert(c.Request.Context(), middleware.PrincipalFromContext(c), id)
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"alert": toAlertDTO(*a)})
}

func (h *AlertHandler) Delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.jobs.DeleteAlert(c.Request.Context(), middleware.PrincipalFromContext(c), id); err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Job alert deleted."})
}

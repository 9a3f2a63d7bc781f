package api

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"jobboard/internal/api/middleware"
	"jobboard/internal/database"
	"jobboard/internal/jobs"
)

// JobsHandler serves the public listing pages and the candidate actions.
type JobsHandler struct {
	jobs *jobs.Service
}

func NewJobsHandler(svc *jobs.Service) *JobsHandler {
	return &JobsHandler{jobs: svc}
}

type listingPageResponse struct {
	Items    []ListingDTO          `json:"items"`
	Total    int64                 `json:"total"`
	Page     int                   `json:"page"`
	PageSize int                   `json:"page_size"`
	Filters  gin.H                 `json:"filters"`
	JobTypes []database.JobType    `json:"job_types"`
	Levels   []database.Experience `json:"experience_levels"`
}

// Browse 列出在招职位，支持关键字、地点、类型、经验与分页。
func (h *JobsHandler) Browse(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	size, _ := strconv.Atoi(c.Query("page_size"))
	f := jobs.BrowseFilter{
		Search:     c.Query("search"),
		Location:   c.Query("location"),
		JobType:    c.Query("job_type"),
		Experience: c.Query("experience"),
		Page:       page,
		PageSize:   size,
	}
	res, err := h.jobs.Browse(c.Request.Context(), f)
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, listingPageResponse{
		Items:    toListingDTOs(res.Items),
		Total:    res.Total,
		Page:     res.Page,
		PageSize: res.PageSize,
		Filters: gin.H{
			"search":     f.Search,
			"location":   f.Location,
			"job_type":   f.JobType,
			"experience": f.Experience,
		},
		JobTypes: database.JobTypes,
		Levels:   database.Experiences,
	})
}

// Search is the home page quick search.
func (h *JobsHandler) Search(c *gin.Context) {
	f := jobs.SearchFilter{
		Title:  c.Query("title"),
		Region: c.Query("region"),
		Type:   c.Query("type"),
	}
	items, err := h.jobs.Search(c.Request.Context(), f)
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"items":   toListingDTOs(items),
		"count":   len(items),
		"filters": gin.H{"title": f.Title, "region": f.Region, "type": f.Type},
	})
}

// Detail 返回职位详情并计一次浏览。
func (h *JobsHandler) Detail(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	d, err := h.jobs.Detail(c.Request.Context(), id, middleware.PrincipalFromContext(c))
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"listing":     toListingDTO(d.Listing),
		"similar":     toListingDTOs(d.Similar),
		"has_applied": d.HasApplied,
		"has_saved":   d.HasSaved,
		"is_owner":    d.IsOwner,
		"user_role":   d.ViewerRole,
	})
}

// Apply 提交申请，multipart 表单：cover_letter 与可选的 resume 文件。
func (h *JobsHandler) Apply(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	in := jobs.ApplyInput{CoverLetter: c.PostForm("cover_letter")}
	fh, err := c.FormFile("resume")
	switch {
	case err == nil:
		in.Resume = resumeUpload(fh)
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	default:
		BadRequest(c, "Invalid resume upload.")
		return
	}

	app, err := h.jobs.Apply(c.Request.Context(), middleware.PrincipalFromContext(c), id, in)
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":     "Your application for " + app.Listing.Title + " has been submitted successfully!",
		"application": toApplicationDTO(*app),
	})
}

func resumeUpload(fh *multipart.FileHeader) *jobs.ResumeUpload {
	return &jobs.ResumeUpload{
		Filename:    fh.Filename,
		Size:        fh.Size,
		ContentType: fh.Header.Get("Content-Type"),
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// ToggleSave 收藏或取消收藏。
func (h *JobsHandler) ToggleSave(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	saved, err := h.jobs.ToggleSave(c.Request.Context(), middleware.PrincipalFromContext(c), id)
	if err != nil {
		Fail(c, err)
		return
	}
	msg := "Job removed from saved list"
	if saved {
		msg = "Job saved successfully!"
	}
	c.JSON(http.StatusOK, gin.H{"saved": saved, "message": msg})
}

func (h *JobsHandler) MyApplications(c *gin.Context) {
	apps, err := h.jobs.MyApplications(c.Request.Context(), middleware.PrincipalFromContext(c))
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": toApplicationDTOs(apps)})
}

func (h *JobsHandler) SavedJobs(c *gin.Context) {
	saved, err := h.jobs.SavedListings(c.Request.Context(), middleware.PrincipalFromContext(c))
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": toSavedDTOs(saved)})
}

// ResumeLink 返回简历的短期下载链接，仅申请人与职位所有者可见。
func (h *JobsHandler) ResumeLink(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	url, err := h.jobs.ResumeLink(c.Request.Context(), middleware.PrincipalFromContext(c), id)
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

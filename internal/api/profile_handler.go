package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"jobboard/internal/account"
	"jobboard/internal/api/middleware"
)

// ProfileHandler shows and edits the caller's own profile.
type ProfileHandler struct {
	accounts *account.Service
}

func NewProfileHandler(accounts *account.Service) *ProfileHandler {
	return &ProfileHandler{accounts: accounts}
}

func (h *ProfileHandler) Get(c *gin.Context) {
	v, err := h.accounts.Profile(c.Request.Context(), middleware.PrincipalFromContext(c))
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toProfileDTO(v))
}

type profileRequest struct {
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	Phone       *string `json:"phone"`
	Address     *string `json:"address"`
	City        *string `json:"city"`
	State       *string `json:"state"`
	ZipCode     *string `json:"zip_code"`
	Gender      *string `json:"gender"`
	CompanyName *string `json:"company_name"`
	Contact     *string `json:"contact"`
}

// Update 仅修改请求中出现的字段，与角色无关的字段被忽略。
func (h *ProfileHandler) Update(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body.")
		return
	}
	v, err := h.accounts.UpdateProfile(c.Request.Context(), middleware.PrincipalFromContext(c), account.ProfileUpdate{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Phone:       req.Phone,
		Address:     req.Address,
		City:        req.City,
		State:       req.State,
		ZipCode:     req.ZipCode,
		Gender:      req.Gender,
		CompanyName: req.CompanyName,
		Contact:     req.Contact,
	})
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully!", "profile": toProfileDTO(v)})
}

package api

import (
	"time"

	"github.com/ecodeclub/ekit/slice"

	"jobboard/internal/account"
	"jobboard/internal/auth"
	"jobboard/internal/database"
	"jobboard/internal/jobs"
)

type ListingDTO struct {
	ID                  uint      `json:"id"`
	Title               string    `json:"title"`
	CompanyName         string    `json:"company_name"`
	CompanyID           *uint     `json:"company_id,omitempty"`
	Description         string    `json:"description"`
	Location            string    `json:"location"`
	JobType             string    `json:"job_type"`
	Experience          string    `json:"experience"`
	Salary              string    `json:"salary,omitempty"`
	Requirements        string    `json:"requirements,omitempty"`
	SkillsRequired      string    `json:"skills_required,omitempty"`
	Responsibilities    string    `json:"responsibilities,omitempty"`
	Benefits            string    `json:"benefits,omitempty"`
	ApplicationDeadline string    `json:"application_deadline,omitempty"`
	Vacancies           int       `json:"vacancies"`
	IsActive            bool      `json:"is_active"`
	IsFeatured          bool      `json:"is_featured"`
	ViewsCount          int       `json:"views_count"`
	CreatedAt           time.Time `json:"created_at"`
}

func toListingDTO(l database.Listing) ListingDTO {
	dto := ListingDTO{
		ID:               l.ID,
		Title:            l.Title,
		CompanyName:      l.CompanyName,
		CompanyID:        l.CompanyID,
		Description:      l.Description,
		Location:         l.Location,
		JobType:          string(l.JobType),
		Experience:       string(l.Experience),
		Salary:           l.Salary,
		Requirements:     l.Requirements,
		SkillsRequired:   l.SkillsRequired,
		Responsibilities: l.Responsibilities,
		Benefits:         l.Benefits,
		Vacancies:        l.Vacancies,
		IsActive:         l.IsActive,
		IsFeatured:       l.IsFeatured,
		ViewsCount:       l.ViewsCount,
		CreatedAt:        l.CreatedAt,
	}
	if l.ApplicationDeadline != nil {
		dto.ApplicationDeadline = time.Time(*l.ApplicationDeadline).Format("2006-01-02")
	}
	return dto
}

func toListingDTOs(ls []database.Listing) []ListingDTO {
	return slice.Map(ls, func(_ int, src database.Listing) ListingDTO {
		return toListingDTO(src)
	})
}

type ApplicationDTO struct {
	ID          uint          `json:"id"`
	ListingID   uint          `json:"listing_id"`
	Listing     *ListingDTO   `json:"listing,omitempty"`
	Candidate   *CandidateDTO `json:"candidate,omitempty"`
	CoverLetter string        `json:"cover_letter"`
	HasResume   bool          `json:"has_resume"`
	Status      string        `json:"status"`
	StatusLabel string        `json:"status_label"`
	AppliedAt   time.Time     `json:"applied_at"`
}

func toApplicationDTO(a database.Application) ApplicationDTO {
	dto := ApplicationDTO{
		ID:          a.ID,
		ListingID:   a.ListingID,
		CoverLetter: a.CoverLetter,
		HasResume:   a.ResumeKey != "",
		Status:      string(a.Status),
		StatusLabel: a.Status.Label(),
		AppliedAt:   a.AppliedAt,
	}
	if a.Listing.ID != 0 {
		l := toListingDTO(a.Listing)
		dto.Listing = &l
	}
	if a.Candidate.ID != 0 {
		c := toCandidateDTO(&a.Candidate)
		dto.Candidate = &c
	}
	return dto
}

func toApplicationDTOs(as []database.Application) []ApplicationDTO {
	return slice.Map(as, func(_ int, src database.Application) ApplicationDTO {
		return toApplicationDTO(src)
	})
}

type SavedListingDTO struct {
	ID      uint       `json:"id"`
	SavedAt time.Time  `json:"saved_at"`
	Listing ListingDTO `json:"listing"`
}

func toSavedDTOs(ss []database.SavedListing) []SavedListingDTO {
	return slice.Map(ss, func(_ int, src database.SavedListing) SavedListingDTO {
		return SavedListingDTO{ID: src.ID, SavedAt: src.SavedAt, Listing: toListingDTO(src.Listing)}
	})
}

type OwnedListingDTO struct {
	ListingDTO
	ApplicationCount int64 `json:"application_count"`
}

func toOwnedDTOs(owned []jobs.OwnedListing) []OwnedListingDTO {
	return slice.Map(owned, func(_ int, src jobs.OwnedListing) OwnedListingDTO {
		return OwnedListingDTO{ListingDTO: toListingDTO(src.Listing), ApplicationCount: src.ApplicationCount}
	})
}

type AlertDTO struct {
	ID        uint      `json:"id"`
	Keywords  string    `json:"keywords"`
	Location  string    `json:"location,omitempty"`
	JobType   string    `json:"job_type,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func toAlertDTO(a database.Alert) AlertDTO {
	return AlertDTO{
		ID:        a.ID,
		Keywords:  a.Keywords,
		Location:  a.Location,
		JobType:   string(a.JobType),
		IsActive:  a.IsActive,
		CreatedAt: a.CreatedAt,
	}
}

func toAlertDTOs(as []database.Alert) []AlertDTO {
	return slice.Map(as, func(_ int, src database.Alert) AlertDTO { return toAlertDTO(src) })
}

type CandidateDTO struct {
	ID        uint   `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Address   string `json:"address,omitempty"`
	City      string `json:"city,omitempty"`
	State     string `json:"state,omitempty"`
	ZipCode   string `json:"zip_code,omitempty"`
	Gender    string `json:"gender,omitempty"`
}

func toCandidateDTO(c *database.CandidateProfile) CandidateDTO {
	return CandidateDTO{
		ID:        c.ID,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Email:     c.Email,
		Phone:     c.Phone,
		Address:   c.Address,
		City:      c.City,
		State:     c.State,
		ZipCode:   c.ZipCode,
		Gender:    c.Gender,
	}
}

type CompanyDTO struct {
	ID          uint   `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	CompanyName string `json:"company_name"`
	State       string `json:"state,omitempty"`
	City        string `json:"city,omitempty"`
	Contact     string `json:"contact,omitempty"`
	Address     string `json:"address,omitempty"`
}

func toCompanyDTO(c *database.CompanyProfile) CompanyDTO {
	return CompanyDTO{
		ID:          c.ID,
		FirstName:   c.FirstName,
		LastName:    c.LastName,
		CompanyName: c.CompanyName,
		State:       c.State,
		City:        c.City,
		Contact:     c.Contact,
		Address:     c.Address,
	}
}

type AccountDTO struct {
	ID         uint   `json:"id"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	IsActive   bool   `json:"is_active"`
	IsVerified bool   `json:"is_verified"`
}

type ProfileDTO struct {
	Account AccountDTO `json:"account"`
	Profile any        `json:"profile"`
}

func toProfileDTO(v *account.ProfileView) ProfileDTO {
	dto := ProfileDTO{Account: AccountDTO{
		ID:         v.Account.ID,
		Email:      v.Account.Email,
		Role:       string(v.Account.Role),
		IsActive:   v.Account.IsActive,
		IsVerified: v.Account.IsVerified,
	}}
	switch p := v.Profile.(type) {
	case *database.CandidateProfile:
		dto.Profile = toCandidateDTO(p)
	case *database.CompanyProfile:
		dto.Profile = toCompanyDTO(p)
	}
	return dto
}

// SessionDTO is what the client keeps about the logged in user.
type SessionDTO struct {
	AccountID   uint   `json:"account_id"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	DisplayName string `json:"display_name"`
	ProfileID   uint   `json:"profile_id"`
}

func toSessionDTO(p *auth.Principal) SessionDTO {
	return SessionDTO{
		AccountID:   p.AccountID,
		Email:       p.Email,
		Role:        string(p.Role),
		DisplayName: p.DisplayName,
		ProfileID:   p.ProfileID(),
	}
}

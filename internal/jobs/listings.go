package jobs

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"jobboard/internal/auth"
	"jobboard/internal/database"
	"jobboard/internal/errcode"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	homeFeatured    = 3
	homeRecent      = 6
	similarLimit    = 3
	newestFirst     = "created_at DESC, id DESC"
)

// BrowseFilter narrows the public listing. Empty fields do not filter.
type BrowseFilter struct {
	Search     string
	Location   string
	JobType    string
	Experience string
	Page       int
	PageSize   int
}

// ListingPage is one page of listings plus the total match count.
type ListingPage struct {
	Items    []database.Listing
	Total    int64
	Page     int
	PageSize int
}

func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size
}

func containsPattern(s string) string {
	return "%" + strings.ToLower(strings.TrimSpace(s)) + "%"
}

// Browse lists active listings matching the filter, newest first.
func (s *Service) Browse(ctx context.Context, f BrowseFilter) (*ListingPage, error) {
	q := s.db.WithContext(ctx).Model(&database.Listing{}).Where("is_active = ?", true)
	if v := strings.TrimSpace(f.Search); v != "" {
		p := containsPattern(v)
		q = q.Where("(LOWER(title) LIKE ? OR LOWER(company_name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(skills_required) LIKE ?)", p, p, p, p)
	}
	if v := strings.TrimSpace(f.Location); v != "" {
		q = q.Where("LOWER(location) LIKE ?", containsPattern(v))
	}
	if v := strings.TrimSpace(f.JobType); v != "" {
		q = q.Where("job_type = ?", v)
	}
	if v := strings.TrimSpace(f.Experience); v != "" {
		q = q.Where("experience = ?", v)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count listings: %w", err)
	}

	page, size := normalizePage(f.Page, f.PageSize)
	var items []database.Listing
	if err := q.Order(newestFirst).Offset((page - 1) * size).Limit(size).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("browse listings: %w", err)
	}
	return &ListingPage{Items: items, Total: total, Page: page, PageSize: size}, nil
}

// SearchFilter is the home-page quick search.
type SearchFilter struct {
	Title  string
	Region string
	Type   string
}

// Search matches title/company/description, region against location and a
// substring of the job type.
func (s *Service) Search(ctx context.Context, f SearchFilter) ([]database.Listing, error) {
	q := s.db.WithContext(ctx).Where("is_active = ?", true)
	if v := strings.TrimSpace(f.Title); v != "" {
		p := containsPattern(v)
		q = q.Where("(LOWER(title) LIKE ? OR LOWER(company_name) LIKE ? OR LOWER(description) LIKE ?)", p, p, p)
	}
	if v := strings.TrimSpace(f.Region); v != "" {
		q = q.Where("LOWER(location) LIKE ?", containsPattern(v))
	}
	if v := strings.TrimSpace(f.Type); v != "" {
		q = q.Where("LOWER(job_type) LIKE ?", containsPattern(v))
	}

	var items []database.Listing
	if err := q.Order(newestFirst).Limit(maxPageSize).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("search listings: %w", err)
	}
	return items, nil
}

// Detail is a listing as seen by a particular viewer.
type Detail struct {
	Listing    database.Listing
	Similar    []database.Listing
	HasApplied bool
	HasSaved   bool
	IsOwner    bool
	ViewerRole database.Role
}

// Detail loads an active listing and counts the view. The viewer may be nil.
func (s *Service) Detail(ctx context.Context, id uint, viewer *auth.Principal) (*Detail, error) {
	l, err := s.activeListing(ctx, s.db, id)
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(&database.Listing{}).Where("id = ?", l.ID).
		UpdateColumn("views_count", gorm.Expr("views_count + ?", 1)).Error; err != nil {
		return nil, fmt.Errorf("count view of listing %d: %w", l.ID, err)
	}
	l.ViewsCount++

	d := &Detail{Listing: *l}
	if viewer != nil {
		d.ViewerRole = viewer.Role
		if c, ok := viewer.Candidate(); ok {
			if d.HasApplied, err = s.exists(ctx, &database.Application{}, "listing_id = ? AND candidate_id = ?", l.ID, c.ID); err != nil {
				return nil, err
			}
			if d.HasSaved, err = s.exists(ctx, &database.SavedListing{}, "listing_id = ? AND candidate_id = ?", l.ID, c.ID); err != nil {
				return nil, err
			}
		}
		if c, ok := viewer.Company(); ok {
			d.IsOwner = l.CompanyID != nil && *l.CompanyID == c.ID
		}
	}

	if err := s.db.WithContext(ctx).
		Where("is_active = ? AND job_type = ? AND id <> ?", true, l.JobType, l.ID).
		Order(newestFirst).Limit(similarLimit).Find(&d.Similar).Error; err != nil {
		return nil, fmt.Errorf("similar listings: %w", err)
	}
	return d, nil
}

func (s *Service) exists(ctx context.Context, model any, query string, args ...any) (bool, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(model).Where(query, args...).Count(&n).Error; err != nil {
		return false, fmt.Errorf("check existence: %w", err)
	}
	return n > 0, nil
}

// Home is the landing page data.
type Home struct {
	Featured       []database.Listing
	Recent         []database.Listing
	TotalJobs      int64
	TotalCompanies int64
}

func (s *Service) Home(ctx context.Context) (*Home, error) {
	db := s.db.WithContext(ctx)
	h := &Home{}
	if err := db.Where("is_active = ? AND is_featured = ?", true, true).Order(newestFirst).Limit(homeFeatured).Find(&h.Featured).Error; err != nil {
		return nil, fmt.Errorf("featured listings: %w", err)
	}
	if err := db.Where("is_active = ?", true).Order(newestFirst).Limit(homeRecent).Find(&h.Recent).Error; err != nil {
		return nil, fmt.Errorf("recent listings: %w", err)
	}
	if err := db.Model(&database.Listing{}).Where("is_active = ?", true).Count(&h.TotalJobs).Error; err != nil {
		return nil, fmt.Errorf("count listings: %w", err)
	}
	if err := db.Model(&database.CompanyProfile{}).Count(&h.TotalCompanies).Error; err != nil {
		return nil, fmt.Errorf("count companies: %w", err)
	}
	return h, nil
}

// SetFeatured promotes or demotes a listing on the home page. Featuring is an
// operator action; employers cannot set it.
func (s *Service) SetFeatured(ctx context.Context, id uint, featured bool) error {
	res := s.db.WithContext(ctx).Model(&database.Listing{}).Where("id = ?", id).Update("is_featured", featured)
	if res.Error != nil {
		return fmt.Errorf("set listing %d featured: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return errcode.Missing("Job not found.")
	}
	return nil
}

// Listing returns any listing owned by the caller, active or not.
func (s *Service) Listing(ctx context.Context, p *auth.Principal, id uint) (*database.Listing, error) {
	company, err := requireCompany(p, "Only employers can edit jobs")
	if err != nil {
		return nil, err
	}
	return s.ownedListing(ctx, s.db, id, company)
}

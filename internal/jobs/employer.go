package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"jobboard/internal/auth"
	"jobboard/internal/database"
	"jobboard/internal/errcode"
	"jobboard/internal/metrics"
	"jobboard/internal/notify"
	"jobboard/internal/reqctx"
)

const deadlineLayout = "2006-01-02"

// ListingInput is the post/edit form. Vacancies and ApplicationDeadline are
// raw strings because malformed values are coerced, not rejected.
type ListingInput struct {
	Title               string
	Description         string
	Location            string
	JobType             string
	Experience          string
	Salary              string
	Requirements        string
	SkillsRequired      string
	Responsibilities    string
	Benefits            string
	Vacancies           string
	ApplicationDeadline string
}

func (in ListingInput) echo() map[string]string {
	return map[string]string{
		"title":                in.Title,
		"description":          in.Description,
		"location":             in.Location,
		"job_type":             in.JobType,
		"experience":           in.Experience,
		"salary":               in.Salary,
		"requirements":         in.Requirements,
		"skills_required":      in.SkillsRequired,
		"responsibilities":     in.Responsibilities,
		"benefits":             in.Benefits,
		"vacancies":            in.Vacancies,
		"application_deadline": in.ApplicationDeadline,
	}
}

// ParseVacancies coerces the vacancies field: missing, non-numeric or
// values below one become one.
func ParseVacancies(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// parseDeadline drops unparseable dates and rejects dates before today.
func parseDeadline(raw string, today time.Time) (*datatypes.Date, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(deadlineLayout, raw, today.Location())
	if err != nil {
		return nil, nil
	}
	if t.Before(today) {
		return nil, errcode.Invalid("Application deadline cannot be in the past.")
	}
	d := datatypes.Date(t)
	return &d, nil
}

type listingFields struct {
	title, description, location string
	jobType                      database.JobType
	experience                   database.Experience
	vacancies                    int
	deadline                     *datatypes.Date
}

func (s *Service) validateListing(in ListingInput) (*listingFields, error) {
	f := &listingFields{
		title:       strings.TrimSpace(in.Title),
		description: strings.TrimSpace(in.Description),
		location:    strings.TrimSpace(in.Location),
	}
	rawType := strings.TrimSpace(in.JobType)
	if f.title == "" || f.description == "" || f.location == "" || rawType == "" {
		return nil, errcode.Invalid("Please fill in all required fields.").WithFields(in.echo())
	}
	jt, err := database.ParseJobType(rawType)
	if err != nil {
		return nil, errcode.Invalid("Invalid job type selected.").WithFields(in.echo())
	}
	exp, err := database.ParseExperience(strings.TrimSpace(in.Experience))
	if err != nil {
		return nil, errcode.Invalid("Invalid experience level selected.").WithFields(in.echo())
	}
	deadline, err := parseDeadline(in.ApplicationDeadline, s.today())
	if err != nil {
		if e, ok := errcode.As(err); ok {
			return nil, e.WithFields(in.echo())
		}
		return nil, err
	}
	f.jobType = jt
	f.experience = exp
	f.vacancies = ParseVacancies(in.Vacancies)
	f.deadline = deadline
	return f, nil
}

// Post creates an active listing owned by the caller's company, then notifies
// matching alerts.
func (s *Service) Post(ctx context.Context, p *auth.Principal, in ListingInput) (*database.Listing, error) {
	company, err := requireCompany(p, "Only employers can post jobs")
	if err != nil {
		return nil, err
	}
	f, err := s.validateListing(in)
	if err != nil {
		return nil, err
	}

	companyID := company.ID
	l := database.Listing{
		CompanyID:           &companyID,
		Title:               f.title,
		CompanyName:         company.CompanyName,
		Description:         f.description,
		Location:            f.location,
		JobType:             f.jobType,
		Experience:          f.experience,
		Salary:              strings.TrimSpace(in.Salary),
		Requirements:        strings.TrimSpace(in.Requirements),
		SkillsRequired:      strings.TrimSpace(in.SkillsRequired),
		Responsibilities:    strings.TrimSpace(in.Responsibilities),
		Benefits:            strings.TrimSpace(in.Benefits),
		Vacancies:           f.vacancies,
		ApplicationDeadline: f.deadline,
		IsActive:            true,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&l).Error
	})
	if err != nil {
		return nil, fmt.Errorf("create listing: %w", err)
	}
	metrics.ListingPosted()
	s.logger.Info("listing posted",
		slog.Uint64("listing_id", uint64(l.ID)),
		slog.Uint64("company_id", uint64(companyID)),
	)

	s.notifyAlerts(ctx, &l)
	return &l, nil
}

// Edit overwrites an owned listing's fields.
func (s *Service) Edit(ctx context.Context, p *auth.Principal, id uint, in ListingInput) (*database.Listing, error) {
	company, err := requireCompany(p, "Only employers can edit jobs")
	if err != nil {
		return nil, err
	}
	l, err := s.ownedListing(ctx, s.db, id, company)
	if err != nil {
		return nil, err
	}
	f, err := s.validateListing(in)
	if err != nil {
		return nil, err
	}

	l.Title = f.title
	l.Description = f.description
	l.Location = f.location
	l.JobType = f.jobType
	l.Experience = f.experience
	l.Salary = strings.TrimSpace(in.Salary)
	l.Requirements = strings.TrimSpace(in.Requirements)
	l.SkillsRequired = strings.TrimSpace(in.SkillsRequired)
	l.Responsibilities = strings.TrimSpace(in.Responsibilities)
	l.Benefits = strings.TrimSpace(in.Benefits)
	l.Vacancies = f.vacancies
	l.ApplicationDeadline = f.deadline

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Save(l).Error
	})
	if err != nil {
		return nil, fmt.Errorf("update listing %d: %w", id, err)
	}
	return l, nil
}

// Delete removes an owned listing with its applications and bookmarks. Resume
// objects are removed afterwards; failures there are only logged.
func (s *Service) Delete(ctx context.Context, p *auth.Principal, id uint) (string, error) {
	company, err := requireCompany(p, "Only employers can delete jobs")
	if err != nil {
		return "", err
	}
	l, err := s.ownedListing(ctx, s.db, id, company)
	if err != nil {
		return "", err
	}

	var resumeKeys []string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&database.Application{}).Where("listing_id = ? AND resume_key <> ''", l.ID).
			Pluck("resume_key", &resumeKeys).Error; err != nil {
			return err
		}
		if err := tx.Where("listing_id = ?", l.ID).Delete(&database.Application{}).Error; err != nil {
			return err
		}
		if err := tx.Where("listing_id = ?", l.ID).Delete(&database.SavedListing{}).Error; err != nil {
			return err
		}
		return tx.Delete(&database.Listing{}, l.ID).Error
	})
	if err != nil {
		return "", fmt.Errorf("delete listing %d: %w", id, err)
	}

	if s.store != nil {
		for _, key := range resumeKeys {
			if err := s.store.DeleteObject(ctx, key); err != nil {
				s.logger.Warn("delete resume object failed", slog.String("key", key), slog.Any("error", err))
			}
		}
	}
	s.logger.Info("listing deleted", slog.Uint64("listing_id", uint64(l.ID)), slog.Int("resumes", len(resumeKeys)))
	return l.Title, nil
}

// OwnedListing is a listing with its application count.
type OwnedListing struct {
	database.Listing
	ApplicationCount int64
}

// MyListings returns the caller's listings, newest first, with counts.
func (s *Service) MyListings(ctx context.Context, p *auth.Principal) ([]OwnedListing, error) {
	company, err := requireCompany(p, "Only employers can view posted jobs")
	if err != nil {
		return nil, err
	}

	var listings []database.Listing
	if err := s.db.WithContext(ctx).Where("company_id = ?", company.ID).Order(newestFirst).Find(&listings).Error; err != nil {
		return nil, fmt.Errorf("load listings: %w", err)
	}
	if len(listings) == 0 {
		return []OwnedListing{}, nil
	}

	ids := make([]uint, 0, len(listings))
	for _, l := range listings {
		ids = append(ids, l.ID)
	}
	var rows []struct {
		ListingID uint
		N         int64
	}
	if err := s.db.WithContext(ctx).Model(&database.Application{}).
		Select("listing_id, COUNT(*) AS n").Where("listing_id IN ?", ids).
		Group("listing_id").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("count applications: %w", err)
	}
	counts := make(map[uint]int64, len(rows))
	for _, r := range rows {
		counts[r.ListingID] = r.N
	}

	out := make([]OwnedListing, 0, len(listings))
	for _, l := range listings {
		out = append(out, OwnedListing{Listing: l, ApplicationCount: counts[l.ID]})
	}
	return out, nil
}

// ListingApplications returns the applications for an owned listing, newest
// first, with candidate data loaded.
func (s *Service) ListingApplications(ctx context.Context, p *auth.Principal, id uint) (*database.Listing, []database.Application, error) {
	company, err := requireCompany(p, "Only employers can view job applications")
	if err != nil {
		return nil, nil, err
	}
	l, err := s.ownedListing(ctx, s.db, id, company)
	if err != nil {
		return nil, nil, err
	}

	var apps []database.Application
	if err := s.db.WithContext(ctx).Preload("Candidate").
		Where("listing_id = ?", l.ID).Order("applied_at DESC, id DESC").Find(&apps).Error; err != nil {
		return nil, nil, fmt.Errorf("load applications: %w", err)
	}
	return l, apps, nil
}

// ApplyStatusChange is the status update rule: the new value always wins and
// a notification is due only when it differs from the old one.
func ApplyStatusChange(old, next database.Status) (database.Status, bool) {
	return next, old != next
}

// StatusUpdate is the outcome of UpdateStatus.
type StatusUpdate struct {
	Application database.Application
	Previous    database.Status
	Notified    bool
}

// UpdateStatus sets an application's status on behalf of the listing owner.
func (s *Service) UpdateStatus(ctx context.Context, p *auth.Principal, applicationID uint, rawStatus string) (*StatusUpdate, error) {
	company, err := requireCompany(p, "Only employers can update application status")
	if err != nil {
		return nil, err
	}

	var app database.Application
	if err := s.db.WithContext(ctx).Preload("Listing").Preload("Candidate").First(&app, applicationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errcode.Missing("Application not found.")
		}
		return nil, fmt.Errorf("load application %d: %w", applicationID, err)
	}
	if app.Listing.CompanyID == nil || *app.Listing.CompanyID != company.ID {
		return nil, errcode.Denied("You can only update applications for your own jobs")
	}
	next, err := database.ParseStatus(strings.TrimSpace(rawStatus))
	if err != nil {
		return nil, errcode.Invalid("Invalid status selected")
	}

	old := app.Status
	var notified bool
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		app.Status, notified = ApplyStatusChange(old, next)
		return tx.Model(&database.Application{}).Where("id = ?", app.ID).Update("status", app.Status).Error
	})
	if err != nil {
		return nil, fmt.Errorf("update application %d status: %w", app.ID, err)
	}

	if notified {
		metrics.StatusChanged(string(next))
		s.announceStatus(ctx, &app)
	}
	return &StatusUpdate{Application: app, Previous: old, Notified: notified}, nil
}

func (s *Service) announceStatus(ctx context.Context, app *database.Application) {
	c := app.Candidate
	msg, renderErr := notify.StatusChangedEmail(c.Email, c.FirstName, app.Listing.Title, app.Listing.CompanyName, app.Status)
	s.dispatch(ctx, msg, renderErr)

	ev := notify.StatusEvent{
		ApplicationID: app.ID,
		ListingID:     app.ListingID,
		JobTitle:      app.Listing.Title,
		Status:        string(app.Status),
		StatusLabel:   app.Status.Label(),
		Message:       notify.StatusMessage(app.Status),
		CorrelationID: reqctx.CorrelationID(ctx),
		At:            s.now(),
	}
	if err := s.live.PublishStatus(ctx, c.AccountID, ev); err != nil {
		s.logger.Warn("publish status event failed", slog.Uint64("application_id", uint64(app.ID)), slog.Any("error", err))
	}
}

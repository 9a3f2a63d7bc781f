package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/gorm"

	"jobboard/internal/auth"
	"jobboard/internal/database"
	"jobboard/internal/errcode"
	"jobboard/internal/metrics"
	"jobboard/internal/notify"
)

const (
	msgAlreadyApplied = "You have already applied for this job"
	resumeLinkTTL     = 15 * time.Minute
)

// ApplyInput is the application form.
type ApplyInput struct {
	CoverLetter string
	Resume      *ResumeUpload
}

// Apply submits the caller's application to an active listing.
func (s *Service) Apply(ctx context.Context, p *auth.Principal, listingID uint, in ApplyInput) (*database.Application, error) {
	cand, err := requireCandidate(p, "Only candidates can apply for jobs")
	if err != nil {
		return nil, err
	}
	l, err := s.activeListing(ctx, s.db, listingID)
	if err != nil {
		return nil, err
	}
	applied, err := s.exists(ctx, &database.Application{}, "listing_id = ? AND candidate_id = ?", l.ID, cand.ID)
	if err != nil {
		return nil, err
	}
	if applied {
		return nil, errcode.Duplicate(msgAlreadyApplied)
	}
	cover := strings.TrimSpace(in.CoverLetter)
	if cover == "" {
		return nil, errcode.Invalid("Please provide a cover letter")
	}

	var resumeKey string
	if in.Resume != nil {
		if resumeKey, err = s.storeResume(ctx, cand.ID, in.Resume); err != nil {
			return nil, err
		}
	}

	app := database.Application{
		ListingID:   l.ID,
		CandidateID: cand.ID,
		CoverLetter: cover,
		ResumeKey:   resumeKey,
		Status:      database.StatusPending,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&app).Error
	})
	if err != nil {
		s.discardResume(ctx, resumeKey)
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errcode.Duplicate(msgAlreadyApplied)
		}
		return nil, fmt.Errorf("create application: %w", err)
	}
	metrics.ApplicationSubmitted()
	s.logger.Info("application submitted",
		slog.Uint64("application_id", uint64(app.ID)),
		slog.Uint64("listing_id", uint64(l.ID)),
	)

	msg, renderErr := notify.ApplicationReceivedEmail(cand.Email, cand.FirstName, l.Title, l.CompanyName)
	s.dispatch(ctx, msg, renderErr)
	s.notifyEmployer(ctx, l, cand, app.ID)

	app.Listing = *l
	return &app, nil
}

func (s *Service) discardResume(ctx context.Context, key string) {
	if key == "" || s.store == nil {
		return
	}
	if err := s.store.DeleteObject(ctx, key); err != nil {
		s.logger.Warn("discard resume failed", slog.String("key", key), slog.Any("error", err))
	}
}

func (s *Service) notifyEmployer(ctx context.Context, l *database.Listing, cand *database.CandidateProfile, appID uint) {
	if l.CompanyID == nil {
		return
	}
	var company database.CompanyProfile
	if err := s.db.WithContext(ctx).Preload("Account").First(&company, *l.CompanyID).Error; err != nil {
		s.logger.Warn("load employer for notification failed", slog.Any("error", err))
		return
	}
	msg, renderErr := notify.NewApplicationEmail(company.Account.Email, company.FirstName, cand.FullName(), l.Title, appID)
	s.dispatch(ctx, msg, renderErr)
}

// ToggleSave bookmarks an active listing, or removes the bookmark when it
// already exists. It reports whether the listing is saved afterwards.
func (s *Service) ToggleSave(ctx context.Context, p *auth.Principal, listingID uint) (bool, error) {
	cand, err := requireCandidate(p, "Only candidates can save jobs")
	if err != nil {
		return false, err
	}
	l, err := s.activeListing(ctx, s.db, listingID)
	if err != nil {
		return false, err
	}

	var saved bool
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("candidate_id = ? AND listing_id = ?", cand.ID, l.ID).Delete(&database.SavedListing{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			saved = false
			return nil
		}
		saved = true
		return tx.Create(&database.SavedListing{CandidateID: cand.ID, ListingID: l.ID}).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// a concurrent request saved it first
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("toggle saved listing %d: %w", l.ID, err)
	}
	return saved, nil
}

// MyApplications lists the caller's applications, newest first.
func (s *Service) MyApplications(ctx context.Context, p *auth.Principal) ([]database.Application, error) {
	cand, err := requireCandidate(p, "Only candidates can view applications")
	if err != nil {
		return nil, err
	}
	var apps []database.Application
	if err := s.db.WithContext(ctx).Preload("Listing").Where("candidate_id = ?", cand.ID).
		Order("applied_at DESC, id DESC").Find(&apps).Error; err != nil {
		return nil, fmt.Errorf("load applications: %w", err)
	}
	return apps, nil
}

// SavedListings lists the caller's bookmarks, newest first.
func (s *Service) SavedListings(ctx context.Context, p *auth.Principal) ([]database.SavedListing, error) {
	cand, err := requireCandidate(p, "Only candidates can view saved jobs")
	if err != nil {
		return nil, err
	}
	var saved []database.SavedListing
	if err := s.db.WithContext(ctx).Preload("Listing").Where("candidate_id = ?", cand.ID).
		Order("saved_at DESC, id DESC").Find(&saved).Error; err != nil {
		return nil, fmt.Errorf("load saved listings: %w", err)
	}
	return saved, nil
}

// ResumeLink returns a short-lived download link for an application's resume.
// Only the applicant and the listing owner may ask for it.
func (s *Service) ResumeLink(ctx context.Context, p *auth.Principal, applicationID uint) (string, error) {
	if p == nil {
		return "", errcode.ErrUnauthorized
	}
	var app database.Application
	if err := s.db.WithContext(ctx).Preload("Listing").First(&app, applicationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", errcode.Missing("Application not found.")
		}
		return "", fmt.Errorf("load application %d: %w", applicationID, err)
	}

	allowed := false
	if c, ok := p.Candidate(); ok && c.ID == app.CandidateID {
		allowed = true
	}
	if c, ok := p.Company(); ok && app.Listing.CompanyID != nil && *app.Listing.CompanyID == c.ID {
		allowed = true
	}
	if !allowed {
		return "", errcode.Denied("You cannot access this resume")
	}
	if app.ResumeKey == "" {
		return "", errcode.Missing("No resume attached to this application.")
	}
	if !validResumeKey(app.CandidateID, app.ResumeKey) {
		s.logger.Warn("refusing malformed resume key", slog.Uint64("application_id", uint64(app.ID)))
		return "", errcode.Missing("No resume attached to this application.")
	}
	if s.store == nil {
		return "", errors.New("resume storage is not configured")
	}

	name := fmt.Sprintf("resume-%d%s", app.ID, filepath.Ext(app.ResumeKey))
	return s.store.GeneratePresignedURL(ctx, app.ResumeKey, resumeLinkTTL, name)
}

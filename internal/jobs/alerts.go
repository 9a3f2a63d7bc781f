package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/gorm"

	"jobboard/internal/auth"
	"jobboard/internal/database"
	"jobboard/internal/errcode"
	"jobboard/internal/notify"
)

// AlertInput is the alert form.
type AlertInput struct {
	Keywords string
	Location string
	JobType  string
}

// CreateAlert subscribes the caller to new listings matching the keywords.
func (s *Service) CreateAlert(ctx context.Context, p *auth.Principal, in AlertInput) (*database.Alert, error) {
	cand, err := requireCandidate(p, "Only candidates can create job alerts")
	if err != nil {
		return nil, err
	}
	keywords := strings.TrimSpace(in.Keywords)
	if keywords == "" {
		return nil, errcode.Invalid("Please enter keywords for the alert.")
	}
	var jt database.JobType
	if raw := strings.TrimSpace(in.JobType); raw != "" {
		if jt, err = database.ParseJobType(raw); err != nil {
			return nil, errcode.Invalid("Invalid job type selected.")
		}
	}

	a := database.Alert{
		CandidateID: cand.ID,
		Keywords:    keywords,
		Location:    strings.TrimSpace(in.Location),
		JobType:     jt,
		IsActive:    true,
	}
	if err := s.db.WithContext(ctx).Create(&a).Error; err != nil {
		return nil, fmt.Errorf("create alert: %w", err)
	}
	return &a, nil
}

// Alerts lists the caller's alerts, newest first.
func (s *Service) Alerts(ctx context.Context, p *auth.Principal) ([]database.Alert, error) {
	cand, err := requireCandidate(p, "Only candidates can view job alerts")
	if err != nil {
		return nil, err
	}
	var alerts []database.Alert
	if err := s.db.WithContext(ctx).Where("candidate_id = ?", cand.ID).Order("created_at DESC, id DESC").Find(&alerts).Error; err != nil {
		return nil, fmt.Errorf("load alerts: %w", err)
	}
	return alerts, nil
}

func (s *Service) ownAlert(ctx context.Context, tx *gorm.DB, cand *database.CandidateProfile, id uint) (*database.Alert, error) {
	var a database.Alert
	if err := tx.WithContext(ctx).First(&a, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errcode.Missing("Alert not found.")
		}
		return nil, fmt.Errorf("load alert %d: %w", id, err)
	}
	if a.CandidateID != cand.ID {
		// other candidates' alerts are indistinguishable from missing ones
		return nil, errcode.Missing("Alert not found.")
	}
	return &a, nil
}

// DeleteAlert removes one of the caller's alerts.
func (s *Service) DeleteAlert(ctx context.Context, p *auth.Principal, id uint) error {
	cand, err := requireCandidate(p, "Only candidates can manage job alerts")
	if err != nil {
		return err
	}
	a, err := s.ownAlert(ctx, s.db, cand, id)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(a).Error; err != nil {
		return fmt.Errorf("delete alert %d: %w", id, err)
	}
	return nil
}

// ToggleAlert flips an alert's active flag and returns the updated alert.
func (s *Service) ToggleAlert(ctx context.Context, p *auth.Principal, id uint) (*database.Alert, error) {
	cand, err := requireCandidate(p, "Only candidates can manage job alerts")
	if err != nil {
		return nil, err
	}
	var a *database.Alert
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if a, err = s.ownAlert(ctx, tx, cand, id); err != nil {
			return err
		}
		a.IsActive = !a.IsActive
		return tx.Model(a).Update("is_active", a.IsActive).Error
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// keywordTerms splits an alert's keywords on commas.
func keywordTerms(keywords string) []string {
	var terms []string
	for _, t := range strings.Split(keywords, ",") {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			terms = append(terms, t)
		}
	}
	return terms
}

// AlertMatches reports whether a listing satisfies an alert: any keyword term
// appears in the title, description or skills, and the optional location and
// job type filters agree.
func AlertMatches(a *database.Alert, l *database.Listing) bool {
	if !a.IsActive {
		return false
	}
	if a.JobType != "" && a.JobType != l.JobType {
		return false
	}
	if loc := strings.ToLower(strings.TrimSpace(a.Location)); loc != "" &&
		!strings.Contains(strings.ToLower(l.Location), loc) {
		return false
	}
	haystack := strings.ToLower(l.Title + "\n" + l.Description + "\n" + l.SkillsRequired)
	for _, term := range keywordTerms(a.Keywords) {
		if strings.Contains(haystack, term) {
			return true
		}
	}
	return false
}

// notifyAlerts emails candidates whose active alerts match a new listing.
// Each candidate is notified at most once per listing.
func (s *Service) notifyAlerts(ctx context.Context, l *database.Listing) {
	var alerts []database.Alert
	if err := s.db.WithContext(ctx).Preload("Candidate").Where("is_active = ?", true).Find(&alerts).Error; err != nil {
		s.logger.Warn("load alerts failed", slog.Any("error", err))
		return
	}

	notified := make(map[uint]struct{})
	for i := range alerts {
		a := &alerts[i]
		if _, done := notified[a.CandidateID]; done || !AlertMatches(a, l) {
			continue
		}
		notified[a.CandidateID] = struct{}{}
		msg, renderErr := notify.AlertMatchEmail(a.Candidate.Email, a.Candidate.FirstName, a, l)
		s.dispatch(ctx, msg, renderErr)
	}
	if len(notified) > 0 {
		s.logger.Info("alert matches notified",
			slog.Uint64("listing_id", uint64(l.ID)),
			slog.Int("candidates", len(notified)),
		)
	}
}

// Package jobs implements listings, applications, bookmarks and alerts.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"jobboard/internal/auth"
	"jobboard/internal/database"
	"jobboard/internal/errcode"
	"jobboard/internal/notify"
	"jobboard/internal/scan"
)

// ObjectStore is the attachment storage the service needs.
type ObjectStore interface {
	UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error
	GeneratePresignedURL(ctx context.Context, objectKey string, ttl time.Duration, filename string) (string, error)
	DeleteObject(ctx context.Context, objectKey string) error
}

// Service owns listing and application workflows.
type Service struct {
	db             *gorm.DB
	events         notify.Dispatcher
	live           notify.Publisher
	store          ObjectStore
	scanner        scan.Scanner
	logger         *slog.Logger
	now            func() time.Time
	maxResumeBytes int64
}

// Deps wires a Service. Store may be nil, in which case resume uploads are
// rejected.
type Deps struct {
	DB             *gorm.DB
	Events         notify.Dispatcher
	Live           notify.Publisher
	Store          ObjectStore
	Scanner        scan.Scanner
	Logger         *slog.Logger
	Now            func() time.Time
	MaxResumeBytes int64
}

func NewService(d Deps) *Service {
	if d.Live == nil {
		d.Live = notify.NopPublisher{}
	}
	if d.Scanner == nil {
		d.Scanner = scan.Nop{}
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.MaxResumeBytes <= 0 {
		d.MaxResumeBytes = 5 << 20
	}
	return &Service{
		db:             d.DB,
		events:         d.Events,
		live:           d.Live,
		store:          d.Store,
		scanner:        d.Scanner,
		logger:         d.Logger.With(slog.String("component", "jobs")),
		now:            d.Now,
		maxResumeBytes: d.MaxResumeBytes,
	}
}

func requireCandidate(p *auth.Principal, msg string) (*database.CandidateProfile, error) {
	if p == nil {
		return nil, errcode.ErrUnauthorized
	}
	if p.Role != database.RoleCandidate {
		return nil, errcode.Denied(msg)
	}
	c, ok := p.Candidate()
	if !ok {
		return nil, errcode.Missing("Candidate profile not found.")
	}
	return c, nil
}

func requireCompany(p *auth.Principal, msg string) (*database.CompanyProfile, error) {
	if p == nil {
		return nil, errcode.ErrUnauthorized
	}
	if p.Role != database.RoleCompany {
		return nil, errcode.Denied(msg)
	}
	c, ok := p.Company()
	if !ok {
		return nil, errcode.Missing("Company profile not found.")
	}
	return c, nil
}

func (s *Service) activeListing(ctx context.Context, db *gorm.DB, id uint) (*database.Listing, error) {
	var l database.Listing
	err := db.WithContext(ctx).Where("id = ? AND is_active = ?", id, true).First(&l).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errcode.Missing("Job not found.")
	}
	if err != nil {
		return nil, fmt.Errorf("load listing %d: %w", id, err)
	}
	return &l, nil
}

// ownedListing loads a listing of any state and checks it belongs to company.
func (s *Service) ownedListing(ctx context.Context, db *gorm.DB, id uint, company *database.CompanyProfile) (*database.Listing, error) {
	var l database.Listing
	err := db.WithContext(ctx).First(&l, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errcode.Missing("Job not found.")
	}
	if err != nil {
		return nil, fmt.Errorf("load listing %d: %w", id, err)
	}
	if l.CompanyID == nil || *l.CompanyID != company.ID {
		return nil, errcode.Denied("You can only manage your own jobs")
	}
	return &l, nil
}

func (s *Service) dispatch(ctx context.Context, msg notify.Message, renderErr error) {
	if renderErr != nil {
		s.logger.Error("render notification failed", slog.Any("error", renderErr))
		return
	}
	if s.events == nil {
		return
	}
	if err := s.events.Dispatch(ctx, msg); err != nil {
		s.logger.Warn("notification not delivered",
			slog.String("kind", string(msg.Kind)),
			slog.String("to", msg.To),
			slog.Any("error", err),
		)
	}
}

// today is the current calendar date in the server's location.
func (s *Service) today() time.Time {
	y, m, d := s.now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.now().Location())
}

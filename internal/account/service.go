// Package account implements registration, OTP verification, login, password
// reset and profile management.
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"jobboard/internal/auth"
	"jobboard/internal/database"
	"jobboard/internal/errcode"
	"jobboard/internal/metrics"
	"jobboard/internal/notify"
)

// Code purposes, used as metric labels.
const (
	purposeVerify = "verify"
	purposeReset  = "reset"
)

const minPasswordLength = 6

// Service owns the account lifecycle.
type Service struct {
	db        *gorm.DB
	codeMail  notify.Dispatcher
	events    notify.Dispatcher
	codes     auth.CodeGenerator
	logger    *slog.Logger
	validate  *validator.Validate
	dummyHash string
}

// Deps wires a Service. CodeMail must deliver synchronously: its error decides
// whether the code is exposed to the caller. Events may be queued.
type Deps struct {
	DB       *gorm.DB
	CodeMail notify.Dispatcher
	Events   notify.Dispatcher
	Codes    auth.CodeGenerator
	Logger   *slog.Logger
}

func NewService(d Deps) *Service {
	if d.Codes == nil {
		d.Codes = auth.RandomCodes{}
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Events == nil {
		d.Events = d.CodeMail
	}
	// compared against when the email is unknown so both paths pay for bcrypt
	dummy, _ := auth.HashPassword(fmt.Sprintf("unknown-account-%d", time.Now().UnixNano()))
	return &Service{
		db:        d.DB,
		codeMail:  d.CodeMail,
		events:    d.Events,
		codes:     d.Codes,
		logger:    d.Logger.With(slog.String("component", "account")),
		validate:  validator.New(),
		dummyHash: dummy,
	}
}

// CodeDelivery reports how a one-time code reached the user. When the mail
// transport failed, FallbackCode carries the code so it can be shown.
type CodeDelivery struct {
	Email        string `json:"email"`
	Sent         bool   `json:"sent"`
	FallbackCode string `json:"fallback_code,omitempty"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) validEmail(email string) bool {
	return s.validate.Var(email, "required,email") == nil
}

func (s *Service) findAccount(ctx context.Context, db *gorm.DB, email string) (*database.Account, error) {
	var acc database.Account
	if err := db.WithContext(ctx).Where("email = ?", email).First(&acc).Error; err != nil {
		return nil, err
	}
	return &acc, nil
}

// loadProfile returns the profile variant matching the account's role, or nil
// when the record is missing.
func loadProfile(ctx context.Context, db *gorm.DB, acc *database.Account) (database.Profile, error) {
	var (
		profile database.Profile
		err     error
	)
	switch acc.Role {
	case database.RoleCandidate:
		var c database.CandidateProfile
		err = db.WithContext(ctx).Where("account_id = ?", acc.ID).First(&c).Error
		profile = &c
	case database.RoleCompany:
		var c database.CompanyProfile
		err = db.WithContext(ctx).Where("account_id = ?", acc.ID).First(&c).Error
		profile = &c
	default:
		return nil, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s profile for account %d: %w", acc.Role, acc.ID, err)
	}
	return profile, nil
}

func displayName(profile database.Profile) string {
	if profile == nil {
		return ""
	}
	return profile.DisplayName()
}

// issueCode stores a fresh code on the account, replacing any previous one.
func (s *Service) issueCode(ctx context.Context, acc *database.Account, purpose string) (int, error) {
	code, err := s.codes.NewCode()
	if err != nil {
		return 0, err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Model(acc).Update("otp", code).Error
	})
	if err != nil {
		return 0, fmt.Errorf("store code for account %d: %w", acc.ID, err)
	}
	acc.OTP = code
	metrics.OTPIssued(purpose)
	return code, nil
}

// deliverCode sends a code email synchronously and falls back to exposing the
// code when the transport fails.
func (s *Service) deliverCode(ctx context.Context, msg notify.Message, renderErr error, code int) CodeDelivery {
	d := CodeDelivery{Email: msg.To}
	if renderErr == nil {
		if err := s.codeMail.Dispatch(ctx, msg); err == nil {
			d.Sent = true
			return d
		}
	} else {
		s.logger.Error("render code email failed", slog.Any("error", renderErr))
	}
	s.logger.Warn("code email not delivered, exposing code to caller",
		slog.String("kind", string(msg.Kind)),
		slog.String("email", msg.To),
	)
	d.FallbackCode = fmt.Sprintf("%d", code)
	return d
}

// dispatchEvent sends a best-effort notification; failures are logged only.
func (s *Service) dispatchEvent(ctx context.Context, msg notify.Message, renderErr error) {
	if renderErr != nil {
		s.logger.Error("render notification failed", slog.Any("error", renderErr))
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

// ResolvePrincipal loads the account behind a session and its profile. It
// fails for missing or deactivated accounts.
func (s *Service) ResolvePrincipal(ctx context.Context, accountID uint) (*auth.Principal, error) {
	var acc database.Account
	if err := s.db.WithContext(ctx).First(&acc, accountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errcode.New(errcode.Unauthorized, "User not found. Please login again.")
		}
		return nil, fmt.Errorf("load account %d: %w", accountID, err)
	}
	if !acc.IsActive {
		return nil, errcode.New(errcode.Unauthorized, "Your account has been deactivated. Please contact support.")
	}
	profile, err := loadProfile(ctx, s.db, &acc)
	if err != nil {
		return nil, err
	}
	return auth.NewPrincipal(&acc, profile), nil
}

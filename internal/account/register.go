package account

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
	"jobboard/internal/metrics"
	"jobboard/internal/notify"
)

const msgEmailTaken = "User with this email already exists"

// RegisterInput is the sign-up form.
type RegisterInput struct {
	Role            string
	FirstName       string
	LastName        string
	Email           string
	Password        string
	ConfirmPassword string
	CompanyName     string
}

func (in *RegisterInput) normalize() {
	in.Role = strings.ToLower(strings.TrimSpace(in.Role))
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = normalizeEmail(in.Email)
	in.CompanyName = strings.TrimSpace(in.CompanyName)
}

// echo returns the non-secret fields to refill the form.
func (in RegisterInput) echo() map[string]string {
	return map[string]string{
		"role":         in.Role,
		"first_name":   in.FirstName,
		"last_name":    in.LastName,
		"email":        in.Email,
		"company_name": in.CompanyName,
	}
}

// RegisterResult is returned after a successful sign-up.
type RegisterResult struct {
	AccountID uint
	Role      database.Role
	Delivery  CodeDelivery
}

// Register validates the form, creates the account and its profile in one
// transaction, then emails a verification code.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	in.normalize()

	var msgs []string
	if in.Role == "" || in.FirstName == "" || in.LastName == "" || in.Email == "" || in.Password == "" || in.ConfirmPassword == "" {
		msgs = append(msgs, "All fields are required")
	}
	role, roleErr := database.ParseRole(in.Role)
	if roleErr != nil {
		msgs = append(msgs, "Invalid role selected")
	}
	emailOK := in.Email != "" && s.validEmail(in.Email)
	if in.Email != "" && !emailOK {
		msgs = append(msgs, "Invalid email format")
	}
	if in.Password != in.ConfirmPassword {
		msgs = append(msgs, "Passwords do not match")
	}
	if len(in.Password) < minPasswordLength {
		msgs = append(msgs, "Password must be at least 6 characters long")
	}
	if emailOK {
		var count int64
		if err := s.db.WithContext(ctx).Model(&database.Account{}).Where("email = ?", in.Email).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("check email: %w", err)
		}
		if count > 0 {
			msgs = append(msgs, msgEmailTaken)
		}
	}
	if e := errcode.Invalids(msgs); e != nil {
		return nil, e.WithFields(in.echo())
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	code, err := s.codes.NewCode()
	if err != nil {
		return nil, err
	}

	acc := database.Account{
		Email:        in.Email,
		PasswordHash: hash,
		Role:         role,
		OTP:          code,
		IsActive:     true,
		IsVerified:   false,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&acc).Error; err != nil {
			return err
		}
		switch role {
		case database.RoleCandidate:
			return tx.Create(&database.CandidateProfile{
				AccountID: acc.ID,
				FirstName: in.FirstName,
				LastName:  in.LastName,
				Email:     in.Email,
			}).Error
		default:
			company := in.CompanyName
			if company == "" {
				company = fmt.Sprintf("%s %s Company", in.FirstName, in.LastName)
			}
			return tx.Create(&database.CompanyProfile{
				AccountID:   acc.ID,
				FirstName:   in.FirstName,
				LastName:    in.LastName,
				CompanyName: company,
			}).Error
		}
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errcode.Invalid(msgEmailTaken).WithFields(in.echo())
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	metrics.OTPIssued(purposeVerify)
	s.logger.Info("account registered",
		slog.Uint64("account_id", uint64(acc.ID)),
		slog.String("role", string(role)),
	)

	msg, renderErr := notify.OTPEmail(in.Email, in.FirstName, code)
	if renderErr != nil {
		msg = notify.Message{Kind: notify.KindOTP, To: in.Email}
	}
	return &RegisterResult{
		AccountID: acc.ID,
		Role:      role,
		Delivery:  s.deliverCode(ctx, msg, renderErr, code),
	}, nil
}

// VerifyResult tells whether the call verified the account or found it
// already verified.
type VerifyResult struct {
	AlreadyVerified bool
}

// Verify checks a registration code. Submitting again after success is not
// an error.
func (s *Service) Verify(ctx context.Context, email, code string) (*VerifyResult, error) {
	email = normalizeEmail(email)
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		return nil, errcode.Invalid("Please enter both email and OTP.")
	}
	if !auth.IsCodeFormat(code) {
		return nil, errcode.Invalid("OTP must be a 5-digit number.")
	}

	acc, err := s.findAccount(ctx, s.db, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errcode.Missing("No account found for this email.")
		}
		return nil, fmt.Errorf("load account: %w", err)
	}
	if acc.IsVerified {
		return &VerifyResult{AlreadyVerified: true}, nil
	}
	if !auth.CodeMatches(acc.OTP, code) {
		return nil, errcode.Invalid("Invalid OTP. Please try again.")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Model(acc).Updates(map[string]any{
			"is_verified": true,
			"otp":         database.OTPCleared,
		}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("mark account %d verified: %w", acc.ID, err)
	}
	s.logger.Info("account verified", slog.Uint64("account_id", uint64(acc.ID)))

	profile, err := loadProfile(ctx, s.db, acc)
	if err != nil {
		s.logger.Warn("load profile for welcome email failed", slog.Any("error", err))
	}
	msg, renderErr := notify.WelcomeEmail(acc.Email, displayName(profile), acc.Role)
	s.dispatchEvent(ctx, msg, renderErr)

	return &VerifyResult{}, nil
}

// ResendResult is the outcome of a resend request.
type ResendResult struct {
	AlreadyVerified bool
	Delivery        CodeDelivery
}

// Resend issues a fresh registration code, invalidating the previous one.
func (s *Service) Resend(ctx context.Context, email string) (*ResendResult, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, errcode.Invalid("Email address is required.")
	}
	if !s.validEmail(email) {
		return nil, errcode.Invalid("Invalid email format.")
	}

	acc, err := s.findAccount(ctx, s.db, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errcode.Missing("No account found for this email address.")
		}
		return nil, fmt.Errorf("load account: %w", err)
	}
	if acc.IsVerified {
		return &ResendResult{AlreadyVerified: true}, nil
	}

	code, err := s.issueCode(ctx, acc, purposeVerify)
	if err != nil {
		return nil, err
	}
	profile, _ := loadProfile(ctx, s.db, acc)
	msg, renderErr := notify.OTPEmail(email, displayName(profile), code)
	if renderErr != nil {
		msg = notify.Message{Kind: notify.KindOTP, To: email}
	}
	return &ResendResult{Delivery: s.deliverCode(ctx, msg, renderErr, code)}, nil
}

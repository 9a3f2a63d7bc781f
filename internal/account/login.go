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
	"jobboard/internal/notify"
)

// Login failure messages. Handlers compare against ErrBadCredentials to count
// failures toward the lockout.
var (
	ErrBadCredentials = errcode.New(errcode.Unauthorized, "Invalid email or password.")
	msgDeactivated    = "Your account has been deactivated. Please contact support."
	msgUnverified     = "Please verify your account using the OTP sent to your email."
)

// Login checks credentials and account state and returns the principal the
// session is issued for.
func (s *Service) Login(ctx context.Context, email, password string) (*auth.Principal, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, errcode.Invalid("Please enter both email and password.")
	}
	if !s.validEmail(email) {
		return nil, errcode.Invalid("Invalid email format.")
	}

	acc, err := s.findAccount(ctx, s.db, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			_ = auth.CheckPasswordHash(password, s.dummyHash)
			return nil, ErrBadCredentials
		}
		return nil, fmt.Errorf("load account: %w", err)
	}
	if !auth.CheckPasswordHash(password, acc.PasswordHash) {
		return nil, ErrBadCredentials
	}
	if !acc.IsActive {
		return nil, errcode.Denied(msgDeactivated)
	}
	if !acc.IsVerified {
		return nil, errcode.Denied(msgUnverified).WithFields(map[string]string{"email": email})
	}

	profile, err := loadProfile(ctx, s.db, acc)
	if err != nil {
		return nil, err
	}
	s.logger.Info("login succeeded", slog.Uint64("account_id", uint64(acc.ID)))
	return auth.NewPrincipal(acc, profile), nil
}

// ForgotPassword issues a password reset code to an existing account.
func (s *Service) ForgotPassword(ctx context.Context, email string) (*CodeDelivery, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, errcode.Invalid("Please enter your email address.")
	}
	if !s.validEmail(email) {
		return nil, errcode.Invalid("Invalid email format.")
	}

	acc, err := s.findAccount(ctx, s.db, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errcode.Missing("No account found with this email.")
		}
		return nil, fmt.Errorf("load account: %w", err)
	}

	code, err := s.issueCode(ctx, acc, purposeReset)
	if err != nil {
		return nil, err
	}
	profile, _ := loadProfile(ctx, s.db, acc)
	msg, renderErr := notify.PasswordResetEmail(email, displayName(profile), code)
	if renderErr != nil {
		msg = notify.Message{Kind: notify.KindPasswordReset, To: email}
	}
	d := s.deliverCode(ctx, msg, renderErr, code)
	return &d, nil
}

// ResendResetCode re-issues the reset code. It behaves like ForgotPassword.
func (s *Service) ResendResetCode(ctx context.Context, email string) (*CodeDelivery, error) {
	return s.ForgotPassword(ctx, email)
}

// ResetInput is the reset-password form.
type ResetInput struct {
	Email           string
	Code            string
	NewPassword     string
	ConfirmPassword string
}

// ResetPassword replaces the password when the code matches.
func (s *Service) ResetPassword(ctx context.Context, in ResetInput) error {
	email := normalizeEmail(in.Email)
	code := strings.TrimSpace(in.Code)
	fields := map[string]string{"email": email}

	if email == "" || code == "" || in.NewPassword == "" || in.ConfirmPassword == "" {
		return errcode.Invalid("All fields are required.").WithFields(fields)
	}
	if !auth.IsCodeFormat(code) {
		return errcode.Invalid("OTP must be a 5-digit number.").WithFields(fields)
	}
	if in.NewPassword != in.ConfirmPassword {
		return errcode.Invalid("Passwords do not match.").WithFields(fields)
	}
	if len(in.NewPassword) < minPasswordLength {
		return errcode.Invalid("Password must be at least 6 characters.").WithFields(fields)
	}

	acc, err := s.findAccount(ctx, s.db, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errcode.Missing("No account found with this email.").WithFields(fields)
		}
		return fmt.Errorf("load account: %w", err)
	}
	if !auth.CodeMatches(acc.OTP, code) {
		return errcode.Invalid("Invalid OTP. Please try again.").WithFields(fields)
	}

	hash, err := auth.HashPassword(in.NewPassword)
	if err != nil {
		return err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Model(acc).Updates(map[string]any{
			"password_hash": hash,
			"otp":           database.OTPCleared,
		}).Error
	})
	if err != nil {
		return fmt.Errorf("reset password for account %d: %w", acc.ID, err)
	}
	s.logger.Info("password reset", slog.Uint64("account_id", uint64(acc.ID)))
	return nil
}

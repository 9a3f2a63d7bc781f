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
)

// ProfileView is the account together with its role-specific record.
type ProfileView struct {
	Account database.Account
	Profile database.Profile
}

// Profile loads the caller's account and profile.
func (s *Service) Profile(ctx context.Context, p *auth.Principal) (*ProfileView, error) {
	var acc database.Account
	if err := s.db.WithContext(ctx).First(&acc, p.AccountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errcode.New(errcode.Unauthorized, "User not found. Please login again.")
		}
		return nil, fmt.Errorf("load account %d: %w", p.AccountID, err)
	}
	profile, err := loadProfile(ctx, s.db, &acc)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, errcode.Missing("Profile not found.")
	}
	return &ProfileView{Account: acc, Profile: profile}, nil
}

// ProfileUpdate carries the editable contact fields. Nil fields are left
// unchanged; fields that do not apply to the caller's role are ignored.
type ProfileUpdate struct {
	FirstName   *string
	LastName    *string
	Phone       *string
	Address     *string
	City        *string
	State       *string
	ZipCode     *string
	Gender      *string
	CompanyName *string
	Contact     *string
}

func (u ProfileUpdate) columns(role database.Role) map[string]any {
	cols := map[string]any{}
	set := func(col string, v *string) {
		if v != nil {
			cols[col] = strings.TrimSpace(*v)
		}
	}
	set("first_name", u.FirstName)
	set("last_name", u.LastName)
	set("address", u.Address)
	set("city", u.City)
	set("state", u.State)
	switch role {
	case database.RoleCandidate:
		set("phone", u.Phone)
		set("zip_code", u.ZipCode)
		set("gender", u.Gender)
	case database.RoleCompany:
		set("company_name", u.CompanyName)
		set("contact", u.Contact)
	}
	return cols
}

// UpdateProfile applies contact changes to the caller's own profile.
func (s *Service) UpdateProfile(ctx context.Context, p *auth.Principal, u ProfileUpdate) (*ProfileView, error) {
	if p.Profile == nil {
		return nil, errcode.Missing("Profile not found.")
	}
	cols := u.columns(p.Role)
	if v, ok := cols["first_name"]; ok && v == "" {
		return nil, errcode.Invalid("First name cannot be empty.")
	}
	if v, ok := cols["company_name"]; ok && v == "" {
		return nil, errcode.Invalid("Company name cannot be empty.")
	}

	if len(cols) > 0 {
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return tx.Model(p.Profile).Updates(cols).Error
		})
		if err != nil {
			return nil, fmt.Errorf("update profile %d: %w", p.ProfileID(), err)
		}
		s.logger.Info("profile updated",
			slog.Uint64("account_id", uint64(p.AccountID)),
			slog.Int("fields", len(cols)),
		)
	}
	return s.Profile(ctx, p)
}

// SetActive enables or disables an account by email.
func (s *Service) SetActive(ctx context.Context, email string, active bool) error {
	return s.updateByEmail(ctx, email, map[string]any{"is_active": active})
}

// MarkVerified verifies an account without a code and clears any pending one.
func (s *Service) MarkVerified(ctx context.Context, email string) error {
	return s.updateByEmail(ctx, email, map[string]any{"is_verified": true, "otp": database.OTPCleared})
}

func (s *Service) updateByEmail(ctx context.Context, email string, cols map[string]any) error {
	email = normalizeEmail(email)
	res := s.db.WithContext(ctx).Model(&database.Account{}).Where("email = ?", email).Updates(cols)
	if res.Error != nil {
		return fmt.Errorf("update account %s: %w", email, res.Error)
	}
	if res.RowsAffected == 0 {
		return errcode.Missing("No account found for this email.")
	}
	return nil
}

package auth

import (
	"jobboard/internal/database"
)

// Principal is the authenticated caller of a request: the account and the
// profile variant it acts through. It is resolved once per request.
type Principal struct {
	AccountID   uint
	Email       string
	Role        database.Role
	DisplayName string
	TokenID     string
	Profile     database.Profile
}

// ProfileID returns the id of the resolved profile, or 0 when none exists.
func (p *Principal) ProfileID() uint {
	if p == nil || p.Profile == nil {
		return 0
	}
	return p.Profile.ProfileID()
}

// Candidate returns the candidate profile when the principal is a candidate.
func (p *Principal) Candidate() (*database.CandidateProfile, bool) {
	if p == nil {
		return nil, false
	}
	c, ok := p.Profile.(*database.CandidateProfile)
	return c, ok && c != nil
}

// Company returns the company profile when the principal is an employer.
func (p *Principal) Company() (*database.CompanyProfile, bool) {
	if p == nil {
		return nil, false
	}
	c, ok := p.Profile.(*database.CompanyProfile)
	return c, ok && c != nil
}

// NewPrincipal builds a principal from an account and its profile.
func NewPrincipal(account *database.Account, profile database.Profile) *Principal {
	p := &Principal{
		AccountID: account.ID,
		Email:     account.Email,
		Role:      account.Role,
		Profile:   profile,
	}
	if profile != nil {
		p.DisplayName = profile.DisplayName()
	}
	return p
}

package database

import "strings"

// Profile is the role-specific record attached to an account. It is sealed:
// only *CandidateProfile and *CompanyProfile implement it.
type Profile interface {
	ProfileID() uint
	ProfileRole() Role
	DisplayName() string
	sealedProfile()
}

func (p *CandidateProfile) ProfileID() uint     { return p.ID }
func (p *CandidateProfile) ProfileRole() Role   { return RoleCandidate }
func (p *CandidateProfile) DisplayName() string { return p.FirstName }
func (p *CandidateProfile) sealedProfile()      {}

// FullName joins first and last name.
func (p *CandidateProfile) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

func (p *CompanyProfile) ProfileID() uint     { return p.ID }
func (p *CompanyProfile) ProfileRole() Role   { return RoleCompany }
func (p *CompanyProfile) DisplayName() string { return p.FirstName }
func (p *CompanyProfile) sealedProfile()      {}

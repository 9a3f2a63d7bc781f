package database

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// OTPCleared is stored in Account.OTP once a code has been consumed.
const OTPCleared = 0

// Account 表示登录账号，按邮箱查找。
type Account struct {
	gorm.Model
	Email        string `gorm:"uniqueIndex;size:254"`
	PasswordHash string `gorm:"size:255"`
	Role         Role   `gorm:"size:16;index"`
	OTP          int
	IsActive     bool
	IsVerified   bool `gorm:"default:false"`
}

// CandidateProfile holds the candidate side of an account.
type CandidateProfile struct {
	gorm.Model
	AccountID uint    `gorm:"uniqueIndex"`
	Account   Account `gorm:"constraint:OnDelete:CASCADE"`
	FirstName string  `gorm:"size:50"`
	LastName  string  `gorm:"size:50"`
	Email     string  `gorm:"size:254"`
	Phone     string  `gorm:"size:50"`
	Address   string  `gorm:"size:150"`
	City      string  `gorm:"size:50"`
	State     string  `gorm:"size:50"`
	ZipCode   string  `gorm:"size:50"`
	Gender    string  `gorm:"size:50"`
}

// CompanyProfile holds the employer side of an account.
type CompanyProfile struct {
	gorm.Model
	AccountID   uint    `gorm:"uniqueIndex"`
	Account     Account `gorm:"constraint:OnDelete:CASCADE"`
	FirstName   string  `gorm:"size:50"`
	LastName    string  `gorm:"size:50"`
	CompanyName string  `gorm:"size:150"`
	State       string  `gorm:"size:50"`
	City        string  `gorm:"size:50"`
	Contact     string  `gorm:"size:50"`
	Address     string  `gorm:"size:150"`
}

// Listing 表示一条职位发布。CompanyName 是发布时的公司名快照。
type Listing struct {
	ID                  uint `gorm:"primarykey"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
	CompanyID           *uint           `gorm:"index"`
	Company             *CompanyProfile `gorm:"constraint:OnDelete:CASCADE"`
	Title               string          `gorm:"size:255"`
	CompanyName         string          `gorm:"size:255"`
	Description         string          `gorm:"type:text"`
	Location            string          `gorm:"size:255"`
	JobType             JobType         `gorm:"size:20;index"`
	Experience          Experience      `gorm:"size:20"`
	Salary              string          `gorm:"size:100"`
	Requirements        string          `gorm:"type:text"`
	SkillsRequired      string          `gorm:"type:text"`
	Responsibilities    string          `gorm:"type:text"`
	Benefits            string          `gorm:"type:text"`
	ApplicationDeadline *datatypes.Date
	Vacancies           int  `gorm:"default:1"`
	IsActive            bool `gorm:"index"`
	IsFeatured          bool `gorm:"default:false"`
	ViewsCount          int  `gorm:"default:0"`
}

// Application links a listing and a candidate; one per pair.
type Application struct {
	ID          uint `gorm:"primarykey"`
	AppliedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time
	ListingID   uint             `gorm:"uniqueIndex:idx_application_pair"`
	Listing     Listing          `gorm:"constraint:OnDelete:CASCADE"`
	CandidateID uint             `gorm:"uniqueIndex:idx_application_pair;index"`
	Candidate   CandidateProfile `gorm:"constraint:OnDelete:CASCADE"`
	CoverLetter string           `gorm:"type:text"`
	ResumeKey   string           `gorm:"size:512"`
	Status      Status           `gorm:"size:20;default:pending"`
	Notes       string           `gorm:"type:text"`
}

// SavedListing is a candidate bookmark; one per pair.
type SavedListing struct {
	ID          uint `gorm:"primarykey"`
	SavedAt     time.Time        `gorm:"autoCreateTime"`
	CandidateID uint             `gorm:"uniqueIndex:idx_saved_pair"`
	Candidate   CandidateProfile `gorm:"constraint:OnDelete:CASCADE"`
	ListingID   uint             `gorm:"uniqueIndex:idx_saved_pair;index"`
	Listing     Listing          `gorm:"constraint:OnDelete:CASCADE"`
}

// Alert is a keyword subscription. Duplicates are allowed.
type Alert struct {
	ID          uint `gorm:"primarykey"`
	CreatedAt   time.Time
	CandidateID uint             `gorm:"index"`
	Candidate   CandidateProfile `gorm:"constraint:OnDelete:CASCADE"`
	Keywords    string           `gorm:"size:255"`
	Location    string           `gorm:"size:255"`
	JobType     JobType          `gorm:"size:20"`
	IsActive    bool
}

// Models lists every table managed by Migrate.
func Models() []any {
	return []any{
		&Account{},
		&CandidateProfile{},
		&CompanyProfile{},
		&Listing{},
		&Application{},
		&SavedListing{},
		&Alert{},
	}
}

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}

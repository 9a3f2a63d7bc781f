package database

import "fmt"

// Role tags an account as one of the two profile variants.
type Role string

const (
	RoleCandidate Role = "candidate"
	RoleCompany   Role = "company"
)

// ParseRole converts a raw string to a Role.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleCandidate, RoleCompany:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// JobType is the employment type of a listing.
type JobType string

const (
	JobTypeFullTime   JobType = "full-time"
	JobTypePartTime   JobType = "part-time"
	JobTypeContract   JobType = "contract"
	JobTypeInternship JobType = "internship"
	JobTypeRemote     JobType = "remote"
)

// JobTypes lists every job type in display order.
var JobTypes = []JobType{JobTypeFullTime, JobTypePartTime, JobTypeContract, JobTypeInternship, JobTypeRemote}

// ParseJobType converts a raw string to a JobType.
func ParseJobType(s string) (JobType, error) {
	for _, t := range JobTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown job type %q", s)
}

// Experience is the experience band a listing asks for.
type Experience string

const (
	Experience0To1  Experience = "0-1"
	Experience1To3  Experience = "1-3"
	Experience3To5  Experience = "3-5"
	Experience5To10 Experience = "5-10"
	Experience10Up  Experience = "10+"
)

// Experiences lists every experience band in display order.
var Experiences = []Experience{Experience0To1, Experience1To3, Experience3To5, Experience5To10, Experience10Up}

// ParseExperience converts a raw string to an Experience. Empty input selects
// the 0-1 band.
func ParseExperience(s string) (Experience, error) {
	if s == "" {
		return Experience0To1, nil
	}
	for _, e := range Experiences {
		if string(e) == s {
			return e, nil
		}
	}
	return "", fmt.Errorf("unknown experience band %q", s)
}

// Status is an application's review status. Any status may follow any other.
type Status string

const (
	StatusPending     Status = "pending"
	StatusReviewed    Status = "reviewed"
	StatusShortlisted Status = "shortlisted"
	StatusInterview   Status = "interview"
	StatusRejected    Status = "rejected"
	StatusHired       Status = "hired"
)

// Statuses lists every status in review order.
var Statuses = []Status{StatusPending, StatusReviewed, StatusShortlisted, StatusInterview, StatusRejected, StatusHired}

// ParseStatus converts a raw string to a Status, returning an error for
// unknown values.
func ParseStatus(s string) (Status, error) {
	for _, st := range Statuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown application status %q", s)
}

// Label returns the human readable status name.
func (s Status) Label() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusReviewed:
		return "Reviewed"
	case StatusShortlisted:
		return "Shortlisted"
	case StatusInterview:
		return "Interview Scheduled"
	case StatusRejected:
		return "Rejected"
	case StatusHired:
		return "Hired"
	}
	return string(s)
}

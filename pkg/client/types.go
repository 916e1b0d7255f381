package client

import "time"

// Relationship names accepted by the users endpoint's include parameter
const (
	IncludeRole             = "role"
	IncludeOrganization     = "organization"
	IncludeSubOrganizations = "sub_organizations"
	IncludeTeams            = "teams"
)

// UserIncludes is the expansion set requested for user reports
var UserIncludes = []string{IncludeRole, IncludeOrganization, IncludeSubOrganizations, IncludeTeams}

// User is an ESP user with its included relationships resolved.
// Relationships the server did not include are left nil or empty.
type User struct {
	ID                 string
	FirstName          string
	LastName           string
	Email              string
	Phone              string
	TimeZone           string
	MFAEnabled         bool
	DisableDailyEmails bool
	CreatedAt          time.Time
	UpdatedAt          time.Time

	Role             *Role
	Organization     *Organization
	SubOrganizations []SubOrganization
	Teams            []Team
}

// Role is the access level granted to a user
type Role struct {
	ID   string
	Name string
}

// Organization is the top-level account a user belongs to
type Organization struct {
	ID   string
	Name string
}

// SubOrganization groups teams within an organization
type SubOrganization struct {
	ID   string
	Name string
}

// Team is a group of users within a sub-organization
type Team struct {
	ID   string
	Name string
}

// Package report flattens ESP users into report rows.
package report

import (
	"github.com/rs/zerolog/log"

	"esp-users-audit/pkg/client"
)

// TimeLayout renders timestamps as "Jun 15, 2017 05:45:25 PM"
const TimeLayout = "Jan 02, 2006 03:04:05 PM"

// Header is the CSV header, in UserRecord field order
var Header = []string{"First Name", "Last Name", "Email", "Role", "Organization", "Last Updated", "MFA Enabled"}

// UserRecord is the report projection of one user. Field order is the
// column order of both the JSON and the CSV output.
type UserRecord struct {
	FirstName    string `json:"First Name"`
	LastName     string `json:"Last Name"`
	Email        string `json:"Email"`
	Role         string `json:"Role"`
	Organization string `json:"Organization"`
	LastUpdated  string `json:"Last Updated"`
	MFAEnabled   bool   `json:"MFA Enabled"`
}

// Report is an ordered list of user records
type Report []UserRecord

// BuildUserReport projects users into records, one per user, same order
func BuildUserReport(users []client.User) Report {
	report := make(Report, 0, len(users))
	for _, user := range users {
		report = append(report, NewUserRecord(user))
	}
	return report
}

// NewUserRecord flattens a single user. Unresolved role or organization
// become empty strings.
func NewUserRecord(user client.User) UserRecord {
	record := UserRecord{
		FirstName:  user.FirstName,
		LastName:   user.LastName,
		Email:      user.Email,
		MFAEnabled: user.MFAEnabled,
	}

	if user.Role != nil {
		record.Role = user.Role.Name
	} else {
		log.Warn().Str("user_id", user.ID).Msg("User has no role")
	}

	if user.Organization != nil {
		record.Organization = user.Organization.Name
	} else {
		log.Warn().Str("user_id", user.ID).Msg("User has no organization")
	}

	if !user.UpdatedAt.IsZero() {
		record.LastUpdated = user.UpdatedAt.Format(TimeLayout)
	}

	return record
}

// Row returns the record's CSV fields in Header order
func (r UserRecord) Row() []string {
	return []string{
		r.FirstName,
		r.LastName,
		r.Email,
		r.Role,
		r.Organization,
		r.LastUpdated,
		formatBool(r.MFAEnabled),
	}
}

// Header implements output.Table
func (r Report) Header() []string {
	return Header
}

// Rows implements output.Table
func (r Report) Rows() [][]string {
	rows := make([][]string, 0, len(r))
	for _, record := range r {
		rows = append(rows, record.Row())
	}
	return rows
}

// formatBool keeps the capitalized spelling existing report consumers expect
func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

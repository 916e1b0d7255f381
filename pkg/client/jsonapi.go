package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// JSON:API resource types used by ESP
const (
	typeRoles            = "roles"
	typeOrganizations    = "organizations"
	typeSubOrganizations = "sub_organizations"
	typeTeams            = "teams"
)

type document struct {
	Data     json.RawMessage `json:"data"`
	Included []resource      `json:"included"`
	Errors   []errorObject   `json:"errors"`
}

type errorObject struct {
	Status string `json:"status"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

type resource struct {
	ID            string                  `json:"id"`
	Type          string                  `json:"type"`
	Attributes    json.RawMessage         `json:"attributes"`
	Relationships map[string]relationship `json:"relationships"`
}

type relationship struct {
	Data json.RawMessage `json:"data"`
}

type resourceKey struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type userAttributes struct {
	FirstName          string    `json:"first_name"`
	LastName           string    `json:"last_name"`
	Email              string    `json:"email"`
	Phone              string    `json:"phone"`
	TimeZone           string    `json:"time_zone"`
	MFAEnabled         bool      `json:"mfa_enabled"`
	DisableDailyEmails bool      `json:"disable_daily_emails"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type nameAttributes struct {
	Name string `json:"name"`
}

// one decodes a to-one linkage; a null linkage yields nil
func (r relationship) one() (*resourceKey, error) {
	if isNull(r.Data) {
		return nil, nil
	}
	var key resourceKey
	if err := json.Unmarshal(r.Data, &key); err != nil {
		return nil, err
	}
	return &key, nil
}

// many decodes a to-many linkage
func (r relationship) many() ([]resourceKey, error) {
	if isNull(r.Data) {
		return nil, nil
	}
	var keys []resourceKey
	if err := json.Unmarshal(r.Data, &keys); err != nil {
		return nil, err
	}
	return keys, nil
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// errorDetails flattens JSON:API error objects into printable strings
func (d *document) errorDetails() []string {
	var details []string
	for _, e := range d.Errors {
		switch {
		case e.Detail != "":
			details = append(details, e.Detail)
		case e.Title != "":
			details = append(details, e.Title)
		}
	}
	return details
}

// includedNames indexes the name attribute of every included resource
func (d *document) includedNames() (map[resourceKey]string, error) {
	names := make(map[resourceKey]string, len(d.Included))
	for _, inc := range d.Included {
		var attrs nameAttributes
		if len(inc.Attributes) > 0 {
			if err := json.Unmarshal(inc.Attributes, &attrs); err != nil {
				return nil, fmt.Errorf("failed to decode included %s %s: %w", inc.Type, inc.ID, err)
			}
		}
		names[resourceKey{Type: inc.Type, ID: inc.ID}] = attrs.Name
	}
	return names, nil
}

// decodeUsers turns a users collection document into resolved Users, keeping server order
func decodeUsers(doc *document) ([]User, error) {
	var data []resource
	if !isNull(doc.Data) {
		if err := json.Unmarshal(doc.Data, &data); err != nil {
			return nil, fmt.Errorf("failed to decode users: %w", err)
		}
	}

	names, err := doc.includedNames()
	if err != nil {
		return nil, err
	}

	users := make([]User, 0, len(data))
	for _, res := range data {
		user, err := decodeUser(res, names)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

func decodeUser(res resource, names map[resourceKey]string) (User, error) {
	var attrs userAttributes
	if len(res.Attributes) > 0 {
		if err := json.Unmarshal(res.Attributes, &attrs); err != nil {
			return User{}, fmt.Errorf("failed to decode user %s: %w", res.ID, err)
		}
	}

	user := User{
		ID:                 res.ID,
		FirstName:          attrs.FirstName,
		LastName:           attrs.LastName,
		Email:              attrs.Email,
		Phone:              attrs.Phone,
		TimeZone:           attrs.TimeZone,
		MFAEnabled:         attrs.MFAEnabled,
		DisableDailyEmails: attrs.DisableDailyEmails,
		CreatedAt:          attrs.CreatedAt,
		UpdatedAt:          attrs.UpdatedAt,
	}

	if key, err := res.toOne(IncludeRole); err != nil {
		return User{}, err
	} else if name, ok := lookup(names, key, typeRoles); ok {
		user.Role = &Role{ID: key.ID, Name: name}
	}

	if key, err := res.toOne(IncludeOrganization); err != nil {
		return User{}, err
	} else if name, ok := lookup(names, key, typeOrganizations); ok {
		user.Organization = &Organization{ID: key.ID, Name: name}
	}

	subOrgs, err := res.toMany(IncludeSubOrganizations)
	if err != nil {
		return User{}, err
	}
	for _, key := range subOrgs {
		if name, ok := lookup(names, &key, typeSubOrganizations); ok {
			user.SubOrganizations = append(user.SubOrganizations, SubOrganization{ID: key.ID, Name: name})
		}
	}

	teams, err := res.toMany(IncludeTeams)
	if err != nil {
		return User{}, err
	}
	for _, key := range teams {
		if name, ok := lookup(names, &key, typeTeams); ok {
			user.Teams = append(user.Teams, Team{ID: key.ID, Name: name})
		}
	}

	return user, nil
}

func (r resource) toOne(name string) (*resourceKey, error) {
	rel, ok := r.Relationships[name]
	if !ok {
		return nil, nil
	}
	key, err := rel.one()
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s relationship of user %s: %w", name, r.ID, err)
	}
	return key, nil
}

func (r resource) toMany(name string) ([]resourceKey, error) {
	rel, ok := r.Relationships[name]
	if !ok {
		return nil, nil
	}
	keys, err := rel.many()
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s relationship of user %s: %w", name, r.ID, err)
	}
	return keys, nil
}

// lookup resolves a linkage against the included index. The linkage type
// is trusted when present, otherwise fallbackType is used.
func lookup(names map[resourceKey]string, key *resourceKey, fallbackType string) (string, bool) {
	if key == nil {
		return "", false
	}
	k := *key
	if k.Type == "" {
		k.Type = fallbackType
	}
	name, ok := names[k]
	if !ok {
		log.Debug().Str("type", k.Type).Str("id", k.ID).Msg("Relationship not found in included resources")
	}
	return name, ok
}

package domain

import (
	"net/url"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxTeamNameLength bounds Team.Name (in runes).
const MaxTeamNameLength = 80

// Member is a person belonging to a team.
type Member struct {
	Name  string `json:"name"`
	Role  string `json:"role,omitempty"`
	Email string `json:"email,omitempty"`
}

// Link is a titled external reference (wiki, board, repository).
type Link struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// WorkingAgreement is the free-text charter a team maintains for itself.
type WorkingAgreement struct {
	Title     string    `json:"title,omitempty"`
	Body      string    `json:"body,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Team is the persisted team record.
type Team struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	Description      string           `json:"description,omitempty"`
	LogoURL          string           `json:"logo_url,omitempty"`
	Members          []Member         `json:"members,omitempty"`
	Links            []Link           `json:"links,omitempty"`
	WorkingAgreement WorkingAgreement `json:"working_agreement"`

	// Capabilities holds the taxonomy IDs tagged on the team, in selection order.
	// IDs missing from the current taxonomy are kept and ignored when rendering.
	Capabilities []string `json:"capabilities,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a deep copy so stores never share slices with callers.
func (t *Team) Clone() *Team {
	if t == nil {
		return nil
	}
	c := *t
	c.Members = append([]Member(nil), t.Members...)
	c.Links = append([]Link(nil), t.Links...)
	c.Capabilities = append([]string(nil), t.Capabilities...)
	return &c
}

// Validate checks the user-editable fields and returns a *ValidationError, or nil.
func (t *Team) Validate() error {
	verr := &ValidationError{}

	name := strings.TrimSpace(t.Name)
	switch {
	case name == "":
		verr.Add("name", "is required")
	case utf8.RuneCountInString(name) > MaxTeamNameLength:
		verr.Add("name", "must be at most 80 characters")
	}

	if t.LogoURL != "" && !isHTTPURL(t.LogoURL) {
		verr.Add("logo_url", "must be an absolute http(s) URL")
	}

	for _, m := range t.Members {
		if strings.TrimSpace(m.Name) == "" {
			verr.Add("members", "every member needs a name")
		}
		if m.Email != "" && !strings.Contains(m.Email, "@") {
			verr.Add("members", "member email is malformed")
		}
	}

	for _, l := range t.Links {
		if strings.TrimSpace(l.Title) == "" {
			verr.Add("links", "every link needs a title")
		}
		if !isHTTPURL(l.URL) {
			verr.Add("links", "link URL must be an absolute http(s) URL")
		}
	}

	if verr.HasErrors() {
		return verr
	}
	return nil
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// SortTeams orders teams oldest first, breaking ties by name.
func SortTeams(teams []*Team) {
	sort.SliceStable(teams, func(i, j int) bool {
		if !teams[i].CreatedAt.Equal(teams[j].CreatedAt) {
			return teams[i].CreatedAt.Before(teams[j].CreatedAt)
		}
		return teams[i].Name < teams[j].Name
	})
}

package users

import "strings"

// Role is a named permission group assigned to a principal
type Role struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Unit is the organisational unit a principal belongs to
type Unit struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// Principal is the user record owned by the admin backend. This service only
// reads it, apart from linking the identity provider's subject id.
type Principal struct {
	ID          int64  `json:"id"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name,omitempty"`
	ProviderID  string `json:"google_id,omitempty"` // Subject id issued by the identity provider
	IsActive    bool   `json:"is_active"`
	IsSuperuser bool   `json:"is_superuser"`
	Roles       []Role `json:"roles"`
	Unit        *Unit  `json:"unit"`
}

func (p *Principal) RoleNames() []string {
	names := make([]string, 0, len(p.Roles))
	for _, r := range p.Roles {
		names = append(names, r.Name)
	}
	return names
}

// FullName joins the first and last names
func (p *Principal) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

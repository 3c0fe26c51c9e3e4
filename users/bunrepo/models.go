package bunrepo

import (
	"time"

	"github.com/jrsteele09/sso-service/internal/utils"
	"github.com/jrsteele09/sso-service/users"
	"github.com/uptrace/bun"
)

type unitModel struct {
	bun.BaseModel `bun:"table:units,alias:un"`

	ID   int64  `bun:"id,pk,autoincrement"`
	Code string `bun:"code,notnull,unique"`
	Name string `bun:"name,notnull"`
}

type roleModel struct {
	bun.BaseModel `bun:"table:roles,alias:r"`

	ID   int64  `bun:"id,pk,autoincrement"`
	Name string `bun:"name,notnull,unique"`
}

type userModel struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID          int64      `bun:"id,pk,autoincrement"`
	Email       string     `bun:"email,notnull,unique"`
	FirstName   string     `bun:"first_name"`
	LastName    string     `bun:"last_name"`
	GoogleID    *string    `bun:"google_id,unique"`
	IsActive    bool       `bun:"is_active,notnull,default:true"`
	IsSuperuser bool       `bun:"is_superuser,notnull,default:false"`
	UnitID      *int64     `bun:"unit_id"`
	Unit        *unitModel `bun:"rel:belongs-to,join:unit_id=id"`
	CreatedAt   time.Time  `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt   time.Time  `bun:"updated_at,notnull,default:current_timestamp"`
}

type userRoleModel struct {
	bun.BaseModel `bun:"table:user_roles,alias:ur"`

	UserID int64 `bun:"user_id,pk"`
	RoleID int64 `bun:"role_id,pk"`
}

func (m *userModel) toPrincipal(roles []roleModel) *users.Principal {
	p := &users.Principal{
		ID:          m.ID,
		Email:       m.Email,
		FirstName:   m.FirstName,
		LastName:    m.LastName,
		ProviderID:  utils.Value(m.GoogleID),
		IsActive:    m.IsActive,
		IsSuperuser: m.IsSuperuser,
		Roles:       make([]users.Role, 0, len(roles)),
	}
	if m.UnitID != nil && m.Unit != nil && m.Unit.ID != 0 {
		p.Unit = &users.Unit{ID: m.Unit.ID, Code: m.Unit.Code, Name: m.Unit.Name}
	}
	for _, r := range roles {
		p.Roles = append(p.Roles, users.Role{ID: r.ID, Name: r.Name})
	}
	return p
}

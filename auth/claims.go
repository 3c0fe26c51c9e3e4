package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/sso-service/token"
	"github.com/jrsteele09/sso-service/users"
)

func accessClaimsFor(p *users.Principal) token.AccessClaims {
	claims := token.AccessClaims{
		UserID:           p.ID,
		Email:            p.Email,
		IsActive:         p.IsActive,
		IsSuperuser:      p.IsSuperuser,
		Roles:            make([]token.RoleClaim, 0, len(p.Roles)),
		FirstName:        p.FirstName,
		LastName:         p.LastName,
		RegisteredClaims: subject(p.Email),
	}
	for _, r := range p.Roles {
		claims.Roles = append(claims.Roles, token.RoleClaim{ID: r.ID, Name: r.Name})
	}
	if p.Unit != nil {
		claims.Unit = &token.UnitClaim{ID: p.Unit.ID, Code: p.Unit.Code, Name: p.Unit.Name}
	}
	return claims
}

func subject(email string) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{Subject: email}
}

package domain

import (
	"time"
)

type Role string

const (
	RoleAgent      Role = "Agent"
	RoleTeamLeader Role = "TeamLeader"
	RoleAdmin      Role = "Admin"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleAgent, RoleTeamLeader, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"fullName"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	Version      int32     `json:"-"`
}

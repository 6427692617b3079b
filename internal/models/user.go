package models

import "time"

type UserRole string

const (
	RoleCustomer UserRole = "customer"
	RoleSupplier UserRole = "supplier"
	RoleAdmin    UserRole = "admin"
)

func ValidUserRole(r UserRole) bool {
	switch r {
	case RoleCustomer, RoleSupplier, RoleAdmin:
		return true
	default:
		return false
	}
}

type UserStatus string

const (
	UserActive   UserStatus = "active"
	UserDisabled UserStatus = "disabled"
	UserPending  UserStatus = "pending"
)

func ValidUserStatus(s UserStatus) bool {
	switch s {
	case UserActive, UserDisabled, UserPending:
		return true
	default:
		return false
	}
}

type User struct {
	Id        string     `json:"id"`
	Username  string     `json:"username"`
	Role      UserRole   `json:"role"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Status    UserStatus `json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
}

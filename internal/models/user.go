package models

import (
	"time"

	"github.com/google/uuid"
)

type UserRole string

const (
	RoleStudent  UserRole = "student"
	RoleAspirant UserRole = "aspirant"
	RoleAdmin    UserRole = "admin"
)

type UserStatus string

const (
	UserActive  UserStatus = "active"
	UserPending UserStatus = "pending"
	UserBlocked UserStatus = "blocked"
	UserBanned  UserStatus = "banned"
)

func (s UserStatus) Valid() bool {
	switch s {
	case UserActive, UserPending, UserBlocked, UserBanned:
		return true
	}
	return false
}

// User is a profile row. Students are tutors, aspirants are learners.
type User struct {
	ID            uuid.UUID  `json:"id"`
	Email         string     `json:"email"`
	Name          string     `json:"name"`
	Role          UserRole   `json:"role"`
	Status        UserStatus `json:"status"`
	IsVerified    bool       `json:"is_verified"`
	Badge         bool       `json:"badge"`
	QuizScore     *int       `json:"quiz_score"`
	DepartmentID  *uuid.UUID `json:"department_id"`
	WalletBalance int64      `json:"wallet_balance"`
	BankName      *string    `json:"bank_name"`
	BankCode      *string    `json:"bank_code"`
	AccountNumber *string    `json:"account_number"`
	AccountName   *string    `json:"account_name"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (u *User) HasPayoutDetails() bool {
	return nonEmpty(u.BankCode) && nonEmpty(u.AccountNumber) && nonEmpty(u.AccountName)
}

func (u *User) Bookable() bool {
	return u.Role == RoleStudent && u.Badge && u.Status == UserActive
}

func nonEmpty(value *string) bool {
	return value != nil && *value != ""
}

// Actor is the authenticated caller, passed explicitly into every service call.
type Actor struct {
	ID     uuid.UUID  `json:"id"`
	Email  string     `json:"email"`
	Name   string     `json:"name"`
	Role   UserRole   `json:"role"`
	Status UserStatus `json:"status"`
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

type BankDetails struct {
	BankName      string `json:"bank_name"`
	BankCode      string `json:"bank_code"`
	AccountNumber string `json:"account_number"`
	AccountName   string `json:"account_name"`
}

type Device struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	Token      string    `json:"token"`
	DeviceType *string   `json:"device_type"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type PaginationMeta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

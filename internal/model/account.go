package model

import "time"

// Roles assignable to an account.  Admins gain access to the /api/admin
// endpoints; everyone else is a regular portal user.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Account represents a registered identity as stored in the `accounts` table.
// The ID is an opaque string generated at registration rather than an
// auto-increment so it can be exposed to clients directly.
//
// Fields:
//  ID                  – opaque account identifier (accounts.id).
//  FullName            – display name.
//  Email               – unique email, stored lowercased.
//  Age                 – free-form age string as entered on the landing form.
//  Phone               – contact phone number.
//  Country             – country of residence.
//  PasswordHash        – bcrypt hash; never serialized to clients.
//  IsVerified          – whether the email address has been confirmed.
//  VerificationToken   – pending email verification token (nil once used).
//  VerificationExpires – expiry of the verification token (nil once used).
//  IsFirstLogin        – true until the first successful login.
//  PasswordSet         – false while the account still carries the random
//                        temporary password from registration.
//  ProfileCompleted    – true once name/age/phone/country are all filled.
//  Role                – "user" or "admin".
type Account struct {
	ID                  string
	FullName            string
	Email               string
	Age                 string
	Phone               string
	Country             string
	PasswordHash        string
	IsVerified          bool
	VerificationToken   *string
	VerificationExpires *time.Time
	IsFirstLogin        bool
	PasswordSet         bool
	ProfileCompleted    bool
	Role                string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// ValidRole reports whether s is an assignable account role.
func ValidRole(s string) bool { return s == RoleUser || s == RoleAdmin }

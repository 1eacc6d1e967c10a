package model

import "time"

// Roles a user account can hold.
const (
    RoleUser  = "USER"
    RoleAdmin = "ADMIN"
)

// ValidRole reports whether r is one of the known roles.
func ValidRole(r string) bool {
    return r == RoleUser || r == RoleAdmin
}

// User represents an account as stored in the `users` table.  The
// struct carries the bcrypt hash and therefore never leaves the
// service layer; responses are built from UserView instead.
//
// Fields:
//  ID           – primary key identifier.
//  Username     – unique display name, trimmed.
//  Email        – unique login address, trimmed and lower-cased.
//  PasswordHash – bcrypt hash of the password.
//  PhoneNumber  – optional contact number.
//  BirthDate    – optional date of birth (date only, UTC).
//  IsActive     – inactive users cannot log in.
//  Role         – USER or ADMIN.
type User struct {
    ID           uint64     // users.id
    Username     string     // users.username
    Email        string     // users.email
    PasswordHash string     // users.password_hash
    PhoneNumber  *string    // users.phone_number (nullable)
    BirthDate    *time.Time // users.birth_date (nullable)
    IsActive     bool       // users.is_active
    Role         string     // users.role
    CreatedAt    time.Time  // users.created_at
    UpdatedAt    time.Time  // users.updated_at
}

// UserView is the sanitized projection of a User.  It is the only user
// shape returned by services and rendered by handlers.
type UserView struct {
    ID          uint64    `json:"id"`
    Username    string    `json:"username"`
    Email       string    `json:"email"`
    PhoneNumber *string   `json:"phone_number,omitempty"`
    BirthDate   *string   `json:"birth_date,omitempty"`
    IsActive    bool      `json:"is_active"`
    Role        string    `json:"role"`
    CreatedAt   time.Time `json:"created_at"`
    UpdatedAt   time.Time `json:"updated_at"`
}

// View strips credential material from the user.
func (u User) View() UserView {
    v := UserView{
        ID:          u.ID,
        Username:    u.Username,
        Email:       u.Email,
        PhoneNumber: u.PhoneNumber,
        IsActive:    u.IsActive,
        Role:        u.Role,
        CreatedAt:   u.CreatedAt,
        UpdatedAt:   u.UpdatedAt,
    }
    if u.BirthDate != nil {
        d := u.BirthDate.Format(DateLayout)
        v.BirthDate = &d
    }
    return v
}

// IsAdmin reports whether the viewed user holds the ADMIN role.
func (v UserView) IsAdmin() bool { return v.Role == RoleAdmin }

// UserFilter narrows a user listing.  Zero values mean "no constraint".
type UserFilter struct {
    Role     string
    IsActive *bool
    Username string
    Email    string
}

// UserPatch carries a partial update of a user.  Only fields whose Set
// flag is true are applied.
type UserPatch struct {
    Username        Patch[string] `json:"username"`
    Email           Patch[string] `json:"email"`
    Password        Patch[string] `json:"password"`
    ConfirmPassword Patch[string] `json:"confirm_password"`
    PhoneNumber     Patch[string] `json:"phone_number"`
    BirthDate       Patch[string] `json:"birth_date"`
    IsActive        Patch[bool]   `json:"is_active"`
    Role            Patch[string] `json:"role"`
}

package models

import "time"

type UserType string

const (
	UserTypeNormal   UserType = "normal"
	UserTypeFacebook UserType = "facebook"
	UserTypeGoogle   UserType = "google"
)

// OneTimeCode is a short code mailed to a user, valid for a limited time.
type OneTimeCode struct {
	Code     string    `gorm:"size:32" json:"-"`
	IssuedAt time.Time `json:"-"`
}

// Issued reports whether a code has been handed out.
func (c OneTimeCode) Issued() bool {
	return c.Code != "" && !c.IssuedAt.IsZero()
}

// Expired reports whether the code outlived lifetime at now.
func (c OneTimeCode) Expired(now time.Time, lifetime time.Duration) bool {
	return c.IssuedAt.Add(lifetime).Before(now)
}

type User struct {
	ID          int64    `gorm:"primaryKey" json:"id"`
	Email       string   `gorm:"uniqueIndex;not null" json:"email"`
	Password    string   `json:"-"`
	Type        UserType `gorm:"size:16;not null;default:normal" json:"type"`
	FirstName   string   `json:"first_name"`
	LastName    string   `json:"last_name"`
	Company     string   `json:"company,omitempty"`
	Location    string   `json:"location,omitempty"`
	Age         int      `json:"age,omitempty"`
	AboutMe     string   `json:"about_me,omitempty"`
	PhoneNumber string   `json:"phone_number,omitempty"`
	IsActive    bool     `gorm:"not null;default:false" json:"is_active"`

	ActiveCode         OneTimeCode `gorm:"embedded;embeddedPrefix:active_code_" json:"-"`
	ChangePasswordCode OneTimeCode `gorm:"embedded;embeddedPrefix:change_password_code_" json:"-"`

	// VoteCount is the number of votes received across the user's questions and answers.
	VoteCount int64 `gorm:"not null;default:0" json:"vote_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Summary is the creator view embedded in question and answer details.
func (u *User) Summary() *UserSummary {
	return &UserSummary{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName}
}

type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6,max=64"`
	FirstName string `json:"first_name" binding:"required,max=64"`
	LastName  string `json:"last_name" binding:"required,max=64"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type SocialLoginRequest struct {
	Email     string `json:"email" binding:"required,email"`
	FirstName string `json:"first_name" binding:"max=64"`
	LastName  string `json:"last_name" binding:"max=64"`
}

type ActivateRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required"`
}

type EmailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type PasswordByCodeRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Code     string `json:"code" binding:"required"`
	Password string `json:"password" binding:"required,min=6,max=64"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=6,max=64"`
}

// ProfileUpdate holds the profile fields a user may edit. Nil fields are left alone.
type ProfileUpdate struct {
	FirstName   *string `json:"first_name" binding:"omitempty,min=1,max=64"`
	LastName    *string `json:"last_name" binding:"omitempty,min=1,max=64"`
	Company     *string `json:"company" binding:"omitempty,max=128"`
	Location    *string `json:"location" binding:"omitempty,max=128"`
	Age         *int    `json:"age" binding:"omitempty,min=1,max=120"`
	AboutMe     *string `json:"about_me" binding:"omitempty,max=1000"`
	PhoneNumber *string `json:"phone_number" binding:"omitempty,e164"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

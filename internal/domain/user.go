package domain

import "time"

// User is an identity in the directory. PasswordHash is empty for identities
// created through Google sign-in.
type User struct {
	UserID              string    `json:"id" dynamodbav:"user_id"`
	Email               string    `json:"email" dynamodbav:"email"`
	PasswordHash        string    `json:"-" dynamodbav:"password_hash,omitempty"`
	FirstName           string    `json:"first_name" dynamodbav:"first_name"`
	LastName            string    `json:"last_name" dynamodbav:"last_name"`
	Username            *string   `json:"username" dynamodbav:"username"`
	Nickname            *string   `json:"nickname" dynamodbav:"nickname"`
	ProfilePictureKey   *string   `json:"-" dynamodbav:"profile_picture_key"`
	Birthdate           *string   `json:"birthdate" dynamodbav:"birthdate"` // YYYY-MM-DD
	SecondaryEmail      *string   `json:"secondary_email" dynamodbav:"secondary_email"`
	Phone               *string   `json:"phone" dynamodbav:"phone"`
	Street              *string   `json:"street" dynamodbav:"street"`
	City                *string   `json:"city" dynamodbav:"city"`
	State               *string   `json:"state" dynamodbav:"state"`
	ZipCode             *string   `json:"zip_code" dynamodbav:"zip_code"`
	Country             string    `json:"country" dynamodbav:"country"`
	GoogleSub           string    `json:"-" dynamodbav:"google_sub,omitempty"`
	Active              bool      `json:"is_active" dynamodbav:"active"`
	OnboardingCompleted bool      `json:"onboarding_completed" dynamodbav:"onboarding_completed"`
	CreatedAt           time.Time `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt           time.Time `json:"updated_at" dynamodbav:"updated_at"`
}

// HasPassword reports whether the identity can authenticate with a password.
func (u *User) HasPassword() bool { return u.PasswordHash != "" }

const DefaultCountry = "USA"

// ProfilePatch carries a partial profile update. Nil fields are left untouched.
type ProfilePatch struct {
	FirstName           *string `json:"first_name" validate:"omitempty,min=1,max=100"`
	LastName            *string `json:"last_name" validate:"omitempty,min=1,max=100"`
	Username            *string `json:"username" validate:"omitempty,min=3,max=50"`
	Nickname            *string `json:"nickname" validate:"omitempty,max=50"`
	Birthdate           *string `json:"birthdate" validate:"omitempty,datetime=2006-01-02"`
	SecondaryEmail      *string `json:"secondary_email" validate:"omitempty,email"`
	Phone               *string `json:"phone" validate:"omitempty,max=20"`
	Street              *string `json:"street" validate:"omitempty,max=200"`
	City                *string `json:"city" validate:"omitempty,max=100"`
	State               *string `json:"state" validate:"omitempty,max=100"`
	ZipCode             *string `json:"zip_code" validate:"omitempty,max=20"`
	Country             *string `json:"country" validate:"omitempty,max=100"`
	OnboardingCompleted *bool   `json:"onboarding_completed"`
}

// Empty reports whether the patch carries no fields.
func (p ProfilePatch) Empty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Username == nil && p.Nickname == nil &&
		p.Birthdate == nil && p.SecondaryEmail == nil && p.Phone == nil && p.Street == nil &&
		p.City == nil && p.State == nil && p.ZipCode == nil && p.Country == nil &&
		p.OnboardingCompleted == nil
}

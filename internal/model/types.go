package model

import (
	"time"

	"github.com/google/uuid"
)

// Role values for User.Role
const (
	RoleUser   = "user"
	RoleAdmin  = "admin"
	RoleDriver = "driver"
)

// User represents a verified account. PasswordHash is only populated by
// lookups that explicitly ask for credentials and is never serialized.
type User struct {
	ID           uuid.UUID
	Firstname    string
	Lastname     string
	Email        string
	Age          int
	Gender       string
	Address      string
	PasswordHash string
	Role         string
	AvatarURL    *string
	LastLogin    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// Pending password-reset challenge; both nil when no reset is in flight.
	ResetOTPHash    *string
	ResetOTPExpires *time.Time
}

// DisplayName is the name embedded in access-token claims.
func (u *User) DisplayName() string {
	return u.Firstname + " " + u.Lastname
}

// PendingRegistration is the staging record for an unverified signup.
// The password is already bcrypt-hashed at staging time; the account row
// created on successful verification copies the hash as-is.
type PendingRegistration struct {
	ID           uuid.UUID
	Firstname    string
	Lastname     string
	Email        string
	Age          int
	Gender       string
	Address      string
	PasswordHash string
	OTPHash      string
	OTPExpiresAt time.Time
	CreatedAt    time.Time
}

// RefreshToken is one entry of an account's refresh-token set. Only the
// SHA-256 of the opaque token is stored.
type RefreshToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// APIKey is a long-lived secondary credential. Only the hash is stored;
// the plaintext key is shown once at creation.
type APIKey struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	KeyHash     string
	Name        string
	Permissions []string
	CreatedAt   time.Time
	LastUsedAt  *time.Time
}

// SOS request statuses
const (
	SOSStatusSent      = "sent"
	SOSStatusReceived  = "received"
	SOSStatusResolved  = "resolved"
	SOSStatusCancelled = "cancelled"
)

// SOSRequest is the dispatch record for one distress alert. It is the
// single source of truth for SOS history; user fields are a snapshot taken
// at dispatch time.
type SOSRequest struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	UserName        string
	UserEmail       string
	Latitude        float64
	Longitude       float64
	Address         string
	RecipientEmail  string
	Status          string
	Notes           string
	UserAgent       *string
	IPAddress       *string
	DeviceType      *string
	ResponseTime    *time.Time
	ResolvedBy      *uuid.UUID
	ResolutionNotes *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// SOSStatistics are aggregate counts by status.
type SOSStatistics struct {
	Total     int
	Sent      int
	Received  int
	Resolved  int
	Cancelled int
}

// Settings holds per-user preferences; currently the SOS recipient email.
type Settings struct {
	UserID    uuid.UUID
	SOSMail   string
	CreatedAt time.Time
}

// Module content types
const (
	ModuleTypeVideo = "video"
	ModuleTypeAudio = "audio"
	ModuleTypeText  = "text"
)

// EducationCategory groups learning modules and quiz questions.
type EducationCategory struct {
	ID          uuid.UUID
	Name        string
	Description string
	Modules     []EducationModule
	Quizzes     []QuizQuestion
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// EducationModule is one piece of content within a category.
type EducationModule struct {
	ID          uuid.UUID
	CategoryID  uuid.UUID
	Title       string
	Description string
	Type        string
	URL         string
	Content     string
}

// QuizQuestion is one multiple-choice question within a category.
type QuizQuestion struct {
	ID         uuid.UUID
	CategoryID uuid.UUID
	Question   string
	Answer     string
	Options    []string
}

// QuizResult records one user's outcome for a named module.
type QuizResult struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	ModuleName string
	Passed     bool
	Score      int
	Total      int
	CreatedAt  time.Time
}

// LoginActivity is a best-effort audit row recorded on successful login.
type LoginActivity struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	IPAddress  *string
	UserAgent  *string
	DeviceType *string
	CreatedAt  time.Time
}

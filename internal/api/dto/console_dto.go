package dto

import (
	"time"

	"github.com/spec-kit/inventory-console/internal/domain"
)

// LoginRequest payload for sign-in.
type LoginRequest struct {
	Email    string `json:"email" form:"email" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// LoginResponse is the welcome dialog plus the dashboard to open.
type LoginResponse struct {
	Title    string              `json:"title"`
	Message  string              `json:"message"`
	Redirect string              `json:"redirect"`
	User     *domain.UserContext `json:"user"`
	Auth     AuthResponse        `json:"auth"`
}

// StatusUpdateRequest sets the status of one history entry.
type StatusUpdateRequest struct {
	User       string `json:"user" validate:"required,excludes=/"`
	RequestID  string `json:"request_id" validate:"required,excludes=/"`
	Collection string `json:"collection" validate:"omitempty,excludes=/"`
	Timestamp  string `json:"timestamp" validate:"required,excludes=/"`
	Status     string `json:"status" validate:"required,oneof=raised approved rejected delivered returned"`
}

// Locator returns the addressed entry.
func (r StatusUpdateRequest) Locator() domain.Locator {
	return domain.Locator{User: r.User, RequestID: r.RequestID, Collection: r.Collection, Timestamp: r.Timestamp}
}

// InventoryLinkRequest saves the stock sheet link.
type InventoryLinkRequest struct {
	Link string `json:"link" validate:"required"`
}

// ChatSelectRequest selects the user whose conversation is shown.
type ChatSelectRequest struct {
	Email string `json:"email" validate:"required,excludes=/"`
}

// ChatReplyRequest sends a reply to the selected message. An empty text uses
// the stored draft.
type ChatReplyRequest struct {
	Text string `json:"text"`
}

// ChatInputRequest stores the reply draft.
type ChatInputRequest struct {
	Text string `json:"text"`
}

// UserSummary is the drawer and footer identity block.
type UserSummary struct {
	Email     string `json:"email"`
	Name      string `json:"name"`
	RoleLabel string `json:"role_label"`
}

// NewUserSummary fills unknown values with "--".
func NewUserSummary(user *domain.UserContext) *UserSummary {
	if user == nil {
		return nil
	}
	summary := &UserSummary{Email: user.Email, Name: user.DisplayName, RoleLabel: user.RoleLabel}
	if summary.Name == "" {
		summary.Name = "--"
	}
	if summary.RoleLabel == "" {
		summary.RoleLabel = "--"
	}
	return summary
}

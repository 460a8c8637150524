package request

import "github.com/mcoot/guestdesk/internal/model"

// RegisterRequest is the request body for registering an operator
type RegisterRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// LoginRequest is the request body for logging in
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// CreateEventRequest is the request body for creating an event
type CreateEventRequest struct {
	Name string `json:"name"`
	Date string `json:"date"` // YYYY-MM-DD
}

// EligibilityRequest is the request body for evaluating children against an event
type EligibilityRequest struct {
	Children []model.ChildEntry `json:"children"`
}

// SubmitGroupRequest is the request body for the submission endpoint
type SubmitGroupRequest = model.GroupSubmission

// RegisterGuestRequest is the request body for on-site registration
type RegisterGuestRequest = model.GuestRecord

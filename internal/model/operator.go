package model

import "time"

// OperatorID uniquely identifies a venue staff member
type OperatorID string

// Operator is a venue staff member acting on guest lists
type Operator struct {
	ID          OperatorID
	DisplayName string
	CreatedAt   time.Time
}

// RegisteredOperator holds an operator's credentials.
// Stored separately so the password hash never travels with a session.
type RegisteredOperator struct {
	OperatorID   OperatorID
	Username     string // login username (immutable)
	PasswordHash string // bcrypt hash
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

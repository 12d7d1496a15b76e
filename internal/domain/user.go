package domain

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type User struct {
	ID           int64
	Email        string
	PasswordHash string
	FullName     string
	Role         Role
	CreatedAt    time.Time
}

type Notification struct {
	ID         int64
	UserID     int64
	Title      string
	Message    string
	BookingID  *int64
	ScheduleID *int64
	PaymentID  *int64
	Read       bool
	CreatedAt  time.Time
}

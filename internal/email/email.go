package email

import (
	"context"
	"log"

	"github.com/avdeenkov/flightbook/internal/kafka"
)

// Sender delivers booking notifications to users. The transport is a log
// sink; swapping in SMTP only touches this type.
type Sender struct{}

func NewSender() *Sender {
	return &Sender{}
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	log.Printf("email user %d: %s - %s (booking %s)", event.UserID, event.Title, event.Message, event.BookingCode)
	return nil
}

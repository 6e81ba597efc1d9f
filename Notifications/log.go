package Notifications

import (
	"context"
	"log"
)

// LogGateway writes notifications to the application log. Used in
// development when Firebase is not configured.
type LogGateway struct{}

func (LogGateway) Name() string {
	return "log"
}

func (LogGateway) Send(ctx context.Context, n Notification) error {
	log.Printf("notification [%s] member=%d title=%q body=%q", n.Priority, n.MemberID, n.Title, n.Body)
	return nil
}

package Notifications

import (
	"Hearth/Models"
	"context"
	"fmt"
	"log"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
	"gorm.io/gorm"
)

// FCMGateway delivers notifications to a member's registered device.
type FCMGateway struct {
	client *messaging.Client
	db     *gorm.DB
}

// InitFirebase builds the FCM gateway from the service account key file
// named by GOOGLE_APPLICATION_CREDENTIALS (call once at startup).
func InitFirebase(ctx context.Context, db *gorm.DB) (*FCMGateway, error) {
	credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
	if credFile == "" {
		return nil, fmt.Errorf("GOOGLE_APPLICATION_CREDENTIALS not set")
	}
	opt := option.WithCredentialsFile(credFile)

	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firebase app: %v", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting Messaging client: %v", err)
	}

	log.Println("Firebase initialized successfully")
	return &FCMGateway{client: client, db: db}, nil
}

func (g *FCMGateway) Name() string {
	return "fcm"
}

func (g *FCMGateway) Send(ctx context.Context, n Notification) error {
	if g.client == nil {
		return fmt.Errorf("firebase client not initialized")
	}

	token := Models.TokenForMember(g.db, n.MemberID)
	if token == "" {
		return fmt.Errorf("no device token registered for member %d", n.MemberID)
	}

	androidPriority := "normal"
	sound := "default"
	if n.Priority == PriorityHigh || n.Priority == PriorityCritical {
		androidPriority = "high"
	}

	message := &messaging.Message{
		Token: token,
		Data:  n.Data,
		Notification: &messaging.Notification{
			Title: n.Title,
			Body:  n.Body,
		},
		Android: &messaging.AndroidConfig{
			Notification: &messaging.AndroidNotification{
				Icon:  "task_reminder_icon",
				Sound: sound,
			},
			Priority: androidPriority,
		},
	}

	response, err := g.client.Send(ctx, message)
	if err != nil {
		return fmt.Errorf("error sending Firebase message: %v", err)
	}

	log.Printf("Successfully sent Firebase notification: %s", response)
	return nil
}

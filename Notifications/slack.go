package Notifications

import (
	"context"
	"fmt"
	"os"

	"github.com/slack-go/slack"
)

// SlackGateway mirrors critical notifications into the family ops channel
// so parents see level-4 alerts even without the app installed. Lower
// priorities are skipped.
type SlackGateway struct {
	api     *slack.Client
	channel string
}

// NewSlackGateway reads SLACK_BOT_TOKEN and SLACK_FAMILY_CHANNEL.
func NewSlackGateway() (*SlackGateway, error) {
	token := os.Getenv("SLACK_BOT_TOKEN")
	channel := os.Getenv("SLACK_FAMILY_CHANNEL")
	if token == "" || channel == "" {
		return nil, fmt.Errorf("SLACK_BOT_TOKEN and SLACK_FAMILY_CHANNEL must be set")
	}

	return &SlackGateway{
		api:     slack.New(token),
		channel: channel,
	}, nil
}

func (g *SlackGateway) Name() string {
	return "slack"
}

func (g *SlackGateway) Send(ctx context.Context, n Notification) error {
	if n.Priority != PriorityCritical {
		return nil
	}

	text := fmt.Sprintf("*%s*\n%s", n.Title, n.Body)
	_, _, err := g.api.PostMessageContext(ctx, g.channel,
		slack.MsgOptionText(text, false),
	)
	return err
}

// PostDigest sends free-form text to the family channel (daily summary).
func (g *SlackGateway) PostDigest(ctx context.Context, text string) error {
	_, _, err := g.api.PostMessageContext(ctx, g.channel,
		slack.MsgOptionText(text, false),
	)
	return err
}

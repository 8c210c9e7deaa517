package chat

import (
	"context"

	"github.com/slack-go/slack"
)

// SlackNotifier posts run notifications as colored attachments. Send
// returns the message timestamp, which Slack uses as the thread id for
// follow-up items.
type SlackNotifier struct {
	client  *slack.Client
	channel string
}

func NewSlackNotifier(token, channel string, opts ...slack.Option) *SlackNotifier {
	return &SlackNotifier{
		client:  slack.New(token, opts...),
		channel: channel,
	}
}

func (n *SlackNotifier) Send(ctx context.Context, color, message string) (string, error) {
	_, timestamp, err := n.client.PostMessageContext(
		ctx,
		n.channel,
		slack.MsgOptionAttachments(slack.Attachment{Color: color, Text: message}),
	)
	if err != nil {
		return "", err
	}
	return timestamp, nil
}

func (n *SlackNotifier) Reply(ctx context.Context, threadID, color, message string) error {
	_, _, err := n.client.PostMessageContext(
		ctx,
		n.channel,
		slack.MsgOptionTS(threadID),
		slack.MsgOptionAttachments(slack.Attachment{Color: color, Text: message}),
	)
	return err
}

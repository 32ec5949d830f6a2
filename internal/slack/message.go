package slack

import (
	"fmt"
	"strconv"
	"time"

	slackgo "github.com/slack-go/slack"

	"github.com/sakif/teamrsvp/internal/model"
)

// FallbackLayout renders times for clients that can't expand <!date^...>.
const FallbackLayout = "Mon, Jan 2, 2006 3:04 PM"

const attachmentColor = "#36a64f"

// Message is one chat.postMessage call.
type Message struct {
	Channel     string
	AsUser      bool
	Attachments []slackgo.Attachment
}

// NewEventMessage formats the channel announcement for an RSVP change:
//
//	<@U1> has joined Raid night
//	<!date^1792314000^{date_short_pretty} {time}|Sun, Oct 18, 2026 9:00 AM UTC>
//	Participants: 3    Alternates: 1
func NewEventMessage(n model.Notification) Message {
	ts := time.UnixMilli(n.Event.Timestamp).UTC()
	title := fmt.Sprintf("<@%s> has %s %s", n.Actor, n.Kind, n.Event.Name)

	return Message{
		Channel: n.Event.Channel,
		AsUser:  true,
		Attachments: []slackgo.Attachment{{
			Fallback: title,
			Color:    attachmentColor,
			Title:    title,
			Fields: []slackgo.AttachmentField{
				{Value: DateToken(ts)},
				{Title: "Participants", Value: strconv.Itoa(len(n.Event.Participants)), Short: true},
				{Title: "Alternates", Value: strconv.Itoa(len(n.Event.Alternates)), Short: true},
			},
		}},
	}
}

// DateToken returns Slack's date formatting token, which every client renders
// in its own viewer's timezone.
func DateToken(t time.Time) string {
	return fmt.Sprintf("<!date^%d^{date_short_pretty} {time}|%s UTC>", t.Unix(), t.UTC().Format(FallbackLayout))
}

// Ephemeral builds a slash-command reply only the invoking user sees.
func Ephemeral(text string) slackgo.Msg {
	return slackgo.Msg{ResponseType: "ephemeral", Text: text}
}

package slackbot

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/slack-go/slack"
	"go.uber.org/zap"

	"safefeed/internal/domain"
	"safefeed/internal/moderation"
)

const (
	maxSnippet       = 280
	maxDigestEntries = 10
)

// Notifier posts moderation alerts and digests to Slack channels.
type Notifier struct {
	api           *slack.Client
	alertChannel  string
	digestChannel string
	logger        *zap.Logger
}

// New returns a notifier. The digest goes to the alert channel unless a
// separate digest channel is given.
func New(token, alertChannel, digestChannel string, logger *zap.Logger, opts ...slack.Option) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	if digestChannel == "" {
		digestChannel = alertChannel
	}
	return &Notifier{
		api:           slack.New(token, opts...),
		alertChannel:  alertChannel,
		digestChannel: digestChannel,
		logger:        logger,
	}
}

func snippet(body string) string {
	body = strings.Join(strings.Fields(body), " ")
	if utf8.RuneCountInString(body) <= maxSnippet {
		return body
	}
	runes := []rune(body)
	return string(runes[:maxSnippet]) + "…"
}

func (n *Notifier) post(ctx context.Context, channel, fallback string, blocks ...slack.Block) error {
	_, _, err := n.api.PostMessageContext(ctx, channel,
		slack.MsgOptionText(fallback, false),
		slack.MsgOptionBlocks(blocks...),
	)
	if err != nil {
		return fmt.Errorf("slack post to %s: %w", channel, err)
	}
	return nil
}

// EscalateContent alerts moderators about content that needs immediate
// action.
func (n *Notifier) EscalateContent(ctx context.Context, item domain.ContentItem) error {
	title := fmt.Sprintf(":rotating_light: %s %d needs immediate review", item.Kind, item.ID)
	detail := fmt.Sprintf("*Author:* `%s`\n*Severity:* %s  *Confidence:* %.2f  *Source:* %s\n*Categories:* %s",
		item.AuthorID, item.Severity, item.Confidence, item.Source, categoriesText(item.Categories))
	body := "> " + snippet(item.Body)

	err := n.post(ctx, n.alertChannel, title,
		slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, "*"+title+"*", false, false), nil, nil),
		slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, detail, false, false), nil, nil),
		slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, body, false, false), nil, nil),
	)
	if err == nil {
		n.logger.Info("content escalated to slack", zap.String("kind", string(item.Kind)), zap.Int64("id", item.ID))
	}
	return err
}

// EscalateCrisis alerts about a crisis support conversation. The message
// text is not forwarded.
func (n *Notifier) EscalateCrisis(ctx context.Context, userID string, category domain.IntentCategory) error {
	text := fmt.Sprintf(":sos: Support chat user `%s` sent a message routed as *%s*. Please follow up.", userID, category)
	return n.post(ctx, n.alertChannel, text,
		slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, text, false, false), nil, nil),
	)
}

// PostReportDigest posts a summary of pending reports.
func (n *Notifier) PostReportDigest(ctx context.Context, listings []moderation.ReportListing) error {
	if len(listings) == 0 {
		return n.post(ctx, n.digestChannel, "No pending reports.",
			slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, ":white_check_mark: No pending reports.", false, false), nil, nil),
		)
	}

	header := fmt.Sprintf("*%d pending report(s)*", len(listings))
	blocks := []slack.Block{
		slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, header, false, false), nil, nil),
		slack.NewDividerBlock(),
	}
	for i, l := range listings {
		if i == maxDigestEntries {
			more := fmt.Sprintf("_…and %d more_", len(listings)-maxDigestEntries)
			blocks = append(blocks, slack.NewContextBlock("", slack.NewTextBlockObject(slack.MarkdownType, more, false, false)))
			break
		}
		blocks = append(blocks, slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, digestLine(l), false, false), nil, nil,
		))
	}
	return n.post(ctx, n.digestChannel, fmt.Sprintf("%d pending reports", len(listings)), blocks...)
}

func digestLine(l moderation.ReportListing) string {
	r := l.Report
	who := l.Reporter.DisplayName()
	if r.IsAutomatic() {
		who = "automatic"
	}
	var state string
	switch t := l.Target.(type) {
	case moderation.LiveTarget:
		state = fmt.Sprintf("%s, %s", t.Item.Status, t.Item.Severity)
	case moderation.RemovedTarget:
		state = "removed"
	default:
		state = "unknown"
	}
	return fmt.Sprintf("• #%d %s %d (%s) by %s: %s\n> %s",
		r.ID, r.Target.Kind(), r.Target.ID(), state, who, r.Reason, snippet(r.ContentSnapshot))
}

func categoriesText(categories []string) string {
	if len(categories) == 0 {
		return "none"
	}
	return strings.Join(categories, ", ")
}

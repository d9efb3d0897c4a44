package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/zyzu25/CIANCSC/internal/bootstrap/config"
	"github.com/zyzu25/CIANCSC/internal/bootstrap/logging"
	"github.com/zyzu25/CIANCSC/internal/errs"
	"github.com/zyzu25/CIANCSC/internal/ports"
)

const (
	ResponseDelivered = "Delivered"
	ResponseDisabled  = "relay disabled: webhook url not configured"

	maxFieldValue  = 1024
	maxDescription = 4096
	errorBodyLimit = 512
)

// WebhookRelay posts one embed per submission to a chat webhook. It makes a
// single attempt per announcement.
type WebhookRelay struct {
	cfg    config.RelayConfig
	client *http.Client
	now    func() time.Time
}

var _ ports.Relay = (*WebhookRelay)(nil)

func NewWebhookRelay(cfg config.RelayConfig) *WebhookRelay {
	return &WebhookRelay{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		now:    time.Now,
	}
}

type webhookMessage struct {
	Content   string  `json:"content"`
	Username  string  `json:"username,omitempty"`
	AvatarURL string  `json:"avatar_url,omitempty"`
	Embeds    []embed `json:"embeds"`
}

type embed struct {
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Color       int            `json:"color"`
	Fields      []embedField   `json:"fields,omitempty"`
	Timestamp   string         `json:"timestamp"`
	Footer      embedFooter    `json:"footer"`
	Thumbnail   *embedImageRef `json:"thumbnail,omitempty"`
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type embedFooter struct {
	Text string `json:"text"`
}

type embedImageRef struct {
	URL string `json:"url"`
}

func (r *WebhookRelay) Announce(ctx context.Context, a ports.Announcement) ports.RelayOutcome {
	logCtx := logging.WithAttrs(ctx,
		slog.String("component", "relay.discord"),
		slog.Uint64("submission_id", a.SubmissionID),
	)

	endpoint := strings.TrimSpace(r.cfg.WebhookURL)
	if endpoint == "" {
		logging.Warn(logCtx, "relay skipped, webhook url not configured")
		return ports.RelayOutcome{Delivered: false, Response: ResponseDisabled}
	}
	if a.Form == nil {
		return ports.RelayOutcome{Delivered: false, Response: "Error: announcement has no form"}
	}

	body, err := json.Marshal(r.buildMessage(a))
	if err != nil {
		return failure(logCtx, errs.Wrap(err, "encode webhook message"))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return failure(logCtx, errs.Wrap(withoutURL(err), "build webhook request"))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return failure(logCtx, errs.Wrap(withoutURL(err), "post webhook"))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		logging.Warn(logCtx, "webhook rejected announcement",
			slog.Int("status", resp.StatusCode),
			slog.String("body", strings.TrimSpace(string(detail))),
		)
		return ports.RelayOutcome{Delivered: false, Response: "Error: " + statusText(resp)}
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	logging.Info(logCtx, "submission announced", slog.Int("status", resp.StatusCode))
	return ports.RelayOutcome{Delivered: true, Response: ResponseDelivered}
}

func (r *WebhookRelay) buildMessage(a ports.Announcement) webhookMessage {
	category := a.Form.Category()
	notice := a.Form.Notice()

	content := fmt.Sprintf("New %s submission received (#%d)", category.DisplayName(), a.SubmissionID)
	if role := strings.TrimSpace(r.cfg.MentionRoleID); role != "" {
		content = "<@&" + role + "> " + content
	}

	title := notice.Title
	if org := strings.TrimSpace(r.cfg.Organization); org != "" {
		title = org + " " + title
	}

	footer := fmt.Sprintf("IP: %s • Submission ID: %d", a.SourceAddress, a.SubmissionID)
	if notice.FooterNote != "" {
		footer += " • " + notice.FooterNote
	}

	fields := make([]embedField, 0, len(notice.Fields))
	for _, f := range notice.Fields {
		fields = append(fields, embedField{
			Name:   f.Name,
			Value:  truncate(nonEmpty(f.Value), maxFieldValue),
			Inline: f.Inline,
		})
	}

	e := embed{
		Title:       title,
		Description: truncate(notice.Description, maxDescription),
		Color:       notice.Color,
		Fields:      fields,
		Timestamp:   r.now().UTC().Format(time.RFC3339),
		Footer:      embedFooter{Text: footer},
	}
	if thumb := strings.TrimSpace(r.cfg.ThumbnailURL); thumb != "" {
		e.Thumbnail = &embedImageRef{URL: thumb}
	}

	return webhookMessage{
		Content:   content,
		Username:  r.cfg.Username,
		AvatarURL: r.cfg.AvatarURL,
		Embeds:    []embed{e},
	}
}

func failure(ctx context.Context, err error) ports.RelayOutcome {
	logging.Warn(ctx, "relay attempt failed", slog.Any("err", errs.Loggable(err)))
	return ports.RelayOutcome{Delivered: false, Response: "Error: " + err.Error()}
}

// withoutURL drops the request URL from transport errors. The webhook URL
// carries its token in the path and must not reach logs or stored rows.
func withoutURL(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Err != nil {
		return uerr.Err
	}
	return err
}

func statusText(resp *http.Response) string {
	if text := http.StatusText(resp.StatusCode); text != "" {
		return fmt.Sprintf("%d %s", resp.StatusCode, text)
	}
	return resp.Status
}

// Chat embeds reject empty field values.
func nonEmpty(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/zyzu25/CIANCSC/internal/bootstrap/config"
	"github.com/zyzu25/CIANCSC/internal/bootstrap/logging"
	"github.com/zyzu25/CIANCSC/internal/domain/contact"
	"github.com/zyzu25/CIANCSC/internal/ports"
)

func threatAnnouncement() ports.Announcement {
	return ports.Announcement{
		SubmissionID:  42,
		SourceAddress: "203.0.113.9",
		Form: &contact.ThreatReport{
			DiscordUsername: "reporter",
			SuspectDiscord:  "suspect",
			IncidentTime:    "yesterday 21:00",
			Description:     "Posted scam links in the general channel.",
		},
	}
}

func testRelayConfig(url string) config.RelayConfig {
	return config.RelayConfig{
		WebhookURL:    url,
		Timeout:       2 * time.Second,
		Username:      "NCSC Contact System",
		MentionRoleID: "1355",
		Organization:  "NCSC",
	}
}

func TestAnnounceDeliversEmbed(t *testing.T) {
	var got webhookMessage
	var contentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		raw, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(raw, &got); err != nil {
			t.Errorf("unmarshal webhook body: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	relay := NewWebhookRelay(testRelayConfig(server.URL))
	out := relay.Announce(context.Background(), threatAnnouncement())

	if !out.Delivered || out.Response != ResponseDelivered {
		t.Fatalf("outcome = %+v, want delivered", out)
	}
	if contentType != "application/json" {
		t.Fatalf("content type = %q", contentType)
	}
	if got.Content != "<@&1355> New Threat Report submission received (#42)" {
		t.Fatalf("content = %q", got.Content)
	}
	if len(got.Embeds) != 1 {
		t.Fatalf("embeds len = %d, want 1", len(got.Embeds))
	}
	e := got.Embeds[0]
	if e.Title != "NCSC Threat Report" {
		t.Fatalf("title = %q", e.Title)
	}
	if e.Color != 0xFF2A2A {
		t.Fatalf("color = %#x", e.Color)
	}
	if !strings.Contains(e.Footer.Text, "IP: 203.0.113.9") || !strings.Contains(e.Footer.Text, "Submission ID: 42") {
		t.Fatalf("footer = %q", e.Footer.Text)
	}
	if len(e.Fields) != 4 || e.Fields[1].Name != "Suspect Discord" {
		t.Fatalf("fields = %+v", e.Fields)
	}
}

func TestAnnounceNon2xxIsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"message":"Unknown Webhook"}`, http.StatusNotFound)
	}))
	defer server.Close()

	out := NewWebhookRelay(testRelayConfig(server.URL)).Announce(context.Background(), threatAnnouncement())
	if out.Delivered {
		t.Fatal("Delivered = true, want false")
	}
	if out.Response != "Error: 404 Not Found" {
		t.Fatalf("Response = %q", out.Response)
	}
}

func TestAnnounceTimeoutIsFailure(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	cfg := testRelayConfig(server.URL)
	cfg.Timeout = 50 * time.Millisecond

	out := NewWebhookRelay(cfg).Announce(context.Background(), threatAnnouncement())
	if out.Delivered {
		t.Fatal("Delivered = true, want false")
	}
	if !strings.HasPrefix(out.Response, "Error: ") || len(out.Response) <= len("Error: ") {
		t.Fatalf("Response = %q, want error detail", out.Response)
	}
}

func TestAnnounceTransportErrorIsFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	out := NewWebhookRelay(testRelayConfig(url)).Announce(context.Background(), threatAnnouncement())
	if out.Delivered || !strings.HasPrefix(out.Response, "Error: ") {
		t.Fatalf("outcome = %+v, want transport failure", out)
	}
}

func TestAnnounceDisabledWithoutURL(t *testing.T) {
	out := NewWebhookRelay(testRelayConfig("")).Announce(context.Background(), threatAnnouncement())
	if out.Delivered || out.Response != ResponseDisabled {
		t.Fatalf("outcome = %+v, want disabled", out)
	}
}

func TestBuildMessageTruncatesLongValues(t *testing.T) {
	relay := NewWebhookRelay(testRelayConfig("http://unused"))
	a := threatAnnouncement()
	a.Form.(*contact.ThreatReport).Description = strings.Repeat("d", 5000)

	msg := relay.buildMessage(a)
	value := msg.Embeds[0].Fields[3].Value
	if n := len([]rune(value)); n != maxFieldValue {
		t.Fatalf("field value length = %d, want %d", n, maxFieldValue)
	}
}

func TestAnnounceFailureKeepsWebhookTokenOutOfOutcomeAndLogs(t *testing.T) {
	const token = "1357420525432995900/SECRET-TOKEN"

	closed := httptest.NewServer(http.NotFoundHandler())
	closedURL := closed.URL + "/api/webhooks/" + token
	closed.Close()

	release := make(chan struct{})
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
	}))
	defer slow.Close()
	defer close(release)

	cases := map[string]config.RelayConfig{
		"connection refused": testRelayConfig(closedURL),
		"timeout": func() config.RelayConfig {
			cfg := testRelayConfig(slow.URL + "/api/webhooks/" + token)
			cfg.Timeout = 50 * time.Millisecond
			return cfg
		}(),
	}

	for name, cfg := range cases {
		var logs bytes.Buffer
		ctx := logging.WithLogger(context.Background(), logging.New(&logs, "json", "debug"))

		out := NewWebhookRelay(cfg).Announce(ctx, threatAnnouncement())
		if out.Delivered {
			t.Fatalf("%s: Delivered = true, want false", name)
		}
		if !strings.HasPrefix(out.Response, "Error: ") || len(out.Response) <= len("Error: ") {
			t.Fatalf("%s: Response = %q, want transport detail", name, out.Response)
		}
		if strings.Contains(out.Response, "SECRET-TOKEN") || strings.Contains(out.Response, "/api/webhooks/") {
			t.Fatalf("%s: Response = %q, leaks webhook path", name, out.Response)
		}
		if strings.Contains(logs.String(), "SECRET-TOKEN") {
			t.Fatalf("%s: logs leak webhook token:\n%s", name, logs.String())
		}
	}
}

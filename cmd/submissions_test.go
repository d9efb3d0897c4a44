package cmd

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	domain "github.com/zyzu25/CIANCSC/internal/domain/contact"
	"github.com/zyzu25/CIANCSC/internal/infrastructure/relay/discord"
	"github.com/zyzu25/CIANCSC/internal/ports"
)

func sampleSubmissions() []ports.Submission {
	delivered := "Delivered"
	failed := "Error: 404 Not Found"
	agent := "Mozilla/5.0"
	base := time.Date(2026, 10, 17, 8, 30, 0, 0, time.UTC)
	return []ports.Submission{
		{
			SubmissionID:   1,
			Category:       "threat-report",
			Payload:        json.RawMessage(`{"discordUsername":"reporter","description":"Posted scam links."}`),
			SourceAddress:  "203.0.113.5",
			ClientAgent:    &agent,
			CreatedAt:      base,
			RelayDelivered: true,
			RelayResponse:  &delivered,
		},
		{
			SubmissionID:  2,
			Category:      "website-feedback",
			Payload:       json.RawMessage(`{"discordUsername":"visitor","pageUrl":"/about","description":"Broken image."}`),
			SourceAddress: "unknown",
			CreatedAt:     base.Add(time.Minute),
			RelayResponse: &failed,
		},
	}
}

func TestRenderSubmissionTable(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	if err := renderSubmissionTable(&out, sampleSubmissions()); err != nil {
		t.Fatalf("renderSubmissionTable() error = %v", err)
	}
	text := out.String()
	for _, want := range []string{"ID", "CATEGORY", "threat-report", "website-feedback", "203.0.113.5", "2026-10-17 08:31:00", "delivered", "failed", "2 submission(s)"} {
		if !strings.Contains(text, want) {
			t.Fatalf("table missing %q:\n%s", want, text)
		}
	}
	if strings.Index(text, "threat-report") > strings.Index(text, "website-feedback") {
		t.Fatalf("rows out of order:\n%s", text)
	}
}

func TestRenderSubmissionTableEmpty(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	if err := renderSubmissionTable(&out, nil); err != nil {
		t.Fatalf("renderSubmissionTable() error = %v", err)
	}
	if !strings.Contains(out.String(), "no submissions stored") {
		t.Fatalf("output = %q", out.String())
	}
}

func TestWriteSubmissionsJSON(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	if err := writeSubmissionsJSON(&out, sampleSubmissions()); err != nil {
		t.Fatalf("writeSubmissionsJSON() error = %v", err)
	}

	var views []submissionView
	if err := json.Unmarshal(out.Bytes(), &views); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out.String())
	}
	if len(views) != 2 {
		t.Fatalf("len = %d, want 2", len(views))
	}
	if views[0].SubmissionID != 1 || !views[0].RelayDelivered || views[0].ClientAgent == nil {
		t.Fatalf("first = %+v", views[0])
	}
	if views[1].ClientAgent != nil || views[1].RelayDelivered {
		t.Fatalf("second = %+v", views[1])
	}
	var payload map[string]string
	if err := json.Unmarshal(views[1].Payload, &payload); err != nil || payload["pageUrl"] != "/about" {
		t.Fatalf("payload = %s (%v)", views[1].Payload, err)
	}
}

func TestWriteSubmissionsJSONEmptyIsArray(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	if err := writeSubmissionsJSON(&out, nil); err != nil {
		t.Fatalf("writeSubmissionsJSON() error = %v", err)
	}
	if strings.TrimSpace(out.String()) != "[]" {
		t.Fatalf("output = %q, want []", out.String())
	}
}

func TestFilterSubmissions(t *testing.T) {
	t.Parallel()

	got := filterSubmissions(sampleSubmissions(), domain.CategoryWebsiteFeedback)
	if len(got) != 1 || got[0].SubmissionID != 2 {
		t.Fatalf("filterSubmissions() = %+v", got)
	}
}

func TestRenderSubmissionDetail(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	if err := renderSubmissionDetail(&out, sampleSubmissions()[0]); err != nil {
		t.Fatalf("renderSubmissionDetail() error = %v", err)
	}
	text := out.String()
	for _, want := range []string{
		"Submission: 1",
		"Threat Report (threat-report)",
		"2026-10-17T08:30:00Z",
		"Client: Mozilla/5.0",
		"delivered (Delivered)",
		`  "discordUsername": "reporter"`,
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("detail missing %q:\n%s", want, text)
		}
	}
}

func TestRelayStateSkippedWhenRelayDisabled(t *testing.T) {
	t.Parallel()

	disabled := discord.ResponseDisabled
	items := sampleSubmissions()
	items = append(items, ports.Submission{
		SubmissionID:  3,
		Category:      "other-request",
		Payload:       json.RawMessage(`{}`),
		SourceAddress: "unknown",
		CreatedAt:     items[1].CreatedAt.Add(time.Minute),
		RelayResponse: &disabled,
	})

	want := []string{relayDelivered, relayFailed, relaySkipped}
	for i, item := range items {
		if got := relayState(item); got != want[i] {
			t.Fatalf("relayState(#%d) = %q, want %q", item.SubmissionID, got, want[i])
		}
	}

	var out bytes.Buffer
	if err := renderSubmissionTable(&out, items); err != nil {
		t.Fatalf("renderSubmissionTable() error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 5 || !strings.Contains(lines[3], "skipped") || strings.Contains(lines[3], "failed") {
		t.Fatalf("disabled row not shown as skipped:\n%s", out.String())
	}

	out.Reset()
	if err := renderSubmissionDetail(&out, items[2]); err != nil {
		t.Fatalf("renderSubmissionDetail() error = %v", err)
	}
	if !strings.Contains(out.String(), "Relay: skipped (relay disabled") {
		t.Fatalf("detail = %s", out.String())
	}
}

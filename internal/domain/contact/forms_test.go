package contact

import (
	"encoding/json"
	"testing"
)

func TestNoticeColorsAreDistinct(t *testing.T) {
	seen := map[int]Category{}
	for category, payload := range validPayloads() {
		form, err := Validate(string(category), json.RawMessage(payload))
		if err != nil {
			t.Fatalf("Validate(%s) error = %v", category, err)
		}
		n := form.Notice()
		if other, dup := seen[n.Color]; dup {
			t.Fatalf("color %#x shared by %s and %s", n.Color, category, other)
		}
		seen[n.Color] = category
		if n.Title != category.DisplayName() {
			t.Fatalf("%s title = %q, want %q", category, n.Title, category.DisplayName())
		}
		if n.FooterNote == "" {
			t.Fatalf("%s footer note is empty", category)
		}
	}
}

func TestThreatNoticeFields(t *testing.T) {
	form, err := Validate("threat-report", json.RawMessage(validPayloads()[CategoryThreatReport]))
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	fields := form.Notice().Fields
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.Name)
	}
	want := []string{"Reporter Info", "Suspect Discord", "Incident Time", "Description", "Evidence URL"}
	if len(names) != len(want) {
		t.Fatalf("field names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("field names = %v, want %v", names, want)
		}
	}
	if fields[1].Value != "suspect#6666" || !fields[1].Inline {
		t.Fatalf("suspect field = %+v", fields[1])
	}
}

func TestFeedbackNoticeOmitsEmptyScreenshot(t *testing.T) {
	form := &WebsiteFeedback{DiscordUsername: "v", PageURL: "/about", Description: "broken layout here"}
	for _, f := range form.Notice().Fields {
		if f.Name == "Screenshot URL" {
			t.Fatal("Screenshot URL field present for empty screenshot")
		}
	}
}

func TestOtherRequestNoticeUsesRequestLabel(t *testing.T) {
	form := &OtherRequest{DiscordUsername: "x", RequestType: RequestDataDeletion, Justification: "please remove my data"}
	fields := form.Notice().Fields
	if fields[1].Name != "Request Type" || fields[1].Value != "Data Deletion Request" {
		t.Fatalf("request type field = %+v", fields[1])
	}
}

func TestRecruitmentNoticeIncludesAge(t *testing.T) {
	form := &RecruitmentInquiry{DiscordUsername: "app", Age: "17", Statement: "long enough statement here"}
	if got := form.Notice().Fields[0].Value; got != "Discord: app\nAge: 17" {
		t.Fatalf("applicant info = %q", got)
	}
}

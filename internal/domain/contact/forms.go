package contact

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Form is a payload that passed its category's schema.
type Form interface {
	Category() Category
	// Handle identifies the submitter on the chat platform.
	Handle() string
	// Notice is the category's rendering for the chat relay.
	Notice() Notice
}

// Notice is the category-specific content of a relay announcement.
type Notice struct {
	Title       string
	Color       int
	Description string
	Fields      []NoticeField
	FooterNote  string
}

type NoticeField struct {
	Name   string
	Value  string
	Inline bool
}

const (
	colorThreat      = 0xFF2A2A
	colorRecruitment = 0xFFD700
	colorFeedback    = 0x0366D6
	colorOther       = 0x6A737D
)

// schemas is the single dispatch point from a category to its form type.
var schemas = map[Category]func() Form{
	CategoryThreatReport:       func() Form { return &ThreatReport{} },
	CategoryRecruitmentInquiry: func() Form { return &RecruitmentInquiry{} },
	CategoryWebsiteFeedback:    func() Form { return &WebsiteFeedback{} },
	CategoryOtherRequest:       func() Form { return &OtherRequest{} },
}

type ThreatReport struct {
	DiscordUsername string `json:"discordUsername" validate:"required,notblank"`
	SuspectDiscord  string `json:"suspectDiscord" validate:"required,notblank"`
	IncidentTime    string `json:"incidentTime" validate:"required,notblank"`
	Description     string `json:"description" validate:"min=10"`
	Evidence        string `json:"evidence,omitempty"`
}

func (*ThreatReport) Category() Category { return CategoryThreatReport }
func (f *ThreatReport) Handle() string   { return f.DiscordUsername }

func (f *ThreatReport) Notice() Notice {
	n := Notice{
		Title:       CategoryThreatReport.DisplayName(),
		Color:       colorThreat,
		Description: "**Incident Report Details**",
		Fields: []NoticeField{
			{Name: "Reporter Info", Value: "Discord: " + f.DiscordUsername, Inline: true},
			{Name: "Suspect Discord", Value: f.SuspectDiscord, Inline: true},
			{Name: "Incident Time", Value: f.IncidentTime},
			{Name: "Description", Value: f.Description},
		},
		FooterNote: "⚠ False reports result in bans",
	}
	if strings.TrimSpace(f.Evidence) != "" {
		n.Fields = append(n.Fields, NoticeField{Name: "Evidence URL", Value: f.Evidence})
	}
	return n
}

type RecruitmentInquiry struct {
	DiscordUsername string        `json:"discordUsername" validate:"required,notblank"`
	Age             NumericString `json:"age" validate:"required,minint=14"`
	Statement       string        `json:"statement" validate:"min=20"`
}

func (*RecruitmentInquiry) Category() Category { return CategoryRecruitmentInquiry }
func (f *RecruitmentInquiry) Handle() string   { return f.DiscordUsername }

func (f *RecruitmentInquiry) Notice() Notice {
	return Notice{
		Title:       CategoryRecruitmentInquiry.DisplayName(),
		Color:       colorRecruitment,
		Description: "**Recruitment Inquiry**",
		Fields: []NoticeField{
			{Name: "Applicant Info", Value: "Discord: " + f.DiscordUsername + "\nAge: " + string(f.Age), Inline: true},
			{Name: "Statement", Value: f.Statement},
		},
		FooterNote: "🔒 Requires background check",
	}
}

type WebsiteFeedback struct {
	DiscordUsername string `json:"discordUsername" validate:"required,notblank"`
	PageURL         string `json:"pageUrl" validate:"required,notblank"`
	Description     string `json:"description" validate:"min=10"`
	Screenshot      string `json:"screenshot,omitempty"`
}

func (*WebsiteFeedback) Category() Category { return CategoryWebsiteFeedback }
func (f *WebsiteFeedback) Handle() string   { return f.DiscordUsername }

func (f *WebsiteFeedback) Notice() Notice {
	n := Notice{
		Title:       CategoryWebsiteFeedback.DisplayName(),
		Color:       colorFeedback,
		Description: "**Website Feedback Submitted**",
		Fields: []NoticeField{
			{Name: "Reporter Info", Value: "Discord: " + f.DiscordUsername, Inline: true},
			{Name: "Page URL", Value: f.PageURL, Inline: true},
			{Name: "Description", Value: f.Description},
		},
		FooterNote: "🛠️ Technical feedback prioritized",
	}
	if strings.TrimSpace(f.Screenshot) != "" {
		n.Fields = append(n.Fields, NoticeField{Name: "Screenshot URL", Value: f.Screenshot})
	}
	return n
}

type RequestType string

const (
	RequestDataDeletion RequestType = "data-deletion"
	RequestPressMedia   RequestType = "press-media"
	RequestLegal        RequestType = "legal-request"
)

func (t RequestType) Label() string {
	switch t {
	case RequestDataDeletion:
		return "Data Deletion Request"
	case RequestPressMedia:
		return "Press/Media Inquiry"
	case RequestLegal:
		return "Legal Matter"
	default:
		return string(t)
	}
}

type OtherRequest struct {
	DiscordUsername string      `json:"discordUsername" validate:"required,notblank"`
	RequestType     RequestType `json:"requestType" validate:"required,oneof=data-deletion press-media legal-request"`
	Justification   string      `json:"justification" validate:"min=20"`
}

func (*OtherRequest) Category() Category { return CategoryOtherRequest }
func (f *OtherRequest) Handle() string   { return f.DiscordUsername }

func (f *OtherRequest) Notice() Notice {
	return Notice{
		Title:       CategoryOtherRequest.DisplayName(),
		Color:       colorOther,
		Description: "**Other Request Submitted**",
		Fields: []NoticeField{
			{Name: "Requester Info", Value: "Discord: " + f.DiscordUsername, Inline: true},
			{Name: "Request Type", Value: f.RequestType.Label(), Inline: true},
			{Name: "Justification", Value: f.Justification},
		},
		FooterNote: "📝 Logged for review",
	}
}

// NumericString holds a number that clients may send either as a JSON
// string or a JSON number.
type NumericString string

func (n *NumericString) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] != '"' {
		var num json.Number
		if err := json.Unmarshal(trimmed, &num); err != nil {
			return err
		}
		*n = NumericString(num.String())
		return nil
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return err
	}
	*n = NumericString(s)
	return nil
}

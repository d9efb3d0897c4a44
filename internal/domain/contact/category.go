package contact

import (
	"fmt"
	"strings"
)

// Category is the kind of contact form a submission was made through.
type Category string

const (
	CategoryThreatReport       Category = "threat-report"
	CategoryRecruitmentInquiry Category = "recruitment-inquiry"
	CategoryWebsiteFeedback    Category = "website-feedback"
	CategoryOtherRequest       Category = "other-request"
)

// Categories lists every accepted category in display order.
func Categories() []Category {
	return []Category{
		CategoryThreatReport,
		CategoryRecruitmentInquiry,
		CategoryWebsiteFeedback,
		CategoryOtherRequest,
	}
}

// Older front-end builds post the short form names.
var categoryAliases = map[string]Category{
	"recruitment": CategoryRecruitmentInquiry,
	"feedback":    CategoryWebsiteFeedback,
}

// ParseCategory normalizes raw into a known category. Underscores are
// accepted in place of dashes.
func ParseCategory(raw string) (Category, error) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), "_", "-")
	if alias, ok := categoryAliases[key]; ok {
		return alias, nil
	}
	c := Category(key)
	if c.Valid() {
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, raw)
}

func (c Category) Valid() bool {
	_, ok := schemas[c]
	return ok
}

// DisplayName is the human label used in relay titles.
func (c Category) DisplayName() string {
	switch c {
	case CategoryThreatReport:
		return "Threat Report"
	case CategoryRecruitmentInquiry:
		return "Recruitment Inquiry"
	case CategoryWebsiteFeedback:
		return "Website Feedback"
	case CategoryOtherRequest:
		return "Other Request"
	default:
		return string(c)
	}
}

func (c Category) String() string { return string(c) }

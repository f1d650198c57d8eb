package intake

import (
	"fmt"
	"strings"
)

// BuildCommentBlock assembles the lead comment: the free-form comment,
// labelled context lines, and a trailing UTM block when any UTM tag is
// present. The same text goes into the lead's COMMENTS field and its
// timeline comment.
func BuildCommentBlock(lead NormalizedLead) string {
	var parts []string

	if lead.Comment != "" {
		parts = append(parts, lead.Comment)
	}
	if lead.CompanyName != "" {
		parts = append(parts, fmt.Sprintf("Компания: %s", lead.CompanyName))
	}
	if lead.Activity != "" {
		parts = append(parts, fmt.Sprintf("Сфера деятельности: %s", lead.Activity))
	}
	if lead.Date != "" {
		parts = append(parts, fmt.Sprintf("Дата для связи: %s", lead.Date))
	}
	if lead.Time != "" {
		parts = append(parts, fmt.Sprintf("Время для связи: %s", lead.Time))
	}

	var utmLines []string
	if lead.UTMSource != "" {
		utmLines = append(utmLines, fmt.Sprintf("utm_source: %s", lead.UTMSource))
	}
	if lead.UTMMedium != "" {
		utmLines = append(utmLines, fmt.Sprintf("utm_medium: %s", lead.UTMMedium))
	}
	if lead.UTMCampaign != "" {
		utmLines = append(utmLines, fmt.Sprintf("utm_campaign: %s", lead.UTMCampaign))
	}
	if lead.UTMTerm != "" {
		utmLines = append(utmLines, fmt.Sprintf("utm_term: %s", lead.UTMTerm))
	}
	if lead.UTMContent != "" {
		utmLines = append(utmLines, fmt.Sprintf("utm_content: %s", lead.UTMContent))
	}

	if len(utmLines) > 0 {
		parts = append(parts, "", "UTM-метки:", strings.Join(utmLines, "\n"))
	}

	return strings.Join(parts, "\n")
}

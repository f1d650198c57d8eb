package intake

import (
	"fmt"
	"regexp"
)

var (
	activityDateRE = regexp.MustCompile(`(\d{2})\.(\d{2})\.(\d{4})`)
	activityTimeRE = regexp.MustCompile(`(\d{1,2}:\d{2})(?:-(\d{1,2}:\d{2}))?`)
)

// ParseActivityWindow turns the free-text contact date and time into the
// CRM's local datetime strings. The date must contain DD.MM.YYYY and the
// time HH:MM, optionally as a HH:MM-HH:MM range; a single time yields a
// zero-length window. Unparseable input means no follow-up is planned;
// it is a skip, not an error.
func ParseActivityWindow(date, timeOfDay string) (start, end string, ok bool) {
	if date == "" || timeOfDay == "" {
		return "", "", false
	}

	dateMatch := activityDateRE.FindStringSubmatch(date)
	if dateMatch == nil {
		return "", "", false
	}
	dateISO := fmt.Sprintf("%s-%s-%s", dateMatch[3], dateMatch[2], dateMatch[1])

	timeMatch := activityTimeRE.FindStringSubmatch(timeOfDay)
	if timeMatch == nil {
		return "", "", false
	}
	startTime := timeMatch[1]
	endTime := timeMatch[2]
	if endTime == "" {
		endTime = startTime
	}

	return fmt.Sprintf("%sT%s:00", dateISO, startTime),
		fmt.Sprintf("%sT%s:00", dateISO, endTime),
		true
}

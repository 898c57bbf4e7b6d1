package notify

import (
	"regexp"
	"sort"
)

// SensitiveType names a kind of personal data found in outbound text
type SensitiveType string

const (
	SensitiveEmail SensitiveType = "email"
	SensitivePhone SensitiveType = "phone"
)

// Detection is one match of personal data inside a message
type Detection struct {
	Type     SensitiveType
	Value    string
	StartPos int
	EndPos   int
}

var (
	emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`)

	// Indonesian mobile numbers in local (08xx) and international (+62 / 62) form
	phonePattern = regexp.MustCompile(`(?:\+62|\b62|\b0)8[1-9][0-9]{1,2}[-.\s]?[0-9]{3,4}[-.\s]?[0-9]{3,5}\b`)
)

// Detect returns every email address and phone number in text, ordered by position.
// Overlapping matches keep the one that starts first.
func Detect(text string) []Detection {
	var detections []Detection

	for _, match := range emailPattern.FindAllStringIndex(text, -1) {
		detections = append(detections, Detection{
			Type:     SensitiveEmail,
			Value:    text[match[0]:match[1]],
			StartPos: match[0],
			EndPos:   match[1],
		})
	}
	for _, match := range phonePattern.FindAllStringIndex(text, -1) {
		detections = append(detections, Detection{
			Type:     SensitivePhone,
			Value:    text[match[0]:match[1]],
			StartPos: match[0],
			EndPos:   match[1],
		})
	}

	sort.Slice(detections, func(i, j int) bool {
		return detections[i].StartPos < detections[j].StartPos
	})

	kept := detections[:0]
	end := -1
	for _, d := range detections {
		if d.StartPos < end {
			continue
		}
		kept = append(kept, d)
		end = d.EndPos
	}
	return kept
}

// Redact replaces personal data in text with a placeholder per type
func Redact(text string) string {
	detections := Detect(text)
	if len(detections) == 0 {
		return text
	}

	out := make([]byte, 0, len(text))
	last := 0
	for _, d := range detections {
		out = append(out, text[last:d.StartPos]...)
		out = append(out, redactionString(d.Type)...)
		last = d.EndPos
	}
	out = append(out, text[last:]...)
	return string(out)
}

func redactionString(t SensitiveType) string {
	switch t {
	case SensitiveEmail:
		return "[EMAIL_REDACTED]"
	case SensitivePhone:
		return "[PHONE_REDACTED]"
	default:
		return "[REDACTED]"
	}
}

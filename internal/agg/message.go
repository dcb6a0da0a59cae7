package agg

import (
	"strings"

	"github.com/lu-zhengda/mailsweep/internal/provider"
)

// MessageInfo holds one email's extracted facts. It is immutable once built
// and owned by exactly one SenderAggregation.
type MessageInfo struct {
	MessageID string
	Subject   string
	// Date keeps the raw provider header value verbatim for display.
	Date            string
	Snippet         string
	Size            int64
	UnsubscribeLink string
	AgeCategory     string
}

// HeaderValue returns the first case-insensitive match for a header name,
// or "" when the header is absent.
func HeaderValue(headers []provider.Header, name string) string {
	for _, h := range headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// BuildMessageInfo combines header extraction, date classification, and
// unsubscribe validation into one message record. A nil detail marks an
// upstream fetch failure for that id; ok is false and the message is meant
// to be skipped, not treated as an error.
func BuildMessageInfo(messageID string, detail *provider.MessageDetail) (SenderIdentity, MessageInfo, bool) {
	if detail == nil {
		return SenderIdentity{}, MessageInfo{}, false
	}

	from := HeaderValue(detail.Headers, "From")
	subject := HeaderValue(detail.Headers, "Subject")
	date := HeaderValue(detail.Headers, "Date")
	unsubscribe := HeaderValue(detail.Headers, "List-Unsubscribe")

	identity := ExtractSenderInfo(from)

	// ParseDate returns the zero time when nothing matches, which
	// ClassifyAge maps to "older".
	parsed, _ := ParseDate(date)

	info := MessageInfo{
		MessageID:       messageID,
		Subject:         subject,
		Date:            date,
		Snippet:         detail.Snippet,
		Size:            detail.SizeEstimate,
		UnsubscribeLink: ExtractUnsubscribeLink(unsubscribe),
		AgeCategory:     ClassifyAge(parsed),
	}

	return identity, info, true
}

package gmail

import (
	"github.com/lu-zhengda/mailsweep/internal/provider"
	gmailapi "google.golang.org/api/gmail/v1"
)

// mapMessage converts a Gmail API Message to a provider MessageDetail.
func mapMessage(msg *gmailapi.Message) *provider.MessageDetail {
	var headers []provider.Header
	if msg.Payload != nil {
		headers = make([]provider.Header, 0, len(msg.Payload.Headers))
		for _, h := range msg.Payload.Headers {
			if h == nil {
				continue
			}
			headers = append(headers, provider.Header{Name: h.Name, Value: h.Value})
		}
	}

	return &provider.MessageDetail{
		ID:           msg.Id,
		Headers:      headers,
		Snippet:      msg.Snippet,
		SizeEstimate: msg.SizeEstimate,
	}
}

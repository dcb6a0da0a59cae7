package gmail

import (
	"testing"

	gmailapi "google.golang.org/api/gmail/v1"
)

func TestMapMessage(t *testing.T) {
	msg := &gmailapi.Message{
		Id:           "msg123",
		Snippet:      "Your weekly digest...",
		SizeEstimate: 4096,
		Payload: &gmailapi.MessagePart{
			Headers: []*gmailapi.MessagePartHeader{
				{Name: "From", Value: "Alice <alice@example.com>"},
				{Name: "Subject", Value: "Test Subject"},
				{Name: "Date", Value: "Mon, 01 Jan 2024 12:00:00 +0000"},
				{Name: "List-Unsubscribe", Value: "<https://example.com/unsub>"},
			},
		},
	}

	detail := mapMessage(msg)
	if detail.ID != "msg123" {
		t.Errorf("ID = %q, want %q", detail.ID, "msg123")
	}
	if detail.Snippet != "Your weekly digest..." {
		t.Errorf("Snippet = %q", detail.Snippet)
	}
	if detail.SizeEstimate != 4096 {
		t.Errorf("SizeEstimate = %d, want 4096", detail.SizeEstimate)
	}
	if len(detail.Headers) != 4 {
		t.Fatalf("got %d headers, want 4", len(detail.Headers))
	}
	if detail.Headers[0].Name != "From" || detail.Headers[0].Value != "Alice <alice@example.com>" {
		t.Errorf("first header = %+v", detail.Headers[0])
	}
}

func TestMapMessage_NoPayload(t *testing.T) {
	detail := mapMessage(&gmailapi.Message{Id: "msg1"})
	if detail.ID != "msg1" {
		t.Errorf("ID = %q, want %q", detail.ID, "msg1")
	}
	if len(detail.Headers) != 0 {
		t.Errorf("got %d headers, want 0", len(detail.Headers))
	}
}

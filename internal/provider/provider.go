package provider

import "context"

// Header is a single message header as exposed by the mail provider.
type Header struct {
	Name  string
	Value string
}

// MessageDetail is the metadata fetched for one message. A nil
// *MessageDetail in a batch result marks a message whose details could not
// be retrieved.
type MessageDetail struct {
	ID           string
	Headers      []Header
	Snippet      string
	SizeEstimate int64
}

// FilterAction is what a server-side filter does with matching mail.
type FilterAction string

const (
	FilterActionTrash   FilterAction = "trash"
	FilterActionSpam    FilterAction = "spam"
	FilterActionArchive FilterAction = "archive"
	FilterActionRead    FilterAction = "read"
)

// FilterCriteria selects messages for a new server-side filter. Exactly one
// of SenderEmail or Domain should be set.
type FilterCriteria struct {
	SenderEmail string
	Domain      string
	Action      FilterAction
}

// MessageSource is the provider surface the aggregation engine and triage
// actions consume.
//
// ListMessageIDs is best-effort: when pagination fails partway it returns
// the ids gathered so far together with the error, and callers are expected
// to proceed with the partial list.
//
// GetMessageDetails returns one entry per requested id, positionally
// aligned, with nil marking a per-id fetch failure. Retry on rate limiting
// is the implementation's responsibility.
type MessageSource interface {
	ListMessageIDs(ctx context.Context, maxResults int, query string) ([]string, error)
	GetMessageDetails(ctx context.Context, ids []string) ([]*MessageDetail, error)

	MarkAsSpam(ctx context.Context, ids []string) error
	TrashMessages(ctx context.Context, ids []string) error
	CreateFilter(ctx context.Context, criteria FilterCriteria) (string, error)

	// EmailAddress reports the address of the authenticated mailbox.
	EmailAddress() string
}

package gmail

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/lu-zhengda/mailsweep/internal/provider"
	"github.com/lu-zhengda/mailsweep/internal/store"
	"golang.org/x/oauth2"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	userID = "me"

	// Users.Messages.List caps page size at 500.
	listPageSize = 500

	// Users.Messages.BatchModify accepts at most 1000 ids per call.
	batchModifyLimit = 1000

	maxFetchRetries = 3
)

// Client implements the provider.MessageSource interface for Gmail.
type Client struct {
	tokenStore *store.KeyringTokenStore
	accountID  string
	email      string
	service    *gmailapi.Service
	token      *oauth2.Token
}

// New creates a new Gmail client for the given account.
func New(accountID, email string, tokenStore *store.KeyringTokenStore) *Client {
	return &Client{
		accountID:  accountID,
		email:      email,
		tokenStore: tokenStore,
	}
}

// Authenticate runs the OAuth2 flow, saves the token, and initializes the Gmail service.
func (c *Client) Authenticate(ctx context.Context) error {
	token, err := authenticate(ctx)
	if err != nil {
		return fmt.Errorf("failed to authenticate gmail: %w", err)
	}

	if err := c.tokenStore.SaveToken(c.accountID, token); err != nil {
		return fmt.Errorf("failed to save gmail token: %w", err)
	}

	c.token = token
	srv, err := gmailapi.NewService(ctx, option.WithTokenSource(oauthConfig.TokenSource(ctx, token)))
	if err != nil {
		return fmt.Errorf("failed to create gmail service: %w", err)
	}
	c.service = srv
	return nil
}

// IsAuthenticated returns true if the Gmail service is initialized.
func (c *Client) IsAuthenticated() bool {
	return c.service != nil
}

// initService loads the token from the keyring and creates the Gmail service.
func (c *Client) initService(ctx context.Context) error {
	token, err := c.tokenStore.LoadToken(c.accountID)
	if err != nil {
		return fmt.Errorf("failed to load gmail token: %w", err)
	}

	c.token = token
	srv, err := gmailapi.NewService(ctx, option.WithTokenSource(oauthConfig.TokenSource(ctx, token)))
	if err != nil {
		return fmt.Errorf("failed to create gmail service: %w", err)
	}
	c.service = srv
	return nil
}

// ensureService lazily initializes the Gmail service if not already done.
func (c *Client) ensureService(ctx context.Context) error {
	if c.service != nil {
		return nil
	}
	return c.initService(ctx)
}

// ListMessageIDs pages through Users.Messages.List collecting message ids
// until maxResults is reached or the listing is exhausted. A failure mid
// pagination returns the ids gathered so far along with the error.
func (c *Client) ListMessageIDs(ctx context.Context, maxResults int, query string) ([]string, error) {
	if err := c.ensureService(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure gmail service: %w", err)
	}

	var ids []string
	pageToken := ""
	for {
		pageSize := int64(listPageSize)
		if maxResults > 0 {
			if remaining := maxResults - len(ids); remaining < listPageSize {
				pageSize = int64(remaining)
			}
		}

		call := c.service.Users.Messages.List(userID).MaxResults(pageSize)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		if query != "" {
			call = call.Q(query)
		}

		resp, err := call.Context(ctx).Do()
		if err != nil {
			return ids, fmt.Errorf("failed to list gmail messages: %w", err)
		}

		for _, m := range resp.Messages {
			ids = append(ids, m.Id)
		}

		pageToken = resp.NextPageToken
		if pageToken == "" || (maxResults > 0 && len(ids) >= maxResults) {
			break
		}
	}

	if maxResults > 0 && len(ids) > maxResults {
		ids = ids[:maxResults]
	}
	return ids, nil
}

// metadataHeaders are the only headers the aggregation pipeline needs;
// fetching with format=metadata keeps message bodies off the wire.
var metadataHeaders = []string{"From", "Subject", "Date", "List-Unsubscribe"}

// GetMessageDetails fetches metadata for each id. The result is aligned with
// the input: the slot for an id whose fetch failed is nil. Only a canceled
// context aborts the whole call.
func (c *Client) GetMessageDetails(ctx context.Context, ids []string) ([]*provider.MessageDetail, error) {
	if err := c.ensureService(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure gmail service: %w", err)
	}

	details := make([]*provider.MessageDetail, len(ids))
	for i, id := range ids {
		msg, err := c.getWithRetry(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return details, ctx.Err()
			}
			continue
		}
		details[i] = mapMessage(msg)
	}
	return details, nil
}

// getWithRetry fetches one message, backing off and retrying when the API
// reports rate limiting or a transient server error.
func (c *Client) getWithRetry(ctx context.Context, id string) (*gmailapi.Message, error) {
	backoff := time.Second
	for attempt := 0; ; attempt++ {
		msg, err := c.service.Users.Messages.Get(userID, id).
			Format("metadata").
			MetadataHeaders(metadataHeaders...).
			Context(ctx).Do()
		if err == nil {
			return msg, nil
		}
		if attempt >= maxFetchRetries || !isRetryable(err) {
			return nil, fmt.Errorf("failed to get gmail message %s: %w", id, err)
		}

		select {
		case <-time.After(backoff):
			backoff *= 2
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func isRetryable(err error) bool {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= 500
}

// MarkAsSpam moves the messages to spam and out of the inbox.
func (c *Client) MarkAsSpam(ctx context.Context, ids []string) error {
	return c.batchModify(ctx, ids, []string{"SPAM"}, []string{"INBOX"})
}

// TrashMessages moves the messages to trash and out of the inbox.
func (c *Client) TrashMessages(ctx context.Context, ids []string) error {
	return c.batchModify(ctx, ids, []string{"TRASH"}, []string{"INBOX"})
}

func (c *Client) batchModify(ctx context.Context, ids, add, remove []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := c.ensureService(ctx); err != nil {
		return fmt.Errorf("failed to ensure gmail service: %w", err)
	}

	for start := 0; start < len(ids); start += batchModifyLimit {
		end := min(start+batchModifyLimit, len(ids))
		req := &gmailapi.BatchModifyMessagesRequest{
			Ids:            ids[start:end],
			AddLabelIds:    add,
			RemoveLabelIds: remove,
		}
		if err := c.service.Users.Messages.BatchModify(userID, req).Context(ctx).Do(); err != nil {
			return fmt.Errorf("failed to batch modify %d gmail messages: %w", end-start, err)
		}
	}
	return nil
}

// CreateFilter installs a server-side filter matching the given criteria and
// returns the new filter's id.
func (c *Client) CreateFilter(ctx context.Context, criteria provider.FilterCriteria) (string, error) {
	if err := c.ensureService(ctx); err != nil {
		return "", fmt.Errorf("failed to ensure gmail service: %w", err)
	}

	from := criteria.SenderEmail
	if from == "" && criteria.Domain != "" {
		from = "@" + criteria.Domain
	}
	if from == "" {
		return "", fmt.Errorf("filter criteria needs a sender email or domain")
	}

	action := &gmailapi.FilterAction{}
	switch criteria.Action {
	case provider.FilterActionTrash:
		action.AddLabelIds = []string{"TRASH"}
	case provider.FilterActionSpam:
		action.AddLabelIds = []string{"SPAM"}
	case provider.FilterActionArchive:
		action.RemoveLabelIds = []string{"INBOX"}
	case provider.FilterActionRead:
		action.RemoveLabelIds = []string{"UNREAD"}
	default:
		return "", fmt.Errorf("unknown filter action %q", criteria.Action)
	}

	filter := &gmailapi.Filter{
		Criteria: &gmailapi.FilterCriteria{From: from},
		Action:   action,
	}
	created, err := c.service.Users.Settings.Filters.Create(userID, filter).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to create gmail filter for %s: %w", from, err)
	}
	return created.Id, nil
}

// EmailAddress returns the account's email address.
func (c *Client) EmailAddress() string {
	return c.email
}

// GetProfile returns the authenticated user's email address.
func (c *Client) GetProfile(ctx context.Context) (string, error) {
	if err := c.ensureService(ctx); err != nil {
		return "", fmt.Errorf("failed to ensure gmail service: %w", err)
	}

	profile, err := c.service.Users.GetProfile(userID).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to get gmail profile: %w", err)
	}
	return profile.EmailAddress, nil
}

// Compile-time interface compliance check.
var _ provider.MessageSource = (*Client)(nil)

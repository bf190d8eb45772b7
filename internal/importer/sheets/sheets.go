// Package sheets reads import rows from a Google Sheets range.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// ErrNoCredentials indicates no service account was configured.
var ErrNoCredentials = errors.New("missing service account credentials")

// Credentials locates a service account key. JSON takes precedence over File.
type Credentials struct {
	JSON string
	File string
}

func (c Credentials) load() ([]byte, error) {
	switch {
	case strings.TrimSpace(c.JSON) != "":
		return []byte(c.JSON), nil
	case strings.TrimSpace(c.File) != "":
		b, err := os.ReadFile(c.File)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	}
	return nil, ErrNoCredentials
}

// Client reads values from spreadsheets.
type Client struct {
	svc *gsheet.Service
}

// New creates a read-only Sheets client from service account credentials.
func New(ctx context.Context, creds Credentials) (*Client, error) {
	key, err := creds.load()
	if err != nil {
		return nil, err
	}
	slog.DebugContext(ctx, "creating sheets service", "credentials_size", len(key))
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(key),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Client{svc: svc}, nil
}

// NewWithOptions creates a client from explicit API options.
func NewWithOptions(ctx context.Context, opts ...goption.ClientOption) (*Client, error) {
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Client{svc: svc}, nil
}

// Values returns the formatted cell values of a range.
func (c *Client) Values(ctx context.Context, spreadsheetID, rng string) ([][]string, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(spreadsheetID, rng).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	out := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		out[i] = toStrings(row)
	}
	return out, nil
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

// Range is an import source over one spreadsheet range.
type Range struct {
	Client        *Client
	SpreadsheetID string
	Range         string
}

func (r Range) Name() string { return "sheets:" + r.SpreadsheetID + "/" + r.Range }

func (r Range) Read(ctx context.Context) ([][]string, error) {
	return r.Client.Values(ctx, r.SpreadsheetID, r.Range)
}

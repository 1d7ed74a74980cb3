// Package workspace wraps the Google services the pipeline touches: Drive
// folder listings, Docs text retrieval, and Sheets column reads and cell
// writes. All access is authenticated through one service account key.
package workspace

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"google.golang.org/api/docs/v1"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Services bundles the authenticated API clients.
type Services struct {
	drive  *drive.Service
	docs   *docs.Service
	sheets *sheets.Service
	logf   func(format string, args ...any)
}

// Option customizes Services during construction.
type Option func(*Services)

// WithLogf routes adapter diagnostics (retries, fallbacks) to the given
// printf-style sink.
func WithLogf(logf func(format string, args ...any)) Option {
	return func(s *Services) {
		if logf != nil {
			s.logf = logf
		}
	}
}

// NewServices builds Drive, Docs and Sheets clients from a service account
// key file. Drive and Docs are read-only; Sheets needs write access for the
// standards column.
func NewServices(ctx context.Context, credentialsPath string, opts ...Option) (*Services, error) {
	if _, err := os.Stat(credentialsPath); err != nil {
		return nil, fmt.Errorf("workspace: credentials file: %w", err)
	}
	driveSvc, err := drive.NewService(ctx,
		option.WithCredentialsFile(credentialsPath),
		option.WithScopes(drive.DriveReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("workspace: build drive client: %w", err)
	}
	docsSvc, err := docs.NewService(ctx,
		option.WithCredentialsFile(credentialsPath),
		option.WithScopes(docs.DocumentsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("workspace: build docs client: %w", err)
	}
	sheetsSvc, err := sheets.NewService(ctx,
		option.WithCredentialsFile(credentialsPath),
		option.WithScopes(sheets.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("workspace: build sheets client: %w", err)
	}
	s := &Services{
		drive:  driveSvc,
		docs:   docsSvc,
		sheets: sheetsSvc,
		logf:   func(string, ...any) {},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ServiceAccountEmail reads the client_email out of a service account key
// file. Folders must be shared with this identity or listings come back
// empty, so callers surface it early in the run journal.
func ServiceAccountEmail(credentialsPath string) (string, error) {
	data, err := os.ReadFile(credentialsPath)
	if err != nil {
		return "", fmt.Errorf("workspace: read credentials: %w", err)
	}
	var key struct {
		ClientEmail string `json:"client_email"`
	}
	if err := json.Unmarshal(data, &key); err != nil {
		return "", fmt.Errorf("workspace: parse credentials: %w", err)
	}
	if key.ClientEmail == "" {
		return "", fmt.Errorf("workspace: credentials file has no client_email")
	}
	return key.ClientEmail, nil
}

package workspace

import (
	"context"
	"fmt"

	"github.com/kingrea/chalkline/internal/lessonplan"

	"google.golang.org/api/drive/v3"
)

const listPageSize = 100

// ListFolder returns the immediate children of a Drive folder. When the
// trashed-filtered listing comes back empty it retries once without the
// filter; some shares only answer the unfiltered query.
func (s *Services) ListFolder(ctx context.Context, folderID string) ([]lessonplan.File, error) {
	files, err := s.listChildren(ctx, folderID, true)
	if err != nil {
		return nil, accessError("folder "+folderID, err)
	}
	if len(files) == 0 {
		retried, retryErr := s.listChildren(ctx, folderID, false)
		if retryErr == nil && len(retried) > 0 {
			s.logf("folder %s: unfiltered retry surfaced %d items", folderID, len(retried))
			return retried, nil
		}
	}
	return files, nil
}

func (s *Services) listChildren(ctx context.Context, folderID string, excludeTrashed bool) ([]lessonplan.File, error) {
	query := fmt.Sprintf("'%s' in parents", folderID)
	if excludeTrashed {
		query += " and trashed = false"
	}
	resp, err := s.drive.Files.List().
		Q(query).
		Fields("files(id, name, mimeType, webViewLink)").
		PageSize(listPageSize).
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	return toFiles(resp.Files), nil
}

func toFiles(items []*drive.File) []lessonplan.File {
	files := make([]lessonplan.File, 0, len(items))
	for _, item := range items {
		files = append(files, lessonplan.File{
			ID:       item.Id,
			Name:     item.Name,
			MimeType: item.MimeType,
			ViewLink: item.WebViewLink,
		})
	}
	return files
}

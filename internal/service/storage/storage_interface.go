package storage

import (
	"context"
)

// FileStore is the narrow contract the submission mirror needs from the
// remote store: hierarchical folders located by name under a parent
// (find-or-create), and file uploads into a folder.
type FileStore interface {
	FindOrCreateFolder(ctx context.Context, parentID, name string) (string, error)
	UploadFile(ctx context.Context, folderID, fileName string, content []byte, mimeType string) (string, error)
}

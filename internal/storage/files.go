package storage

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// FileManager owns the on-disk layout: uploaded captures under
// uploads/, rendered report artifacts under documents/.
type FileManager struct {
	baseDir        string
	uploadDir      string
	documentDir    string
	maxUploadBytes int64
}

var mimeExtensionFallback = map[string]string{
	"image/jpeg":  ".jpg",
	"image/png":   ".png",
	"audio/mpeg":  ".mp3",
	"audio/mp3":   ".mp3",
	"audio/mp4":   ".m4a",
	"audio/x-m4a": ".m4a",
	"audio/wav":   ".wav",
	"audio/x-wav": ".wav",
	"audio/webm":  ".webm",
	"audio/ogg":   ".ogg",
	"audio/flac":  ".flac",
	"audio/aac":   ".aac",
	"video/mp4":   ".m4a",
}

func NewFileManager(baseDir string, maxUploadBytes int64) (*FileManager, error) {
	fm := &FileManager{
		baseDir:        baseDir,
		uploadDir:      filepath.Join(baseDir, "uploads"),
		documentDir:    filepath.Join(baseDir, "documents"),
		maxUploadBytes: maxUploadBytes,
	}

	dirs := []string{fm.baseDir, fm.uploadDir, fm.documentDir}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create dir %s: %w", dir, err)
		}
	}

	return fm, nil
}

// SaveUpload keeps a copy of the raw capture on disk and returns its
// path. The capture itself stays in memory for the pipeline; this copy
// exists for auditing and reprocessing.
func (fm *FileManager) SaveUpload(data []byte, filename string) (string, error) {
	if fm.maxUploadBytes > 0 && int64(len(data)) > fm.maxUploadBytes {
		return "", fmt.Errorf("upload exceeds maximum size")
	}

	ext := normalizeExtension(filename)
	if ext == "" {
		contentType := strings.ToLower(http.DetectContentType(data))
		ext = fallbackExtension(contentType)
	}
	if ext == "" {
		ext = ".bin"
	}

	path := filepath.Join(fm.uploadDir, uuid.NewString()+ext)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}

	return path, nil
}

// SaveDocument writes a rendered artifact (docx or pdf) for a session.
func (fm *FileManager) SaveDocument(sessionID, ext string, data []byte) (string, error) {
	path := fm.DocumentPath(sessionID, ext)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write document: %w", err)
	}
	return path, nil
}

func (fm *FileManager) DocumentPath(sessionID, ext string) string {
	return filepath.Join(fm.documentDir, sessionID+ext)
}

func normalizeExtension(filename string) string {
	ext := strings.ToLower(strings.TrimSpace(filepath.Ext(filename)))
	if ext == "" {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

func fallbackExtension(contentType string) string {
	if ext, ok := mimeExtensionFallback[contentType]; ok {
		return ext
	}
	exts, err := mime.ExtensionsByType(contentType)
	if err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}

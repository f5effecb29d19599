// Package upload holds the single pending scan and its preview copy
// prior to submission.
package upload

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrNoFile          = errors.New("no file selected")
	ErrMultipleFiles   = errors.New("only one file can be analyzed at a time")
	ErrInvalidFileType = errors.New("invalid file type")
	ErrStagingLocked   = errors.New("staging is disabled while a history result is displayed")
)

var acceptedMIMEs = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

// StagedFile is the one pending upload. Preview is a locally written
// copy the presentation layer can render without any network access.
type StagedFile struct {
	Name        string
	MIME        string
	Data        []byte
	PreviewPath string
}

// Staging accepts at most one file at a time. Locking models the
// authenticated dashboard refusing drops while a history-selected
// result is on screen.
type Staging struct {
	previewDir string
	staged     *StagedFile
	locked     bool
}

func NewStaging(previewDir string) *Staging {
	return &Staging{previewDir: previewDir}
}

func (s *Staging) Staged() *StagedFile {
	return s.staged
}

func (s *Staging) HasFile() bool {
	return s.staged != nil
}

func (s *Staging) Lock()   { s.locked = true }
func (s *Staging) Unlock() { s.locked = false }
func (s *Staging) Locked() bool {
	return s.locked
}

// Validate checks a prospective drop without touching current state, so
// callers can order their own side effects around a stage that is known
// to succeed.
func (s *Staging) Validate(paths ...string) error {
	if s.locked {
		return ErrStagingLocked
	}
	if len(paths) == 0 {
		return ErrNoFile
	}
	if len(paths) > 1 {
		return ErrMultipleFiles
	}

	data, err := os.ReadFile(paths[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", paths[0], err)
	}
	if _, err := detectMIME(paths[0], data); err != nil {
		return err
	}
	return nil
}

// Stage replaces any previously staged file with the given one. A
// rejected drop leaves the prior staged file untouched.
func (s *Staging) Stage(paths ...string) (*StagedFile, error) {
	if err := s.Validate(paths...); err != nil {
		return nil, err
	}

	path := paths[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	mime, err := detectMIME(path, data)
	if err != nil {
		return nil, err
	}

	preview, err := s.writePreview(data, mime)
	if err != nil {
		return nil, err
	}

	s.Clear()
	s.staged = &StagedFile{
		Name:        filepath.Base(path),
		MIME:        mime,
		Data:        data,
		PreviewPath: preview,
	}
	return s.staged, nil
}

// Clear releases the staged file and its preview copy. Safe to call at
// any time, any number of times.
func (s *Staging) Clear() {
	if s.staged == nil {
		return
	}
	if s.staged.PreviewPath != "" {
		os.Remove(s.staged.PreviewPath)
	}
	s.staged = nil
}

func (s *Staging) writePreview(data []byte, mime string) (string, error) {
	if err := os.MkdirAll(s.previewDir, 0755); err != nil {
		return "", fmt.Errorf("create preview directory: %w", err)
	}
	path := filepath.Join(s.previewDir, uuid.New().String()+acceptedMIMEs[mime])
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write preview: %w", err)
	}
	return path, nil
}

// detectMIME sniffs the content and falls back to the extension for
// the jpeg/png distinction when sniffing is inconclusive.
func detectMIME(path string, data []byte) (string, error) {
	sniffed := http.DetectContentType(data)
	if _, ok := acceptedMIMEs[sniffed]; ok {
		return sniffed, nil
	}

	if sniffed == "application/octet-stream" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".jpg", ".jpeg":
			return "image/jpeg", nil
		case ".png":
			return "image/png", nil
		}
	}
	return "", ErrInvalidFileType
}

package models

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/desertthunder/teltube/internal/shared"
)

// DefaultMediaFilename is sent when a media file has no name.
const DefaultMediaFilename = "video.mp4"

// MediaFile is a binary blob held fully in memory.
type MediaFile struct {
	Name string
	Data []byte
}

// ReadMediaFile loads the file at path into memory.
func ReadMediaFile(path string) (*MediaFile, error) {
	data, err := shared.VerifyAndReadFile(path)
	if err != nil {
		return nil, err
	}
	return &MediaFile{Name: filepath.Base(path), Data: data}, nil
}

// Filename returns the name to send to the upload endpoint.
func (m *MediaFile) Filename() string {
	if m == nil || strings.TrimSpace(m.Name) == "" {
		return DefaultMediaFilename
	}
	return m.Name
}

// Size returns the length of the blob in bytes.
func (m *MediaFile) Size() int64 {
	if m == nil {
		return 0
	}
	return int64(len(m.Data))
}

// Draft is unsaved upload input. It lives in memory only and is cleared after a successful publish.
//
// ID identifies the draft for its whole lifetime, including across [Draft.Clear].
type Draft struct {
	mu          sync.Mutex
	ID          string
	Title       string
	Description string
	Media       *MediaFile
	Thumbnail   *MediaFile
	MaxBytes    int64 // 0 disables the size check
}

// NewDraft creates an empty draft with a fresh id.
func NewDraft() *Draft {
	return &Draft{ID: shared.GenerateID()}
}

// AttachMedia reads the primary media file from path.
func (d *Draft) AttachMedia(path string) error {
	m, err := ReadMediaFile(path)
	if err != nil {
		return err
	}
	d.Media = m
	return nil
}

// AttachThumbnail reads the optional thumbnail from path. An empty path detaches it.
func (d *Draft) AttachThumbnail(path string) error {
	if strings.TrimSpace(path) == "" {
		d.Thumbnail = nil
		return nil
	}
	m, err := ReadMediaFile(path)
	if err != nil {
		return err
	}
	d.Thumbnail = m
	return nil
}

// Validate checks the local preconditions of a publish.
func (d *Draft) Validate() error {
	if d == nil {
		return shared.Validationf("nothing to upload")
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	switch {
	case strings.TrimSpace(d.Title) == "":
		return shared.Validationf("title is required")
	case d.Media == nil || len(d.Media.Data) == 0:
		return shared.Validationf("choose a video file")
	case d.MaxBytes > 0 && d.Media.Size() > d.MaxBytes:
		return shared.Validationf("%s is larger than %d MB", d.Media.Filename(), d.MaxBytes>>20)
	}
	return nil
}

// IsEmpty reports whether the draft holds no user input.
func (d *Draft) IsEmpty() bool {
	if d == nil {
		return true
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.Title == "" && d.Description == "" && d.Media == nil && d.Thumbnail == nil
}

// Snapshot returns a copy of the draft's current input. Publishing works on a snapshot so a
// concurrent [Draft.Clear] cannot change what is being sent.
func (d *Draft) Snapshot() *Draft {
	if d == nil {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return &Draft{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		Media:       d.Media,
		Thumbnail:   d.Thumbnail,
		MaxBytes:    d.MaxBytes,
	}
}

// Clear discards the user input, keeping the id and size limit.
func (d *Draft) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Title = ""
	d.Description = ""
	d.Media = nil
	d.Thumbnail = nil
}

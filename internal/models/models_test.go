package models

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/desertthunder/teltube/internal/shared"
)

func int64Ptr(v int64) *int64 { return &v }

func TestSession(t *testing.T) {
	identity := &Identity{ID: int64Ptr(7), Email: "a@b.co", Name: "Ann"}

	t.Run("NewSession requires both halves", func(t *testing.T) {
		if NewSession(identity, "") != nil {
			t.Error("expected nil session without token")
		}
		if NewSession(nil, "tok") != nil {
			t.Error("expected nil session without identity")
		}
		if s := NewSession(identity, "tok"); !s.Valid() {
			t.Error("expected valid session")
		}
	})

	t.Run("Validate", func(t *testing.T) {
		var s *Session
		if err := s.Validate(); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
		if err := (&Session{Identity: identity, Token: "  "}).Validate(); err == nil {
			t.Error("expected blank token to be invalid")
		}
	})

	t.Run("Identity accessors", func(t *testing.T) {
		if identity.UserID() != 7 {
			t.Errorf("expected id 7, got %d", identity.UserID())
		}
		if (&Identity{Email: "x@y.z"}).DisplayName() != "x@y.z" {
			t.Error("expected display name to fall back to email")
		}
		var none *Identity
		if none.HasID() || none.UserID() != 0 || none.DisplayName() != "" {
			t.Error("nil identity accessors should return zero values")
		}
	})

	t.Run("Identity JSON omits missing id", func(t *testing.T) {
		data, err := json.Marshal(Identity{Email: "a@b.co", Name: "Ann"})
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}
		var raw map[string]any
		if err := json.Unmarshal(data, &raw); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if _, ok := raw["id"]; ok {
			t.Errorf("expected id to be omitted, got %s", data)
		}
	})
}

func TestDraft(t *testing.T) {
	media := &MediaFile{Name: "clip.mp4", Data: []byte("frames")}

	tc := []struct {
		name  string
		draft *Draft
		valid bool
	}{
		{name: "nil draft", draft: nil},
		{name: "empty title with file", draft: &Draft{Title: "", Media: media}},
		{name: "whitespace title", draft: &Draft{Title: "   ", Media: media}},
		{name: "missing media", draft: &Draft{Title: "Trip"}},
		{name: "empty media", draft: &Draft{Title: "Trip", Media: &MediaFile{Name: "x.mp4"}}},
		{name: "over size cap", draft: &Draft{Title: "Trip", Media: media, MaxBytes: 3}},
		{name: "valid", draft: &Draft{Title: "Trip", Media: media}, valid: true},
		{name: "valid under cap", draft: &Draft{Title: "Trip", Media: media, MaxBytes: 1 << 20}, valid: true},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.draft.Validate()
			if tt.valid && err != nil {
				t.Errorf("expected valid draft, got %v", err)
			}
			if !tt.valid && !errors.Is(err, shared.ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}

	t.Run("Clear keeps id", func(t *testing.T) {
		d := NewDraft()
		id := d.ID
		d.Title, d.Description, d.Media = "Trip", "Summer", media

		d.Clear()

		if !d.IsEmpty() {
			t.Error("expected draft to be empty after Clear")
		}
		if d.ID != id {
			t.Errorf("expected id %s to survive Clear, got %s", id, d.ID)
		}
	})

	t.Run("Validate alongside Clear", func(t *testing.T) {
		d := NewDraft()
		d.Title, d.Media = "Trip", media

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for range 100 {
				_ = d.Validate()
			}
		}()
		go func() {
			defer wg.Done()
			d.Clear()
		}()
		wg.Wait()

		if err := d.Validate(); !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected cleared draft to be invalid, got %v", err)
		}
	})

	t.Run("Attach files", func(t *testing.T) {
		dir := t.TempDir()
		video := filepath.Join(dir, "trip.mp4")
		thumb := filepath.Join(dir, "trip.jpg")
		for _, p := range []string{video, thumb} {
			if err := os.WriteFile(p, []byte("bytes"), 0644); err != nil {
				t.Fatalf("failed to write %s: %v", p, err)
			}
		}

		d := NewDraft()
		if err := d.AttachMedia(video); err != nil {
			t.Fatalf("AttachMedia: %v", err)
		}
		if err := d.AttachThumbnail(thumb); err != nil {
			t.Fatalf("AttachThumbnail: %v", err)
		}
		if d.Media.Filename() != "trip.mp4" || d.Thumbnail.Filename() != "trip.jpg" {
			t.Errorf("unexpected filenames %s, %s", d.Media.Filename(), d.Thumbnail.Filename())
		}

		if err := d.AttachThumbnail(""); err != nil || d.Thumbnail != nil {
			t.Errorf("expected empty path to detach thumbnail, got %v", err)
		}
		if err := d.AttachMedia(filepath.Join(dir, "missing.mp4")); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("default filename", func(t *testing.T) {
		if (&MediaFile{Data: []byte("x")}).Filename() != DefaultMediaFilename {
			t.Error("expected default filename for unnamed media")
		}
	})
}

func TestCatalogEntry(t *testing.T) {
	t.Run("decodes listing row", func(t *testing.T) {
		raw := `{"id": 3, "user_id": 7, "title": "Trip", "description": null, "video_url": "u",
			"thumbnail_url": "t", "duration": 125, "views": 9, "channel_name": "Ann",
			"channel_avatar": "", "created_at": "2024-05-01 10:00:00"}`

		var e CatalogEntry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if e.ID != 3 || e.OwnerID != 7 || e.Views != 9 {
			t.Errorf("unexpected ids/views: %+v", e)
		}
		if e.Seconds() != 125 {
			t.Errorf("expected 125 seconds, got %d", e.Seconds())
		}
	})

	t.Run("Seconds", func(t *testing.T) {
		tc := map[json.Number]int{"": 0, "12.6": 13, "-1": 0, "abc": 0, "60": 60}
		for in, want := range tc {
			if got := (CatalogEntry{Duration: in}).Seconds(); got != want {
				t.Errorf("Seconds(%q) = %d, want %d", in, got, want)
			}
		}
	})

	t.Run("UploadResult keeps duration verbatim", func(t *testing.T) {
		var r UploadResult
		if err := json.Unmarshal([]byte(`{"video_url":"u","thumbnail_url":"t","duration":125}`), &r); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if r.DurationOrZero() != "125" {
			t.Errorf("expected 125, got %s", r.DurationOrZero())
		}
		if (&UploadResult{}).DurationOrZero() != "0" {
			t.Error("expected missing duration to become 0")
		}
	})
}

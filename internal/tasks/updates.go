package tasks

import (
	"fmt"

	"github.com/desertthunder/teltube/internal/models"
	"github.com/desertthunder/teltube/internal/shared"
)

// ProgressUpdate represents a progress event during a publish.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number
	Total   int    // Total steps
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Phase names a step of the publish saga.
type Phase int

const (
	Validate Phase = iota
	Encode
	Upload
	Register
	Done
)

// publishSteps counts the phases that report progress before [Done].
const publishSteps = 4

func (p Phase) String() string {
	switch p {
	case Validate:
		return "validate"
	case Encode:
		return "encode"
	case Upload:
		return "upload"
	case Register:
		return "register"
	case Done:
		return "done"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func validateUpdate(title string) ProgressUpdate {
	return ProgressUpdate{Phase: Validate, Step: 1, Total: publishSteps, Message: fmt.Sprintf("Checking %q", title)}
}

func encodeUpdate(media *models.MediaFile) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Encode,
		Step:    2,
		Total:   publishSteps,
		Message: fmt.Sprintf("Encoding %s (%s)", media.Filename(), shared.FormatBytes(media.Size())),
	}
}

func uploadUpdate(filename string, encodedBytes int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Upload,
		Step:    3,
		Total:   publishSteps,
		Message: fmt.Sprintf("Uploading %s", filename),
		Data:    encodedBytes,
	}
}

func registerUpdate(uploaded *models.UploadResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Register,
		Step:    4,
		Total:   publishSteps,
		Message: "Registering video in the catalog",
		Data:    uploaded,
	}
}

func doneUpdate(ref *models.CatalogEntryRef) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Done,
		Step:    publishSteps,
		Total:   publishSteps,
		Message: fmt.Sprintf("Published %q (#%d)", ref.Title, ref.ID),
		Data:    ref,
	}
}

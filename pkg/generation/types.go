package generation

import "strings"

// Status enumerates the normalized task states reported by the provider.
type Status string

const (
	// StatusPending indicates the provider accepted the task but has not started it.
	StatusPending Status = "PENDING"
	// StatusProcessing indicates the video is being generated.
	StatusProcessing Status = "PROCESSING"
	// StatusSuccess indicates the video is ready.
	StatusSuccess Status = "SUCCESS"
	// StatusFail indicates the provider gave up on the task.
	StatusFail Status = "FAIL"
)

// IsTerminal reports whether no further polling can change the status.
func (s Status) IsTerminal() bool {
	return s == StatusSuccess || s == StatusFail
}

// NormalizeStatus maps a raw provider status onto the Status enum. An empty
// value means the provider has not reported anything yet; unknown values are
// treated as work in progress.
func NormalizeStatus(raw string) Status {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "":
		return StatusPending
	case string(StatusPending):
		return StatusPending
	case string(StatusProcessing):
		return StatusProcessing
	case string(StatusSuccess):
		return StatusSuccess
	case string(StatusFail):
		return StatusFail
	default:
		return StatusProcessing
	}
}

// Quality selects the provider's speed/fidelity trade-off.
type Quality string

const (
	QualitySpeed   Quality = "speed"
	QualityQuality Quality = "quality"
)

// Task is a provider-side generation job. VideoURL is only set once the
// task reached StatusSuccess and a result location could be resolved.
type Task struct {
	ID       string `json:"taskId"`
	Status   Status `json:"status"`
	VideoURL string `json:"videoUrl,omitempty"`
}

// Request is the payload accepted by the submission endpoint.
type Request struct {
	ImageData string `json:"imageData"`
	Prompt    string `json:"prompt,omitempty"`
	Quality   string `json:"quality,omitempty" validate:"omitempty,oneof=speed quality"`
	Duration  int    `json:"duration,omitempty" validate:"omitempty,oneof=5 10"`
	FPS       int    `json:"fps,omitempty" validate:"omitempty,oneof=30 60"`
	Size      string `json:"size,omitempty" validate:"omitempty,resolution"`
}

// Params are the fully defaulted generation parameters forwarded to the provider.
type Params struct {
	ImageURL string
	Prompt   string
	Quality  Quality
	Duration int
	FPS      int
	Size     string
}

// Defaults applied when a request omits a parameter.
const (
	DefaultPrompt   = "Make this image come alive with smooth, loopable motion"
	DefaultQuality  = QualitySpeed
	DefaultDuration = 5
	DefaultFPS      = 30
	DefaultSize     = "1024x1024"
)

// Resolutions lists the output sizes the provider accepts, square first.
var Resolutions = []string{
	"1024x1024",
	"1280x720",
	"720x1280",
	"1920x1080",
	"1080x1920",
	"2048x1080",
	"3840x2160",
}

// IsResolution reports whether size is one of Resolutions.
func IsResolution(size string) bool {
	for _, r := range Resolutions {
		if r == size {
			return true
		}
	}
	return false
}

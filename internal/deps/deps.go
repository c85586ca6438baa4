// Package deps detects the optional external binaries racenotes can use.
// Availability is resolved once at startup; components are constructed in
// their degraded variants when a backend is missing rather than re-checking
// on the hot path.
package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement defines an external dependency racenotes relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if resolved, err := exec.LookPath(cmd); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
		} else {
			status.Command = resolved
			status.Available = true
		}
		results = append(results, status)
	}
	return results
}

// VideoBackend reports whether the video encoding backend is usable: both
// ffmpeg and ffprobe must resolve.
func VideoBackend(ffmpegBinary, ffprobeBinary string) (Status, Status, bool) {
	statuses := CheckBinaries([]Requirement{
		{Name: "FFmpeg", Command: ffmpegBinary, Description: "Video transcoding", Optional: true},
		{Name: "FFprobe", Command: ffprobeBinary, Description: "Media inspection", Optional: true},
	})
	return statuses[0], statuses[1], statuses[0].Available && statuses[1].Available
}

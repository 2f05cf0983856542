package deps

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Requirement defines an external dependency minutes relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	// File marks a path that must exist rather than an executable on PATH.
	File bool
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

// Check evaluates the provided requirements and reports availability.
func Check(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		switch {
		case cmd == "":
			status.Detail = "command not configured"
		case req.File:
			status.Available, status.Detail = checkFile(cmd)
		default:
			if _, err := exec.LookPath(cmd); err != nil {
				status.Detail = fmt.Sprintf("binary %q not found", cmd)
			} else {
				status.Available = true
			}
		}
		results = append(results, status)
	}
	return results
}

func checkFile(path string) (bool, string) {
	info, err := os.Stat(path)
	if err != nil {
		return false, fmt.Sprintf("file %q not found", path)
	}
	if info.IsDir() {
		return false, fmt.Sprintf("%q is a directory", path)
	}
	return true, ""
}

// EngineRequirements lists what the transcription command needs: its
// executable and, for interpreter commands, the script it runs. Relative
// script paths resolve against workDir.
func EngineRequirements(command []string, workDir string) []Requirement {
	if len(command) == 0 {
		return []Requirement{{
			Name:        "Transcription engine",
			Description: "Required for speech-to-text",
		}}
	}
	reqs := []Requirement{{
		Name:        "Transcription engine",
		Command:     command[0],
		Description: "Required for speech-to-text",
	}}
	for _, arg := range command[1:] {
		if !isScript(arg) {
			continue
		}
		path := arg
		if !filepath.IsAbs(path) && workDir != "" {
			path = filepath.Join(workDir, path)
		}
		reqs = append(reqs, Requirement{
			Name:        "Transcription script",
			Command:     path,
			Description: "Script invoked by the transcription engine",
			File:        true,
		})
		break
	}
	return reqs
}

func isScript(arg string) bool {
	switch strings.ToLower(filepath.Ext(arg)) {
	case ".py", ".sh", ".rb", ".js":
		return true
	default:
		return false
	}
}

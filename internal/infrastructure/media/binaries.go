package media

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// resolveBinary determines the path to an external tool (ffmpeg/ffprobe).
// A configured path wins; otherwise PATH and common local directories are
// searched.
func resolveBinary(configured, name string) (string, error) {
	// Helper that validates a candidate path.
	checkCandidate := func(candidate string) (string, bool) {
		if candidate == "" {
			return "", false
		}

		// If candidate contains a path separator, treat it as a direct path.
		if strings.ContainsAny(candidate, `/\`) {
			full := candidate
			if !filepath.IsAbs(full) {
				full = filepath.Clean(full)
			}
			if info, err := os.Stat(full); err == nil && !info.IsDir() {
				return full, true
			}
			return "", false
		}

		// Otherwise, ask the OS to resolve it inside PATH.
		if resolved, err := exec.LookPath(candidate); err == nil {
			return resolved, true
		}
		return "", false
	}

	if configured != "" {
		if resolved, ok := checkCandidate(configured); ok {
			return resolved, nil
		}
		return "", fmt.Errorf("configured %s path %q does not point to a valid binary", name, configured)
	}

	binaryName := name
	if runtime.GOOS == "windows" {
		binaryName = name + ".exe"
	}
	if resolved, ok := checkCandidate(binaryName); ok {
		return resolved, nil
	}

	wd, _ := os.Getwd()
	potentialDirs := []string{
		wd,
		filepath.Join(wd, "bin"),
		filepath.Join("bin"),
	}

	for _, dir := range potentialDirs {
		if dir == "" {
			continue
		}
		if resolved, ok := checkCandidate(filepath.Join(dir, binaryName)); ok {
			return resolved, nil
		}
	}

	return "", fmt.Errorf("%s executable not found; install FFmpeg or set media.%s_path in config.yaml", name, name)
}

package git

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

type ChangedFile struct {
	Path         string
	ChangedLines []int
	// Deleted is set when the file no longer exists in the new version.
	Deleted bool
}

// Regex for chunk header: @@ -oldStart,oldLen +newStart,newLen @@
// Only newStart and newLen (the + part) matter.
var chunkHeader = regexp.MustCompile(`^@@ \-\d+(?:,\d+)? \+(\d+)(?:,(\d+))? @@`)

// GetChangedFiles runs git diff in dir and returns the changed files with line numbers.
func GetChangedFiles(ctx context.Context, dir, baseRef string) ([]ChangedFile, error) {
	args := []string{"diff", "-U0", "--no-color"}
	if baseRef != "" {
		args = append(args, baseRef)
	}
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git diff failed: %w", err)
	}

	return parseDiff(output)
}

func parseDiff(output []byte) ([]ChangedFile, error) {
	scanner := bufio.NewScanner(bytes.NewReader(output))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var changes []ChangedFile
	var currentFile *ChangedFile

	for scanner.Scan() {
		line := scanner.Text()

		if strings.HasPrefix(line, "diff --git") {
			// a/path/to/file b/path/to/file, keep the b/ path (new version)
			parts := strings.Fields(line)
			if len(parts) >= 4 {
				if currentFile != nil {
					changes = append(changes, *currentFile)
				}
				currentFile = &ChangedFile{Path: strings.TrimPrefix(parts[3], "b/"), ChangedLines: []int{}}
			}
			continue
		}

		if currentFile == nil {
			continue
		}

		if strings.HasPrefix(line, "+++ ") {
			if strings.TrimSpace(strings.TrimPrefix(line, "+++ ")) == "/dev/null" {
				currentFile.Deleted = true
			}
			continue
		}

		if strings.HasPrefix(line, "@@") {
			matches := chunkHeader.FindStringSubmatch(line)
			if len(matches) > 1 {
				startLine, err := strconv.Atoi(matches[1])
				if err != nil {
					return nil, fmt.Errorf("bad chunk header %q: %w", line, err)
				}
				count := 1 // Default length is 1 if omitted
				if len(matches) > 2 && matches[2] != "" {
					count, _ = strconv.Atoi(matches[2])
				}

				// A pure deletion has no lines in the new file; mark the line it follows.
				if count == 0 {
					currentFile.ChangedLines = append(currentFile.ChangedLines, startLine)
					continue
				}
				for i := 0; i < count; i++ {
					currentFile.ChangedLines = append(currentFile.ChangedLines, startLine+i)
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read diff: %w", err)
	}

	if currentFile != nil {
		changes = append(changes, *currentFile)
	}

	return changes, nil
}

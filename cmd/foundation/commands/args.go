package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fivetwenty-io/foundation-client/pkg/foundation"
)

const attachmentPrefix = "@"

// parseArg turns a command line argument into a call argument. "@path" reads
// the file as an attachment; valid JSON is decoded; anything else is a string.
func parseArg(raw string) (interface{}, error) {
	if strings.HasPrefix(raw, attachmentPrefix) {
		return readAttachment(strings.TrimPrefix(raw, attachmentPrefix))
	}

	decoder := json.NewDecoder(strings.NewReader(raw))
	decoder.UseNumber()

	var value interface{}

	if err := decoder.Decode(&value); err != nil || decoder.More() {
		return raw, nil
	}

	return value, nil
}

func parseArgs(raw []string) ([]interface{}, error) {
	values := make([]interface{}, 0, len(raw))

	for _, arg := range raw {
		value, err := parseArg(arg)
		if err != nil {
			return nil, err
		}

		values = append(values, value)
	}

	return values, nil
}

// resolveAttachments replaces "@path" strings in values decoded from a batch
// file with attachments.
func resolveAttachments(values []interface{}) ([]interface{}, error) {
	resolved := make([]interface{}, 0, len(values))

	for _, value := range values {
		if text, ok := value.(string); ok && strings.HasPrefix(text, attachmentPrefix) {
			attachment, err := readAttachment(strings.TrimPrefix(text, attachmentPrefix))
			if err != nil {
				return nil, err
			}

			resolved = append(resolved, attachment)

			continue
		}

		resolved = append(resolved, value)
	}

	return resolved, nil
}

func readAttachment(path string) (*foundation.Attachment, error) {
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("reading attachment: %w", err)
	}

	return foundation.NewAttachment(filepath.Base(path), content), nil
}

// readInput reads path, or in when path is empty or "-".
func readInput(path string, in io.Reader) ([]byte, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(in)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}

		return data, nil
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	return data, nil
}

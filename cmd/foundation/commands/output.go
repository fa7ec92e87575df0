package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/foundation-client/internal/constants"
	"github.com/fivetwenty-io/foundation-client/pkg/foundation"
)

// Output formats.
const (
	OutputFormatJSON  = constants.FormatJSON
	OutputFormatYAML  = constants.FormatYAML
	OutputFormatTable = constants.FormatTable
)

// renderStructured writes value as JSON or YAML. It reports false when the
// format is neither, leaving table output to the caller.
func renderStructured(w io.Writer, format string, value interface{}) (bool, error) {
	switch format {
	case OutputFormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")

		return true, encoder.Encode(value)
	case OutputFormatYAML:
		encoder := yaml.NewEncoder(w)

		err := encoder.Encode(value)
		if err != nil {
			return true, fmt.Errorf("failed to encode yaml: %w", err)
		}

		return true, encoder.Close()
	default:
		return false, nil
	}
}

func renderTable(table *tablewriter.Table) error {
	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

// renderValue writes a call result. Strings are printed as is in table mode;
// documents are printed as indented JSON.
func renderValue(w io.Writer, format string, value interface{}) error {
	handled, err := renderStructured(w, format, value)
	if handled {
		return err
	}

	_, err = fmt.Fprintln(w, formatValue(value))

	return err
}

func formatValue(value interface{}) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	default:
		encoded, err := json.MarshalIndent(typed, "", "  ")
		if err != nil {
			return fmt.Sprintf("%v", typed)
		}

		return string(encoded)
	}
}

func sortedDefinitions(definitions map[string]foundation.ResourceDefinition) []foundation.ResourceDefinition {
	sorted := make([]foundation.ResourceDefinition, 0, len(definitions))
	for _, definition := range definitions {
		sorted = append(sorted, definition)
	}

	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Type < sorted[j].Type })

	return sorted
}

func joinOrNone(values []string) string {
	if len(values) == 0 {
		return constants.NotAvailable
	}

	return strings.Join(values, ", ")
}

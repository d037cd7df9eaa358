package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/conn-castle/moonbit-up/internal/messages"
)

const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

func checkOutputFormat(format string) (string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	switch format {
	case outputTable, outputJSON, outputYAML:
		return format, nil
	}
	return "", fmt.Errorf(messages.OutputFormatFmt, format)
}

// writeStructured encodes v as json or yaml. Table output is rendered by the
// caller.
func writeStructured(out io.Writer, format string, v any) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf(messages.OutputFormatFmt, format)
}

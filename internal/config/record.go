// File: internal/config/record.go
package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	json "github.com/json-iterator/go"
	"github.com/mitchellh/go-homedir"
)

// LoadRecord reads a JSON object of semantic keys ("email", "first_name", ...)
// and returns it as a flat string map. Scalar values are stringified; null values
// and nested objects or arrays are dropped.
func LoadRecord(path string) (map[string]string, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("could not resolve data path '%s': %w", path, err)
	}
	raw, err := os.ReadFile(expanded)
	if err != nil {
		return nil, fmt.Errorf("failed to read data record '%s': %w", expanded, err)
	}
	return ParseRecord(raw)
}

// ParseRecord decodes a JSON data record.
func ParseRecord(raw []byte) (map[string]string, error) {
	var decoded map[string]interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode data record: %w", err)
	}

	record := make(map[string]string, len(decoded))
	for key, value := range decoded {
		switch v := value.(type) {
		case string:
			record[key] = v
		case float64:
			record[key] = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			record[key] = strconv.FormatBool(v)
		}
	}
	return record, nil
}

// RecordKeys returns the keys of a record in sorted order, for stable display.
func RecordKeys(record map[string]string) []string {
	keys := make([]string, 0, len(record))
	for k := range record {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ReferenceItem is one entry of a reference-data JSON file.
type ReferenceItem struct {
	Value string `json:"value"`
	Desc  string `json:"desc"`
}

// ReferenceFiles names the JSON files expected under the reference dir.
var ReferenceFiles = []string{"statuses", "crits", "centers", "tools"}

// ReferenceData holds the seed reference data loaded from JSON files.
// The database remains the runtime source of truth; these files only
// ensure missing rows are added on deployment.
type ReferenceData struct {
	Statuses []ReferenceItem
	Crits    []ReferenceItem
	Centers  []ReferenceItem
	Tools    []ReferenceItem
}

// LoadReferenceData reads all reference JSON files from dir.
func LoadReferenceData(dir string) (*ReferenceData, error) {
	data := &ReferenceData{}
	targets := map[string]*[]ReferenceItem{
		"statuses": &data.Statuses,
		"crits":    &data.Crits,
		"centers":  &data.Centers,
		"tools":    &data.Tools,
	}
	for _, name := range ReferenceFiles {
		items, err := loadReferenceFile(dir, name)
		if err != nil {
			return nil, err
		}
		*targets[name] = items
	}
	return data, nil
}

func loadReferenceFile(dir, name string) ([]ReferenceItem, error) {
	path := filepath.Join(dir, name+".json")
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read reference file %s: %w", path, err)
	}
	var items []ReferenceItem
	if err := json.Unmarshal(content, &items); err != nil {
		return nil, fmt.Errorf("parse reference file %s: %w", path, err)
	}
	for i, item := range items {
		if item.Value == "" {
			return nil, fmt.Errorf("reference file %s: entry %d has empty value", path, i)
		}
	}
	return items, nil
}

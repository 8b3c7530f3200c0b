package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeReferenceDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name+".json"), []byte(content), 0o644))
	}
	return dir
}

func TestLoadReferenceData(t *testing.T) {
	dir := writeReferenceDir(t, map[string]string{
		"statuses": `[{"value":"created","desc":"Creat"},{"value":"solved","desc":"Resolt"}]`,
		"crits":    `[{"value":"high","desc":"Alta"}]`,
		"centers":  `[{"value":"hosp-nord","desc":"Hospital Nord"}]`,
		"tools":    `[{"value":"his","desc":"HIS"}]`,
	})

	data, err := LoadReferenceData(dir)
	require.NoError(t, err)
	assert.Len(t, data.Statuses, 2)
	assert.Equal(t, "created", data.Statuses[0].Value)
	assert.Equal(t, "Hospital Nord", data.Centers[0].Desc)
	assert.Equal(t, "HIS", data.Tools[0].Desc)
}

func TestLoadReferenceData_MissingFile(t *testing.T) {
	dir := writeReferenceDir(t, map[string]string{
		"statuses": `[]`,
		"crits":    `[]`,
		"centers":  `[]`,
		// tools.json absent
	})

	_, err := LoadReferenceData(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tools.json")
}

func TestLoadReferenceData_InvalidJSON(t *testing.T) {
	dir := writeReferenceDir(t, map[string]string{
		"statuses": `{not json`,
		"crits":    `[]`,
		"centers":  `[]`,
		"tools":    `[]`,
	})

	_, err := LoadReferenceData(dir)
	require.Error(t, err)
}

func TestLoadReferenceData_EmptyValueRejected(t *testing.T) {
	dir := writeReferenceDir(t, map[string]string{
		"statuses": `[{"value":"","desc":"Broken"}]`,
		"crits":    `[]`,
		"centers":  `[]`,
		"tools":    `[]`,
	})

	_, err := LoadReferenceData(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty value")
}

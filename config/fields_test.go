package config

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFieldIDs(t *testing.T) {
	got, err := LoadFieldIDs("")
	require.NoError(t, err)
	assert.Equal(t, DefaultFieldIDs, got)

	path := filepath.Join(t.TempDir(), "fields.yaml")
	writeTestFile(t, path, "epic_link: customfield_1\nparent_link: parent\ndue_date: \"\"\n")

	got, err = LoadFieldIDs(path)
	require.NoError(t, err)

	want := DefaultFieldIDs
	want.EpicLink = "customfield_1"
	want.ParentLink = "parent"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("field ids mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFieldIDsErrors(t *testing.T) {
	_, err := LoadFieldIDs(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	writeTestFile(t, path, "epic_link: [unterminated\n")
	_, err = LoadFieldIDs(path)
	assert.Error(t, err)
}

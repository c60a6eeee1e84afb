package bundle

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/solardesk/shell/internal/infrastructure/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, dir, name, content string) {
	t.Helper()
	err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644)
	require.NoError(t, err)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "web.toml", `
service_name = "org.solardesk.Web"
name = "Web"
icon = "web-activity"
command = "solar-web"
control_endpoint = "http://127.0.0.1:7401"
`)
	writeManifest(t, dir, "write.toml", `
service_name = "org.solardesk.Write"
name = "Write"
`)
	// Malformed manifests are skipped, not fatal.
	writeManifest(t, dir, "broken.toml", `service_name = `)
	writeManifest(t, dir, "ignored.txt", `not a manifest`)

	r := NewRegistry(logging.NewNop())
	require.NoError(t, r.LoadDir(dir))

	assert.Equal(t, 2, r.Len())

	info, ok := r.GetActivity("org.solardesk.Web")
	require.True(t, ok)
	assert.Equal(t, "Web", info.Name)
	assert.Equal(t, "http://127.0.0.1:7401", info.ControlEndpoint)

	_, ok = r.GetActivity("org.solardesk.Missing")
	assert.False(t, ok)
}

func TestLoadDirMissing(t *testing.T) {
	r := NewRegistry(logging.NewNop())

	// A missing bundle directory is a valid steady state.
	require.NoError(t, r.LoadDir(filepath.Join(t.TempDir(), "nope")))
	assert.Equal(t, 0, r.Len())
}

func TestLoadDirEmptyServiceName(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "anon.toml", `name = "Anonymous"`)

	r := NewRegistry(logging.NewNop())
	require.NoError(t, r.LoadDir(dir))
	assert.Equal(t, 0, r.Len())
}

func TestRegisterReplaces(t *testing.T) {
	r := NewRegistry(logging.NewNop())

	r.Register(&Info{ServiceName: "org.solardesk.Web", Name: "Web"})
	r.Register(&Info{ServiceName: "org.solardesk.Web", Name: "Browse"})

	assert.Equal(t, 1, r.Len())
	info, _ := r.GetActivity("org.solardesk.Web")
	assert.Equal(t, "Browse", info.Name)
}

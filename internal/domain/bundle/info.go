// Package bundle provides the static activity-metadata registry.
//
// Every installable activity ships a TOML manifest describing its service
// name, display name, icon, and optional remote-control endpoint. The
// registry loads all manifests from the bundle directory on startup and
// resolves service names for the home registry.
package bundle

// Info is the static metadata for one installable activity.
type Info struct {
	ServiceName string `toml:"service_name" json:"service_name"`
	Name        string `toml:"name" json:"name"`
	Icon        string `toml:"icon" json:"icon,omitempty"`
	Command     string `toml:"command" json:"command,omitempty"`
	Version     int    `toml:"version" json:"version,omitempty"`

	// ControlEndpoint is the base URL of the activity's remote control
	// service. Empty means the activity exposes no control surface.
	ControlEndpoint string `toml:"control_endpoint" json:"control_endpoint,omitempty"`
}

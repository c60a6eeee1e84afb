package bundle

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pelletier/go-toml/v2"
	"github.com/solardesk/shell/internal/infrastructure/logging"
	"go.uber.org/zap"
)

// Registry resolves bundle service names to static activity metadata.
type Registry struct {
	mu      sync.RWMutex
	bundles map[string]*Info // keyed by service name
	log     *logging.Logger
}

// NewRegistry creates an empty bundle registry.
func NewRegistry(log *logging.Logger) *Registry {
	return &Registry{
		bundles: make(map[string]*Info),
		log:     log.Named("bundle"),
	}
}

// LoadDir loads every *.toml manifest in dir. A missing directory is not an
// error; the shell can run with no installed bundles. Individual malformed
// manifests are logged and skipped.
func (r *Registry) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		r.log.Warn("bundle directory not found", zap.String("dir", dir))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read bundle directory %s: %w", dir, err)
	}

	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".toml" {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		info, err := loadManifest(path)
		if err != nil {
			r.log.Error("skipping bundle manifest",
				zap.String("path", path), zap.Error(err))
			continue
		}

		r.Register(info)
		loaded++
	}

	r.log.Info("bundles loaded", zap.String("dir", dir), zap.Int("count", loaded))
	return nil
}

// Register adds or replaces a bundle by service name.
func (r *Registry) Register(info *Info) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bundles[info.ServiceName] = info
}

// GetActivity resolves a service name. Absence is not an error.
func (r *Registry) GetActivity(serviceName string) (*Info, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	info, ok := r.bundles[serviceName]
	return info, ok
}

// List returns all registered bundles.
func (r *Registry) List() []*Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Info, 0, len(r.bundles))
	for _, info := range r.bundles {
		out = append(out, info)
	}
	return out
}

// Len returns the number of registered bundles.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bundles)
}

func loadManifest(path string) (*Info, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var info Info
	if err := toml.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	if info.ServiceName == "" {
		return nil, fmt.Errorf("manifest %s has empty service_name", filepath.Base(path))
	}
	return &info, nil
}

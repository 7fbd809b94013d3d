package layout

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
)

// DefaultType is the detector shown before one is configured.
const DefaultType = "BLAST"

// ErrUnknownDetector is returned by Registry.Lookup for unregistered types.
var ErrUnknownDetector = errors.New("unknown detector type")

//go:embed data/*.yaml
var fixtures embed.FS

// Registry maps detector types to their capability records.
type Registry struct {
	detectors map[string]*Detector
	order     []string
}

// NewRegistry loads the embedded detector fixtures.
func NewRegistry() (*Registry, error) {
	return LoadFS(fixtures, "data")
}

// LoadFS loads every *.yaml fixture in dir of fsys.
func LoadFS(fsys fs.FS, dir string) (*Registry, error) {
	names, err := fs.Glob(fsys, path.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("listing fixtures: %w", err)
	}

	r := &Registry{detectors: make(map[string]*Detector, len(names))}
	for _, name := range names {
		d, err := loadFile(fsys, name)
		if err != nil {
			return nil, err
		}
		if err = r.Register(d); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func loadFile(fsys fs.FS, name string) (*Detector, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("opening fixture %s: %w", name, err)
	}
	defer f.Close()

	d, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("loading fixture %s: %w", name, err)
	}
	return d, nil
}

// Register adds a detector. Registering a type twice is an error.
func (r *Registry) Register(d *Detector) error {
	if _, ok := r.detectors[d.Type]; ok {
		return fmt.Errorf("detector type %q already registered", d.Type)
	}
	r.detectors[d.Type] = d
	r.order = append(r.order, d.Type)
	return nil
}

// Lookup returns the detector registered under typ.
func (r *Registry) Lookup(typ string) (*Detector, error) {
	d, ok := r.detectors[typ]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDetector, typ)
	}
	return d, nil
}

// Types returns the registered detector types in registration order.
func (r *Registry) Types() []string {
	return append([]string(nil), r.order...)
}

// Default returns the default detector, or nil if it is not registered.
func (r *Registry) Default() *Detector {
	return r.detectors[DefaultType]
}

package detector

import (
	"strings"

	"github.com/roman-kulish/detector-view/internal/geometry"
)

// Key identifies the inputs the static geometry was built from. Keys are
// compared field by field, so two different selections never collide.
type Key struct {
	Type     string
	Viewport geometry.Extent
	// Arrays and Networks hold the selections joined by NUL, which cannot
	// appear in a name.
	Arrays   string
	Networks string

	BaseURL      string
	HasVariables bool
	Variables    Variables

	MappingVersion uint64
}

func newKey(req *Request, viewport geometry.Extent) Key {
	k := Key{
		Type:           req.Type,
		Viewport:       viewport,
		Arrays:         strings.Join(req.Arrays, "\x00"),
		Networks:       strings.Join(req.Networks, "\x00"),
		BaseURL:        req.BaseURL,
		MappingVersion: req.MappingVersion,
	}
	if req.Variables != nil {
		k.HasVariables = true
		k.Variables = *req.Variables
	}
	return k
}

// Cache holds the static geometry of the last build and the sensor links
// for the last measurement count. It is owned by a single panel and is not
// safe for concurrent use. The zero value is an empty cache.
type Cache struct {
	valid    bool
	key      Key
	hexagons []HexagonRender
	sensors  []SensorRender

	// Links depend on the measurement count, which may change from frame
	// to frame without touching the geometry.
	links     []string
	linkCount int
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{}
}

// Invalidate forces the next build to recompute the geometry.
func (c *Cache) Invalidate() {
	*c = Cache{}
}

// Key returns the key of the cached geometry and whether there is any.
func (c *Cache) Key() (Key, bool) {
	return c.key, c.valid
}

func (c *Cache) lookup(k Key) ([]HexagonRender, []SensorRender, bool) {
	if c == nil || !c.valid || c.key != k {
		return nil, nil, false
	}
	return c.hexagons, c.sensors, true
}

func (c *Cache) store(k Key, hexagons []HexagonRender, sensors []SensorRender) {
	if c == nil {
		return
	}
	*c = Cache{
		valid:    true,
		key:      k,
		hexagons: hexagons,
		sensors:  sensors,
	}
}

func (c *Cache) lookupLinks(count int) ([]string, bool) {
	if c == nil || c.links == nil || c.linkCount != count {
		return nil, false
	}
	return c.links, true
}

func (c *Cache) storeLinks(count int, links []string) {
	if c == nil {
		return
	}
	c.links = links
	c.linkCount = count
}

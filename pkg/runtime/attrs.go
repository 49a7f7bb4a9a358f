package runtime

import (
	"sort"

	"github.com/tidwall/gjson"
)

// Attrs is a container's raw inspect document, queried by dotted path
// (e.g., "Config.Image", "NetworkSettings.Networks").
type Attrs struct {
	raw []byte
}

// NewAttrs wraps a raw inspect document.
func NewAttrs(raw []byte) Attrs {
	return Attrs{raw: raw}
}

// Valid reports whether the document is valid JSON.
func (a Attrs) Valid() bool {
	return len(a.raw) > 0 && gjson.ValidBytes(a.raw)
}

// Get returns the value at path.
func (a Attrs) Get(path string) gjson.Result {
	return gjson.GetBytes(a.raw, path)
}

// ConfigImage returns Config.Image, the image the container was created from.
func (a Attrs) ConfigImage() string {
	return a.Get("Config.Image").String()
}

// NetworkNames returns the sorted names of the networks the container is
// attached to. Network names may contain dots, so keys are read by iteration
// rather than by path.
func (a Attrs) NetworkNames() []string {
	names := []string{}
	nets := a.Get("NetworkSettings.Networks")
	if !nets.IsObject() {
		return names
	}
	nets.ForEach(func(key, _ gjson.Result) bool {
		names = append(names, key.String())
		return true
	})
	sort.Strings(names)
	return names
}

// AttachedTo reports whether the container is attached to the named network.
func (a Attrs) AttachedTo(network string) bool {
	for _, n := range a.NetworkNames() {
		if n == network {
			return true
		}
	}
	return false
}

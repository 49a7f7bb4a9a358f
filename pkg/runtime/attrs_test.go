package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAttrs(t *testing.T) {
	doc := `{
		"Config": {"Image": "hello-world", "Labels": {"com.docker.compose.service": "hello"}},
		"NetworkSettings": {"Networks": {"test_net": {"IPAddress": "172.20.0.2"}, "proj.default": {}}}
	}`
	attrs := NewAttrs([]byte(doc))

	assert.True(t, attrs.Valid())
	assert.Equal(t, "hello-world", attrs.ConfigImage())
	assert.Equal(t, []string{"proj.default", "test_net"}, attrs.NetworkNames())
	assert.True(t, attrs.AttachedTo("test_net"))
	assert.True(t, attrs.AttachedTo("proj.default"))
	assert.False(t, attrs.AttachedTo("test"))
	assert.Equal(t, "172.20.0.2", attrs.Get("NetworkSettings.Networks.test_net.IPAddress").String())
	assert.Equal(t, "hello", attrs.Get(`Config.Labels.com\.docker\.compose\.service`).String())
}

func TestAttrs_Missing(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty", ""},
		{"no network settings", `{"Config": {}}`},
		{"null networks", `{"NetworkSettings": {"Networks": null}}`},
		{"networks not an object", `{"NetworkSettings": {"Networks": ["test_net"]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attrs := NewAttrs([]byte(tt.doc))
			assert.Equal(t, "", attrs.ConfigImage())
			assert.Empty(t, attrs.NetworkNames())
			assert.False(t, attrs.AttachedTo("test_net"))
		})
	}
}

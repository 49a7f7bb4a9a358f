// Package runtimetest provides an in-memory runtime.Runtime for tests.
package runtimetest

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/vertti/composecert/pkg/runtime"
)

// Container is a fake container's state.
type Container struct {
	Ref      runtime.ContainerRef
	Logs     string
	Networks []string
}

// Fake is an in-memory runtime.Runtime. Tests mutate its fields between
// calls to simulate the daemon changing underneath the harness.
type Fake struct {
	Version    runtime.VersionInfo
	Images     []runtime.ImageRef
	Containers []*Container
	Processes  []string

	// Err, when set, is returned by every daemon query.
	Err error
	// ProcessErr, when set, is returned by RawProcessList.
	ProcessErr error

	// Calls records the method names invoked, in order.
	Calls []string
}

// Healthy returns a fake describing a container that ran image to
// completion, printed logs and is attached to network.
func Healthy(image, name, network, logs string) *Fake {
	return &Fake{
		Version: runtime.VersionInfo{
			Version:       "28.5.1",
			APIVersion:    "1.51",
			MinAPIVersion: "1.24",
			OS:            "linux",
			Arch:          "amd64",
			KernelVersion: "6.8.0-45-generic",
		},
		Images:  []runtime.ImageRef{{ID: "sha256:74cc54e27dc4", Tags: []string{image + ":latest"}}},
		Containers: []*Container{{
			Ref: runtime.ContainerRef{
				ID:     "c0ffee",
				Name:   name,
				Image:  image,
				Status: runtime.StatusExited,
			},
			Logs:     logs,
			Networks: []string{network},
		}},
		Processes: []string{
			"CONTAINER ID   IMAGE     COMMAND   CREATED   STATUS   PORTS   NAMES",
			"1f2e3d4c5b6a   worker    \"run\"     1 min     Up       -       yaksha-worker-1",
		},
	}
}

// Unreachable makes every daemon query fail as if the daemon were down.
func (f *Fake) Unreachable() *Fake {
	f.Err = runtime.Unavailable("query", errors.New("dial unix /var/run/docker.sock: connect: no such file or directory"))
	return f
}

// Container returns the named fake container, or nil.
func (f *Fake) Container(name string) *Container {
	for _, c := range f.Containers {
		if c.Ref.Name == name || c.Ref.ID == name {
			return c
		}
	}
	return nil
}

// SetStatus changes the named container's status.
func (f *Fake) SetStatus(name, status string) {
	if c := f.Container(name); c != nil {
		c.Ref.Status = status
	}
}

// DaemonVersion implements runtime.Runtime.
func (f *Fake) DaemonVersion(context.Context) (runtime.VersionInfo, error) {
	f.Calls = append(f.Calls, "DaemonVersion")
	if f.Err != nil {
		return runtime.VersionInfo{}, f.Err
	}
	return f.Version, nil
}

// ListImages implements runtime.Runtime.
func (f *Fake) ListImages(_ context.Context, name string) ([]runtime.ImageRef, error) {
	f.Calls = append(f.Calls, "ListImages")
	if f.Err != nil {
		return nil, f.Err
	}
	refs := []runtime.ImageRef{}
	for _, img := range f.Images {
		for _, tag := range img.Tags {
			if strings.Contains(tag, name) {
				refs = append(refs, img)
				break
			}
		}
	}
	return refs, nil
}

// GetContainer implements runtime.Runtime.
func (f *Fake) GetContainer(_ context.Context, name string) (runtime.ContainerRef, error) {
	f.Calls = append(f.Calls, "GetContainer")
	return f.lookup("container", name)
}

// Reload implements runtime.Runtime.
func (f *Fake) Reload(_ context.Context, ref runtime.ContainerRef) (runtime.ContainerRef, error) {
	f.Calls = append(f.Calls, "Reload")
	return f.lookup("container", ref.ID)
}

// Logs implements runtime.Runtime.
func (f *Fake) Logs(_ context.Context, ref runtime.ContainerRef) (string, error) {
	f.Calls = append(f.Calls, "Logs")
	if _, err := f.lookup("logs", ref.ID); err != nil {
		return "", err
	}
	return f.Container(ref.ID).Logs, nil
}

// Inspect implements runtime.Runtime.
func (f *Fake) Inspect(_ context.Context, ref runtime.ContainerRef) (runtime.Attrs, error) {
	f.Calls = append(f.Calls, "Inspect")
	if _, err := f.lookup("container", ref.ID); err != nil {
		return runtime.Attrs{}, err
	}
	c := f.Container(ref.ID)

	networks := map[string]any{}
	for _, n := range c.Networks {
		networks[n] = map[string]any{}
	}
	raw, err := json.Marshal(map[string]any{
		"Id":              c.Ref.ID,
		"Name":            "/" + c.Ref.Name,
		"State":           map[string]any{"Status": c.Ref.Status},
		"Config":          map[string]any{"Image": c.Ref.Image},
		"NetworkSettings": map[string]any{"Networks": networks},
	})
	if err != nil {
		return runtime.Attrs{}, runtime.Adapter("inspect", ref.ID, err)
	}
	return runtime.NewAttrs(raw), nil
}

// ListAllContainers implements runtime.Runtime.
func (f *Fake) ListAllContainers(context.Context) ([]runtime.ContainerRef, error) {
	f.Calls = append(f.Calls, "ListAllContainers")
	if f.Err != nil {
		return nil, f.Err
	}
	refs := make([]runtime.ContainerRef, 0, len(f.Containers))
	for _, c := range f.Containers {
		refs = append(refs, c.Ref)
	}
	return refs, nil
}

// RawProcessList implements runtime.Runtime.
func (f *Fake) RawProcessList(context.Context, string, []string) ([]string, error) {
	f.Calls = append(f.Calls, "RawProcessList")
	if f.ProcessErr != nil {
		return nil, f.ProcessErr
	}
	return append([]string(nil), f.Processes...), nil
}

func (f *Fake) lookup(op, name string) (runtime.ContainerRef, error) {
	if f.Err != nil {
		return runtime.ContainerRef{}, f.Err
	}
	c := f.Container(name)
	if c == nil || name == "" {
		return runtime.ContainerRef{}, runtime.NotFound(op, name, nil)
	}
	return c.Ref, nil
}

var _ runtime.Runtime = (*Fake)(nil)

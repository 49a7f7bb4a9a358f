// Package runtime is the query side of the harness: it reads daemon, image
// and container state from a container runtime and translates it into
// plain values the checks can assert on. It holds no state of its own.
package runtime

import (
	"context"
	"time"
)

// Container status values reported by the daemon.
const (
	StatusCreated    = "created"
	StatusRunning    = "running"
	StatusExited     = "exited"
	StatusPaused     = "paused"
	StatusRestarting = "restarting"
	StatusRemoving   = "removing"
	StatusDead       = "dead"
)

// Runtime is implemented by container-runtime adapters.
//
// Every method may fail with an error matching ErrRuntimeUnavailable,
// ErrNotFound or ErrAdapter. RawProcessList may additionally fail with
// procrun.ErrInvocation.
type Runtime interface {
	DaemonVersion(ctx context.Context) (VersionInfo, error)
	ListImages(ctx context.Context, name string) ([]ImageRef, error)
	GetContainer(ctx context.Context, name string) (ContainerRef, error)
	Reload(ctx context.Context, ref ContainerRef) (ContainerRef, error)
	Logs(ctx context.Context, ref ContainerRef) (string, error)
	Inspect(ctx context.Context, ref ContainerRef) (Attrs, error)
	ListAllContainers(ctx context.Context) ([]ContainerRef, error)
	RawProcessList(ctx context.Context, command string, args []string) ([]string, error)
}

// VersionInfo is the daemon's self-reported version.
type VersionInfo struct {
	Version       string
	APIVersion    string
	MinAPIVersion string
	OS            string
	Arch          string
	KernelVersion string
}

// ImageRef identifies a local image and its tags.
type ImageRef struct {
	ID   string
	Tags []string
}

// ContainerRef is a snapshot of a container's identity and status.
// Call Reload for a fresh snapshot.
type ContainerRef struct {
	ID         string
	Name       string // without the leading slash
	Image      string // image as configured, not the resolved ID
	Status     string
	ExitCode   int
	Tty        bool
	StartedAt  time.Time
	FinishedAt time.Time
}

// Ran reports whether the container has started at least once.
func (c ContainerRef) Ran() bool {
	return c.Status == StatusRunning || c.Status == StatusExited
}

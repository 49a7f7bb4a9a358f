// Package checks defines the ordered lifecycle checks run against a
// provisioned environment. Each check reads live runtime state; later checks
// assume the side effects (not the results) of earlier ones.
package checks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/docker/go-units"

	"github.com/vertti/composecert/pkg/check"
	"github.com/vertti/composecert/pkg/runtime"
	"github.com/vertti/composecert/pkg/suite"
)

// Check names. They key recorded results and must stay stable across releases.
const (
	DaemonRunning    = "TestDockerDaemonRunning"
	ImageExists      = "TestImageExists"
	ContainerExists  = "TestContainerExists"
	ContainerStarted = "TestContainerStarted"
	ContainerLogs    = "TestContainerLogs"
	ContainerStopped = "TestContainerStopped"
	ContainerImage   = "TestContainerMetadata"
	ListContainers   = "TestListContainers"
	ContainerNetwork = "TestContainerNetwork"
	ProcessRunning   = "TestYakshaContainerRunning"
)

var errNoProcessCommand = errors.New("no process list command configured")

// Options selects optional checks.
type Options struct {
	// ProcessCheck adds the process-list marker check.
	ProcessCheck bool
}

// Default returns the lifecycle checks in execution order.
func Default(opts Options) []suite.Spec {
	specs := []suite.Spec{
		{Name: DaemonRunning, Ordinal: 0, Run: daemonRunning},
		{Name: ImageExists, Ordinal: 1, Run: imageExists},
		{Name: ContainerExists, Ordinal: 2, Run: containerExists},
		{Name: ContainerStarted, Ordinal: 3, Run: containerStarted},
		{Name: ContainerLogs, Ordinal: 4, Run: containerLogs},
		{Name: ContainerStopped, Ordinal: 5, Run: containerStopped},
		{Name: ContainerImage, Ordinal: 6, Run: containerImage},
		{Name: ListContainers, Ordinal: 7, Run: listContainers},
		{Name: ContainerNetwork, Ordinal: 8, Run: containerNetwork},
	}
	if opts.ProcessCheck {
		specs = append(specs, suite.Spec{Name: ProcessRunning, Ordinal: 9, Run: processRunning})
	}
	return specs
}

func daemonRunning(ctx context.Context, sc *suite.Context) (check.Result, error) {
	r := check.New(DaemonRunning)

	v, err := sc.Runtime.DaemonVersion(ctx)
	if err != nil {
		return check.Result{}, err
	}
	if v.Version == "" {
		return r.Fail("daemon reported no version"), nil
	}
	r.AddDetailf("version: %s", v.Version)
	switch {
	case v.APIVersion != "" && v.MinAPIVersion != "":
		r.AddDetailf("api: %s (min %s)", v.APIVersion, v.MinAPIVersion)
	case v.APIVersion != "":
		r.AddDetailf("api: %s", v.APIVersion)
	}
	if v.OS != "" {
		r.AddDetailf("platform: %s/%s", v.OS, v.Arch)
	}
	if v.KernelVersion != "" {
		r.AddDetailf("kernel: %s", v.KernelVersion)
	}

	if minVersion := sc.Target.MinDaemonVersion; minVersion != nil {
		got, err := semver.NewVersion(v.Version)
		if err != nil {
			return r.Failf("cannot parse daemon version %q: %v", v.Version, err), nil
		}
		if got.LessThan(minVersion) {
			return r.Failf("daemon %s is older than required %s", got, minVersion), nil
		}
	}
	return r.Pass(), nil
}

func imageExists(ctx context.Context, sc *suite.Context) (check.Result, error) {
	r := check.New(ImageExists)

	images, err := sc.Runtime.ListImages(ctx, sc.Target.Image)
	if err != nil {
		return check.Result{}, err
	}
	if len(images) == 0 {
		return r.Fail("image not found"), nil
	}
	r.AddDetailf("tags: %s", strings.Join(images[0].Tags, ", "))
	return r.Pass(), nil
}

func containerExists(ctx context.Context, sc *suite.Context) (check.Result, error) {
	r := check.New(ContainerExists)

	ref, err := sc.Runtime.GetContainer(ctx, sc.Target.Container)
	if errors.Is(err, runtime.ErrNotFound) {
		return r.Failf("container %q not found", sc.Target.Container), nil
	}
	if err != nil {
		return check.Result{}, err
	}
	r.AddDetailf("id: %s", shortID(ref.ID))
	return r.Expect(ref.Name == sc.Target.Container, "found %q, want %q", ref.Name, sc.Target.Container), nil
}

func containerStarted(ctx context.Context, sc *suite.Context) (check.Result, error) {
	r := check.New(ContainerStarted)

	ref, err := sc.Runtime.GetContainer(ctx, sc.Target.Container)
	if err != nil {
		return check.Result{}, err
	}
	return r.Expect(ref.Ran(), "status: %s", ref.Status), nil
}

func containerLogs(ctx context.Context, sc *suite.Context) (check.Result, error) {
	r := check.New(ContainerLogs)

	ref, err := sc.Runtime.GetContainer(ctx, sc.Target.Container)
	if err != nil {
		return check.Result{}, err
	}
	logs, err := sc.Runtime.Logs(ctx, ref)
	if err != nil {
		return check.Result{}, err
	}
	return r.Expect(strings.Contains(logs, sc.Target.LogMarker),
		"log marker %q not found in %d bytes of output", sc.Target.LogMarker, len(logs)), nil
}

func containerStopped(ctx context.Context, sc *suite.Context) (check.Result, error) {
	r := check.New(ContainerStopped)

	ref, err := sc.Runtime.GetContainer(ctx, sc.Target.Container)
	if err != nil {
		return check.Result{}, err
	}
	// Status may have moved on since check 3 looked at it.
	ref, err = sc.Runtime.Reload(ctx, ref)
	if err != nil {
		return check.Result{}, err
	}

	if ref.Status == runtime.StatusExited {
		r.AddDetailf("exit code: %d", ref.ExitCode)
		return r.Pass(), nil
	}
	if ref.Status == runtime.StatusRunning && !ref.StartedAt.IsZero() {
		return r.Failf("status: running (up %s)", units.HumanDuration(time.Since(ref.StartedAt))), nil
	}
	return r.Failf("status: %s", ref.Status), nil
}

func containerImage(ctx context.Context, sc *suite.Context) (check.Result, error) {
	r := check.New(ContainerImage)

	ref, err := sc.Runtime.GetContainer(ctx, sc.Target.Container)
	if err != nil {
		return check.Result{}, err
	}
	attrs, err := sc.Runtime.Inspect(ctx, ref)
	if err != nil {
		return check.Result{}, err
	}
	got := attrs.ConfigImage()
	return r.Expect(got == sc.Target.Image, "image: %q, want %q", got, sc.Target.Image), nil
}

func listContainers(ctx context.Context, sc *suite.Context) (check.Result, error) {
	r := check.New(ListContainers)

	refs, err := sc.Runtime.ListAllContainers(ctx)
	if err != nil {
		return check.Result{}, err
	}
	for _, ref := range refs {
		if ref.Name == sc.Target.Container {
			r.AddDetailf("status: %s", ref.Status)
			return r.Pass(), nil
		}
	}
	return r.Failf("%q not among %d listed containers", sc.Target.Container, len(refs)), nil
}

func containerNetwork(ctx context.Context, sc *suite.Context) (check.Result, error) {
	r := check.New(ContainerNetwork)

	ref, err := sc.Runtime.GetContainer(ctx, sc.Target.Container)
	if err != nil {
		return check.Result{}, err
	}
	attrs, err := sc.Runtime.Inspect(ctx, ref)
	if err != nil {
		return check.Result{}, err
	}
	if attrs.AttachedTo(sc.Target.Network) {
		return r.Pass(), nil
	}

	actual := attrs.NetworkNames()
	if len(actual) == 0 {
		return r.Failf("not attached to %q; attached to no networks", sc.Target.Network), nil
	}
	return r.Failf("not attached to %q; attached to: %s", sc.Target.Network, strings.Join(actual, ", ")), nil
}

func processRunning(ctx context.Context, sc *suite.Context) (check.Result, error) {
	r := check.New(ProcessRunning)

	command := sc.Target.ProcessCommand
	if len(command) == 0 {
		return check.Result{}, errNoProcessCommand
	}
	lines, err := sc.Runtime.RawProcessList(ctx, command[0], command[1:])
	if err != nil {
		return check.Result{}, err
	}

	marker := strings.ToLower(sc.Target.ProcessMarker)
	for _, line := range lines {
		if strings.Contains(strings.ToLower(line), marker) {
			r.AddDetail(strings.TrimSpace(line))
			return r.Pass(), nil
		}
	}
	return r.Failf("no line of %q output contains %q", strings.Join(command, " "), sc.Target.ProcessMarker), nil
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

// Describe returns a one-line description of the named check.
func Describe(name string) string {
	switch name {
	case DaemonRunning:
		return "daemon is reachable and reports a version"
	case ImageExists:
		return "configured image is present locally"
	case ContainerExists:
		return "named container exists"
	case ContainerStarted:
		return "container has started (running or exited)"
	case ContainerLogs:
		return "container logs contain the marker"
	case ContainerStopped:
		return "container has exited"
	case ContainerImage:
		return "container was created from the configured image"
	case ListContainers:
		return "container appears in the all-state listing"
	case ContainerNetwork:
		return "container is attached to the configured network"
	case ProcessRunning:
		return "process list contains the marker (case-insensitive)"
	default:
		return fmt.Sprintf("unknown check %s", name)
	}
}

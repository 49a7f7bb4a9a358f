package runtime

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"time"

	cerrdefs "github.com/containerd/errdefs"
	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/rs/zerolog"

	"github.com/vertti/composecert/pkg/procrun"
)

// APIClient is the subset of the Docker Engine client the adapter uses.
// *client.Client satisfies it.
type APIClient interface {
	ServerVersion(ctx context.Context) (types.Version, error)
	ImageList(ctx context.Context, options image.ListOptions) ([]image.Summary, error)
	ContainerInspectWithRaw(ctx context.Context, containerID string, getSize bool) (container.InspectResponse, []byte, error)
	ContainerLogs(ctx context.Context, containerID string, options container.LogsOptions) (io.ReadCloser, error)
	ContainerList(ctx context.Context, options container.ListOptions) ([]container.Summary, error)
	Close() error
}

// Docker implements Runtime against the Docker Engine API.
type Docker struct {
	api   APIClient
	procs procrun.Runner
	log   zerolog.Logger
}

// NewDocker creates an adapter for the daemon at host, or the daemon named by
// the DOCKER_* environment when host is empty. No connection is made until
// the first query.
func NewDocker(host string, procs procrun.Runner, log zerolog.Logger) (*Docker, error) {
	opts := []client.Opt{client.FromEnv, client.WithAPIVersionNegotiation()}
	if host != "" {
		opts = append(opts, client.WithHost(host))
	}
	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, Adapter("connect", host, err)
	}
	return NewDockerWithClient(cli, procs, log), nil
}

// NewDockerWithClient creates an adapter around an existing API client.
func NewDockerWithClient(api APIClient, procs procrun.Runner, log zerolog.Logger) *Docker {
	return &Docker{api: api, procs: procs, log: log}
}

// Close releases the API client.
func (d *Docker) Close() error {
	return d.api.Close()
}

// DaemonVersion queries the daemon's version.
func (d *Docker) DaemonVersion(ctx context.Context) (VersionInfo, error) {
	v, err := d.api.ServerVersion(ctx)
	if err != nil {
		if cerrdefs.IsNotFound(err) {
			return VersionInfo{}, Adapter("version", "", err)
		}
		return VersionInfo{}, Unavailable("version", err)
	}
	d.log.Debug().Str("version", v.Version).Str("api", v.APIVersion).Msg("daemon version")
	return VersionInfo{
		Version:       v.Version,
		APIVersion:    v.APIVersion,
		MinAPIVersion: v.MinAPIVersion,
		OS:            v.Os,
		Arch:          v.Arch,
		KernelVersion: v.KernelVersion,
	}, nil
}

// ListImages returns local images with a tag containing name.
func (d *Docker) ListImages(ctx context.Context, name string) ([]ImageRef, error) {
	summaries, err := d.api.ImageList(ctx, image.ListOptions{
		Filters: filters.NewArgs(filters.Arg("reference", name)),
	})
	if err != nil {
		return nil, classify("image list", name, err)
	}

	refs := []ImageRef{}
	for _, s := range summaries {
		for _, tag := range s.RepoTags {
			if strings.Contains(tag, name) {
				refs = append(refs, ImageRef{ID: s.ID, Tags: s.RepoTags})
				break
			}
		}
	}
	return refs, nil
}

// GetContainer looks a container up by name or ID.
func (d *Docker) GetContainer(ctx context.Context, name string) (ContainerRef, error) {
	resp, _, err := d.api.ContainerInspectWithRaw(ctx, name, false)
	if err != nil {
		return ContainerRef{}, classify("container", name, err)
	}
	return refFromInspect(resp), nil
}

// Reload returns a fresh snapshot of ref.
func (d *Docker) Reload(ctx context.Context, ref ContainerRef) (ContainerRef, error) {
	return d.GetContainer(ctx, idOrName(ref))
}

// Logs returns the container's full stdout and stderr as text.
func (d *Docker) Logs(ctx context.Context, ref ContainerRef) (string, error) {
	target := idOrName(ref)
	rc, err := d.api.ContainerLogs(ctx, target, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
	})
	if err != nil {
		return "", classify("logs", target, err)
	}
	defer rc.Close()

	var buf bytes.Buffer
	if ref.Tty {
		_, err = io.Copy(&buf, rc)
	} else {
		// Non-TTY log streams carry multiplexing headers.
		_, err = stdcopy.StdCopy(&buf, &buf, rc)
	}
	if err != nil {
		return "", Adapter("logs", target, err)
	}
	return strings.ToValidUTF8(buf.String(), "\uFFFD"), nil
}

// Inspect returns the container's raw inspect document.
func (d *Docker) Inspect(ctx context.Context, ref ContainerRef) (Attrs, error) {
	target := idOrName(ref)
	_, raw, err := d.api.ContainerInspectWithRaw(ctx, target, false)
	if err != nil {
		return Attrs{}, classify("container", target, err)
	}
	attrs := NewAttrs(raw)
	if !attrs.Valid() {
		return Attrs{}, Adapter("inspect", target, errInvalidDocument)
	}
	return attrs, nil
}

// ListAllContainers lists containers in every state.
func (d *Docker) ListAllContainers(ctx context.Context) ([]ContainerRef, error) {
	summaries, err := d.api.ContainerList(ctx, container.ListOptions{All: true})
	if err != nil {
		return nil, classify("container list", "", err)
	}

	refs := make([]ContainerRef, 0, len(summaries))
	for _, s := range summaries {
		var name string
		if len(s.Names) > 0 {
			name = strings.TrimPrefix(s.Names[0], "/")
		}
		refs = append(refs, ContainerRef{
			ID:     s.ID,
			Name:   name,
			Image:  s.Image,
			Status: string(s.State),
		})
	}
	return refs, nil
}

// RawProcessList runs a process-manager command and returns its stdout lines.
// A non-zero exit is logged, not returned.
func (d *Docker) RawProcessList(ctx context.Context, command string, args []string) ([]string, error) {
	out, err := d.procs.Run(ctx, command, args...)
	if err != nil {
		return nil, err
	}
	if !out.Success() {
		d.log.Warn().
			Str("command", command).
			Int("exit_code", out.ExitCode).
			Str("stderr", strings.TrimSpace(out.Stderr)).
			Msg("process list exited non-zero")
	}
	return out.Lines(), nil
}

var errInvalidDocument = errors.New("inspect document is not valid JSON")

func classify(op, target string, err error) error {
	switch {
	case client.IsErrConnectionFailed(err):
		return Unavailable(op, err)
	case cerrdefs.IsNotFound(err):
		return NotFound(op, target, err)
	default:
		return Adapter(op, target, err)
	}
}

func idOrName(ref ContainerRef) string {
	if ref.ID != "" {
		return ref.ID
	}
	return ref.Name
}

func refFromInspect(resp container.InspectResponse) ContainerRef {
	var ref ContainerRef
	if resp.ContainerJSONBase != nil {
		ref.ID = resp.ID
		ref.Name = strings.TrimPrefix(resp.Name, "/")
		if st := resp.State; st != nil {
			ref.Status = string(st.Status)
			ref.ExitCode = st.ExitCode
			ref.StartedAt = parseTime(st.StartedAt)
			ref.FinishedAt = parseTime(st.FinishedAt)
		}
	}
	if resp.Config != nil {
		ref.Image = resp.Config.Image
		ref.Tty = resp.Config.Tty
	}
	return ref
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil || t.Year() <= 1 {
		return time.Time{}
	}
	return t
}

var _ Runtime = (*Docker)(nil)

// container.go implements consumer discovery and the asset push.
//
// A push stats the storage root inside the container. It then tars the
// locally deployed <storageRoot>/<dirName> directory and streams it
// through the Docker copy API. Docker extracts the archive in place and
// overwrites files that already exist, so pushing is idempotent like a
// local deployment.
package docker

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	cerrdefs "github.com/containerd/errdefs"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/pkg/archive"

	"github.com/shinji-kodama/assetdeploy/internal/model"
)

// ListConsumers returns every container labelled as an asset consumer,
// including stopped ones; Docker can copy into a stopped container.
//
// Containers whose labels cannot be parsed are left out of the result and
// reported in skipped, so the caller can warn about them without failing
// the whole push.
func ListConsumers(ctx context.Context, api API) (consumers []model.ConsumerContainer, skipped []error, err error) {
	// Docker filters server-side, so unrelated containers never reach us.
	filterArgs := filters.NewArgs(filters.Arg("label", ConsumerFilter()))

	containers, err := api.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filterArgs,
	})
	if err != nil {
		return nil, nil, model.WrapCLIError(
			model.ExitDockerNotRunning,
			"failed to list Docker containers",
			err,
		)
	}

	consumers = make([]model.ConsumerContainer, 0, len(containers))
	for _, c := range containers {
		consumer, parseErr := ParseConsumer(c)
		if parseErr != nil {
			skipped = append(skipped, parseErr)
			continue
		}
		consumers = append(consumers, consumer)
	}

	return consumers, skipped, nil
}

// FindConsumer picks the consumer matching ref, which may be a container
// name, a full ID, or an unambiguous ID prefix.
func FindConsumer(consumers []model.ConsumerContainer, ref string) (model.ConsumerContainer, error) {
	ref = strings.TrimPrefix(ref, "/")

	var matches []model.ConsumerContainer
	for _, c := range consumers {
		if c.ContainerName == ref || c.ContainerID == ref {
			return c, nil
		}
		if ref != "" && strings.HasPrefix(c.ContainerID, ref) {
			matches = append(matches, c)
		}
	}

	switch len(matches) {
	case 0:
		return model.ConsumerContainer{}, model.NewCLIError(
			model.ExitNotFound,
			fmt.Sprintf("no consumer container matches %q (is it labelled %s?)", ref, ConsumerFilter()),
		)
	case 1:
		return matches[0], nil
	default:
		return model.ConsumerContainer{}, model.NewCLIError(
			model.ExitGeneralError,
			fmt.Sprintf("container reference %q is ambiguous (%d matches)", ref, len(matches)),
		)
	}
}

// PushAssets copies <localStorageRoot>/<dirName> into the container so that
// it lands at <containerStorageRoot>/<dirName>. It returns that
// in-container path.
//
// The container storage root must already exist as a directory. It is
// never created.
func PushAssets(ctx context.Context, api API, containerID, localStorageRoot, dirName, containerStorageRoot string) (string, error) {
	if !path.IsAbs(containerStorageRoot) {
		return "", model.DirectoryUnavailable(containerStorageRoot,
			fmt.Errorf("container storage root must be an absolute path"))
	}

	// Step 1: The in-container storage root must be a directory.
	stat, err := api.ContainerStatPath(ctx, containerID, containerStorageRoot)
	if err != nil {
		if cerrdefs.IsNotFound(err) {
			return "", model.DirectoryUnavailable(containerStorageRoot,
				fmt.Errorf("container %s: %w", shortID(containerID), err))
		}
		return "", model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("failed to stat %s in container %s", containerStorageRoot, shortID(containerID)),
			err,
		)
	}
	if !stat.Mode.IsDir() {
		return "", model.DirectoryUnavailable(containerStorageRoot,
			fmt.Errorf("container %s: not a directory", shortID(containerID)))
	}

	// Step 2: Archive the local deployment.
	rdr, err := packAssets(localStorageRoot, dirName)
	if err != nil {
		return "", err
	}
	defer rdr.Close()

	// Step 3: Stream it into the container. Docker extracts the archive
	// relative to the destination directory.
	err = api.CopyToContainer(ctx, containerID, containerStorageRoot, rdr, container.CopyToContainerOptions{})
	if err != nil {
		return "", model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("failed to copy assets into container %s", shortID(containerID)),
			err,
		)
	}

	return path.Join(containerStorageRoot, dirName), nil
}

// packAssets returns an uncompressed tar stream whose entries are rooted
// at dirName ("assets/", "assets/a.txt", ...). Nothing else under the
// storage root is included.
func packAssets(localStorageRoot, dirName string) (io.ReadCloser, error) {
	dir := filepath.Join(localStorageRoot, dirName)
	info, err := os.Stat(dir)
	if err != nil {
		return nil, model.DirectoryUnavailable(dir, err)
	}
	if !info.IsDir() {
		return nil, model.DirectoryUnavailable(dir, fmt.Errorf("not a directory"))
	}

	rdr, err := archive.TarWithOptions(localStorageRoot, &archive.TarOptions{
		IncludeFiles: []string{dirName},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to archive %s: %w", dir, err)
	}
	return rdr, nil
}

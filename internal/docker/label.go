package docker

import (
	"fmt"
	"path"
	"strings"

	"github.com/docker/docker/api/types/container"

	"github.com/shinji-kodama/assetdeploy/internal/model"
)

// Label key constants mark containers that consume deployed assets. The
// labels are set by whoever starts the engine container (compose file,
// docker run --label) and are the only discovery mechanism; assetdeploy
// keeps no state file of its own.
const (
	// LabelPrefix is the common prefix for all assetdeploy labels.
	LabelPrefix = "assetdeploy."

	// LabelConsumer marks a container as an asset consumer.
	// Key: "assetdeploy.consumer", Value: ConsumerValue.
	LabelConsumer = LabelPrefix + "consumer"

	// LabelStorageRoot is the absolute storage root inside the container.
	// Assets are pushed into <value>/<dirName>.
	// Key: "assetdeploy.storage-root", Value: absolute slash path.
	LabelStorageRoot = LabelPrefix + "storage-root"
)

// ConsumerValue is the value LabelConsumer must carry.
const ConsumerValue = "true"

// ConsumerFilter returns the label filter expression used with the Docker
// API's container listing endpoint.
func ConsumerFilter() string {
	return LabelConsumer + "=" + ConsumerValue
}

// BuildLabels returns the labels a container needs to be discovered as a
// consumer with the given in-container storage root.
func BuildLabels(storageRoot string) map[string]string {
	return map[string]string{
		LabelConsumer:    ConsumerValue,
		LabelStorageRoot: storageRoot,
	}
}

// ParseConsumer reconstructs a ConsumerContainer from a container listing
// entry. The storage-root label is required and must be an absolute path,
// because Docker resolves relative copy destinations against the
// container's working directory.
func ParseConsumer(c container.Summary) (model.ConsumerContainer, error) {
	if c.Labels[LabelConsumer] != ConsumerValue {
		return model.ConsumerContainer{}, fmt.Errorf(
			"container %s: label %s has unexpected value %q (expected %q)",
			shortID(c.ID), LabelConsumer, c.Labels[LabelConsumer], ConsumerValue,
		)
	}

	root, ok := c.Labels[LabelStorageRoot]
	if !ok || strings.TrimSpace(root) == "" {
		return model.ConsumerContainer{}, fmt.Errorf(
			"container %s: missing required label %s", shortID(c.ID), LabelStorageRoot,
		)
	}
	if !path.IsAbs(root) {
		return model.ConsumerContainer{}, fmt.Errorf(
			"container %s: label %s must be an absolute path, got %q",
			shortID(c.ID), LabelStorageRoot, root,
		)
	}

	name := ""
	if len(c.Names) > 0 {
		// Docker reports names with a leading "/".
		name = strings.TrimPrefix(c.Names[0], "/")
	}

	return model.ConsumerContainer{
		ContainerID:   c.ID,
		ContainerName: name,
		StorageRoot:   path.Clean(root),
		Status:        string(c.State),
	}, nil
}

// shortID truncates a container ID to the 12 characters docker ps shows.
func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

// Package docker pushes deployed assets into Docker containers that run
// the consuming engine.
//
// This package handles:
//   - Docker client initialization with automatic socket detection
//     (Linux, macOS, Windows)
//   - Consumer discovery through the "assetdeploy.consumer" and
//     "assetdeploy.storage-root" container labels
//   - Streaming a deployed asset directory into a container as a tar
//     archive through the Docker copy API
//
// The package uses github.com/docker/docker/client as the underlying
// Docker SDK, with version negotiation enabled for broad compatibility.
// Functions take the narrow API interface rather than *client.Client so
// they can be exercised without a running daemon.
package docker

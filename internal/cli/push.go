// push.go implements the "assetdeploy push" command.
//
// Orchestration steps:
//  1. Deploy locally (unless --skip-deploy)
//  2. Connect to Docker and verify the daemon is available
//  3. Pick target containers (--container, or every labelled consumer)
//  4. Stream <storage-root>/<dir-name> into each target
//  5. Output one result per container

package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/assetdeploy/internal/config"
	"github.com/shinji-kodama/assetdeploy/internal/docker"
	"github.com/shinji-kodama/assetdeploy/internal/model"
)

// pushFlags holds the flag values for the push command that are not
// config-backed.
type pushFlags struct {
	skipDeploy bool // --skip-deploy: push what is already deployed
	noWait     bool // --no-wait: fail instead of waiting for another deploy
}

// NewPushCommand creates the "push" cobra command.
func NewPushCommand() *cobra.Command {
	flags := &pushFlags{}

	cmd := &cobra.Command{
		Use:   "push",
		Short: "Deploy, then copy the asset directory into consumer containers",
		Long: `Deploy the resource pack locally, then copy <storage-root>/<dir-name> into
Docker containers that run the consuming engine.

Without --container, every container labelled
  ` + docker.ConsumerFilter() + `
receives the assets under the path in its ` + docker.LabelStorageRoot + ` label.
The storage root must already exist inside the container. Label a
consumer when starting it, for example:
  ` + labelExample("/var/lib/engine") + `

Examples:
  assetdeploy push
  assetdeploy push --container engine-1
  assetdeploy push --container 3f2a --container-root /var/lib/engine
  assetdeploy push --skip-deploy -o json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPush(cmd, flags)
		},
	}

	cmd.Flags().String("container", "", "Container name or ID (default: all labelled consumers)")
	cmd.Flags().String("container-root", "", "Storage root inside --container (default: its label)")
	cmd.Flags().String("policy", string(model.PolicyAbort), "Failure policy for the local deploy: abort or collect")
	cmd.Flags().BoolVar(&flags.skipDeploy, "skip-deploy", false, "Push the existing deployment without deploying first")
	cmd.Flags().BoolVar(&flags.noWait, "no-wait", false, "Fail immediately if another deploy holds the lock")

	return cmd
}

func runPush(cmd *cobra.Command, flags *pushFlags) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// Step 1: Make sure the local deployment is current.
	if !flags.skipDeploy {
		if _, err := runDeploy(ctx, cfg, !flags.noWait); err != nil {
			return err
		}
	}

	// Step 2: Connect to Docker.
	cli, err := docker.NewClient()
	if err != nil {
		return err
	}
	defer func() { _ = cli.Close() }()

	if err := cli.Ping(ctx); err != nil {
		return err
	}
	VerboseLog("Connected to Docker daemon")

	// Step 3: Pick the target containers.
	targets, err := selectTargets(ctx, cli.API(), cfg.Push)
	if err != nil {
		return err
	}
	VerboseLog("Pushing to %d container(s)", len(targets))

	// Step 4: Push to each target. One failing container does not stop
	// the others.
	results, err := pushAll(ctx, cli.API(), cfg, targets)

	// Step 5: Output results.
	if printErr := printResult(cmd, pushTable(results)); printErr != nil && err == nil {
		err = printErr
	}
	return err
}

// selectTargets returns the containers to push to. An explicit container
// with an explicit root skips discovery entirely, so unlabelled containers
// can be targeted too.
func selectTargets(ctx context.Context, api docker.API, push config.PushConfig) ([]model.ConsumerContainer, error) {
	if push.Container != "" && push.ContainerRoot != "" {
		return []model.ConsumerContainer{{
			ContainerID:   push.Container,
			ContainerName: push.Container,
			StorageRoot:   push.ContainerRoot,
		}}, nil
	}

	consumers, skipped, err := docker.ListConsumers(ctx, api)
	if err != nil {
		return nil, err
	}
	for _, s := range skipped {
		logger.Warn("skipping container with invalid labels", "error", s)
	}

	if push.Container != "" {
		c, err := docker.FindConsumer(consumers, push.Container)
		if err != nil {
			return nil, err
		}
		return []model.ConsumerContainer{c}, nil
	}

	if len(consumers) == 0 {
		return nil, model.NewCLIError(
			model.ExitNotFound,
			fmt.Sprintf("no containers labelled %s (start one with %s)",
				docker.ConsumerFilter(), labelExample("<storage-root>")),
		)
	}
	return consumers, nil
}

// labelExample renders the docker run flags that make a container a
// consumer with the given in-container storage root.
func labelExample(storageRoot string) string {
	labels := docker.BuildLabels(storageRoot)
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := []string{"docker run"}
	for _, k := range keys {
		args = append(args, "--label "+k+"="+labels[k])
	}
	return strings.Join(args, " ") + " <image>"
}

// pushAll pushes the local deployment into every target and joins the
// failures.
func pushAll(ctx context.Context, api docker.API, cfg *config.Config, targets []model.ConsumerContainer) ([]model.PushResult, error) {
	results := make([]model.PushResult, 0, len(targets))
	var errs []error
	for _, c := range targets {
		dest, err := docker.PushAssets(ctx, api, c.ContainerID, cfg.StorageRoot, cfg.DirName, c.StorageRoot)
		if err != nil {
			logger.Error("push failed", "container", c.ContainerName, "error", err)
			errs = append(errs, fmt.Errorf("container %s: %w", c.ContainerName, err))
			continue
		}
		logger.Info("pushed", "container", c.ContainerName, "path", dest)
		results = append(results, model.PushResult{Container: c, Path: dest})
	}
	return results, errors.Join(errs...)
}

// pushTable renders push results as a text table.
type pushTable []model.PushResult

func (t pushTable) Header() []string { return []string{"Container", "ID", "Status", "Path"} }

func (t pushTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, r := range t {
		id := r.Container.ContainerID
		if len(id) > 12 {
			id = id[:12]
		}
		rows = append(rows, []string{r.Container.ContainerName, id, r.Container.Status, r.Path})
	}
	return rows
}

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/unanetx/internal/shared"
	"github.com/desertthunder/unanetx/internal/storage"
	"github.com/desertthunder/unanetx/internal/ui"
	"github.com/docker/go-units"
	"github.com/urfave/cli/v3"
)

// BlobsList shows the blobs in the configured store.
func (r *Runner) BlobsList(ctx context.Context, cmd *cli.Command) error {
	store, err := r.blobStore()
	if err != nil {
		return err
	}
	blobs, err := store.List(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		if blobs == nil {
			blobs = []storage.BlobInfo{}
		}
		return r.writeJSON(blobs, true)
	}
	return r.writePlainln("%s", ui.RenderBlobs(blobs))
}

// BlobsGet prints a blob, or saves it with --output.
func (r *Runner) BlobsGet(ctx context.Context, cmd *cli.Command) error {
	name := cmd.Args().First()
	if name == "" {
		return fmt.Errorf("%w: blob name", shared.ErrMissingArgument)
	}

	store, err := r.blobStore()
	if err != nil {
		return err
	}
	data, err := store.Get(ctx, name)
	if err != nil {
		return err
	}

	path := cmd.String("output")
	if path == "" {
		return r.writePlain("%s", data)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return r.writePlainln("%s", ui.Success(fmt.Sprintf("Saved %s to %s (%s)", name, path, units.HumanSize(float64(len(data))))))
}

// BlobsPut uploads a local file under the given blob name.
func (r *Runner) BlobsPut(ctx context.Context, cmd *cli.Command) error {
	name, path := cmd.Args().Get(0), cmd.Args().Get(1)
	if name == "" || path == "" {
		return fmt.Errorf("%w: blob name and file", shared.ErrMissingArgument)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	store, err := r.blobStore()
	if err != nil {
		return err
	}
	if err := store.Put(ctx, name, data); err != nil {
		return err
	}

	r.logger.Info("uploaded blob", "name", name, "bytes", len(data))
	return r.writePlainln("%s", ui.Success(fmt.Sprintf("Uploaded %s (%s)", name, units.HumanSize(float64(len(data))))))
}

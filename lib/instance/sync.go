package instance

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/westvm/westvm/lib/logger"
)

// mirrorExcludes never reach guest-local storage: VCS metadata, build
// output trees and bytecode caches.
var mirrorExcludes = []string{".git", "build", "twister-out*", "__pycache__", "*.pyc"}

// MirrorToLocal mirrors a mounted tree into guest-local storage so heavy
// workloads avoid shared-filesystem I/O. The mirror is one-way and
// destructive on the target (extraneous files are deleted) and
// idempotent: an unchanged source yields no copies or deletions.
func (i *Instance) MirrorToLocal(ctx context.Context, guestMountRoot, guestLocalRoot string) error {
	log := logger.FromContext(ctx)
	log.InfoContext(ctx, "mirroring workspace to local storage",
		"instance", i.name, "from", guestMountRoot, "to", guestLocalRoot)

	if err := i.run(ctx, "mkdir -p "+guestLocalRoot); err != nil {
		return err
	}
	excludes := strings.Join(lo.Map(mirrorExcludes, func(pattern string, _ int) string {
		return fmt.Sprintf("--exclude='%s'", pattern)
	}), " ")
	return i.run(ctx, fmt.Sprintf("rsync -a --delete %s %s/ %s/", excludes, guestMountRoot, guestLocalRoot))
}

// MirrorBack copies results from the local mirror into the mounted tree
// without deleting anything there, so the host sees them before pulling
// files.
func (i *Instance) MirrorBack(ctx context.Context, guestLocalDir, guestMountDir string) error {
	log := logger.FromContext(ctx)
	log.InfoContext(ctx, "mirroring results back to the mount",
		"instance", i.name, "from", guestLocalDir, "to", guestMountDir)

	if err := i.run(ctx, "mkdir -p "+guestMountDir); err != nil {
		return err
	}
	return i.run(ctx, fmt.Sprintf("rsync -a %s/ %s/", guestLocalDir, guestMountDir))
}

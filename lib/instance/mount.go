package instance

import (
	"context"
	"fmt"
	"strings"

	"github.com/westvm/westvm/lib/guestpath"
	"github.com/westvm/westvm/lib/logger"
)

// MountHostPath binds hostPath at guestPath. Repeat requests for the
// same pair are a no-op; a guest path currently bound to a different
// source is unmounted first. Bindings persist for the instance's life;
// this layer never tears them down on its own.
func (i *Instance) MountHostPath(ctx context.Context, hostPath, guestPath string) error {
	log := logger.FromContext(ctx)

	canon, err := guestpath.Canonical(hostPath)
	if err != nil {
		return err
	}

	res, err := i.client.ExecArgs(ctx, i.name, "sudo", "mkdir", "-p", guestPath)
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("create guest mount point %s: %s", guestPath, strings.TrimSpace(res.Stderr))
	}

	mounts, err := i.client.Mounts(ctx, i.name)
	if err != nil {
		return err
	}
	if source, bound := mounts[guestPath]; bound {
		if source == canon {
			log.DebugContext(ctx, "mount already present", "guest_path", guestPath, "source", source)
			return nil
		}
		log.InfoContext(ctx, "guest path bound to a different source, remounting",
			"guest_path", guestPath, "old_source", source, "new_source", canon)
		if err := i.client.Unmount(ctx, i.name, guestPath); err != nil {
			return err
		}
	}

	log.InfoContext(ctx, "mounting", "source", canon, "guest_path", guestPath)
	return i.client.Mount(ctx, canon, i.name, guestPath)
}

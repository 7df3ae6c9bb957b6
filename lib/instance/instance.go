// Package instance manages the lifecycle of the sandbox VM: status
// probing, idempotent provisioning, guest command execution, mount
// bindings and the local-storage sync accelerator.
package instance

import (
	"context"

	"github.com/c2h5oh/datasize"

	"github.com/westvm/westvm/cmd/westvm/config"
	"github.com/westvm/westvm/lib/logger"
	"github.com/westvm/westvm/lib/multipass"
	"github.com/westvm/westvm/lib/resources"
)

// Instance is a handle to the managed sandbox VM. Construct one per
// invocation and thread it explicitly; there is no package-level default
// instance. All state is re-derived from the platform on demand.
type Instance struct {
	name   string
	cfg    *config.Config
	client *multipass.Client
}

// New creates an instance handle. The VM itself may not exist yet.
func New(cfg *config.Config, client *multipass.Client) *Instance {
	return &Instance{name: cfg.InstanceName, cfg: cfg, client: client}
}

// Name returns the instance name.
func (i *Instance) Name() string {
	return i.name
}

// Client returns the underlying platform client.
func (i *Instance) Client() *multipass.Client {
	return i.client
}

// Status derives the instance power state from the platform inventory.
// The state is never cached; every decision point re-queries it.
func (i *Instance) Status(ctx context.Context) (State, error) {
	inst, found, err := i.client.Find(ctx, i.name)
	if err != nil {
		return StateAbsent, err
	}
	if !found {
		return StateAbsent, nil
	}
	return stateFromPlatform(inst.State), nil
}

// EnsureOpts tunes instance creation and provisioning.
type EnsureOpts struct {
	// SDKHintPath is a host directory that may contain an SDK version
	// marker file.
	SDKHintPath string
	// CPUs and Memory size a freshly created instance. Zero values fall
	// back to the low-profile defaults. Existing instances are not
	// resized here; that is the resource scaler's job.
	CPUs   int
	Memory datasize.ByteSize
}

// EnsureReady makes the instance exist, run, and carry a full toolchain.
// Calling it again with no external state change performs no
// provisioning work.
func (i *Instance) EnsureReady(ctx context.Context, opts EnsureOpts) error {
	log := logger.FromContext(ctx)

	state, err := i.Status(ctx)
	if err != nil {
		return err
	}

	switch state {
	case StateAbsent:
		cpus, memory := opts.CPUs, opts.Memory
		if cpus <= 0 || memory == 0 {
			low := resources.Resolve(resources.ProfileLow)
			if cpus <= 0 {
				cpus = low.CPUs
			}
			if memory == 0 {
				memory = low.Memory
			}
		}
		log.InfoContext(ctx, "creating instance",
			"instance", i.name, "image", i.cfg.Image,
			"cpus", cpus, "memory", memory.String(), "disk", i.cfg.DiskSize)
		if err := i.client.Launch(ctx, i.cfg.Image, i.name, cpus, memory, i.cfg.DiskSize); err != nil {
			return err
		}
		return i.provision(ctx, opts.SDKHintPath)

	case StateStopped:
		log.InfoContext(ctx, "starting instance", "instance", i.name)
		if err := i.client.Start(ctx, i.name); err != nil {
			return err
		}
	}

	ok, missing := i.isProvisioned(ctx)
	if ok {
		log.DebugContext(ctx, "instance already provisioned", "instance", i.name)
		return nil
	}
	log.InfoContext(ctx, "provisioning required", "instance", i.name, "missing", missing)
	return i.provision(ctx, opts.SDKHintPath)
}

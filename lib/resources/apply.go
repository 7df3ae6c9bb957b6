package resources

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/westvm/westvm/lib/logger"
	"github.com/westvm/westvm/lib/multipass"
)

// ErrApply is returned when the stop/configure/start sequence fails.
var ErrApply = errors.New("resource profile apply failed")

// Per-instance settings keys the platform exposes.
const (
	cpusKey   = "cpus"
	memoryKey = "memory"
)

// Apply drives the instance to the target sizing. The platform cannot
// resize a running instance, so a change means stop, set cpus, set
// memory, start; matching settings are a no-op. An absent instance is
// left untouched: the caller folds the target into the launch sizing.
// changed reports whether a configure cycle ran.
func Apply(ctx context.Context, client *multipass.Client, name string, target Target) (changed bool, err error) {
	log := logger.FromContext(ctx)

	inst, found, err := client.Find(ctx, name)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrApply, err)
	}
	if !found {
		log.DebugContext(ctx, "instance absent, sizing deferred to launch",
			"instance", name, "cpus", target.CPUs, "memory", target.Memory.String())
		return false, nil
	}

	current, err := currentTarget(ctx, client, name)
	if err != nil {
		return false, fmt.Errorf("%w: read current settings: %v", ErrApply, err)
	}
	if current.CPUs == target.CPUs && current.Memory == target.Memory {
		log.DebugContext(ctx, "resource profile unchanged",
			"instance", name, "cpus", target.CPUs, "memory", target.Memory.String())
		return false, nil
	}

	log.InfoContext(ctx, "resizing instance",
		"instance", name,
		"cpus", target.CPUs, "memory", target.Memory.String(),
		"previous_cpus", current.CPUs, "previous_memory", current.Memory.String())

	if inst.State == multipass.StateRunning {
		if err := client.Stop(ctx, name); err != nil {
			return false, fmt.Errorf("%w: stop: %v", ErrApply, err)
		}
	}
	if err := client.SetLocal(ctx, name, cpusKey, strconv.Itoa(target.CPUs)); err != nil {
		return false, fmt.Errorf("%w: set cpus: %v", ErrApply, err)
	}
	if err := client.SetLocal(ctx, name, memoryKey, multipass.FormatGiB(target.Memory)); err != nil {
		return false, fmt.Errorf("%w: set memory: %v", ErrApply, err)
	}
	if err := client.Start(ctx, name); err != nil {
		return false, fmt.Errorf("%w: start: %v", ErrApply, err)
	}
	return true, nil
}

// currentTarget reads the instance's configured sizing from the platform.
func currentTarget(ctx context.Context, client *multipass.Client, name string) (Target, error) {
	cpusStr, err := client.GetLocal(ctx, name, cpusKey)
	if err != nil {
		return Target{}, err
	}
	cpus, err := strconv.Atoi(cpusStr)
	if err != nil {
		return Target{}, fmt.Errorf("parse cpus %q: %w", cpusStr, err)
	}
	memStr, err := client.GetLocal(ctx, name, memoryKey)
	if err != nil {
		return Target{}, err
	}
	mem, err := multipass.ParseSize(memStr)
	if err != nil {
		return Target{}, err
	}
	return Target{CPUs: cpus, Memory: mem}, nil
}

// WithProfile brackets fn between a scale-up to the high profile and a
// guaranteed scale-down to low. The release runs on every exit path,
// including when fn fails; a release failure is logged rather than
// masking fn's error. keepWarm skips the release so consecutive heavy
// operations avoid the stop/start cycle.
func WithProfile(ctx context.Context, client *multipass.Client, name string, keepWarm bool, fn func(ctx context.Context, target Target) error) error {
	high := Resolve(ProfileHigh)
	if _, err := Apply(ctx, client, name, high); err != nil {
		return err
	}
	defer func() {
		if keepWarm {
			logger.FromContext(ctx).DebugContext(ctx, "keeping instance warm", "instance", name)
			return
		}
		if _, err := Apply(ctx, client, name, Resolve(ProfileLow)); err != nil {
			logger.FromContext(ctx).WarnContext(ctx, "failed to restore low resource profile",
				"instance", name, "error", err)
		}
	}()
	return fn(ctx, high)
}

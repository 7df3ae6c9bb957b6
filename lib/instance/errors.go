package instance

import "errors"

var (
	// ErrProvisioning is returned when a mandatory setup step fails.
	// The whole operation aborts; nothing downstream can run without a
	// complete toolchain.
	ErrProvisioning = errors.New("provisioning failed")

	// ErrUnsupportedArch is returned when the guest architecture has no
	// SDK build.
	ErrUnsupportedArch = errors.New("unsupported guest architecture")
)

package config

import (
	"fmt"
	"os"
	"path"

	"github.com/c2h5oh/datasize"
	"github.com/joho/godotenv"
)

type Config struct {
	InstanceName       string // name of the managed VM
	Image              string // ubuntu image passed to launch
	DiskSize           string // fixed at creation, never resized
	GuestHome          string // home directory inside the guest
	SDKDir             string // SDK install dir inside the guest
	VenvDir            string // isolated runtime environment dir
	BuildsRoot         string // per-source-hash build dirs
	LocalSrcRoot       string // guest-local mirror of the workspace
	FallbackSDKVersion string // used when no version marker is found
	CcacheSize         string // compilation cache limit
	LogLevel           string // debug, info, warn, error
	KeepWarm           bool   // skip the scale-down after heavy work
}

// Load loads configuration from environment variables
// Automatically loads .env file if present
func Load() *Config {
	// Try to load .env file (fail silently if not present)
	_ = godotenv.Load()

	home := getEnv("WESTVM_GUEST_HOME", "/home/ubuntu")
	cfg := &Config{
		InstanceName:       getEnv("WESTVM_NAME", "zephyr-vm"),
		Image:              getEnv("WESTVM_IMAGE", "24.04"),
		DiskSize:           getEnv("WESTVM_DISK", "20G"),
		GuestHome:          home,
		SDKDir:             getEnv("WESTVM_SDK_DIR", path.Join(home, "zephyr-sdk")),
		VenvDir:            getEnv("WESTVM_VENV_DIR", path.Join(home, ".venv")),
		BuildsRoot:         getEnv("WESTVM_BUILDS_ROOT", path.Join(home, "builds")),
		LocalSrcRoot:       getEnv("WESTVM_LOCAL_SRC", path.Join(home, "src")),
		FallbackSDKVersion: getEnv("WESTVM_SDK_VERSION", "0.17.0"),
		CcacheSize:         getEnv("WESTVM_CCACHE_SIZE", "5G"),
		LogLevel:           getEnv("WESTVM_LOG_LEVEL", "info"),
		KeepWarm:           getEnvBool("WESTVM_KEEP_WARM", false),
	}

	return cfg
}

// Validate rejects settings the platform would choke on later.
func (c *Config) Validate() error {
	if c.InstanceName == "" {
		return fmt.Errorf("instance name must not be empty")
	}
	var disk datasize.ByteSize
	if err := disk.UnmarshalText([]byte(c.DiskSize)); err != nil {
		return fmt.Errorf("invalid disk size %q: %w", c.DiskSize, err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	switch os.Getenv(key) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	}
	return defaultValue
}

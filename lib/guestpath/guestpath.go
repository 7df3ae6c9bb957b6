// Package guestpath maps host filesystem paths to stable guest paths.
// Workspace descendants ride the workspace-wide mount; everything else
// gets a dedicated mount point derived from a fingerprint of the host
// path, so repeated requests land on the same guest path.
package guestpath

import (
	"crypto/sha256"
	"encoding/hex"
	"path"
	"path/filepath"
	"strings"
)

const (
	// DefaultExtMountRoot is the guest directory holding mounts for host
	// paths outside the workspace.
	DefaultExtMountRoot = "/mnt"

	extMountPrefix = "ext_"

	// fingerprintLen is the hex width of mount fingerprints. 32 bits keep
	// guest paths short; with tens of out-of-tree mounts per workspace
	// the birthday collision probability stays below 1e-6, and the mount
	// layer compares mount sources so a collision surfaces as a remount
	// rather than silent aliasing.
	fingerprintLen = 8
)

// Canonical resolves p to an absolute, cleaned, symlink-free path. When
// symlink resolution fails (the path may not exist yet) the absolute
// cleaned path is used as-is.
func Canonical(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	return filepath.Clean(abs), nil
}

// Fingerprint returns a short stable hash of a canonical host path.
func Fingerprint(p string) string {
	sum := sha256.Sum256([]byte(p))
	return hex.EncodeToString(sum[:])[:fingerprintLen]
}

// Resolver maps host paths into the guest namespace.
type Resolver struct {
	WorkspaceRoot      string // canonical host workspace root
	WorkspaceGuestRoot string // guest mount point covering the workspace
	ExtMountRoot       string // parent dir for out-of-tree mounts; empty means DefaultExtMountRoot
}

// Map translates a host path to its guest path. needsMount reports
// whether the caller must establish a dedicated mount binding for the
// returned guest path; workspace descendants are already covered by the
// workspace mount.
func (r Resolver) Map(hostPath string) (guestPath string, needsMount bool, err error) {
	canon, err := Canonical(hostPath)
	if err != nil {
		return "", false, err
	}
	if rel, ok := relativeTo(canon, r.WorkspaceRoot); ok {
		return path.Join(r.WorkspaceGuestRoot, rel), false, nil
	}
	root := r.ExtMountRoot
	if root == "" {
		root = DefaultExtMountRoot
	}
	return path.Join(root, extMountPrefix+Fingerprint(canon)), true, nil
}

// Rebase moves a guest path from one root onto another, used after the
// workspace has been mirrored into guest-local storage. Paths outside
// fromRoot come back unchanged.
func Rebase(guestPath, fromRoot, toRoot string) string {
	if guestPath == fromRoot {
		return toRoot
	}
	prefix := strings.TrimSuffix(fromRoot, "/") + "/"
	if !strings.HasPrefix(guestPath, prefix) {
		return guestPath
	}
	return path.Join(toRoot, strings.TrimPrefix(guestPath, prefix))
}

// relativeTo returns p relative to root when p is root or a descendant,
// with forward slashes for guest use.
func relativeTo(p, root string) (string, bool) {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return "", false
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

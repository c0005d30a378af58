// Copyright 2026 The Warren Authors
// SPDX-License-Identifier: Apache-2.0

package controller

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"
)

// cleanupMounts lazily unmounts every mount point under baseDir before
// the directory is removed on shutdown. Mount points are read from
// /proc/mounts and unmounted deepest-first so nested mounts come apart
// in order. Individual unmount failures do not stop the walk; the
// first error is reported after all candidates were tried.
func cleanupMounts(baseDir string) error {
	mounts, err := mountsUnder(baseDir)
	if err != nil {
		return err
	}

	var firstErr error
	// /proc/mounts lists mounts in mount order; unmount in reverse.
	for i := len(mounts) - 1; i >= 0; i-- {
		err := unix.Unmount(mounts[i], unix.MNT_DETACH|unix.UMOUNT_NOFOLLOW)
		if err != nil && !errors.Is(err, unix.ENOENT) && firstErr == nil {
			firstErr = fmt.Errorf("unmounting %s: %w", mounts[i], err)
		}
	}
	return firstErr
}

// mountsUnder lists mount points at or below dir, in /proc/mounts
// order. A missing /proc/mounts yields an empty list: nothing to
// clean up on such systems.
func mountsUnder(dir string) ([]string, error) {
	file, err := os.Open("/proc/mounts")
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading mount table: %w", err)
	}
	defer file.Close()

	prefix := strings.TrimSuffix(dir, "/") + "/"
	var mounts []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		mountPoint := unescapeMountPath(fields[1])
		if mountPoint == dir || strings.HasPrefix(mountPoint, prefix) {
			mounts = append(mounts, mountPoint)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning mount table: %w", err)
	}
	return mounts, nil
}

// unescapeMountPath decodes the octal escapes /proc/mounts uses for
// spaces, tabs, newlines, and backslashes in mount paths.
func unescapeMountPath(path string) string {
	if !strings.Contains(path, `\`) {
		return path
	}
	var out strings.Builder
	out.Grow(len(path))
	for i := 0; i < len(path); i++ {
		if path[i] == '\\' && i+3 < len(path) {
			var c byte
			valid := true
			for _, d := range []byte(path[i+1 : i+4]) {
				if d < '0' || d > '7' {
					valid = false
					break
				}
				c = c<<3 | (d - '0')
			}
			if valid {
				out.WriteByte(c)
				i += 3
				continue
			}
		}
		out.WriteByte(path[i])
	}
	return out.String()
}

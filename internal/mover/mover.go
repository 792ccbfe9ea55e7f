// Package mover relocates one file into a destination directory without ever
// overwriting an existing entry. Same-volume moves are plain renames; moves
// across volumes fall back to copy-then-delete.
package mover

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

// maxSuffix bounds the collision-rename loop. A directory holding this many
// same-named files is a configuration problem, not something to spin on.
const maxSuffix = 10000

// Mover performs collision-safe moves. The zero value is ready to use.
type Mover struct {
	// DatedSubdirs routes files into destDir/<year>/<month> the way the
	// original sorter did. Off by default.
	DatedSubdirs bool

	// now is overridable for tests of the dated layout.
	now func() time.Time
}

// New returns a Mover.
func New(datedSubdirs bool) *Mover {
	return &Mover{DatedSubdirs: datedSubdirs}
}

// Move relocates src into destDir and returns the final path. The
// destination directory is created if absent. If destDir already holds an
// entry with src's base name, a " (n)" suffix is inserted before the
// extension, starting at (1) and incrementing until a free name is found.
// The free name is claimed with O_EXCL so concurrent movers racing for the
// same name cannot clobber each other.
//
// Move is not idempotent: a second call for an already-moved source fails
// with KindSourceVanished.
func (m *Mover) Move(src, destDir string) (string, error) {
	info, err := os.Stat(src)
	if err != nil {
		return "", classifySource(src, destDir, err)
	}
	if info.IsDir() {
		return "", &Error{Kind: KindUnexpectedIO, Source: src, Dest: destDir,
			Err: errors.New("source is a directory")}
	}

	if m.DatedSubdirs {
		destDir = filepath.Join(destDir, m.timestamp().Format("2006"), m.timestamp().Format("Jan"))
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", classifyDest(src, destDir, err)
	}

	base := filepath.Base(src)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	// Claim a free name, then move onto the claimed placeholder. Claiming
	// with O_EXCL re-checks existence at the moment of the claim, so a
	// concurrent writer that wins the race just pushes us to the next
	// suffix.
	for n := 0; n <= maxSuffix; n++ {
		name := base
		if n > 0 {
			name = fmt.Sprintf("%s (%d)%s", stem, n, ext)
		}
		dest := filepath.Join(destDir, name)

		// The placeholder is claimed writable regardless of the source
		// mode: a rename swaps in the source inode unchanged, and the
		// cross-volume copy must be able to reopen the placeholder even
		// when the source is read-only.
		claim, err := os.OpenFile(dest, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", classifyDest(src, dest, err)
		}
		if err := claim.Close(); err != nil {
			_ = os.Remove(dest)
			return "", classifyDest(src, dest, err)
		}

		if err := m.rename(src, dest, info); err != nil {
			_ = os.Remove(dest)
			return "", err
		}
		return dest, nil
	}

	return "", &Error{Kind: KindUnexpectedIO, Source: src, Dest: destDir,
		Err: fmt.Errorf("no free name after %d attempts", maxSuffix)}
}

// rename moves src onto the already-claimed dest placeholder, falling back
// to copy-then-delete when src and dest live on different volumes.
func (m *Mover) rename(src, dest string, info os.FileInfo) error {
	err := os.Rename(src, dest)
	if err == nil {
		return nil
	}
	if !isCrossDevice(err) {
		if os.IsNotExist(err) {
			return classifySource(src, dest, err)
		}
		return classifyDest(src, dest, err)
	}
	return m.copyAndRemove(src, dest, info)
}

// copyAndRemove streams src into dest, restores the source's mode and
// modification time best-effort, and removes the source. On a failed copy
// the partial dest is removed so the collision loop's claim does not leak a
// truncated file.
func (m *Mover) copyAndRemove(src, dest string, info os.FileInfo) error {
	in, err := os.Open(src)
	if err != nil {
		return classifySource(src, dest, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return classifyDest(src, dest, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dest)
		return classifyDest(src, dest, err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dest)
		return classifyDest(src, dest, err)
	}

	_ = os.Chmod(dest, info.Mode().Perm())
	_ = os.Chtimes(dest, time.Now(), info.ModTime())

	if err := os.Remove(src); err != nil {
		return classifySource(src, dest, err)
	}
	return nil
}

func (m *Mover) timestamp() time.Time {
	if m.now != nil {
		return m.now()
	}
	return time.Now()
}

// isCrossDevice reports whether a rename failed because source and
// destination are on different volumes.
func isCrossDevice(err error) bool {
	return errors.Is(err, syscall.EXDEV)
}

//go:build debug

package ui

import (
	"io/fs"
	"os"
)

// DistFS reads ui/dist from disk so edits show up without recompiling.
func DistFS() (fs.FS, error) {
	return os.DirFS("ui/dist"), nil
}

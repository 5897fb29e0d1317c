//go:build !unix

package engine

import "os/exec"

// configureProcessGroup keeps the exec.CommandContext default of killing the
// direct child only.
func configureProcessGroup(_ *exec.Cmd) {}

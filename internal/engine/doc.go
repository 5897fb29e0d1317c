// Package engine runs the external typesetting engine as an opaque subprocess.
//
// The ProcessRunner interface is the only way the compiler touches a real
// process: given a command and a working directory it returns the captured
// output and exit status, or an error that says the process could not be run
// at all. ExecRunner is the os/exec implementation; tests substitute fakes.
package engine

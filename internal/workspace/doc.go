// Package workspace manages the per-request working directories in which the
// typesetting engine runs.
//
// Every compilation acquires its own directory named
// <prefix>-<timestamp>-<uuid> under the manager's base directory and releases
// it (recursively) when the request ends, whatever the outcome. Directories
// are never shared or reused. Sweep reclaims directories left behind by a
// process that died before releasing them.
package workspace

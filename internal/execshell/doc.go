// Package execshell provides structured helpers for invoking external tools.
//
// It wraps os/exec with logging via ShellExecutor, exposes OSCommandRunner for
// default process execution, and verifies that git and the build tool are
// installed. Every invocation carries an explicit working directory.
package execshell

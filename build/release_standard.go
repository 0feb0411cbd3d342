//go:build !dev && !testing
// +build !dev,!testing

package build

// Release is set to "standard" for a normal release build: Critical/Severe
// print diagnostics but never panic.
const Release = "standard"

// DEBUG is false in a standard build.
const DEBUG = false

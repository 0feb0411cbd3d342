//go:build testing
// +build testing

package build

// Release is set to "testing" by the testing build tag, used by the test
// suite so Critical/Severe panic deterministically without printing a stack
// trace to stderr on every test run.
const Release = "testing"

// DEBUG is true in a testing build.
const DEBUG = true

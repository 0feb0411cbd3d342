//go:build dev
// +build dev

package build

// Release is set to "dev" by the dev build tag.
const Release = "dev"

// DEBUG is true in a dev build, so Critical/Severe panic instead of merely
// printing, surfacing developer errors immediately.
const DEBUG = true

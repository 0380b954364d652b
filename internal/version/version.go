// Package version holds the tool version string.
package version

// Version is the semantic version of the lowir toolchain.
const Version = "0.1.0"

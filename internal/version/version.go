// Package version holds the application version string, set at build time
// via -ldflags or left at the development default.
package version

// Version is the application version reported by the /api/system/version endpoint.
var Version = "1.0.0-dev"

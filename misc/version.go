// Package misc keeps program identification values set at build time.
package misc

const appName = "mcsave"

// set by linker: -X mcsave/misc.version=... -X mcsave/misc.gitHash=...
var (
	version = "dev"
	gitHash = "unknown"
)

// GetAppName returns program name used for logs and reports.
func GetAppName() string {
	return appName
}

func GetVersion() string {
	return version
}

func GetGitHash() string {
	return gitHash
}

// UserAgent is sent with every request to Marketing Cloud.
func UserAgent() string {
	return appName + "/" + version
}

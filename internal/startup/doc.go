// Package startup loads configuration and writes the lifecycle log lines for
// the Media Explorer server.
//
// # Configuration
//
// [Load] reads an optional .env file with godotenv, then fills [Config] from
// the environment with envconfig. [LoadConfig] additionally applies the log
// level, prints the banner and prepares directories:
//
//   - ROOT_DIR must exist and is made absolute
//   - CACHE_DIR is created if missing; a failed write test only warns, since
//     thumbnails are still served (regenerated on every request)
//
// The access token is never logged in full.
//
// # Build Information
//
// Version, Commit and BuildTime are injected via -ldflags and exposed through
// [GetBuildInfo].
//
// # Lifecycle Logging
//
//   - [LogImageInit], [LogToolsInit], [LogCacheInit]: pipeline capabilities
//   - [LogHTTPRoutes]: registered routes grouped by prefix (debug level)
//   - [LogServerStarted]: listen address and startup duration
//   - [LogShutdownInitiated], [LogShutdownStep], [LogShutdownComplete]
//
// Example:
//
//	config, err := startup.LoadConfig()
//	if err != nil {
//	    startup.LogFatal("Configuration error: %v", err)
//	}
//	startup.LogToolsInit(config.FFmpegBin, config.FFprobeBin)
package startup

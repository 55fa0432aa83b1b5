// Command thumbjanitor maintains the Media Explorer thumbnail cache from the
// command line, using the same limits as the server's background janitor.
//
// Usage:
//
//	thumbjanitor <command>
//
// Commands:
//
//	maintain  Remove thumbnails older than THUMB_CACHE_MAX_AGE_DAYS, then
//	          remove the oldest remaining ones until the cache fits in
//	          THUMB_CACHE_MAX_MB. Abandoned temp files are removed as well.
//
//	stats     Print the number of cached thumbnails and their total size.
//
//	purge     Remove every cached thumbnail. Asks for confirmation unless
//	          -yes is given; refuses to prompt when stdin is not a terminal.
//
// Environment:
//
//	CACHE_DIR                - Thumbnail cache directory (default: .thumb_cache)
//	THUMB_CACHE_MAX_AGE_DAYS - Maximum age in days, 0 disables (default: 1)
//	THUMB_CACHE_MAX_MB       - Maximum size in MiB, 0 disables (default: 500)
//
// A .env file in the working directory is read first, as the server does.
// Running maintain while the server is up is safe: entries are written
// atomically and a deleted entry is regenerated on its next request.
package main

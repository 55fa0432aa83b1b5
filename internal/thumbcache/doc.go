/*
Package thumbcache stores rendered thumbnails on disk, keyed by a fingerprint
of the source file.

# Fingerprints

An entry is named after the SHA-256 of the media namespace, the absolute
source path, its modification time in nanoseconds, its byte size and the
requested edge size:

	<cache dir>/<64 hex chars>.jpg

Editing or replacing a source changes its mtime or size, so stale entries are
never served; they simply age out. There is no manifest.

# Serving

Cache.GetOrCreate never fails. Cache hits are read straight from disk.
Misses are generated once per fingerprint no matter how many requests race
for it, under a shared worker limit, and written with an atomic rename.
Anything that goes wrong yields an SVG placeholder of the requested size.

# Janitor

Janitor keeps the directory bounded. Each pass first deletes entries older
than Limits.MaxAge, then deletes the oldest remaining entries until the total
is within Limits.MaxBytes. Abandoned temp files from interrupted writes are
removed once they are an hour old.
*/
package thumbcache

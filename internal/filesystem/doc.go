/*
Package filesystem holds the filesystem primitives shared by the thumbnail
pipeline and the HTTP layer.

# Path resolution

Resolver confines untrusted, URL-derived relative paths to the shared root.
Paths are joined onto the root, symlinks are resolved for the longest existing
prefix, and the result must equal the root or sit strictly below it:

	r, err := filesystem.NewResolver("/srv/media")
	abs, err := r.Resolve("holiday/IMG_0001.jpg")
	if errors.Is(err, filesystem.ErrForbiddenPath) {
	    // 403
	}

A sibling directory sharing the root's name prefix ("/srv/media2") is not
inside "/srv/media".

# Atomic writes

WriteFileAtomic writes through a hidden ".<name>.tmp-*" file in the target
directory and renames it into place. Concurrent readers see either nothing or
the complete file. Abandoned temp files can be recognized with IsTempName.

# NFS retry

StatWithRetry, OpenWithRetry, ReadFileWithRetry and ReadDirWithRetry retry
ESTALE (stale file handle) errors with exponential backoff:

  - MaxRetries: 3
  - InitialBackoff: 50ms
  - MaxBackoff: 500ms

Other errors are returned immediately. Metrics are reported through the
Observer installed with SetObserver; volume labels come from VolumeResolver.
*/
package filesystem

// Package handlers provides the HTTP handlers of the media explorer.
//
// It includes handlers for:
//   - Image and video thumbnails (/thumb, /vthumb)
//   - Inline viewing and single-file download (/raw, /download)
//   - JSON directory listings (/api/list)
//   - Health, liveness, readiness and version
//
// Every handler that takes a {path} route variable confines it to the shared
// root through filesystem.Resolver and answers 403 when it escapes.
package handlers

// Package media classifies files and renders thumbnails for them.
//
// Classify maps a file name to KindImage, KindVideo or KindOther using fixed
// extension sets and a content-type table.
//
// ImageThumbnailer produces a JPEG that fits a square box, using libvips when
// InitVips succeeded and the pure Go decoders otherwise. HEIC/HEIF needs
// libvips built with libheif; see DetectCapabilities.
//
// VideoThumbnailer grabs a square, center-cropped frame through a
// FrameExtractor. FFmpegRunner is the production extractor; every ffmpeg and
// ffprobe invocation is bounded by FFmpegConfig.Timeout.
package media

package media

import (
	"sync"

	"media-explorer/internal/logging"

	"github.com/davidbyttow/govips/v2/vips"
)

var (
	vipsInitialized bool
	vipsInitMutex   sync.Mutex
	vipsAvailable   bool
)

// vipsSeverity ranks libvips levels, higher is more severe. The underlying
// GLib values run the other way.
func vipsSeverity(l vips.LogLevel) int {
	switch l {
	case vips.LogLevelError, vips.LogLevelCritical:
		return 3
	case vips.LogLevelWarning:
		return 2
	case vips.LogLevelMessage, vips.LogLevelInfo:
		return 1
	default:
		return 0
	}
}

// vipsLogSettings maps the application log level onto a libvips verbosity and
// a handler forwarding libvips messages into our logger.
func vipsLogSettings(level logging.LogLevel) (vips.LoggingHandlerFunction, vips.LogLevel) {
	forward := func(floor vips.LogLevel) vips.LoggingHandlerFunction {
		return func(domain string, lvl vips.LogLevel, msg string) {
			sev := vipsSeverity(lvl)
			if sev < vipsSeverity(floor) {
				return
			}
			switch sev {
			case 3:
				logging.Error("[%s] %s", domain, msg)
			case 2:
				logging.Warn("[%s] %s", domain, msg)
			default:
				logging.Debug("[%s] %s", domain, msg)
			}
		}
	}

	switch level {
	case logging.LevelDebug:
		return forward(vips.LogLevelInfo), vips.LogLevelInfo
	case logging.LevelWarn, logging.LevelError:
		return forward(vips.LogLevelError), vips.LogLevelError
	default:
		return forward(vips.LogLevelWarning), vips.LogLevelWarning
	}
}

// InitVips starts libvips. Call once at startup; later calls are no-ops.
func InitVips() error {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		return nil
	}

	vips.LoggingSettings(vipsLogSettings(logging.GetLevel()))

	// Thumbnails are small; keep libvips' operation cache modest.
	vips.Startup(&vips.Config{
		ConcurrencyLevel: 1,
		MaxCacheMem:      50 * 1024 * 1024,
		MaxCacheSize:     100,
	})

	vipsInitialized = true
	vipsAvailable = true
	logging.Info("libvips initialized successfully (version: %s)", vips.Version)
	return nil
}

// ShutdownVips releases libvips resources.
func ShutdownVips() {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		vips.Shutdown()
		vipsInitialized = false
		vipsAvailable = false
		logging.Info("libvips shutdown complete")
	}
}

// IsVipsAvailable returns whether libvips is initialized.
func IsVipsAvailable() bool {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()
	return vipsAvailable
}

// Capabilities describes which decoders the process can use. It is resolved
// once at startup and handed to the thumbnailers.
type Capabilities struct {
	// ImageDecoder is false only when image thumbnailing is disabled outright.
	ImageDecoder bool
	// HEIFDecoder reports HEIC/HEIF support, which only libvips provides.
	HEIFDecoder bool
	// Vips selects the libvips pipeline over the pure Go one.
	Vips bool
}

// DetectCapabilities inspects the running libvips, if any.
func DetectCapabilities() Capabilities {
	caps := Capabilities{ImageDecoder: true}
	if IsVipsAvailable() {
		caps.Vips = true
		caps.HEIFDecoder = vips.IsTypeSupported(vips.ImageTypeHEIF)
	}
	logging.Debug("Image capabilities: vips=%t heif=%t", caps.Vips, caps.HEIFDecoder)
	return caps
}

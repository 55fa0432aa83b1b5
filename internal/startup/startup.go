package startup

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"media-explorer/internal/logging"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Set with -ldflags "-X media-explorer/internal/startup.Version=...".
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo is served by /version.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo reports the injected build variables and the platform.
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo is one method/path pair registered on a router.
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// Config holds all application configuration. It is built once at startup
// and passed to constructors.
type Config struct {
	RootDir     string `envconfig:"ROOT_DIR" required:"true"`
	CacheDir    string `envconfig:"CACHE_DIR" default:".thumb_cache"`
	Host        string `envconfig:"HOST" default:"0.0.0.0"`
	Port        int    `envconfig:"PORT" default:"8000"`
	AccessToken string `envconfig:"ACCESS_TOKEN"`

	// CORSOrigins is a comma-separated allow list; empty disables CORS.
	CORSOrigins []string `envconfig:"CORS_ORIGINS"`

	FFmpegBin         string        `envconfig:"FFMPEG_BIN" default:"ffmpeg"`
	FFprobeBin        string        `envconfig:"FFPROBE_BIN" default:"ffprobe"`
	ToolTimeout       time.Duration `envconfig:"TOOL_TIMEOUT" default:"20s"`
	ThumbnailTimeout  time.Duration `envconfig:"THUMBNAIL_TIMEOUT" default:"2m"`
	ThumbnailWorkers  int           `envconfig:"THUMBNAIL_WORKERS"`
	VipsEnabled       bool          `envconfig:"VIPS_ENABLED" default:"true"`
	CacheMaxAgeDays   int           `envconfig:"THUMB_CACHE_MAX_AGE_DAYS" default:"1"`
	CacheMaxMB        int64         `envconfig:"THUMB_CACHE_MAX_MB" default:"500"`
	JanitorInterval   time.Duration `envconfig:"JANITOR_INTERVAL" default:"1h"`
	MetricsEnabled    bool          `envconfig:"METRICS_ENABLED" default:"true"`
	LogLevel          string        `envconfig:"LOG_LEVEL" default:"info"`
	Debug             bool          `envconfig:"DEBUG"`
	LogHealthChecks   bool          `envconfig:"LOG_HEALTH_CHECKS" default:"true"`
	ShutdownTimeout   time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"15s"`
	ReadHeaderTimeout time.Duration `envconfig:"READ_HEADER_TIMEOUT" default:"10s"`
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Level is the configured log level; DEBUG wins over LOG_LEVEL.
func (c *Config) Level() logging.LogLevel {
	if c.Debug {
		return logging.LevelDebug
	}
	return logging.ParseLevel(c.LogLevel)
}

// Load reads .env (if present) and the environment into a Config and
// validates it. It does no I/O beyond that.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.RootDir) == "" {
		return errors.New("ROOT_DIR must not be empty")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT %d out of range", c.Port)
	}
	if c.ToolTimeout <= 0 {
		return fmt.Errorf("TOOL_TIMEOUT must be positive, got %s", c.ToolTimeout)
	}
	if c.CacheMaxAgeDays < 0 || c.CacheMaxMB < 0 {
		return errors.New("THUMB_CACHE_MAX_AGE_DAYS and THUMB_CACHE_MAX_MB must not be negative")
	}
	if c.ThumbnailWorkers < 0 {
		return fmt.Errorf("THUMBNAIL_WORKERS must not be negative, got %d", c.ThumbnailWorkers)
	}
	if c.JanitorInterval < 0 {
		return fmt.Errorf("JANITOR_INTERVAL must not be negative, got %s", c.JanitorInterval)
	}
	return nil
}

// LoadConfig loads the configuration, applies the log level, prints the
// banner and prepares the directories.
func LoadConfig() (*Config, error) {
	config, err := Load()
	if err != nil {
		return nil, err
	}
	logging.SetLevel(config.Level())

	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  ROOT_DIR:                  %s", config.RootDir)
	logging.Info("  CACHE_DIR:                 %s", config.CacheDir)
	logging.Info("  HOST:                      %s", config.Host)
	logging.Info("  PORT:                      %d", config.Port)
	logging.Info("  ACCESS_TOKEN:              %s", maskSecret(config.AccessToken))
	logging.Info("  CORS_ORIGINS:              %v", config.CORSOrigins)
	logging.Info("  FFMPEG_BIN:                %s", config.FFmpegBin)
	logging.Info("  FFPROBE_BIN:               %s", config.FFprobeBin)
	logging.Info("  TOOL_TIMEOUT:              %s", config.ToolTimeout)
	logging.Info("  THUMBNAIL_TIMEOUT:         %s", config.ThumbnailTimeout)
	logging.Info("  THUMBNAIL_WORKERS:         %s", workersString(config.ThumbnailWorkers))
	logging.Info("  THUMB_CACHE_MAX_AGE_DAYS:  %d", config.CacheMaxAgeDays)
	logging.Info("  THUMB_CACHE_MAX_MB:        %d", config.CacheMaxMB)
	logging.Info("  JANITOR_INTERVAL:          %s", config.JanitorInterval)
	logging.Info("  VIPS_ENABLED:              %v", config.VipsEnabled)
	logging.Info("  METRICS_ENABLED:           %v", config.MetricsEnabled)
	logging.Info("  LOG_HEALTH_CHECKS:         %v", config.LogHealthChecks)
	logging.Info("  LOG_LEVEL:                 %s", logging.GetLevel())

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	config.RootDir, err = filepath.Abs(config.RootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root directory path: %w", err)
	}
	logging.Info("  Root directory (absolute):  %s", config.RootDir)

	config.CacheDir, err = filepath.Abs(config.CacheDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cache directory path: %w", err)
	}
	logging.Info("  Cache directory (absolute): %s", config.CacheDir)

	// The shared root is mounted, never created.
	info, err := os.Stat(config.RootDir)
	if err != nil {
		return nil, fmt.Errorf("root directory error: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root directory error: %s is not a directory", config.RootDir)
	}
	logDirectoryContents(config.RootDir)

	if err := ensureDirectory(config.CacheDir, "cache"); err != nil {
		return nil, fmt.Errorf("cache directory error: %w", err)
	}

	// Thumbnails are still served when the cache is read-only, just never stored.
	logging.Debug("  Testing cache directory write access...")
	if err := testWriteAccess(config.CacheDir); err != nil {
		logging.Warn("  Cache directory is not writable: %v", err)
		logging.Warn("  Thumbnails will be regenerated on every request")
	} else {
		logging.Info("  [OK] Cache directory is writable")
	}

	return config, nil
}

func workersString(n int) string {
	if n == 0 {
		return "auto"
	}
	return strconv.Itoa(n)
}

func maskSecret(s string) string {
	if s == "" {
		return "(not set, access is open)"
	}
	return "********"
}

// LogToolsInit checks ffmpeg and ffprobe and logs the outcome. Missing
// tools only disable video thumbnails.
func LogToolsInit(ffmpegBin, ffprobeBin string) bool {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("VIDEO TOOLS")
	logging.Info("------------------------------------------------------------")

	ok := true
	for _, bin := range []string{ffmpegBin, ffprobeBin} {
		if err := checkTool(bin); err != nil {
			logging.Warn("  %s check failed: %v", bin, err)
			ok = false
			continue
		}
		logging.Info("  [OK] %s is available", bin)
	}
	if !ok {
		logging.Warn("  Video thumbnails will fall back to placeholders")
	}
	return ok
}

// LogImageInit logs which image pipeline is active.
func LogImageInit(vips, heif bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("IMAGE PIPELINE")
	logging.Info("------------------------------------------------------------")
	if vips {
		logging.Info("  Decoder:     libvips")
	} else {
		logging.Info("  Decoder:     pure Go (imaging)")
	}
	logging.Info("  HEIC/HEIF:   %s", enabledString(heif))
}

// LogCacheInit logs the cache limits and worker pool size.
func LogCacheInit(dir string, workers int, maxAgeDays int, maxMB int64, interval time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("THUMBNAIL CACHE")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Directory:        %s", dir)
	logging.Info("  Workers:          %d", workers)
	logging.Info("  Max age:          %d day(s)", maxAgeDays)
	logging.Info("  Max size:         %d MB", maxMB)
	if interval > 0 {
		logging.Info("  Janitor interval: %s", interval)
	} else {
		logging.Info("  Janitor interval: startup only")
	}
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

// GetRoutes walks router and expands each route into one entry per method.
// Routes without a method matcher are listed as "*".
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}

		name := route.GetName()

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   name,
			})
		}

		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs the route table at debug level and the access policy
// at info level.
func LogHTTPRoutes(router *mux.Router, logHealthChecks, authEnabled bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}

		logging.Debug("  Registered routes (%d total):", len(routes))
		logging.Debug("")

		groups := make(map[string][]RouteInfo)
		for _, route := range routes {
			prefix := getRouteGroup(route.Path)
			groups[prefix] = append(groups[prefix], route)
		}

		groupKeys := make([]string, 0, len(groups))
		for k := range groups {
			groupKeys = append(groupKeys, k)
		}
		sort.Strings(groupKeys)

		for _, group := range groupKeys {
			if group != "" {
				logging.Debug("  [%s]", group)
			} else {
				logging.Debug("  [root]")
			}
			for _, route := range groups[group] {
				logging.Debug("    %-6s %s", route.Method, route.Path)
			}
			logging.Debug("")
		}
	}

	if authEnabled {
		logging.Info("  Token authentication: ON")
	} else {
		logging.Warn("  Token authentication: OFF (set ACCESS_TOKEN to enable)")
	}
	if logHealthChecks {
		logging.Info("  Health check logging: ON")
	} else {
		logging.Info("  Health check logging: OFF (set LOG_HEALTH_CHECKS=true to enable)")
	}
}

// getRouteGroup names the first path segment, or api/<segment> for API routes.
func getRouteGroup(path string) string {
	path = strings.TrimPrefix(path, "/")

	parts := strings.SplitN(path, "/", 2)
	if len(parts) == 0 {
		return ""
	}

	first := parts[0]

	if first == "api" && len(parts) > 1 {
		subParts := strings.SplitN(parts[1], "/", 2)
		return "api/" + subParts[0]
	}

	return first
}

// ServerConfig is what LogServerStarted reports.
type ServerConfig struct {
	Addr            string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

func LogServerStarted(config ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    Application:   http://%s", config.Addr)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://%s/metrics", config.Addr)
	} else {
		logging.Info("    Metrics:       DISABLED")
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs and exits with status 1.
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

func printBanner() {
	banner := `
------------------------------------------------------------
   __  __          _ _         _____            _
  |  \/  | ___  __| (_) __ _  | ____|_  ___ __ | | ___  _ __ ___ _ __
  | |\/| |/ _ \/ _' | |/ _' | |  _| \ \/ / '_ \| |/ _ \| '__/ _ \ '__|
  | |  | |  __/ (_| | | (_| | | |___ >  <| |_) | | (_) | | |  __/ |
  |_|  |_|\___|\__,_|_|\__,_| |_____/_/\_\ .__/|_|\___/|_|  \___|_|
                                         |_|
------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}

	if logging.IsDebugEnabled() {
		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}
		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}

func logDirectoryContents(path string) {
	if !logging.IsDebugEnabled() {
		return
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return
	}
	fileCount := 0
	dirCount := 0
	for _, e := range entries {
		if e.IsDir() {
			dirCount++
		} else {
			fileCount++
		}
	}
	logging.Debug("    Contents: %d files, %d directories (top level)", fileCount, dirCount)
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}

func checkTool(bin string) error {
	path, err := exec.LookPath(bin)
	if err != nil {
		return fmt.Errorf("%s not found", bin)
	}
	logging.Debug("  %s path: %s", bin, path)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	output, err := exec.CommandContext(ctx, path, "-version").Output()
	if err != nil {
		return fmt.Errorf("failed to get %s version: %w", bin, err)
	}

	lines := strings.Split(string(output), "\n")
	if len(lines) > 0 {
		logging.Debug("  %s version: %s", bin, strings.TrimSpace(lines[0]))
	}

	return nil
}

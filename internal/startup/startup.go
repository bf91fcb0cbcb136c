package startup

import (
	"fmt"
	"runtime"
	"slices"
	"strings"
	"time"

	"image-viewer/internal/logging"

	"github.com/gorilla/mux"
)

// Set with -ldflags "-X image-viewer/internal/startup.Version=..."
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo identifies the running binary. It is served on /status.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

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

// RouteInfo is one method/path pair of the status server.
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

const rule = "------------------------------------------------------------"

// section starts a titled block of startup output.
func section(title string, args ...any) {
	logging.Info("")
	logging.Info(rule)
	logging.Info(title, args...)
	logging.Info(rule)
}

// field logs an aligned "label: value" line.
func field(label string, value any) {
	logging.Info("  %-21s %v", label+":", value)
}

func ok(format string, args ...any) {
	logging.Info("  [OK] "+format, args...)
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

func LogDatabaseInit(path string, duration time.Duration) {
	section("THUMBNAIL INDEX")
	ok("%s opened in %v", path, duration)
}

func LogThumbnailInit(enabled bool, side int) {
	if enabled {
		field("Thumbnail side", fmt.Sprintf("%dpx", side))
		return
	}
	logging.Info("  No thumbnail cache: thumbnails are rebuilt on every run")
}

// LogPipelineInit summarises the acquisition setup before the first item is
// walked.
func LogPipelineInit(items, workers int, recursive bool, levels int) {
	depth := "off"
	switch {
	case recursive && levels < 0:
		depth = "unlimited"
	case recursive:
		depth = fmt.Sprintf("%d levels", levels)
	}

	section("PIPELINE")
	field("Arguments", items)
	field("Fetch workers", workers)
	field("Recursion", depth)
}

func LogPipelineFinished(done, total uint, duration time.Duration) {
	ok("%d/%d images acquired in %v", done, total, duration.Round(time.Millisecond))
}

// GetRoutes lists every route registered on router. Routes without a method
// matcher are reported with method "*".
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo
	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		path, err := route.GetPathTemplate()
		if err != nil {
			return err
		}
		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}
		for _, m := range methods {
			routes = append(routes, RouteInfo{Method: m, Path: path, Name: route.GetName()})
		}
		return nil
	})
	return routes, err
}

// LogHTTPRoutes logs the route count, and at debug level every route grouped
// by its leading path segment.
func LogHTTPRoutes(router *mux.Router) {
	section("STATUS SERVER")

	routes, err := GetRoutes(router)
	if err != nil {
		logging.Warn("walking routes: %v", err)
	}
	field("Routes", len(routes))

	if !logging.IsDebugEnabled() {
		return
	}

	byGroup := map[string][]RouteInfo{}
	for _, r := range routes {
		g := getRouteGroup(r.Path)
		byGroup[g] = append(byGroup[g], r)
	}
	groups := make([]string, 0, len(byGroup))
	for g := range byGroup {
		groups = append(groups, g)
	}
	slices.Sort(groups)

	for _, g := range groups {
		label := g
		if label == "" {
			label = "root"
		}
		logging.Debug("  [%s]", label)
		for _, r := range byGroup[g] {
			logging.Debug("    %-6s %s", r.Method, r.Path)
		}
	}
}

// getRouteGroup returns the first path segment, or the first two under /api.
func getRouteGroup(path string) string {
	head, rest, _ := strings.Cut(strings.TrimPrefix(path, "/"), "/")
	if head == "api" && rest != "" {
		sub, _, _ := strings.Cut(rest, "/")
		return head + "/" + sub
	}
	return head
}

// ServerConfig is what LogServerStarted reports.
type ServerConfig struct {
	MetricsPort     string
	MetricsEnabled  bool
	Mode            string
	StartupDuration time.Duration
}

func LogServerStarted(config ServerConfig) {
	section("VIEWER STARTED")
	field("Startup time", config.StartupDuration.Round(time.Millisecond))
	field("View mode", config.Mode)
	if config.MetricsEnabled {
		base := "http://localhost:" + config.MetricsPort
		field("Metrics", base+"/metrics")
		field("Status", base+"/status")
		field("Health", base+"/healthz")
	} else {
		field("Metrics", enabledString(false))
	}
	logging.Info("  Press Ctrl+C to stop")
	logging.Info(rule)
}

func LogShutdownInitiated(reason string) {
	section("SHUTDOWN (%s)", reason)
}

func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

func LogShutdownStepComplete(step string) {
	ok("%s", step)
}

func LogShutdownComplete() {
	ok("Shutdown complete")
}

// LogFatal logs and exits with status 1.
func LogFatal(format string, args ...any) {
	logging.Fatal(format, args...)
}

const banner = `
    ____                               _    ___
   /  _/___ ___  ____ _____ ____      | |  / (_)__ _      _____  _____
   / // __ '__ \/ __ '/ __ '/ _ \     | | / / / _ \ | /| / / _ \/ ___/
 _/ // / / / / / /_/ / /_/ /  __/     | |/ / /  __/ |/ |/ /  __/ /
/___/_/ /_/ /_/\__,_/\__, /\___/      |___/_/\___/|__/|__/\___/_/
                    /____/`

func printBanner() {
	fmt.Println(rule + banner + "\n" + rule)
	field("Version", Version)
	field("Commit", Commit)
	field("Build time", BuildTime)
	field("Started", time.Now().Format(time.RFC1123))
}

func logSystemInfo() {
	procs, cpus := runtime.GOMAXPROCS(0), runtime.NumCPU()

	section("SYSTEM")
	field("Go", runtime.Version())
	field("OS/Arch", runtime.GOOS+"/"+runtime.GOARCH)
	if procs < cpus {
		field("CPUs", fmt.Sprintf("%d of %d (container limit)", procs, cpus))
	} else {
		field("CPUs", cpus)
	}
	logging.Debug("  Goroutines: %d", runtime.NumGoroutine())
}

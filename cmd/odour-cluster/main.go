// Command odour-cluster clusters odour observation workbooks. With -file it
// runs once and prints the results; otherwise it serves the upload page.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/banshee-data/odour.report/internal/api"
	"github.com/banshee-data/odour.report/internal/config"
	"github.com/banshee-data/odour.report/internal/fsutil"
	"github.com/banshee-data/odour.report/internal/metrics"
	"github.com/banshee-data/odour.report/internal/monitoring"
	"github.com/banshee-data/odour.report/internal/odour"
	"github.com/banshee-data/odour.report/internal/render"
	"github.com/banshee-data/odour.report/internal/security"
	"github.com/banshee-data/odour.report/internal/sheet"
	"github.com/banshee-data/odour.report/internal/version"
)

var (
	listen       = flag.String("listen", ":8080", "Listen address")
	configPath   = flag.String("config", "", "Path to cluster config JSON (defaults to "+config.DefaultConfigPath+" when present)")
	inputFile    = flag.String("file", "", "Cluster this .xlsx workbook once and exit")
	groups       = flag.Int("k", 0, "Number of groups (0 uses the configured default)")
	seed         = flag.Uint64("seed", 0, "k-means seed (uses the configured seed when unset)")
	pngOut       = flag.String("png", "", "Write the static map to this PNG file (with -file)")
	htmlOut      = flag.String("html", "", "Write the interactive map to this HTML file (with -file)")
	templateOut  = flag.String("template", "", "Write an empty observation workbook to this path and exit")
	showVersion  = flag.Bool("version", false, "Print version and exit")
	disableDebug = flag.Bool("disable-debug", false, "Do not mount the /debug/ admin routes")
)

// oneShot holds the settings of a single command-line run.
type oneShot struct {
	Input   string
	K       int
	PNG     string
	HTML    string
	Preview int
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	applySeedFlag(flag.CommandLine, cfg, *seed)

	if err := checkOutputs(*templateOut, *pngOut, *htmlOut); err != nil {
		log.Fatalf("%v", err)
	}
	fsys := fsutil.OSFileSystem{}

	if *templateOut != "" {
		if err := writeTemplate(fsys, *templateOut); err != nil {
			log.Fatalf("%v", err)
		}
		fmt.Println(render.Status(render.LevelSuccess, "Template written to "+*templateOut))
		return
	}

	if *inputFile != "" {
		k := *groups
		if k == 0 {
			k = cfg.GetDefaultK()
		}
		run := oneShot{Input: *inputFile, K: k, PNG: *pngOut, HTML: *htmlOut, Preview: cfg.GetPreviewRows()}
		if err := runOnce(fsys, os.Stdout, cfg, run); err != nil {
			os.Exit(1)
		}
		return
	}

	if *listen == "" {
		log.Fatal("Listen address is required")
	}
	if err := serve(*listen, cfg, !*disableDebug); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

// loadConfig reads path, or the default config file when path is empty and
// the file exists. Without either, the built-in defaults apply.
func loadConfig(path string) (*config.ClusterConfig, error) {
	if path == "" {
		if _, err := os.Stat(config.DefaultConfigPath); err != nil {
			return config.EmptyClusterConfig(), nil
		}
		path = config.DefaultConfigPath
	}
	return config.LoadClusterConfig(path)
}

// applySeedFlag overrides the configured seed only when -seed was given, so
// every uint64 value including 0 can be passed.
func applySeedFlag(fs *flag.FlagSet, cfg *config.ClusterConfig, value uint64) {
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			s := value
			cfg.Seed = &s
		}
	})
}

// checkOutputs rejects output paths outside the working and temp
// directories. Empty paths are skipped.
func checkOutputs(paths ...string) error {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := security.ValidateOutputPath(p); err != nil {
			return err
		}
	}
	return nil
}

func writeTemplate(fsys fsutil.FileSystem, path string) error {
	return fsutil.WriteWith(fsys, path, func(w io.Writer) error {
		return sheet.Encode(w, sheet.Template())
	})
}

// runOnce clusters run.Input and prints the status line and tables to out.
// Failures are printed as an error status and returned.
func runOnce(fsys fsutil.FileSystem, out io.Writer, cfg *config.ClusterConfig, run oneShot) (err error) {
	done := metrics.TimeRun("cli")
	defer func() {
		done(odour.ErrorKind(err))
		if err != nil {
			fmt.Fprintln(out, render.Status(render.LevelError, odour.Describe(err)))
		}
	}()

	if err := cfg.CheckK(run.K); err != nil {
		return err
	}

	f, err := fsys.Open(run.Input)
	if err != nil {
		return fmt.Errorf("open %s: %w", run.Input, err)
	}
	defer f.Close()

	table, err := sheet.DecodeLimited(f, cfg.GetMaxUploadBytes())
	if err != nil {
		return fmt.Errorf("decode %s: %w", run.Input, err)
	}

	res, err := odour.Run(table, cfg.Params(run.K))
	if err != nil {
		return err
	}
	metrics.Default().ObserveRows(res.Dataset.Len(), res.Dataset.Dropped.Total())

	fmt.Fprintln(out, render.Status(render.LevelSuccess,
		fmt.Sprintf("Data loaded and filtered: %d of %d rows kept.", res.Dataset.Len(), res.Dataset.InputRows)))
	if run.Preview > 0 {
		fmt.Fprintln(out, render.ResultsTable(res, run.Preview))
	}
	fmt.Fprintln(out, render.SummaryTable(res.Summary))

	if run.PNG != "" {
		if err := fsutil.WriteWith(fsys, run.PNG, func(w io.Writer) error { return render.MapPNG(w, res) }); err != nil {
			return err
		}
		fmt.Fprintln(out, render.Status(render.LevelInfo, "Map written to "+run.PNG))
	}
	if run.HTML != "" {
		if err := fsutil.WriteWith(fsys, run.HTML, func(w io.Writer) error { return render.MapHTML(w, res) }); err != nil {
			return err
		}
		fmt.Fprintln(out, render.Status(render.LevelInfo, "Interactive map written to "+run.HTML))
	}
	return nil
}

// newHandler builds the full HTTP surface: upload routes, metrics and,
// optionally, the admin debug routes.
func newHandler(cfg *config.ClusterConfig, debug bool) http.Handler {
	srv := api.NewServer(cfg)
	mux := srv.ServeMux()
	srv.AttachMetrics(mux, metrics.EnablePrometheus())
	if debug {
		srv.AttachAdminRoutes(mux)
	}
	return api.LoggingMiddleware(mux)
}

func serve(addr string, cfg *config.ClusterConfig, debug bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := &http.Server{
		Addr:              addr,
		Handler:           newHandler(cfg, debug),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		monitoring.Logf("listening on %s (%s)", addr, version.String())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	monitoring.Logf("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	monitoring.Logf("Graceful shutdown complete")
	return nil
}

// Package cmd is the CLI surface (spec.md §6 "outer CLI"): a persistent-
// flags root command with one subcommand per verb, following the
// teacher's client/cmd/root.go pattern. It parses flags, builds a
// sdwanconfig.Config and a restclient.Session, and calls into task; it
// owns no engine logic itself.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	log "github.com/sirupsen/logrus"

	"github.com/cisco-open/sastre-engine/catalog"
	"github.com/cisco-open/sastre-engine/internal/errs"
	"github.com/cisco-open/sastre-engine/internal/logctx"
	"github.com/cisco-open/sastre-engine/internal/sdwanconfig"
	"github.com/cisco-open/sastre-engine/metrics"
	"github.com/cisco-open/sastre-engine/model"
	"github.com/cisco-open/sastre-engine/restclient"
	"github.com/cisco-open/sastre-engine/store"
	"github.com/cisco-open/sastre-engine/task"
)

// errExitOne signals "the task ran to completion but reported item
// failures" (spec.md §6 exit code 1), distinct from a fatal error that
// aborted the task outright; RunE returning it suppresses cobra's usual
// "Error: ..." line since the failures were already rendered.
var errExitOne = errors.New("completed with failures")

func init() {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
}

// renderReport prints a one-line summary per kind, the way the teacher's
// CLI prints structured results rather than raw logs.
func renderReport(r *task.Report) {
	for _, kc := range r.CountsByKind() {
		fmt.Println(kc.String())
	}
}

var (
	flagAddress     string
	flagPort        int
	flagUser        string
	flagPassword    string
	flagTenant      string
	flagTimeout     time.Duration
	flagRootDir     string
	flagVerifyTLS   bool
	flagConfigFile  string
	flagArchive     string
	flagMetricsAddr string

	baseLogger = logctx.New()
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "sastre",
	Short: "Sastre manages SD-WAN controller configuration as versioned items",
}

// Execute adds all child commands to the root command and runs it. Called
// once from main.main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errExitOne) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(exitCodeFor(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagAddress, "address", "", "controller address")
	rootCmd.PersistentFlags().IntVar(&flagPort, "port", 0, "controller port (default 8443)")
	rootCmd.PersistentFlags().StringVar(&flagUser, "user", "", "controller username")
	rootCmd.PersistentFlags().StringVar(&flagPassword, "password", "", "controller password")
	rootCmd.PersistentFlags().StringVar(&flagTenant, "tenant", "", "tenant id (multi-tenant controllers)")
	rootCmd.PersistentFlags().DurationVar(&flagTimeout, "timeout", 0, "HTTP client timeout (default 5m)")
	rootCmd.PersistentFlags().StringVar(&flagRootDir, "root-dir", "", "base directory for relative workdir names (SASTRE_ROOT_DIR)")
	rootCmd.PersistentFlags().BoolVar(&flagVerifyTLS, "verify-tls", false, "verify the controller's TLS certificate")
	rootCmd.PersistentFlags().StringVar(&flagConfigFile, "config", "", "YAML config file overlaying environment variables")
	rootCmd.PersistentFlags().StringVar(&flagMetricsAddr, "metrics-addr", "", "if set, serve Prometheus metrics on this address")
	rootCmd.PersistentFlags().StringVar(&flagArchive, "archive", "", "treat workdir as a single zip archive at this path instead of a directory")
}

// connect builds a Config from environment/flags/file, dials and
// authenticates a Session, and constructs a version-filtered Registry
// against the target controller's reported server info.
func connect(ctx context.Context) (*restclient.Session, *catalog.Registry, *log.Entry, error) {
	cfg := loadConfig()
	entry := logctx.Task(baseLogger, "", cfg.ResolveWorkdir(""), cfg.Address)

	maybeServeMetrics(entry)

	sess := restclient.New(cfg, entry)
	if err := sess.Login(ctx); err != nil {
		return nil, nil, entry, err
	}
	info, err := sess.ServerInfo(ctx)
	if err != nil {
		return nil, nil, entry, err
	}
	var targetV model.Version
	if v, err := model.ParseVersion(info.ServerVersion); err != nil {
		entry.WithError(err).Warn("unparseable server version; proceeding unfiltered")
	} else {
		targetV = v
	}
	reg := catalog.New(targetV)
	return sess, reg, entry, nil
}

func loadConfig() *sdwanconfig.Config {
	cfg := sdwanconfig.FromEnv()
	if flagConfigFile != "" {
		if fileCfg, err := sdwanconfig.FromFile(flagConfigFile); err == nil {
			cfg = fileCfg
		} else {
			baseLogger.WithError(err).Warn("read config file, falling back to environment")
		}
	}
	if flagAddress != "" {
		cfg.Address = flagAddress
	}
	if flagPort != 0 {
		cfg.Port = flagPort
	}
	if flagUser != "" {
		cfg.User = flagUser
	}
	if flagPassword != "" {
		cfg.Password = flagPassword
	}
	if flagTenant != "" {
		cfg.Tenant = flagTenant
	}
	if flagTimeout != 0 {
		cfg.Timeout = flagTimeout
	}
	if flagRootDir != "" {
		cfg.RootDir = flagRootDir
	}
	if flagVerifyTLS {
		cfg.VerifyTLS = true
	}
	return cfg
}

var metricsServerStarted bool

// maybeServeMetrics starts the metrics HTTP listener once per process, the
// way the teacher's server backgrounds a debug listener alongside its main
// work (SPEC_FULL.md §1 ambient stack).
func maybeServeMetrics(logger *log.Entry) {
	if flagMetricsAddr == "" || metricsServerStarted {
		return
	}
	metricsServerStarted = true
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	go func() {
		logger.WithField("address", flagMetricsAddr).Info("metrics server started")
		if err := http.ListenAndServe(flagMetricsAddr, mux); err != nil {
			logger.WithError(err).Error("metrics server failed")
		}
	}()
}

// openForWrite opens workdir for a fresh snapshot, as a directory or a zip
// archive depending on --archive (spec.md §6 "Store format").
func openForWrite(cfg *sdwanconfig.Config, workdir string, rollover bool) (store.Store, error) {
	if flagArchive != "" {
		return store.OpenZipForWrite(cfg.ResolveWorkdir(flagArchive), rollover)
	}
	return store.OpenForWrite(cfg.ResolveWorkdir(workdir), rollover)
}

// openForRead opens an existing snapshot for Restore/Delete/Migrate/
// Transform/CertSync's source.
func openForRead(cfg *sdwanconfig.Config, workdir string) (store.Store, error) {
	if flagArchive != "" {
		return store.OpenZipForRead(cfg.ResolveWorkdir(flagArchive))
	}
	return store.OpenForRead(cfg.ResolveWorkdir(workdir))
}

// exitCodeFor maps a task-layer error to an outer exit code (spec.md §6:
// 0 success, 1 fatal error, 2 invalid usage).
func exitCodeFor(err error) int {
	var e *errs.Error
	if errors.As(err, &e) {
		switch e.Kind {
		case errs.InvalidTag, errs.InvalidRecipe, errs.InvalidArg:
			return 2
		}
	}
	return 1
}

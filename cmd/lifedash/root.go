package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rpgo/lifedash/internal/calculation"
	"github.com/rpgo/lifedash/internal/config"
	"github.com/rpgo/lifedash/internal/identity"
	"github.com/rpgo/lifedash/internal/logging"
	"github.com/rpgo/lifedash/internal/planning"
	"github.com/rpgo/lifedash/internal/store"
	"github.com/rpgo/lifedash/internal/store/dynamo"
	"github.com/rpgo/lifedash/internal/store/memory"
	"github.com/rpgo/lifedash/internal/store/sqlitecache"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var errUserRequired = errors.New("--user is required for stored records")

// app carries what every subcommand needs once flags are parsed.
type app struct {
	in  io.Reader
	out io.Writer

	configPath string
	envFile    string
	user       string
	yes        bool

	cfg      *config.AppConfig
	logger   *zap.Logger
	registry *prometheus.Registry
	closers  []func() error
}

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	a := &app{in: in, out: out}

	root := &cobra.Command{
		Use:           "lifedash",
		Short:         "Retirement projections, planning history and budgets",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.close()
		},
	}
	root.SetIn(in)
	root.SetOut(out)

	pf := root.PersistentFlags()
	pf.StringVarP(&a.configPath, "config", "c", "", "YAML configuration file")
	pf.StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before the configuration")
	pf.StringVarP(&a.user, "user", "u", "", "user id owning the stored records")
	pf.BoolVarP(&a.yes, "yes", "y", false, "answer yes to upload and merge prompts")

	root.AddCommand(
		newProjectCmd(a),
		newSocialSecurityCmd(a),
		newBudgetCmd(a),
		newPlanningCmd(a),
		newBackupCmd(a),
		newServeCmd(a),
		newTokenCmd(a),
	)
	return root
}

func (a *app) setup() error {
	cfg, err := config.Load(a.configPath, a.envFile)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

func (a *app) close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	return errors.Join(errs...)
}

// confirmer answers prompts from --yes or the terminal.
func (a *app) confirmer() store.Confirmer {
	if a.yes {
		return store.Always(true)
	}
	return newPromptConfirmer(a.in, a.out)
}

// deps builds the store adapters selected by the configuration.
func (a *app) deps(ctx context.Context) (planning.Deps, error) {
	loc, err := a.cfg.Location()
	if err != nil {
		return planning.Deps{}, err
	}
	remote, err := a.remote(ctx)
	if err != nil {
		return planning.Deps{}, err
	}
	local, err := a.local()
	if err != nil {
		return planning.Deps{}, err
	}

	var metrics *store.Metrics
	if a.cfg.Metrics.Enabled {
		a.registry = prometheus.NewRegistry()
		metrics = store.NewMetrics(a.cfg.Metrics.Namespace, a.registry)
	}
	return planning.Deps{
		Remote:    remote,
		Local:     local,
		Confirmer: a.confirmer(),
		Logger:    a.logger,
		Metrics:   metrics,
		Now:       calculation.Now,
		Location:  loc,
	}, nil
}

func (a *app) remote(ctx context.Context) (store.DocumentStore, error) {
	var docs store.DocumentStore
	switch a.cfg.Store.Remote {
	case "dynamo":
		client, err := dynamo.NewClient(ctx, a.cfg.Store.DynamoRegion, a.cfg.Store.DynamoEndpoint)
		if err != nil {
			return nil, err
		}
		docs = dynamo.New(client, a.cfg.Store.DynamoTable, a.logger)
	default:
		docs = memory.NewDocuments()
	}
	guard := store.DefaultGuardConfig("remote-" + a.cfg.Store.Remote)
	guard.Timeout = a.cfg.Store.RemoteTimeout
	guard.MinRequests = a.cfg.Store.BreakerFailures
	return store.NewGuarded(docs, guard, a.logger), nil
}

func (a *app) local() (store.LocalCache, error) {
	if a.cfg.Store.Local != "sqlite" {
		return memory.NewCache(), nil
	}
	c, err := sqlitecache.Open(a.cfg.Store.SQLitePath)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, c.Close)
	return c, nil
}

// workspace returns the records of --user.
func (a *app) workspace(ctx context.Context) (*planning.Workspace, error) {
	if a.user == "" {
		return nil, errUserRequired
	}
	deps, err := a.deps(ctx)
	if err != nil {
		return nil, err
	}
	session := identity.NewSession()
	session.SignIn(a.user)
	deps.Identity = session

	ws := planning.NewWorkspace(deps)
	a.closers = append(a.closers, func() error {
		ws.Close()
		return nil
	})
	return ws, nil
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

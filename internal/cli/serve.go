package cli

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pixelshare/pkg/api"
	"github.com/matzehuels/pixelshare/pkg/cache"
	"github.com/matzehuels/pixelshare/pkg/config"
	"github.com/matzehuels/pixelshare/pkg/session"
	"github.com/matzehuels/pixelshare/pkg/store"
)

const (
	// shutdownTimeout bounds how long in-flight requests may finish.
	shutdownTimeout = 10 * time.Second

	// connectTimeout bounds connecting to MongoDB and Redis at startup.
	connectTimeout = 10 * time.Second

	// sessionCleanupInterval is how often expired file sessions are removed.
	sessionCleanupInterval = time.Hour

	redisCachePrefix   = "pixelshare:cache:"
	redisSessionPrefix = "pixelshare:session:"
)

// serveOpts holds the flags of the serve command.
type serveOpts struct {
	configPath string
	addr       string
	baseURL    string
	noAuth     bool
	memory     bool // keep drawings, sessions and cache in process memory
}

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the pixelshare REST API",
		Long: `Run the REST API the editor uses to save, load and share drawings.

Settings come from the config file (default ~/.config/pixelshare/config.toml),
then PIXELSHARE_* environment variables, then flags. Drawings are stored in
MongoDB when mongo.uri is set and sessions and cache entries in Redis when
redis.addr is set. Otherwise drawings are kept in memory, sessions in
~/.config/pixelshare/sessions and previews in the local cache directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			return c.runServe(cmd.Context(), cfg, opts.memory)
		},
	}

	addConfigFlag(cmd, &opts.configPath)
	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (overrides server.addr)")
	cmd.Flags().StringVar(&opts.baseURL, "base-url", "", "URL share links point at (overrides server.base_url)")
	cmd.Flags().BoolVar(&opts.noAuth, "no-auth", false, "treat every request as the local user")
	cmd.Flags().BoolVar(&opts.memory, "memory", false, "keep all state in memory, ignoring mongo and redis settings")

	return cmd
}

func addConfigFlag(cmd *cobra.Command, dst *string) {
	cmd.Flags().StringVarP(dst, "config", "c", "", "config file (default ~/.config/pixelshare/config.toml)")
}

// loadConfig resolves the config file and applies flag overrides.
func (c *CLI) loadConfig(cmd *cobra.Command, opts serveOpts) (*config.Config, error) {
	path := opts.configPath
	if path == "" {
		if p, err := config.DefaultPath(); err == nil {
			path = p
		}
	}
	cfg, err := config.Resolve(path)
	if err != nil {
		return nil, err
	}

	if opts.addr != "" {
		cfg.Server.Addr = opts.addr
	}
	if opts.baseURL != "" {
		cfg.Server.BaseURL = opts.baseURL
	}
	if cmd.Flags().Changed("no-auth") {
		cfg.Server.NoAuth = opts.noAuth
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c.Logger.Debug("Loaded config", "path", path)
	return cfg, nil
}

// backends holds the storage the API runs on. Closing it releases every
// connection it opened.
type backends struct {
	drawings store.Store
	sessions session.Store
	cache    cache.Cache
	closers  []io.Closer
}

func (b *backends) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		errs = append(errs, b.closers[i].Close())
	}
	return errors.Join(errs...)
}

// openBackends connects to the stores cfg selects. With memory set, nothing
// outside the process is touched.
func openBackends(ctx context.Context, cfg *config.Config, memory bool, logger *log.Logger) (*backends, error) {
	b := &backends{}
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	fail := func(err error) (*backends, error) {
		_ = b.Close()
		return nil, err
	}

	switch {
	case memory || cfg.Mongo.URI == "":
		b.drawings = store.NewMemoryStore()
		logger.Warn("Drawings are kept in memory and lost on exit")
	default:
		s, err := store.NewMongoStore(ctx, store.MongoConfig{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database, Timeout: connectTimeout})
		if err != nil {
			return fail(err)
		}
		b.drawings = s
		logger.Info("Connected to MongoDB", "database", cfg.Mongo.Database)
	}
	b.closers = append(b.closers, b.drawings)

	switch {
	case memory:
		b.cache = cache.NewNullCache()
	case cfg.Redis.Addr != "":
		c, err := cache.NewRedisCache(ctx, cache.RedisConfig{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB, Prefix: redisCachePrefix})
		if err != nil {
			return fail(err)
		}
		b.cache = c
		b.closers = append(b.closers, c)
		logger.Info("Connected to Redis", "addr", cfg.Redis.Addr)
	default:
		c, err := newCache(false)
		if err != nil {
			return fail(err)
		}
		b.cache = c
		b.closers = append(b.closers, c)
	}

	if memory {
		b.sessions = session.NewMemoryStore()
	} else {
		s, err := openSessionStore(ctx, cfg)
		if err != nil {
			return fail(err)
		}
		b.sessions = s
	}
	b.closers = append(b.closers, b.sessions)

	return b, nil
}

// openSessionStore opens Redis when cfg names it and the file store in
// ~/.config/pixelshare/sessions otherwise.
func openSessionStore(ctx context.Context, cfg *config.Config) (session.Store, error) {
	if cfg.Redis.Addr == "" {
		return session.NewFileStore("")
	}
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	return session.NewRedisStore(ctx, session.RedisConfig{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB, Prefix: redisSessionPrefix})
}

func (c *CLI) runServe(ctx context.Context, cfg *config.Config, memory bool) error {
	b, err := openBackends(ctx, cfg, memory, c.Logger)
	if err != nil {
		return err
	}
	defer b.Close()

	tc, err := c.codecFor(cfg.Share.Compression)
	if err != nil {
		return err
	}

	srv := api.New(b.drawings, b.sessions,
		api.WithCache(b.cache),
		api.WithKeyer(cacheKeyer()),
		api.WithCodec(tc),
		api.WithLogger(c.Logger),
		api.WithBaseURL(cfg.Server.BaseURL),
		api.WithNoAuth(cfg.Server.NoAuth),
		api.WithPreviewDefaults(cfg.Preview.MaxSize, cfg.Preview.GridLines),
		api.WithCacheTTLs(cfg.Share.CacheTTL.Duration, cfg.Preview.CacheTTL.Duration),
	)

	httpSrv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      srv.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
	}

	if cfg.Server.NoAuth {
		printWarning("Authentication disabled: every request acts as %q", session.LocalUserID)
	}
	printSuccess("Listening on %s", StyleHighlight.Render(cfg.Server.Addr))
	printDetail("Share links: %s", cfg.Server.BaseURL)

	go cleanupSessions(ctx, b.sessions, c.Logger)

	errc := make(chan error, 1)
	go func() { errc <- httpSrv.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	c.Logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// cleanupSessions removes expired sessions until ctx ends.
func cleanupSessions(ctx context.Context, sessions session.Store, logger *log.Logger) {
	ticker := time.NewTicker(sessionCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := sessions.Cleanup(ctx); err != nil {
				logger.Warn("Session cleanup failed", "err", err)
			}
		}
	}
}

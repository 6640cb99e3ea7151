package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gridlookout/pkg/server"
)

// serveCommand creates the serve command that runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr, contentPath   string
		mongoURI, redisAddr string
		noCache             bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve exposes resolve, render and lint over HTTP, together with named
schemas whose snapshots are kept in a store (in memory, or MongoDB with
--mongo-uri). Resolved layouts and artifacts are cached like on the command
line; --redis-addr shares the cache through Redis.

The server shuts down gracefully on SIGINT or SIGTERM.`,
		Example: `  gridlookout serve --addr :8080 --content content.yaml
  gridlookout serve --mongo-uri mongodb://localhost:27017 --redis-addr localhost:6379`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if !flags.Changed("addr") {
				addr = c.Config.Server.Addr
			}
			if flags.Changed("mongo-uri") {
				c.Config.Store.Backend = storeBackendMongo
				c.Config.Store.MongoURI = mongoURI
			}
			if flags.Changed("redis-addr") {
				c.Config.Cache.Backend = cacheBackendRedis
				c.Config.Cache.RedisAddr = redisAddr
			}

			o := c.baseOptions()
			if flags.Changed("content") {
				o.ContentPath = contentPath
			}
			if err := o.ValidateForResolve(); err != nil {
				return err
			}
			return c.runServe(cmd.Context(), addr, noCache, server.WithDefaults(o))
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&contentPath, "content", "", "content registry file (YAML, JSON or TOML)")
	cmd.Flags().StringVar(&mongoURI, "mongo-uri", "", "store snapshots in MongoDB at this URI")
	cmd.Flags().StringVar(&redisAddr, "redis-addr", "", "cache in Redis at this address")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr string, noCache bool, opts ...server.Option) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return err
	}
	st, err := c.newStore(ctx)
	if err != nil {
		runner.Close()
		return err
	}

	opts = append(opts, server.WithStore(st), server.WithLogger(c.Logger))
	srv, err := server.New(runner, opts...)
	if err != nil {
		return errors.Join(err, st.Close(context.Background()), runner.Close())
	}
	defer func() {
		if err := srv.Close(context.Background()); err != nil {
			c.Logger.Warn("close server", "error", err)
		}
	}()

	cacheBackend := c.Config.Cache.Backend
	if noCache {
		cacheBackend = cacheBackendNone
	}
	printInfo("Serving %s", StyleHighlight.Render(addr))
	printKeyValue("cache", cacheBackend)
	printKeyValue("store", c.Config.Store.Backend)
	if c.Config.Path != "" {
		printKeyValue("config", c.Config.Path)
	}

	return srv.ListenAndServe(ctx, addr)
}

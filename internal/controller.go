package internal

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/wowcore/wowcore/internal/auth"
	"github.com/wowcore/wowcore/internal/core"
	"github.com/wowcore/wowcore/internal/core/data"
	"github.com/wowcore/wowcore/internal/core/debug"
	"github.com/wowcore/wowcore/internal/frontend"
)

const banPurgeInterval = 10 * time.Minute

// Controller is the main entrypoint for wowcore. It's responsible for initializing
// any shared resources (such as database and logging), defining the servers, and
// launching everything.
type Controller struct {
	Config *core.Config
	// Logger is created from Config when left nil.
	Logger *logrus.Logger

	db      *gorm.DB
	wg      sync.WaitGroup
	servers []*frontend.Frontend
}

// Start runs every server until ctx is cancelled or one of them fails to start.
func (c *Controller) Start(ctx context.Context) error {
	var err error
	// Set up the logger, which will be used by all sub-servers.
	if c.Logger == nil {
		if c.Logger, err = core.NewLogger(c.Config); err != nil {
			return fmt.Errorf("error initializing logger: %w", err)
		}
	}

	if c.db, err = data.Open(c.Config); err != nil {
		return err
	}
	defer c.shutdown()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	// Start any debug utilities if we're configured to do so.
	if c.Config.Debugging.PprofEnabled {
		srv := debug.StartPprofServer(c.Logger, c.Config.Debugging.PprofPort)
		g.Go(func() error {
			<-ctx.Done()
			return srv.Close()
		})
	}

	c.declareServers()

	// Failure to initialize one of the registered servers is considered terminal.
	for _, server := range c.servers {
		if err := server.Start(ctx, &c.wg); err != nil {
			cancel()
			c.wg.Wait()
			_ = g.Wait()
			return fmt.Errorf("error starting %s server: %w", server.Backend.Identifier(), err)
		}
	}

	g.Go(func() error {
		c.wg.Wait()
		return nil
	})
	g.Go(func() error {
		c.purgeExpiredBans(ctx)
		return nil
	})

	return g.Wait()
}

// Set up all of the servers we want to run.
func (c *Controller) declareServers() {
	authServer := &auth.Server{
		Name:   "AUTH",
		Config: c.Config,
		Logger: c.Logger,
		DB:     c.db,
	}
	authFrontend := &frontend.Frontend{
		Address:           c.Config.AuthAddress(),
		Backend:           authServer,
		Logger:            c.Logger,
		MaxConnections:    c.Config.MaxConnections,
		ReceiveBufferSize: c.Config.AuthServer.ReceiveBufferSize,
		PacketLogging:     c.Config.Debugging.PacketLoggingEnabled,
	}
	authServer.Sender = authFrontend

	c.servers = []*frontend.Frontend{authFrontend}
}

func (c *Controller) purgeExpiredBans(ctx context.Context) {
	ticker := time.NewTicker(banPurgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := data.PurgeExpiredIPBans(c.db.WithContext(ctx), time.Now())
			if err != nil {
				c.Logger.Warnf("error purging expired bans: %v", err)
			} else if n > 0 {
				c.Logger.Infof("purged %d expired ip bans", n)
			}
		}
	}
}

func (c *Controller) shutdown() {
	if err := data.Close(c.db); err != nil {
		c.Logger.Warnf("error closing database: %v", err)
	}
	c.Logger.Info("shut down")
}

package commands

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/navarrastar/portfolio/pkg/api"
	"github.com/navarrastar/portfolio/pkg/middleware"
	"github.com/navarrastar/portfolio/pkg/services"
	"github.com/navarrastar/portfolio/pkg/site"
	"github.com/navarrastar/portfolio/pkg/spam"
	"github.com/navarrastar/portfolio/pkg/storage"
	"github.com/navarrastar/portfolio/pkg/validation"
)

const shutdownTimeout = 10 * time.Second

func (a *app) newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return a.serve(ctx)
		},
	}
}

// newRouter wires every dependency from config into a gin engine.
func (a *app) newRouter(ctx context.Context) (*gin.Engine, func(), error) {
	cfg := a.cfg
	lggr := a.lggr

	content, err := site.Load(cfg.Site.ContentFile)
	if err != nil {
		return nil, nil, err
	}

	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := store.Close(); err != nil {
			lggr.Warnw("Error closing contact store", "err", err)
		}
	}

	hasher := newIPHasher(cfg.Server.IPHashSalt)
	dispatcher := newDispatcher(cfg, lggr)
	lggr.Infow("Notification channels", "channels", dispatcher.Names())

	contactService := services.NewContactService(services.ContactDeps{
		Limiter:       newLimiter(cfg, lggr, hasher),
		Captcha:       newCaptcha(cfg),
		Validator:     validation.New(),
		Spam:          spam.NewDetector(cfg.Contact.MessageMinLength, cfg.Contact.MessageMaxLength),
		Store:         store,
		Dispatcher:    dispatcher,
		Hasher:        hasher,
		Logger:        lggr,
		MinSubmitTime: cfg.Contact.MinSubmitTime,
	})

	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	if err := router.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		cleanup()
		return nil, nil, err
	}
	router.Use(
		gin.Recovery(),
		middleware.RequestLogger(lggr, hasher),
		middleware.CORS(cfg.Server.AllowedOrigins),
	)

	handlers := api.NewHandlers(contactService, content, cfg.Site.ResumePath, cfg.Site.ResumeFilename, lggr)
	handlers.RegisterRoutes(router)

	return router, cleanup, nil
}

func (a *app) serve(ctx context.Context) error {
	router, cleanup, err := a.newRouter(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	srv := &http.Server{
		Addr:              net.JoinHostPort("", a.cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.lggr.Infof("Server starting on port %s", a.cfg.Server.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.lggr.Infow("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

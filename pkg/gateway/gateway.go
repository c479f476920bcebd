package gateway

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"

	apiv1 "github.com/parley-hq/parley/pkg/api/v1"
	"github.com/parley-hq/parley/pkg/common"
	"github.com/parley-hq/parley/pkg/dispatch"
	"github.com/parley-hq/parley/pkg/gateway/services"
	"github.com/parley-hq/parley/pkg/intent"
	"github.com/parley-hq/parley/pkg/llm"
	"github.com/parley-hq/parley/pkg/repository"
	"github.com/parley-hq/parley/pkg/session"
	"github.com/parley-hq/parley/pkg/sources"
	"github.com/parley-hq/parley/pkg/synthesis"
	"github.com/parley-hq/parley/pkg/types"
)

type Gateway struct {
	Config      types.AppConfig
	BackendRepo *repository.PostgresBackend
	httpServer  *http.Server
	echo        *echo.Echo
	ctx         context.Context
	cancelFunc  context.CancelFunc

	baseRouteGroup *echo.Group

	sessions    *session.Manager
	chatService *services.ChatService
	schemas     *repository.SchemaIntrospector
	mailClient  *sources.GmailClient
}

func NewGateway() (*Gateway, error) {
	configManager, err := common.NewConfigManager[types.AppConfig]()
	if err != nil {
		return nil, err
	}
	config := configManager.GetConfig()

	// Setup logging
	if config.PrettyLogs {
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}

	ctx, cancel := context.WithCancel(context.Background())
	gateway := &Gateway{
		Config:     config,
		ctx:        ctx,
		cancelFunc: cancel,
		sessions:   session.NewManager(config.Pipeline.MaxTurns),
	}

	if err := gateway.initCollaborators(); err != nil {
		cancel()
		return nil, err
	}
	gateway.initPipeline()

	return gateway, nil
}

// initCollaborators connects the configured data sources. Neither source
// is required: with no Postgres and no mail account the gateway still
// serves sessions, it just cannot dispatch anything.
func (g *Gateway) initCollaborators() error {
	if g.Config.Database.Postgres.IsConfigured() {
		backendRepo, err := repository.NewPostgresBackend(g.Config.Database.Postgres)
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		g.BackendRepo = backendRepo

		if g.Config.Database.Postgres.QueryHistory {
			if err := backendRepo.RunMigrations(); err != nil {
				log.Warn().Err(err).Msg("failed to run postgres migrations, query history disabled")
			}
		}

		schemas, err := repository.NewSchemaIntrospector(backendRepo)
		if err != nil {
			return err
		}
		g.schemas = schemas
	}

	if g.Config.Mail.Enabled {
		tokenSource, err := g.mailTokenSource()
		if err != nil {
			return fmt.Errorf("failed to configure mail access: %w", err)
		}

		opts := []sources.GmailOption{}
		if g.Config.Mail.APIBase != "" {
			opts = append(opts, sources.WithAPIBase(g.Config.Mail.APIBase))
		}
		if g.Config.Mail.RequestTimeout > 0 {
			opts = append(opts, sources.WithHTTPClient(&http.Client{Timeout: g.Config.Mail.RequestTimeout}))
		}
		g.mailClient = sources.NewGmailClient(tokenSource, opts...)
		log.Info().Msg("mail collaborator enabled")
	}

	return nil
}

func (g *Gateway) mailTokenSource() (oauth2.TokenSource, error) {
	if g.Config.Mail.TokenFile != "" {
		return sources.LoadTokenFile(g.Config.Mail.TokenFile)
	}
	if g.Config.Mail.AccessToken != "" {
		return sources.StaticTokenSource(g.Config.Mail.AccessToken), nil
	}
	return nil, fmt.Errorf("mail enabled but no accessToken or tokenFile set")
}

// initPipeline assembles the classify/synthesize/validate/dispatch chain
// from the connected collaborators.
func (g *Gateway) initPipeline() {
	provider := llm.NewOpenAIClient(g.Config.LLM)
	synthesizer := synthesis.NewSynthesizer(provider, g.Config.LLM, g.Config.Pipeline)

	classifier := intent.NewClassifier()
	g.seedSchemaTerms(classifier)

	// Interface values must stay untyped-nil when a collaborator is absent
	// so the dispatcher's nil checks hold.
	var mailCollaborator dispatch.MailCollaborator
	if g.mailClient != nil {
		mailCollaborator = g.mailClient
	}
	var dbCollaborator dispatch.DatabaseCollaborator
	var schemaProvider services.SchemaProvider
	var historyRecorder services.HistoryRecorder
	if g.BackendRepo != nil {
		dbCollaborator = g.BackendRepo
		schemaProvider = g.schemas
		if g.Config.Database.Postgres.QueryHistory {
			historyRecorder = g.BackendRepo
		}
	}

	dispatcher := dispatch.NewDispatcher(mailCollaborator, dbCollaborator)
	g.chatService = services.NewChatService(classifier, synthesizer, dispatcher, schemaProvider, historyRecorder, g.Config.Pipeline)
}

// seedSchemaTerms teaches the classifier the table names of the connected
// database so prompts that mention them classify as database intent.
func (g *Gateway) seedSchemaTerms(classifier *intent.Classifier) {
	if g.schemas == nil {
		return
	}

	ctx, cancel := context.WithTimeout(g.ctx, 10*time.Second)
	defer cancel()

	schema, err := g.schemas.Schema(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("failed to introspect schema for classifier terms")
		return
	}
	classifier.RegisterSchemaTerms(schema.TableNames())
	log.Debug().Strs("tables", schema.TableNames()).Msg("schema terms registered")
}

func (g *Gateway) initHTTP() error {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Pre(middleware.RemoveTrailingSlash())

	// Configure logging middleware
	if g.Config.Gateway.HTTP.EnablePrettyLogs {
		e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
			Format: "${time_rfc3339} ${method} ${uri} ${status} ${latency_human}\n",
		}))
	}

	// CORS
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: g.Config.Gateway.HTTP.CORS.AllowedOrigins,
		AllowHeaders: g.Config.Gateway.HTTP.CORS.AllowedHeaders,
		AllowMethods: g.Config.Gateway.HTTP.CORS.AllowedMethods,
	}))

	e.Use(middleware.Recover())

	g.echo = e
	g.httpServer = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", g.Config.Gateway.HTTP.Host, g.Config.Gateway.HTTP.Port),
		Handler: e,
	}

	g.baseRouteGroup = e.Group(apiv1.HttpServerBaseRoute)

	apiv1.NewHealthGroup(g.baseRouteGroup.Group("/health"), g.BackendRepo)
	apiv1.NewSessionsGroup(g.baseRouteGroup.Group("/sessions"), g.sessions, g.chatService)

	var schemaProvider services.SchemaProvider
	if g.schemas != nil {
		schemaProvider = g.schemas
	}
	apiv1.NewSchemaGroup(g.baseRouteGroup.Group("/schema"), schemaProvider, g.BackendRepo)

	apiv1.RegisterChatPage(e)

	return nil
}

// StartAsync starts the gateway server without blocking.
// Use this when embedding the gateway in another process (e.g., CLI).
func (g *Gateway) StartAsync() error {
	err := g.initHTTP()
	if err != nil {
		return fmt.Errorf("failed to initialize http server: %w", err)
	}

	go func() {
		addr := fmt.Sprintf("%s:%d", g.Config.Gateway.HTTP.Host, g.Config.Gateway.HTTP.Port)
		lis, err := net.Listen("tcp", addr)
		if err != nil {
			log.Error().Err(err).Msg("failed to listen on http")
			return
		}

		if err := g.httpServer.Serve(lis); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("http server error")
		}
	}()

	log.Info().
		Str("host", g.Config.Gateway.HTTP.Host).
		Int("port", g.Config.Gateway.HTTP.Port).
		Bool("mail", g.mailClient != nil).
		Bool("database", g.BackendRepo != nil).
		Msg("gateway http server running")

	return nil
}

func (g *Gateway) Start() error {
	if err := g.StartAsync(); err != nil {
		return err
	}

	terminationSignal := make(chan os.Signal, 1)
	signal.Notify(terminationSignal, os.Interrupt, syscall.SIGTERM)
	<-terminationSignal

	log.Info().Msg("termination signal received. shutting down...")
	g.shutdown()

	return nil
}

// HTTPAddr returns the gateway's HTTP address
func (g *Gateway) HTTPAddr() string {
	return fmt.Sprintf("http://localhost:%d", g.Config.Gateway.HTTP.Port)
}

// Shutdown gracefully shuts down the gateway (exported for external use)
func (g *Gateway) Shutdown() {
	g.shutdown()
}

func (g *Gateway) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), g.Config.Gateway.ShutdownTimeout)
	defer cancel()

	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		return g.httpServer.Shutdown(ctx)
	})

	if g.BackendRepo != nil {
		eg.Go(func() error {
			return g.BackendRepo.Close()
		})
	}

	g.cancelFunc()

	if err := eg.Wait(); err != nil {
		log.Error().Err(err).Msg("failed to shutdown gateway gracefully")
	}

	log.Info().Msg("gateway stopped")
}

package botapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ivankudzin/botgate/internal/app/apiapp"
	"github.com/ivankudzin/botgate/internal/config"
	"github.com/ivankudzin/botgate/internal/domain/enums"
	"github.com/ivankudzin/botgate/internal/domain/model"
	"github.com/ivankudzin/botgate/internal/domain/platform"
	tginfra "github.com/ivankudzin/botgate/internal/infra/telegram"
	pgrepo "github.com/ivankudzin/botgate/internal/repo/postgres"
	redrepo "github.com/ivankudzin/botgate/internal/repo/redis"
	"github.com/ivankudzin/botgate/internal/services/approval"
	auditsvc "github.com/ivankudzin/botgate/internal/services/audit"
	"github.com/ivankudzin/botgate/internal/services/moderators"
	"github.com/ivankudzin/botgate/internal/services/notify"
	"github.com/ivankudzin/botgate/internal/services/responses"
	statussvc "github.com/ivankudzin/botgate/internal/services/status"
)

const (
	correlationCacheSize = 4096
	shutdownTimeout      = 10 * time.Second
)

type App struct {
	cfg      config.Config
	logger   *zap.Logger
	postgres *pgxpool.Pool
	redis    *goredis.Client
	bot      *tginfra.Bot
	platform *tginfra.Platform
	engine   *approval.Engine
	router   *responses.Router
	commands *Commands
	server   *http.Server
}

func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	var auditRepo auditsvc.Repo
	var pool *pgxpool.Pool
	if cfg.Postgres.DSN == "" {
		logger.Warn("POSTGRES_DSN is empty, audit log disabled")
	} else if p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN); err != nil {
		logger.Warn("postgres init failed, continuing without audit log", zap.Error(err))
	} else {
		pool = p
		auditRepo = pgrepo.NewAuditRepo(pool)
	}

	var mirror approval.ApprovedMirror
	var redisClient *goredis.Client
	if cfg.RedisEnabled() {
		if c, err := redrepo.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB); err != nil {
			logger.Warn("redis init failed, approved set kept in memory only", zap.Error(err))
		} else {
			redisClient = c
			mirror = redrepo.NewApprovedRepo(c)
		}
	}

	bot, err := tginfra.NewBot(cfg.Bot.Token, cfg.Bot.PollTimeoutSeconds, logger)
	if err != nil {
		closeStores(pool, redisClient)
		return nil, fmt.Errorf("init telegram bot: %w", err)
	}

	app := wire(cfg, logger, bot, auditRepo, mirror)
	app.postgres = pool
	app.redis = redisClient
	return app, nil
}

func wire(cfg config.Config, logger *zap.Logger, bot *tginfra.Bot, auditRepo auditsvc.Repo, mirror approval.ApprovedMirror) *App {
	tgPlatform := tginfra.NewPlatform(bot, 0)
	directory := moderators.NewDirectory(tgPlatform, cfg.Moderator.TargetRole, cfg.Moderator.FallbackRoles)
	auditService := auditsvc.NewService(auditRepo)

	correlations := notify.NewCorrelations(correlationCacheSize, 2*cfg.Approval.Timeout)
	dispatcher := notify.NewDispatcher(tgPlatform, correlations, cfg.Bot.NotifyRatePerSec, logger)

	engine := approval.NewEngine(approval.Deps{
		Directory: directory,
		Notifier:  dispatcher,
		Recorder:  auditService,
		Remover:   tgPlatform,
		Mirror:    mirror,
	}, cfg.Approval.Timeout, logger)

	router := responses.NewRouter(engine, directory, correlations, logger)
	statusService := statussvc.NewService(engine, auditService)
	commands := NewCommands(cfg.Bot.CommandPrefix, bot.Username(), directory, engine, router, statusService, bot, logger)

	var server *http.Server
	if cfg.HTTPEnabled() {
		server = apiapp.NewServer(apiapp.Dependencies{
			StatusService: statusService,
			Logger:        logger,
			Config:        cfg,
		})
	}

	return &App{
		cfg:      cfg,
		logger:   logger,
		bot:      bot,
		platform: tgPlatform,
		engine:   engine,
		router:   router,
		commands: commands,
		server:   server,
	}
}

// Run blocks until ctx is cancelled or a component fails. Pending cases are abandoned on return.
func (a *App) Run(ctx context.Context) error {
	if n, err := a.engine.Rehydrate(ctx); err != nil {
		a.logger.Warn("approved set rehydrate failed", zap.Error(err))
	} else if n > 0 {
		a.logger.Info("approved set rehydrated", zap.Int("count", n))
	}

	a.logger.Info("bot app started",
		zap.String("bot", a.bot.Username()),
		zap.Duration("approval_timeout", a.engine.Timeout()),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.bot.Listen(gctx, tginfra.Handlers{
			OnJoin:         a.handleJoin,
			OnMembersAdded: a.handleMembersAdded,
			OnMessage:      a.commands.Handle,
			OnCallback:     a.handleCallback,
		})
	})

	if a.server != nil {
		g.Go(func() error {
			a.logger.Info("http server started", zap.String("addr", a.server.Addr))
			if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return a.server.Shutdown(shutdownCtx)
		})
	}

	err := g.Wait()
	abandoned := a.engine.Shutdown()
	a.logger.Info("bot app stopped", zap.Int("abandoned_cases", abandoned))
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (a *App) Close() {
	closeStores(a.postgres, a.redis)
}

func closeStores(pool *pgxpool.Pool, client *goredis.Client) {
	if pool != nil {
		pool.Close()
	}
	if client != nil {
		_ = client.Close()
	}
}

func (a *App) handleJoin(ctx context.Context, update tginfra.JoinUpdate) error {
	if !update.IsBot {
		return nil
	}

	inviter := update.Inviter
	if inviter == nil {
		found, err := a.platform.LookupInviter(ctx, update.ChatID, update.UserID)
		if err != nil {
			a.logger.Debug("inviter lookup failed", zap.Int64("entity_id", update.UserID), zap.Error(err))
		}
		inviter = found
	}

	result := a.engine.Open(ctx, model.JoinEvent{
		EntityID:      update.UserID,
		EntityName:    update.UserName,
		IsAutomated:   update.IsBot,
		CommunityID:   update.ChatID,
		CommunityName: update.ChatTitle,
		Permissions:   update.Permissions,
		Inviter:       inviter,
		ReceivedAt:    update.At,
	})
	a.logger.Info("bot join handled",
		zap.Int64("chat_id", update.ChatID),
		zap.Int64("entity_id", update.UserID),
		zap.String("result", string(result)),
	)
	return nil
}

func (a *App) handleMembersAdded(_ context.Context, update tginfra.MembersAddedUpdate) error {
	a.platform.RememberInviter(update.ChatID, update.Inviter, update.UserIDs)
	return nil
}

func (a *App) handleCallback(ctx context.Context, update tginfra.CallbackUpdate) error {
	response, ok := callbackResponse(update.Data)
	if !ok {
		return a.bot.AnswerCallback(ctx, update.CallbackID, "")
	}

	outcome := a.router.HandleButton(ctx, responses.ButtonPress{
		Message:  platform.SentMessage{ChatID: update.ChatID, MessageID: update.MessageID},
		Actor:    model.Principal{ID: update.UserID, Name: update.UserName},
		Response: response,
	})
	return a.bot.AnswerCallback(ctx, update.CallbackID, callbackAnswer(outcome))
}

func callbackResponse(data string) (enums.Response, bool) {
	switch data {
	case tginfra.CallbackApprove:
		return enums.ResponseApprove, true
	case tginfra.CallbackReject:
		return enums.ResponseReject, true
	default:
		return "", false
	}
}

func callbackAnswer(outcome responses.Outcome) string {
	switch outcome {
	case responses.OutcomeResolved:
		return "Decision recorded."
	case responses.OutcomeStale:
		return "This bot was already handled."
	default:
		return "This request is no longer active."
	}
}

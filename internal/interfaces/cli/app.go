package cli

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	activityapp "github.com/investorcrm/backend/internal/application/activity"
	auditapp "github.com/investorcrm/backend/internal/application/audit"
	contactapp "github.com/investorcrm/backend/internal/application/contact"
	identityapp "github.com/investorcrm/backend/internal/application/identity"
	investorapp "github.com/investorcrm/backend/internal/application/investor"
	"github.com/investorcrm/backend/internal/application/maintenance"
	networkapp "github.com/investorcrm/backend/internal/application/network"
	searchapp "github.com/investorcrm/backend/internal/application/search"
	"github.com/investorcrm/backend/internal/domain/identity"
	"github.com/investorcrm/backend/internal/infrastructure/auth"
	"github.com/investorcrm/backend/internal/infrastructure/cache"
	"github.com/investorcrm/backend/internal/infrastructure/config"
	"github.com/investorcrm/backend/internal/infrastructure/event"
	"github.com/investorcrm/backend/internal/infrastructure/logger"
	"github.com/investorcrm/backend/internal/infrastructure/persistence"
	"github.com/investorcrm/backend/internal/infrastructure/search"
	"go.uber.org/zap"
)

// app holds the services the commands drive. It is built per invocation and closed on exit.
type app struct {
	cfg    *config.Config
	log    *zap.Logger
	db     *persistence.Database
	meili  *search.Meili
	closer []func()

	tenants identity.TenantRepository
	users   identity.UserRepository

	auth      *identityapp.AuthService
	investors *investorapp.InvestorService
	contacts  *contactapp.ContactService
	network   *networkapp.NetworkService
	purge     *maintenance.PurgeService
	indexer   *searchapp.Indexer
}

func openApp(opts *RootOptions) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	level := "warn"
	if opts.Verbose {
		level = "debug"
	}
	log, err := logger.New(&logger.Config{Level: level, Format: "console", Output: "stderr"})
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	db, err := persistence.NewDatabase(&cfg.Database, logger.NewGormLogger(log, logger.MapGormLogLevel(level), cfg.Database.SlowQuery))
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: log, db: db}
	a.closer = append(a.closer, func() { _ = db.Close() })

	appCache, redisClient := cache.New(cfg.Redis, log)
	if redisClient != nil {
		a.closer = append(a.closer, func() { _ = redisClient.Close() })
	}

	a.tenants = persistence.NewGormTenantRepository(db.DB)
	a.users = persistence.NewGormUserRepository(db.DB)
	investorRepo := persistence.NewGormInvestorRepository(db.DB)
	contactRepo := persistence.NewGormContactRepository(db.DB)
	activityRepo := persistence.NewGormActivityRepository(db.DB)
	taskRepo := persistence.NewGormTaskRepository(db.DB)
	meetingRepo := persistence.NewGormMeetingRepository(db.DB)
	filterRepo := persistence.NewGormSavedFilterRepository(db.DB)

	bus := event.NewInMemoryEventBus(log)
	bus.Subscribe(auditapp.NewAuditService(persistence.NewGormAuditRepository(db.DB), log))

	var index searchapp.Index
	if cfg.Search.Enabled {
		a.meili = search.NewMeili(cfg.Search, log)
		index = a.meili
		a.closer = append(a.closer, a.meili.Close)
		a.indexer = searchapp.NewIndexer(index, investorRepo, contactRepo, log)
		// handlers run inline until Start, so seeded records are indexed before the command exits
		bus.Subscribe(a.indexer)
	}

	activities := activityapp.NewActivityService(activityRepo, investorRepo, contactRepo, bus, log)
	a.auth = identityapp.NewAuthService(
		a.tenants, a.users, persistence.NewGormIdentityTransaction(db.DB),
		auth.NewJWTService(cfg.JWT), auth.NewInMemoryTokenBlacklist(), bus,
		identityapp.DefaultAuthServiceConfig(), log,
	)
	a.investors = investorapp.NewInvestorService(
		investorRepo, activities, activityRepo, meetingRepo, taskRepo,
		appCache, cfg.Cache.PipelineTTL, bus, nil, log,
	)
	a.contacts = contactapp.NewContactService(contactRepo, investorRepo, bus, log)
	a.network = networkapp.NewNetworkService(
		persistence.NewGormLinkedInContactRepository(db.DB), persistence.NewGormRelationshipRepository(db.DB),
		investorRepo, a.users, networkapp.Config{Locks: appCache}, bus, nil, log,
	)
	a.purge = maintenance.NewPurgeService(log,
		maintenance.Target{Name: "activities", Purger: activityRepo},
		maintenance.Target{Name: "tasks", Purger: taskRepo},
		maintenance.Target{Name: "meetings", Purger: meetingRepo},
		maintenance.Target{Name: "contacts", Purger: contactRepo},
		maintenance.Target{Name: "saved_filters", Purger: filterRepo},
		maintenance.Target{Name: "investors", Purger: investorRepo},
	)
	return a, nil
}

func (a *app) Close() {
	for i := len(a.closer) - 1; i >= 0; i-- {
		a.closer[i]()
	}
	_ = a.log.Sync()
}

// workspace resolves a tenant slug and, when email is set, one of its users
func (a *app) workspace(ctx context.Context, slug, email string) (tenantID, userID uuid.UUID, err error) {
	tenant, err := a.tenants.FindBySlug(ctx, slug)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("workspace %q: %w", slug, err)
	}
	if email == "" {
		return tenant.ID, uuid.Nil, nil
	}
	user, err := a.users.FindByEmail(ctx, tenant.ID, email)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("user %q: %w", email, err)
	}
	return tenant.ID, user.ID, nil
}

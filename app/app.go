// ABOUTME: Wires repositories and services around one database handle
// ABOUTME: Shared by the CLI, the MCP server and the HTTP API
package app

import (
	"context"
	"database/sql"

	"github.com/sirupsen/logrus"

	"github.com/victor-4502/naova-mvp-sub002/auth"
	"github.com/victor-4502/naova-mvp-sub002/automation"
	"github.com/victor-4502/naova-mvp-sub002/config"
	"github.com/victor-4502/naova-mvp-sub002/db"
	"github.com/victor-4502/naova-mvp-sub002/export"
	"github.com/victor-4502/naova-mvp-sub002/intake"
	"github.com/victor-4502/naova-mvp-sub002/normalize"
	"github.com/victor-4502/naova-mvp-sub002/notify"
	"github.com/victor-4502/naova-mvp-sub002/orders"
	"github.com/victor-4502/naova-mvp-sub002/pipeline"
	"github.com/victor-4502/naova-mvp-sub002/quotes"
	"github.com/victor-4502/naova-mvp-sub002/rfq"
	"github.com/victor-4502/naova-mvp-sub002/tracking"
)

type App struct {
	DB       *sql.DB
	Config   *config.Config
	Settings *config.Settings
	Log      *logrus.Logger

	Requests  *db.RequestRepository
	Suppliers *db.SupplierRepository
	RFQs      *db.RFQRepository
	Quotes    *db.QuoteRepository
	Orders    *db.OrderRepository
	IntakeLog *db.IntakeLogRepository

	Notifier   notify.Notifier
	Authorizer *auth.Authorizer
	Intake     *intake.Service
	Normalizer *normalize.Normalizer
	Dispatcher *rfq.Dispatcher
	Receiver   *quotes.Receiver
	Comparator *quotes.Comparator
	Creator    *orders.Creator
	Tracking   *tracking.Service
	Pipeline   *pipeline.Service
	Automation *automation.Engine
	Export     *export.Service
}

// New builds every service on top of database. A nil notifier logs notifications.
func New(database *sql.DB, cfg *config.Config, logger *logrus.Logger, notifier notify.Notifier) (*App, error) {
	if notifier == nil {
		notifier = notify.NewLogNotifier(logger)
	}

	a := &App{
		DB:        database,
		Config:    cfg,
		Settings:  config.NewSettings(cfg.AutoSendRFQ),
		Log:       logger,
		Requests:  db.NewRequestRepository(database),
		Suppliers: db.NewSupplierRepository(database),
		RFQs:      db.NewRFQRepository(database),
		Quotes:    db.NewQuoteRepository(database),
		Orders:    db.NewOrderRepository(database),
		IntakeLog: db.NewIntakeLogRepository(database),
		Notifier:  notifier,
	}

	var err error
	if a.Authorizer, err = auth.NewAuthorizer(logger); err != nil {
		return nil, err
	}
	if a.Normalizer, err = normalize.New(); err != nil {
		return nil, err
	}
	if a.Receiver, err = quotes.NewReceiver(a.Quotes, a.Requests, a.Suppliers, logger); err != nil {
		return nil, err
	}

	a.Intake = intake.NewService(a.Requests, logger)
	a.Dispatcher = rfq.NewDispatcher(a.Suppliers, a.RFQs, notifier, logger)
	a.Comparator = quotes.NewComparator(a.Quotes, a.Requests)
	a.Creator = orders.NewCreator(a.Quotes, a.Requests, a.Orders, logger)
	a.Tracking = tracking.NewService(a.Orders, notifier, logger)
	a.Pipeline = pipeline.NewService(a.Requests, logger)
	a.Automation = automation.NewEngine(a.Requests, a.Normalizer, a.Dispatcher, a.Comparator, a.Settings, logger)
	a.Export = export.NewService(a.Requests, a.Orders, logger)

	return a, nil
}

// Identity returns the caller configured for local surfaces (CLI and stdio MCP).
func (a *App) Identity() (auth.Identity, error) {
	role, err := auth.ParseRole(a.Config.Role)
	if err != nil {
		return auth.Identity{}, err
	}
	return auth.Identity{Role: role, ClientID: a.Config.ClientID}, nil
}

// GmailImporter connects to Gmail with the stored OAuth token.
func (a *App) GmailImporter(ctx context.Context) (*intake.Importer, error) {
	svc, err := intake.NewGmailService(ctx, a.Config.Gmail)
	if err != nil {
		return nil, err
	}
	return intake.NewImporter(intake.NewGmailSource(svc), a.Intake, a.IntakeLog,
		a.Config.Gmail.SenderClientMap(), a.Config.Gmail.Label, a.Log), nil
}

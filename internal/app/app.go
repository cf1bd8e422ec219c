package app

import (
	"context"
	"fmt"

	"loanflow/internal/adapter/repository/mysql"
	"loanflow/internal/config"
	"loanflow/internal/domain/document"
	"loanflow/internal/infrastructure/blob"
	"loanflow/internal/infrastructure/db"
	"loanflow/internal/infrastructure/mail"
	"loanflow/internal/notification"
	loanuc "loanflow/internal/usecase/loan"
	"loanflow/internal/usecase/status"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const productName = "Loanflow"

// App holds the wired services shared by the API server and the CLI.
type App struct {
	Cfg   *config.Config
	Log   *zap.Logger
	DB    *gorm.DB
	Queue *notification.Queue

	Loans  *loanuc.Usecase
	Status *status.Usecase
}

// New connects to MySQL and wires the usecases. The caller owns the queue:
// start Run for steady delivery, Flush before exit.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	gdb, err := db.OpenGorm(cfg.MySQLDSN(), cfg.AppMode, log)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}

	blobs, err := openBlobs(ctx, cfg.Blob)
	if err != nil {
		return nil, fmt.Errorf("blob store: %w", err)
	}

	mailer := mail.NewSMTPMailer(mail.Options{
		Host:           cfg.SMTP.Host,
		Port:           cfg.SMTP.Port,
		User:           cfg.SMTP.User,
		Pass:           cfg.SMTP.Pass,
		From:           cfg.SMTP.From,
		MaxConns:       cfg.SMTP.MaxConns,
		RatePerSec:     cfg.SMTP.RatePerSec,
		ConnectTimeout: cfg.SMTP.ConnectTimeout,
		SendTimeout:    cfg.SMTP.SendTimeout,
	}, log.Named("smtp"))

	queue := notification.NewQueue(mailer, log.Named("notify"), notification.Options{
		Interval:    cfg.Notify.Interval,
		BaseDelay:   cfg.Notify.BaseDelay,
		MaxRetries:  cfg.Notify.MaxRetries,
		Capacity:    cfg.Notify.Capacity,
		SendTimeout: cfg.SMTP.SendTimeout,
	})
	composer := notification.NewComposer(notification.NewTemplateCache(cfg.Notify.TemplateCacheSize), productName)

	loans := mysql.NewLoanRepository(gdb)
	events := mysql.NewEventRepository(gdb)

	return &App{
		Cfg:   cfg,
		Log:   log,
		DB:    gdb,
		Queue: queue,
		Loans: loanuc.NewUsecase(loans, events, log.Named("loan")),
		Status: status.NewUsecase(status.Deps{
			UoW:       mysql.NewGormUoW(gdb),
			Employees: mysql.NewEmployeeRepository(gdb),
			Blobs:     blobs,
			Notifier:  queue,
			Composer:  composer,
			Log:       log.Named("status"),
		}),
	}, nil
}

// Migrate brings the schema up to the embedded migrations.
func (a *App) Migrate() error {
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return db.Migrate(sqlDB, a.Log)
}

func (a *App) Close() error {
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func openBlobs(ctx context.Context, c config.Blob) (document.BlobStore, error) {
	switch c.Driver {
	case config.BlobDriverS3:
		return blob.NewS3Store(ctx, c.S3Bucket, c.S3Region, c.S3Endpoint, c.PublicBaseURL)
	case config.BlobDriverLocal:
		return blob.NewLocalStore(c.LocalDir, c.PublicBaseURL), nil
	default:
		return nil, fmt.Errorf("unknown driver %q", c.Driver)
	}
}

// cmd/wizard-server/dependencies.go
package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"nominee-applications/internal/common/aws"
	"nominee-applications/internal/common/camunda"
	"nominee-applications/internal/common/config"
	"nominee-applications/internal/common/database"
	"nominee-applications/internal/common/logger"
	"nominee-applications/internal/delivery/formrelay"
	"nominee-applications/internal/delivery/sesmail"
	"nominee-applications/internal/delivery/smsalert"
	"nominee-applications/internal/delivery/workflow"
	"nominee-applications/internal/documents"
	"nominee-applications/internal/draftstore"
	"nominee-applications/internal/wizard"
)

type dependencies struct {
	drafts    wizard.DraftStore
	documents documents.Store
	delivery  wizard.Deliverer

	redis  *database.RedisClient
	zeebe  *camunda.Client
	bucket *documents.MinioStore
}

func buildDependencies(ctx context.Context, cfg *config.Config, zapLog *zap.Logger, log logger.Logger) (*dependencies, error) {
	deps := &dependencies{}

	// --- Draft store ---
	switch cfg.Draft.Store {
	case "redis":
		rc, err := database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return nil, err
		}
		err = retryWithBackoff(func() error { return rc.Ping(ctx) }, 10, time.Second, zapLog, "Redis connection")
		if err != nil {
			return nil, err
		}
		deps.redis = rc
		deps.drafts = draftstore.NewRedisStore(rc.Client, cfg.Draft.KeyPrefix, time.Duration(cfg.Draft.TTL)*time.Hour)
		zapLog.Info("Redis draft store connected", zap.String("address", cfg.Database.Redis.Address))
	default:
		deps.drafts = draftstore.NewMemoryStore()
		zapLog.Warn("Drafts are kept in memory and will not survive a restart")
	}

	// --- Document store ---
	switch cfg.Documents.Store {
	case "minio":
		store, err := documents.NewMinioStore(cfg.Documents)
		if err != nil {
			return nil, err
		}
		err = retryWithBackoff(func() error { return store.EnsureBucket(ctx) }, 10, time.Second, zapLog, "Document bucket setup")
		if err != nil {
			return nil, err
		}
		deps.bucket = store
		deps.documents = store
		zapLog.Info("Document bucket ready", zap.String("bucket", cfg.Documents.Bucket))
	default:
		deps.documents = documents.NewMemoryStore()
	}

	// --- Delivery backend ---
	backend, err := deps.buildDelivery(ctx, cfg, zapLog, log)
	if err != nil {
		return nil, err
	}
	deps.delivery = backend

	if cfg.Notifications.SMS.Enabled {
		region := cfg.Notifications.SMS.Region
		if region == "" {
			region = cfg.Delivery.SES.Region
		}
		snsClient, err := aws.NewSNSClient(ctx, region)
		if err != nil {
			return nil, fmt.Errorf("sns client: %w", err)
		}
		alerting, err := smsalert.Wrap(backend, snsClient, smsalert.Config{
			PhoneNumber: cfg.Notifications.SMS.PhoneNumber,
			SenderID:    cfg.Notifications.SMS.SenderID,
		}, log)
		if err != nil {
			return nil, err
		}
		deps.delivery = alerting
		zapLog.Info("Operator SMS alerts enabled")
	}

	return deps, nil
}

func (d *dependencies) buildDelivery(ctx context.Context, cfg *config.Config, zapLog *zap.Logger, log logger.Logger) (wizard.Deliverer, error) {
	dc := cfg.Delivery
	switch dc.Backend {
	case "ses":
		client, err := aws.NewSESClient(ctx, dc.SES.Region)
		if err != nil {
			return nil, fmt.Errorf("ses client: %w", err)
		}
		return sesmail.NewService(sesmail.ServiceDependencies{
			SES:       client,
			Documents: d.documents,
			Logger:    log,
		}, &sesmail.Config{
			FromEmail:     dc.SES.FromEmail,
			OperatorEmail: dc.OperatorEmail,
			Subject:       dc.FormRelay.Subject,
		})

	case "workflow":
		var client *camunda.Client
		err := retryWithBackoff(func() error {
			var err error
			client, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
				GatewayAddress:         dc.Workflow.BrokerAddress,
				UsePlaintextConnection: dc.Workflow.Plaintext,
				RequestTimeout:         config.GetDuration(dc.Timeout),
			})
			return err
		}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
		if err != nil {
			return nil, err
		}
		d.zeebe = client
		return workflow.NewService(client, workflow.Config{
			ProcessID:     dc.Workflow.ProcessID,
			OperatorEmail: dc.OperatorEmail,
		}, log)

	default:
		return formrelay.NewService(formrelay.ServiceDependencies{
			Documents: d.documents,
			Logger:    log,
		}, &formrelay.Config{
			Endpoint:      dc.FormRelay.Endpoint,
			OperatorEmail: dc.OperatorEmail,
			Subject:       dc.FormRelay.Subject,
			Timeout:       config.GetDuration(dc.Timeout),
		})
	}
}

// Ready checks the external services the configured stores and backend depend on.
func (d *dependencies) Ready(ctx context.Context) error {
	if d.redis != nil {
		if err := d.redis.Ping(ctx); err != nil {
			return err
		}
	}
	if d.bucket != nil {
		if err := d.bucket.EnsureBucket(ctx); err != nil {
			return err
		}
	}
	if d.zeebe != nil {
		if err := d.zeebe.HealthCheck(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (d *dependencies) Close(log *zap.Logger) {
	if d.zeebe != nil {
		if err := d.zeebe.Close(); err != nil {
			log.Error("Error closing Zeebe client", zap.Error(err))
		}
	}
	if d.redis != nil {
		if err := d.redis.Close(); err != nil {
			log.Error("Error closing Redis client", zap.Error(err))
		}
	}
}

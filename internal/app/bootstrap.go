package app

import (
	"errors"
	"strings"

	"github.com/quirkcart/quirkcart/internal/config"
	"github.com/quirkcart/quirkcart/internal/logger"
	"github.com/quirkcart/quirkcart/internal/pii"
	"github.com/quirkcart/quirkcart/internal/provider"
	"github.com/quirkcart/quirkcart/internal/queue"
	"github.com/quirkcart/quirkcart/internal/router"
	"github.com/quirkcart/quirkcart/internal/worker"
)

// BuildRunner assembles the dependency graph and the services for the
// requested mode.
func BuildRunner(cfg *config.Config, mode string) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	codec, err := buildPIICodec(cfg)
	if err != nil {
		return nil, err
	}

	queueClient, err := queue.NewClient(&cfg.Queue)
	if err != nil {
		return nil, err
	}

	container, err := provider.NewContainer(cfg, provider.Options{
		PIICodec:    codec,
		QueueClient: queueClient,
	})
	if err != nil {
		return nil, err
	}

	var services []Service

	if mode == ModeAll || mode == ModeAPI {
		engine := router.SetupRouter(cfg, container)
		addr := cfg.Server.Host + ":" + cfg.Server.Port
		services = append(services, NewHTTPService(addr, engine))
	}

	if mode == ModeAll || mode == ModeWorker {
		if cfg.Queue.Enabled {
			consumer := worker.NewConsumer(container)
			workerService, err := worker.NewService(&cfg.Queue, consumer)
			if err != nil {
				return nil, err
			}
			services = append(services, workerService)
		} else if mode == ModeWorker {
			return nil, errors.New("worker mode requires queue.enabled")
		}
	}

	if len(services) == 0 {
		return nil, errors.New("no services initialized (check mode and config)")
	}

	return NewRunner(services...), nil
}

// buildPIICodec selects the order PII codec. Release mode refuses to
// start without a real key; contact detail must never land in
// plaintext on a production datastore.
func buildPIICodec(cfg *config.Config) (pii.Codec, error) {
	key := strings.TrimSpace(cfg.Security.PIIEncryptionKey)
	if key != "" {
		return pii.NewCodec(key)
	}
	if strings.EqualFold(cfg.Server.Mode, "release") {
		return nil, errors.New("security.pii_encryption_key is required in release mode")
	}
	logger.S().Warnw("pii_encryption_disabled", "mode", cfg.Server.Mode)
	return pii.NewIdentityCodec(), nil
}

// Run is the application entry used by cmd/server.
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	runner, err := BuildRunner(opts.Config, opts.Mode)
	if err != nil {
		return err
	}

	addr := opts.Config.Server.Host + ":" + opts.Config.Server.Port
	opts.Logger.Infow("app_start", "addr", addr, "mode", opts.Mode)
	return RunWithOptions(runner, opts)
}

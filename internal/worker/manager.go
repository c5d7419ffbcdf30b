package worker

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/atomic"

	"agrotech/diagnosis/internal/analysis/raster"
	"agrotech/diagnosis/internal/domains"
	"agrotech/diagnosis/internal/domains/common"
	"agrotech/diagnosis/internal/framework"
	"agrotech/diagnosis/internal/pipeline"
	"agrotech/diagnosis/internal/sources"
	"agrotech/diagnosis/internal/store"
	"agrotech/diagnosis/pkg/config"
	"agrotech/diagnosis/pkg/infra/redis"
	"agrotech/diagnosis/pkg/logger"
	"agrotech/diagnosis/pkg/queue"
)

// Manager supervises the workers
type Manager interface {
	Start() error
	Shutdown()
}

// ManagerInstance manager implementation
type ManagerInstance struct {
	ctx         context.Context
	cfg         *config.Config
	queueClient *queue.Client
	deps        *common.Deps
	dao         *store.DAO
	pubsub      *redis.PubSub
	workers     []Worker
	closing     *atomic.Bool
	shutdownCh  chan struct{}
	wg          sync.WaitGroup
	logger      logger.Logger
}

// NewManagerInstance wires the queue client, the diagnosis pipeline and
// its collaborators from configuration. MySQL and Redis are optional;
// without MySQL the parcel catalog falls back to the GeoJSON file.
func NewManagerInstance(cfg *config.Config, log logger.Logger) (Manager, error) {
	ctx := context.Background()

	queueClient, err := queue.NewClient(cfg.Lmstfy.Host, cfg.Lmstfy.Port, cfg.Lmstfy.Namespace, cfg.Lmstfy.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create queue client: %w", err)
	}

	var callbackQueue string
	if len(cfg.Workers) > 0 {
		callbackQueue = cfg.Workers[0].CallbackQueue
	}
	if callbackQueue == "" {
		return nil, fmt.Errorf("callback_queue is required in worker config")
	}

	m := &ManagerInstance{
		ctx:         ctx,
		cfg:         cfg,
		queueClient: queueClient,
		closing:     atomic.NewBool(false),
		shutdownCh:  make(chan struct{}),
		workers:     make([]Worker, 0),
		logger:      log,
	}

	deps, err := m.buildDeps(callbackQueue)
	if err != nil {
		return nil, err
	}
	m.deps = deps

	log.Infof(ctx, "[Manager] Initialized with callback_queue: %s", callbackQueue)
	return m, nil
}

// buildDeps assembles the handler collaborators
func (m *ManagerInstance) buildDeps(callbackQueue string) (*common.Deps, error) {
	var catalog sources.ParcelCatalog
	if m.cfg.MySQL.DSN != "" {
		dao, err := store.NewDAO(m.cfg.MySQL.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open mysql: %w", err)
		}
		m.dao = dao
		catalog = dao
	} else {
		catalog = &sources.FileParcelCatalog{Path: m.cfg.Data.ParcelFile}
	}

	deps := &common.Deps{
		Log: m.logger,
		Pipeline: pipeline.New(
			m.logger,
			m.cfg,
			raster.NewGeoTIFFReader(),
			&sources.FileAcquisitionSource{Dir: m.cfg.Data.AcquisitionDir, Timeout: m.cfg.Data.LoadTimeout},
			&sources.FileClimateSource{Dir: m.cfg.Data.ClimateDir, Timeout: m.cfg.Data.LoadTimeout},
			catalog,
		),
		Queue:         m.queueClient,
		CallbackQueue: callbackQueue,
		NotifyChannel: m.cfg.Redis.Channel,
	}
	if m.dao != nil {
		deps.Recorder = m.dao
	}

	if m.cfg.Redis.Addr != "" {
		pubsub, err := redis.NewPubSub(m.cfg.Redis.Addr, m.cfg.Redis.Password, m.cfg.Redis.DB)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		m.pubsub = pubsub
		deps.Notifier = pubsub
	}

	return deps, nil
}

// Start loads and runs all workers, blocking until Shutdown
func (m *ManagerInstance) Start() error {
	m.logger.Infof(m.ctx, "[Manager] Starting...")

	if err := m.loadWorkers(); err != nil {
		return fmt.Errorf("failed to load workers: %w", err)
	}

	m.logger.Infof(m.ctx, "[Manager] All workers loaded, count: %d", len(m.workers))

	for _, worker := range m.workers {
		w := worker
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			w.Start()
		}()
		m.logger.Infof(m.ctx, "[Manager] Worker started: %s", w.GetName())
	}

	m.logger.Infof(m.ctx, "[Manager] Start success")

	<-m.shutdownCh
	return nil
}

// Shutdown graceful exit
func (m *ManagerInstance) Shutdown() {
	m.logger.Infof(m.ctx, "[Manager] Began to close")

	if m.closing.CAS(false, true) {
		for _, worker := range m.workers {
			m.logger.Infof(m.ctx, "[Manager] Shutting down worker: %s", worker.GetName())
			worker.Shutdown()
		}

		m.wg.Wait()

		if m.pubsub != nil {
			m.pubsub.Close()
		}
		if m.dao != nil {
			m.dao.Close()
		}

		close(m.shutdownCh)

		m.logger.Infof(m.ctx, "[Manager] Shutdown complete")
	}
}

// loadWorkers builds one worker per configured queue
func (m *ManagerInstance) loadWorkers() error {
	for _, workerCfg := range m.cfg.Workers {
		subCfg := &framework.SubscriberConfig{
			QueueName:    workerCfg.QueueName,
			Concurrency:  workerCfg.Subscriber.Threads,
			Rate:         workerCfg.Subscriber.Rate,
			Timeout:      workerCfg.Subscriber.Timeout,
			TTR:          workerCfg.Subscriber.TTR,
			ErrorBackoff: workerCfg.Subscriber.ErrorBackoff,
		}

		procCfg := &framework.ProcessorConfig{
			Concurrency: workerCfg.Processor.Threads,
			BufferSize:  workerCfg.Processor.BufferSize,
			Timeout:     workerCfg.Processor.Timeout,
		}

		getProcess := domains.GetProcess(m.logger, m.deps)

		worker, err := NewWorkerInstance(
			m.ctx,
			workerCfg.Name,
			subCfg,
			procCfg,
			m.queueClient,
			getProcess,
			m.logger,
		)
		if err != nil {
			return fmt.Errorf("failed to create worker %s: %w", workerCfg.Name, err)
		}

		m.workers = append(m.workers, worker)
	}

	return nil
}

// Package daemonsvc assembles the classic (BR/EDR) and BLE daemons' object
// graphs with a dig.Container, the way pkg/agent/agentcli wires a cobra
// command tree over a manually-built Agent -- except here the wiring itself
// goes through dig so each component only declares what it needs.
package daemonsvc

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dgraph-io/badger"
	"go.uber.org/dig"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/jadeai/bthid/internal/configsvc"
	"github.com/jadeai/bthid/internal/hidprofile"
	"github.com/jadeai/bthid/internal/historysvc"
	"github.com/jadeai/bthid/internal/transport/classic"
	"github.com/jadeai/bthid/internal/unixapi"
)

// ClassicParams are the flags/paths the classic daemon's root command
// collects before building its container.
type ClassicParams struct {
	ConfigPath string
	DataDir    string
	SocketPath string
}

func newLogger() (*zap.Logger, error) {
	loggerConfig := zap.NewDevelopmentConfig()
	loggerConfig.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	loggerConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	logger, err := loggerConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("daemonsvc: build logger: %w", err)
	}
	return logger, nil
}

type badgerLogger struct{ l *zap.Logger }

func (l badgerLogger) Errorf(msg string, args ...interface{})   { l.l.Error(fmt.Sprintf(msg, args...)) }
func (l badgerLogger) Warningf(msg string, args ...interface{}) { l.l.Warn(fmt.Sprintf(msg, args...)) }
func (l badgerLogger) Infof(msg string, args ...interface{})    { l.l.Info(fmt.Sprintf(msg, args...)) }
func (l badgerLogger) Debugf(msg string, args ...interface{})   { l.l.Debug(fmt.Sprintf(msg, args...)) }

func openDB(dataDir string, log *zap.Logger) (*badger.DB, error) {
	opts := badger.DefaultOptions(filepath.Join(dataDir, "db"))
	opts.Logger = badgerLogger{l: log.Named("badger")}
	db, err := badger.Open(opts)
	// TODO: run GC on db
	if err != nil {
		return nil, fmt.Errorf("daemonsvc: open badger db: %w", err)
	}
	return db, nil
}

func loadDeviceConfig(cfgSvc *configsvc.Service, path string) (configsvc.DeviceConfig, error) {
	cfg, err := configsvc.RegisterWriteable(cfgSvc, path, configsvc.DefaultDeviceConfig(), func(configsvc.DeviceConfig, error) error {
		return nil
	})
	if err != nil {
		return configsvc.DeviceConfig{}, err
	}
	return configsvc.ExpandConfig(cfg), nil
}

// watchDeviceConfig waits for cfgSvc's fsnotify watcher to come up (cfgSvc.Start
// must already be running in the supervising errgroup) and then subscribes to
// future edits of path, applying the expanded Safety fields through onChange.
// It returns once subscribed; reload keeps happening on cfgSvc's own goroutine
// for the life of ctx.
func watchDeviceConfig(ctx context.Context, cfgSvc *configsvc.Service, path string, onChange func(configsvc.DeviceConfig)) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-cfgSvc.Ready():
	}
	_, err := configsvc.Register(cfgSvc, path, configsvc.DefaultDeviceConfig(), func(cfg configsvc.DeviceConfig, err error) {
		if err != nil {
			return
		}
		onChange(configsvc.ExpandConfig(cfg))
	})
	return err
}

// ClassicDaemon holds the classic variant's started components so Run can
// supervise them and tear them down in the right order when it returns.
type ClassicDaemon struct {
	log        *zap.Logger
	db         *badger.DB
	cfgSvc     *configsvc.Service
	configPath string
	input      *hidprofile.InputEngine
	engine     *hidprofile.Engine
	control    *unixapi.Server
}

// BuildClassicContainer wires every component the classic daemon needs
// behind a dig.Container, mirroring the teacher's PersistentPreRunE-builds-
// the-Agent pattern but with dig doing the constructor wiring instead of a
// single hand-written NewAgent function.
func BuildClassicContainer(params ClassicParams) (*dig.Container, error) {
	c := dig.New()

	if err := c.Provide(newLogger); err != nil {
		return nil, err
	}
	if err := c.Provide(func() ClassicParams { return params }); err != nil {
		return nil, err
	}
	if err := c.Provide(func(log *zap.Logger) (*configsvc.Service, error) {
		return configsvc.New(log.Named("config")), nil
	}); err != nil {
		return nil, err
	}
	if err := c.Provide(func(p ClassicParams, cfgSvc *configsvc.Service) (configsvc.DeviceConfig, error) {
		return loadDeviceConfig(cfgSvc, p.ConfigPath)
	}); err != nil {
		return nil, err
	}
	if err := c.Provide(func(p ClassicParams, log *zap.Logger) (*badger.DB, error) {
		return openDB(p.DataDir, log)
	}); err != nil {
		return nil, err
	}
	if err := c.Provide(func(db *badger.DB) *historysvc.Service {
		return historysvc.New(db, time.Now, historysvc.DefaultMaxEvents)
	}); err != nil {
		return nil, err
	}
	if err := c.Provide(func() *hidprofile.State {
		return hidprofile.NewState()
	}); err != nil {
		return nil, err
	}
	if err := c.Provide(func(state *hidprofile.State) *hidprofile.Emitter {
		return hidprofile.NewEmitter(state, hidprofile.DefaultWaitForHostTimeout)
	}); err != nil {
		return nil, err
	}
	if err := c.Provide(func(log *zap.Logger, e *hidprofile.Emitter, state *hidprofile.State, cfg configsvc.DeviceConfig) *hidprofile.InputEngine {
		return hidprofile.NewInputEngine(
			log.Named("input"), e, state,
			time.Duration(cfg.Safety.KeypressDelayMs)*time.Millisecond,
			time.Duration(cfg.Safety.MouseMoveDelayMs)*time.Millisecond,
		)
	}); err != nil {
		return nil, err
	}
	if err := c.Provide(func() *classic.Transport {
		return classic.New()
	}); err != nil {
		return nil, err
	}
	if err := c.Provide(func(log *zap.Logger, t *classic.Transport, state *hidprofile.State) *hidprofile.Engine {
		return hidprofile.NewEngine(log.Named("engine"), t, state)
	}); err != nil {
		return nil, err
	}
	if err := c.Provide(func(p ClassicParams, log *zap.Logger, in *hidprofile.InputEngine, state *hidprofile.State, history *historysvc.Service) *unixapi.Server {
		return unixapi.New(log.Named("unixapi"), p.SocketPath, in, state, history)
	}); err != nil {
		return nil, err
	}
	if err := c.Provide(func(p ClassicParams, log *zap.Logger, db *badger.DB, cfgSvc *configsvc.Service, in *hidprofile.InputEngine, engine *hidprofile.Engine, control *unixapi.Server) *ClassicDaemon {
		return &ClassicDaemon{
			log:        log,
			db:         db,
			cfgSvc:     cfgSvc,
			configPath: p.ConfigPath,
			input:      in,
			engine:     engine,
			control:    control,
		}
	}); err != nil {
		return nil, err
	}
	return c, nil
}

// Run starts the classic daemon and blocks until ctx is cancelled or a
// component fails, mirroring pkg/agent.Agent.Run's errgroup supervision.
func (d *ClassicDaemon) Run(ctx context.Context) error {
	if err := d.control.Start(); err != nil {
		return err
	}
	defer d.control.Close()

	if err := d.engine.Start(ctx); err != nil {
		return err
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return d.cfgSvc.Start(groupCtx)
	})
	group.Go(func() error {
		return watchDeviceConfig(groupCtx, d.cfgSvc, d.configPath, func(cfg configsvc.DeviceConfig) {
			d.input.SetDelays(
				time.Duration(cfg.Safety.KeypressDelayMs)*time.Millisecond,
				time.Duration(cfg.Safety.MouseMoveDelayMs)*time.Millisecond,
			)
		})
	})
	group.Go(func() error {
		return d.engine.Wait()
	})
	group.Go(func() error {
		return d.control.Serve(groupCtx)
	})

	<-groupCtx.Done()
	d.engine.Shutdown()

	err := group.Wait()
	if closeErr := d.db.Close(); closeErr != nil {
		err = multierr.Append(err, closeErr)
	}
	return err
}

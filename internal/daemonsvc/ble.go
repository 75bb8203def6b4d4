package daemonsvc

import (
	"context"
	"time"

	"github.com/dgraph-io/badger"
	"go.uber.org/dig"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jadeai/bthid/internal/configsvc"
	"github.com/jadeai/bthid/internal/hidprofile"
	"github.com/jadeai/bthid/internal/historysvc"
	"github.com/jadeai/bthid/internal/httpapi"
	"github.com/jadeai/bthid/internal/transport/ble"
)

// BLEParams are the flags/paths the BLE daemon's root command collects
// before building its container.
type BLEParams struct {
	ConfigPath string
	DataDir    string
	BindAddr   string
}

func deviceInfoFromConfig(cfg configsvc.DeviceConfig) ble.DeviceInfo {
	return ble.DeviceInfo{
		Name:         cfg.Name,
		AdapterID:    cfg.AdapterID,
		Manufacturer: cfg.Manufacturer,
		Appearance:   cfg.Appearance,
	}
}

// BLEDaemon holds the BLE variant's started components.
type BLEDaemon struct {
	log        *zap.Logger
	db         *badger.DB
	cfgSvc     *configsvc.Service
	configPath string
	input      *hidprofile.InputEngine
	mouse      *hidprofile.AbsoluteMouse
	engine     *hidprofile.Engine
	http       *httpapi.Server
}

// BuildBLEContainer wires every component the BLE daemon needs, the way
// BuildClassicContainer does for the classic variant -- the only
// differences are the transport (GATT instead of L2CAP), the outer API
// (HTTP instead of a UNIX socket), and the extra AbsoluteMouse component
// BLE's coordinate-carrying /hid/move and /hid/click endpoints need.
func BuildBLEContainer(params BLEParams) (*dig.Container, error) {
	c := dig.New()

	if err := c.Provide(newLogger); err != nil {
		return nil, err
	}
	if err := c.Provide(func() BLEParams { return params }); err != nil {
		return nil, err
	}
	if err := c.Provide(func(log *zap.Logger) (*configsvc.Service, error) {
		return configsvc.New(log.Named("config")), nil
	}); err != nil {
		return nil, err
	}
	if err := c.Provide(func(p BLEParams, cfgSvc *configsvc.Service) (configsvc.DeviceConfig, error) {
		return loadDeviceConfig(cfgSvc, p.ConfigPath)
	}); err != nil {
		return nil, err
	}
	if err := c.Provide(func(p BLEParams, log *zap.Logger) (*badger.DB, error) {
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
	if err := c.Provide(func(in *hidprofile.InputEngine, cfg configsvc.DeviceConfig) *hidprofile.AbsoluteMouse {
		return hidprofile.NewAbsoluteMouse(in, cfg.Safety.MouseStepLimit, time.Duration(cfg.Safety.MouseMoveDelayMs)*time.Millisecond)
	}); err != nil {
		return nil, err
	}
	if err := c.Provide(func(log *zap.Logger, cfg configsvc.DeviceConfig) *ble.Transport {
		return ble.New(log.Named("ble"), deviceInfoFromConfig(cfg))
	}); err != nil {
		return nil, err
	}
	if err := c.Provide(func(log *zap.Logger, t *ble.Transport, state *hidprofile.State) *hidprofile.Engine {
		return hidprofile.NewEngine(log.Named("engine"), t, state)
	}); err != nil {
		return nil, err
	}
	if err := c.Provide(func(p BLEParams, log *zap.Logger, cfg configsvc.DeviceConfig, state *hidprofile.State, in *hidprofile.InputEngine, mouse *hidprofile.AbsoluteMouse, history *historysvc.Service) *httpapi.Server {
		return httpapi.New(log.Named("httpapi"), p.BindAddr, state, in, mouse, history, cfg.DefaultButton)
	}); err != nil {
		return nil, err
	}
	if err := c.Provide(func(p BLEParams, log *zap.Logger, db *badger.DB, cfgSvc *configsvc.Service, in *hidprofile.InputEngine, mouse *hidprofile.AbsoluteMouse, engine *hidprofile.Engine, http *httpapi.Server) *BLEDaemon {
		return &BLEDaemon{
			log:        log,
			db:         db,
			cfgSvc:     cfgSvc,
			configPath: p.ConfigPath,
			input:      in,
			mouse:      mouse,
			engine:     engine,
			http:       http,
		}
	}); err != nil {
		return nil, err
	}
	return c, nil
}

// Run starts the BLE daemon and blocks until ctx is cancelled.
func (d *BLEDaemon) Run(ctx context.Context) error {
	if err := d.http.Start(); err != nil {
		return err
	}

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
			d.mouse.SetSafety(cfg.Safety.MouseStepLimit, time.Duration(cfg.Safety.MouseMoveDelayMs)*time.Millisecond)
		})
	})
	group.Go(func() error {
		return d.engine.Wait()
	})

	<-groupCtx.Done()
	d.engine.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	httpErr := d.http.Shutdown(shutdownCtx)

	err := group.Wait()
	err = multierr.Append(err, httpErr)
	if closeErr := d.db.Close(); closeErr != nil {
		err = multierr.Append(err, closeErr)
	}
	return err
}

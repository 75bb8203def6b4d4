package configsvc_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jadeai/bthid/internal/configsvc"
)

func writeDeviceConfigYAML(t *testing.T, path string, name string) {
	t.Helper()
	body := "name: " + name + "\nadapter_id: hci0\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
}

// TestServiceStartDeliversReload exercises the watch path the daemons rely
// on for live safety-parameter reload: Start must bring the watcher up
// before Register can subscribe, and a subsequent on-disk write must reach
// the registered callback.
func TestServiceStartDeliversReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "device.yaml")
	writeDeviceConfigYAML(t, path, "Initial")

	svc := configsvc.New(zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	started := make(chan error, 1)
	go func() { started <- svc.Start(ctx) }()

	select {
	case <-svc.Ready():
	case <-time.After(time.Second):
		t.Fatal("Service.Start never became ready")
	}

	changes := make(chan configsvc.DeviceConfig, 1)
	initial, err := configsvc.Register(svc, path, configsvc.DefaultDeviceConfig(), func(cfg configsvc.DeviceConfig, err error) {
		if err != nil {
			return
		}
		changes <- cfg
	})
	require.NoError(t, err)
	require.Equal(t, "Initial", initial.Name)

	writeDeviceConfigYAML(t, path, "Reloaded")

	select {
	case cfg := <-changes:
		require.Equal(t, "Reloaded", cfg.Name)
	case <-time.After(5 * time.Second):
		t.Fatal("reload callback never fired after file write")
	}

	cancel()
	select {
	case err := <-started:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Service.Start never returned after ctx cancellation")
	}
}

// TestRegisterWriteableLeavesWatcherUntouched documents why daemonsvc's
// dig-wiring-time config load uses RegisterWriteable rather than Register:
// it must work before Service.Start (and so the fsnotify watcher) exists.
func TestRegisterWriteableLeavesWatcherUntouched(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "device.yaml")

	svc := configsvc.New(zap.NewNop())
	cfg, err := configsvc.RegisterWriteable(svc, path, configsvc.DefaultDeviceConfig(), func(configsvc.DeviceConfig, error) error {
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, configsvc.DefaultDeviceConfig(), cfg)

	_, statErr := os.Stat(path)
	require.NoError(t, statErr, "RegisterWriteable should have written the default config to disk")
}

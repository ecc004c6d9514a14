package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"masjid-display-server/internal/config"
	"masjid-display-server/internal/displayclient"
	"masjid-display-server/pkg/deviceid"

	"github.com/sirupsen/logrus"
)

// The display agent runs unattended on the physical device: it bootstraps
// the durable identity, polls the server for its authorization gate and
// registers itself once a device name is configured.
func main() {
	cfg, err := config.LoadAgent()
	if err != nil {
		logrus.Fatalf("Failed to load agent configuration: %v", err)
	}

	identity := deviceid.NewStore(cfg.StateDir)
	deviceID, err := identity.Ensure()
	if err != nil {
		logrus.Fatalf("Failed to establish device identity: %v", err)
	}
	logrus.Infof("Device identity: %s (display %s)", deviceID, cfg.DisplayID)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Registration happens off the poller's loop goroutine so a slow
	// register call never delays the probe cadence.
	registerCh := make(chan struct{}, 1)

	client := displayclient.NewClient(cfg.ServerURL)
	poller := displayclient.NewPoller(client, displayclient.Config{
		DeviceID:         deviceID,
		DisplayID:        cfg.DisplayID,
		UserAgent:        "masjid-display-agent",
		ScreenResolution: cfg.ScreenResolution,
		Interval:         cfg.PollInterval,
		OnChange: func(snap displayclient.Snapshot) {
			logrus.WithFields(logrus.Fields{
				"status":     snap.Status,
				"authorized": snap.IsAuthorized,
			}).Info("authorization state changed")

			if snap.NeedsRegistration {
				if cfg.DeviceName == "" {
					logrus.Warn("Device is unregistered and DISPLAY_DEVICE_NAME is unset; waiting for an operator")
					return
				}
				select {
				case registerCh <- struct{}{}:
				default:
				}
			}
		},
	})

	go func() {
		for range registerCh {
			logrus.Infof("Registering device as %q", cfg.DeviceName)
			if err := poller.Register(ctx, cfg.DeviceName); err != nil {
				logrus.Warnf("Registration failed, will retry on next probe: %v", err)
			}
		}
	}()

	poller.Start(ctx)
	defer poller.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down display agent...")
}

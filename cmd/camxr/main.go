// camxr emulates an XR device from a webcam: head pose from facial
// tracking, hand skeletons from landmark detection, exposed to
// applications over an HTTP/websocket API.
package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	"github.com/camxr/camxr/internal/config"
	"github.com/camxr/camxr/internal/log"
	"github.com/camxr/camxr/pkg/camera"
	"github.com/camxr/camxr/pkg/detect"
	"github.com/camxr/camxr/pkg/session"
	"github.com/camxr/camxr/pkg/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Error("configuration error", "error", err)
		return
	}
	parseFlags(&cfg)

	log.Init(cfg.LogLevel)
	log.Info("starting camxr",
		"port", cfg.Port,
		"camera", cfg.CameraDevice,
		"detector", cfg.DetectorURL,
		"stereo", cfg.Stereo)

	sessCfg := session.DefaultConfig()
	sessCfg.Stereo = cfg.Stereo

	manager := session.NewManager(sessCfg,
		func() (session.FrameSource, error) {
			camCfg := camera.DefaultConfig()
			camCfg.DeviceID = cfg.CameraDevice
			return camera.Open(camCfg)
		},
		func() (detect.Detector, error) {
			return detect.Dial(cfg.DetectorURL)
		},
	)
	manager.SetEnabled(cfg.Enabled)

	server := web.NewServer(cfg.Port, manager)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			log.Error("server error", "error", err)
		}
	}

	if sess := manager.Active(); sess != nil {
		sess.End()
	}
	if err := server.Shutdown(); err != nil {
		log.Error("shutdown error", "error", err)
	}
}

// parseFlags overlays command line flags on the environment configuration.
func parseFlags(cfg *config.Config) {
	port := flag.String("port", cfg.Port, "Device API listen port")
	cam := flag.Int("camera", cfg.CameraDevice, "Capture device index")
	detector := flag.String("detector", cfg.DetectorURL, "Landmark detector websocket URL")
	stereo := flag.Bool("stereo", cfg.Stereo, "Synthesize two eye views")
	disabled := flag.Bool("disabled", !cfg.Enabled, "Start with the device disabled")
	logLevel := flag.String("log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	flag.Parse()

	cfg.Port = *port
	cfg.CameraDevice = *cam
	cfg.DetectorURL = *detector
	cfg.Stereo = *stereo
	cfg.Enabled = !*disabled
	cfg.LogLevel = *logLevel
}

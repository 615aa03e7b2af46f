package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.bnn-fpga.spi-controller/bnnctl"
)

func main() {
	cfg, err := bnnctl.ConfigFromEnv()
	if err != nil {
		bnnctl.ERRORLogger.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dev := bnnctl.NewDevice(cfg, nil)
	session := bnnctl.NewSession(dev)

	if cfg.TraceFile != "" {
		f, err := os.Create(cfg.TraceFile)
		if err != nil {
			bnnctl.ERRORLogger.Fatal(err)
		}
		defer f.Close()
		tracer := bnnctl.NewTracer(f, cfg.ClockPeriod)
		defer tracer.Flush()
		dev.AddProbe(tracer)
	}
	if cfg.JournalFile != "" {
		f, err := os.Create(cfg.JournalFile)
		if err != nil {
			bnnctl.ERRORLogger.Fatal(err)
		}
		defer f.Close()
		dev.Controller().AddFrameSink(bnnctl.NewFrameJournal(f))
	}

	hub := bnnctl.NewStatusHub()
	var reporter *bnnctl.Reporter
	dev.Controller().OnTransition(func(from, to bnnctl.State, cycle uint64) {
		msg := dev.Controller().StatusMessage()
		msg.Status = dev.Status()
		hub.Publish(msg)
		if reporter != nil {
			if err := reporter.PublishStatus(msg); err != nil {
				bnnctl.ERRORLogger.Printf("publish status: %v", err)
			}
		}
	})

	if cfg.StatusAddr != "" {
		srv := &http.Server{Addr: cfg.StatusAddr, Handler: hub.Handler()}
		go func() {
			bnnctl.INFOLogger.Printf("Status server listening on %s", cfg.StatusAddr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				bnnctl.ERRORLogger.Printf("status server: %v", err)
			}
		}()
		defer srv.Close()
	}

	var jobs chan bnnctl.Job = make(chan bnnctl.Job, 16)
	var clears chan bnnctl.ClearMessage = make(chan bnnctl.ClearMessage, 1)

	if cfg.MQTTBroker != "" {
		client, err := bnnctl.NewMQTTClient(cfg)
		if err != nil {
			bnnctl.ERRORLogger.Fatal(err)
		}
		defer client.Disconnect(250)
		if err := bnnctl.SetupMQTTSubscriptionCallbacks(jobs, clears, cfg, client); err != nil {
			bnnctl.ERRORLogger.Fatal(err)
		}
		reporter = bnnctl.NewReporter(client, cfg)
	}

	if cfg.WatchDir != "" {
		watcher, err := bnnctl.NewImageWatcher(cfg.WatchDir, cfg)
		if err != nil {
			bnnctl.ERRORLogger.Fatal(err)
		}
		defer watcher.Close()
		go watcher.Watch(ctx, jobs)
	}

	if cfg.CameraDevice != "" {
		camera, err := bnnctl.OpenCamera(cfg.CameraDevice, cfg)
		if err != nil {
			bnnctl.ERRORLogger.Fatal(err)
		}
		defer camera.Close()
		go camera.Run(ctx, jobs, cfg.CameraInterval)
	}

	bnnctl.INFOLogger.Printf("Controller ready: %d byte buffer, SPI mode %d", cfg.Capacity(), cfg.Mode)
	bnnctl.JobLoop(ctx, session, jobs, clears, func(job bnnctl.Job, msg bnnctl.ResultMessage) {
		if reporter == nil {
			return
		}
		if err := reporter.PublishResult(msg); err != nil {
			bnnctl.ERRORLogger.Printf("publish result: %v", err)
		}
		if err := reporter.PublishBitmap(job.Image); err != nil {
			bnnctl.ERRORLogger.Printf("publish bitmap: %v", err)
		}
	})
	bnnctl.INFOLogger.Println("Shutting down")
}

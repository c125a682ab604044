// Package main is the entry point for the bsdeskd desktop agent.
package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/iltoga/businesssuite-desktop/internal/config"
	"github.com/iltoga/businesssuite-desktop/internal/daemon"
	"github.com/iltoga/businesssuite-desktop/internal/daemon/tray"
)

func main() {
	// A local .env is a development convenience; absence is not an error.
	_ = godotenv.Load()

	log.SetPrefix("[bsdeskd] ")
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	if err := config.EnsureGlobalDir(); err != nil {
		log.Fatalf("Failed to create global directory: %v", err)
	}

	// Second-launch behavior: surface the already-running instance and exit
	// instead of starting a duplicate.
	running, info, err := config.IsDaemonRunning()
	if err != nil {
		log.Fatalf("Failed to check daemon status: %v", err)
	}
	if running && info != nil {
		log.Printf("Already running on port %d (PID %d), surfacing it", info.Port, info.PID)
		surfaceRunningInstance(info.Host, info.Port)
		return
	}

	cfg := config.Resolve()
	coord := daemon.New(cfg)

	onReady := func() {
		if err := coord.Start(); err != nil {
			log.Printf("Failed to start: %v", err)
			tray.Quit()
			return
		}

		// Quit the tray loop on SIGINT/SIGTERM; teardown runs in onExit.
		go func() {
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			sig := <-sigCh
			log.Printf("Received signal %v, shutting down...", sig)
			coord.RequestQuit()
		}()
	}

	onExit := func() {
		coord.Shutdown()
		fmt.Println("Desktop agent stopped")
	}

	// This blocks the main goroutine until the tray exits (Cocoa requires
	// the tray loop to own main on macOS).
	tray.Run(onReady, onExit)
}

// surfaceRunningInstance asks the existing daemon to open the CRM.
func surfaceRunningInstance(host string, port int) {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Post(fmt.Sprintf("http://%s:%d/open", host, port), "", nil)
	if err != nil {
		log.Printf("Failed to surface running instance: %v", err)
		return
	}
	resp.Body.Close()
}

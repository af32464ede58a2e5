// deskmote - remote desk control host
// Lets a phone or tablet drive this machine's pointer, keyboard and screen
// over a single persistent WebSocket connection.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"deskmote/internal/api"
	"deskmote/internal/capture"
	"deskmote/internal/config"
	"deskmote/internal/input"
	"deskmote/internal/network"
	"deskmote/internal/osutils"
	"deskmote/internal/session"
	"deskmote/internal/token"
	"deskmote/internal/tray"
)

var (
	version    = "0.3.0"
	portFlag   = flag.Int("port", 0, "Override the configured listen port")
	noTray     = flag.Bool("no-tray", false, "Run without the system tray icon")
	showVer    = flag.Bool("version", false, "Show version")
	issueToken = flag.Bool("issue-token", false, "Issue a pairing token and exit")
)

func main() {
	flag.Parse()

	if *showVer {
		fmt.Printf("deskmote version %s\n", version)
		return
	}

	cfgMgr, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to initialize config: %v", err)
	}
	if err := cfgMgr.Load(); err != nil {
		log.Printf("Warning: failed to load config: %v", err)
	}

	tokens, err := openTokenStore()
	if err != nil {
		log.Fatalf("Failed to open token store: %v", err)
	}
	defer tokens.Close()

	if *issueToken {
		fmt.Println(tokens.Issue())
		return
	}

	port := cfgMgr.Get().Port
	if *portFlag != 0 {
		port = *portFlag
	}

	sink := input.NewRobotSink()
	registry := session.NewRegistry(sink)
	mirror := session.NewMirror(capture.NewScreen(), cfgMgr)
	mirror.SetActivityHook(osutils.KeepAwake)
	relay := session.NewRelayBus(registry)
	server := api.NewServer(cfgMgr, tokens, registry, mirror, relay)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(port)
	}()

	if *noTray {
		runHeadless(errCh)
		return
	}
	runTray(tokens, port, errCh)
}

func openTokenStore() (*token.FileStore, error) {
	dir, err := config.Dir()
	if err != nil {
		return nil, err
	}
	return token.NewFileStore(filepath.Join(dir, "tokens.json"))
}

func runHeadless(errCh <-chan error) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("Received %v, shutting down", sig)
	case err := <-errCh:
		if err != nil {
			log.Fatalf("Control server failed: %v", err)
		}
	}
}

func runTray(tokens token.Store, port int, errCh <-chan error) {
	t := tray.New("deskmote", "deskmote remote control")

	addr := fmt.Sprintf("port %d", port)
	if ip, err := network.LocalIP(); err == nil {
		addr = fmt.Sprintf("%s:%d", ip, port)
	}
	t.AddMenuItem("Listening on "+addr, nil)
	t.AddSeparator()
	t.AddMenuItem("New pairing token", func() {
		log.Printf("Token: pairing token issued from tray: %s", tokens.Issue())
	})
	t.AddSeparator()
	t.AddMenuItem("Quit", t.Stop)

	go func() {
		if err := <-errCh; err != nil {
			log.Printf("Control server failed: %v", err)
			t.Stop()
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		t.Stop()
	}()

	// Blocks on the main thread until quit
	t.Run()
}

// lanspeed: CLI entry point.
//
// The server broadcasts offers on the LAN and serves bulk transfers over TCP
// and UDP; the client discovers it and measures throughput (and, for UDP,
// delivery rate) of many concurrent transfers.
//
// It can be launched interactively (no flags) or non-interactively via CLI
// flags (-r, -n, -t, -u, -o).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/akamensky/argparse"
	"github.com/pterm/pterm"

	"github.com/1ureka/lanspeed/internal/app"
	"github.com/1ureka/lanspeed/internal/config"
	"github.com/1ureka/lanspeed/internal/util"
)

var logger = util.Scope("lanspeed")

var version = "dev"

func main() {
	// Root context, cancelled on Ctrl+C.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg := config.Default()

	args := argparse.NewParser("lanspeed", "LAN throughput tester with broadcast discovery")
	role := args.String("r", "role", &argparse.Options{Help: "Role: server or client (prompted when omitted)"})
	size := args.String("n", "size", &argparse.Options{Help: "Client: bytes per transfer"})
	tcp := args.String("t", "tcp", &argparse.Options{Help: "Client: number of concurrent TCP transfers"})
	udp := args.String("u", "udp", &argparse.Options{Help: "Client: number of concurrent UDP transfers"})
	once := args.Flag("o", "once", &argparse.Options{Help: "Client: exit after one cycle instead of repeating"})
	broadcast := args.String("b", "broadcast", &argparse.Options{Help: "Server: offer destination address",
		Default: cfg.BroadcastAddr})
	interval := args.Int("i", "interval", &argparse.Options{Help: "Server: seconds between offers",
		Default: int(cfg.BeaconInterval / time.Second)})
	dscp := args.Int("q", "dscp", &argparse.Options{Help: "DSCP value for transfer traffic (0 = OS default)"})
	monitorAddr := args.String("m", "monitor", &argparse.Options{Help: "Server: serve live stats over WebSocket on this address (e.g. :8080)"})
	serial := args.Flag("s", "serial-udp", &argparse.Options{Help: "Server: serve UDP requests one at a time"})
	debugMode := args.Flag("d", "debug", &argparse.Options{Help: "Enable debug logging"})

	if err := args.Parse(os.Args); err != nil {
		fmt.Print(args.Usage(err))
		os.Exit(1)
	}

	if *debugMode {
		util.EnableDebug()
	}

	cfg.Role = config.Role(*role)
	cfg.BroadcastAddr = *broadcast
	cfg.BeaconInterval = time.Duration(*interval) * time.Second
	cfg.DSCP = *dscp
	cfg.MonitorAddr = *monitorAddr
	cfg.SerialDatagrams = *serial

	if err := cfg.Validate(); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}

	pterm.Info.Println(fmt.Sprintf("lanspeed v%s", version))
	pterm.Println()

	interactive := cfg.Role == ""
	if interactive {
		// No -r flag → interactive mode.
		cfg.Role = askRole()
	}

	switch cfg.Role {
	case config.RoleServer:
		runServer(ctx, cfg)

	case config.RoleClient:
		var p app.Prompter = interactivePrompter{}
		if !interactive && (*size != "" || *tcp != "" || *udp != "") {
			plan, err := app.ParsePlan(*size, orZero(*tcp), orZero(*udp))
			if err != nil {
				logger.Error("%v", err)
				os.Exit(1)
			}
			p = fixedPrompter{plan: plan, once: *once}
		}
		runClient(ctx, cfg, p)
	}
}

// ---------------------------------------------------------------------------
// Run modes
// ---------------------------------------------------------------------------

func runServer(ctx context.Context, cfg config.Config) {
	logger.Info("server started")

	if err := app.RunServer(ctx, cfg); err != nil {
		logger.Error("server failed: %v", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func runClient(ctx context.Context, cfg config.Config, p app.Prompter) {
	logger.Info("client started")

	if err := app.RunClient(ctx, cfg, p); err != nil {
		logger.Error("client failed: %v", err)
		os.Exit(1)
	}
	logger.Info("exiting client")
}

// ---------------------------------------------------------------------------
// Operator input
// ---------------------------------------------------------------------------

// interactivePrompter asks for every cycle's inputs on the terminal.
type interactivePrompter struct{}

func (interactivePrompter) Plan() (app.Plan, error) {
	var answers [3]string
	for i, prompt := range []string{
		"Enter file size (bytes)",
		"Enter number of TCP connections",
		"Enter number of UDP connections",
	} {
		raw, err := ask(prompt)
		if err != nil {
			return app.Plan{}, fmt.Errorf("%w: %v", app.ErrNoInput, err)
		}
		answers[i] = raw
	}
	pterm.Println()
	return app.ParsePlan(answers[0], answers[1], answers[2])
}

func (interactivePrompter) Continue() bool {
	ok, _ := pterm.DefaultInteractiveConfirm.
		WithDefaultText("Do you want to listen for new offers?").
		Show()
	pterm.Println()
	return ok
}

// fixedPrompter replays the plan given on the command line.
type fixedPrompter struct {
	plan app.Plan
	once bool
}

func (f fixedPrompter) Plan() (app.Plan, error) { return f.plan, nil }
func (f fixedPrompter) Continue() bool          { return !f.once }

// ---------------------------------------------------------------------------
// Helper Functions
// ---------------------------------------------------------------------------

func askRole() config.Role {
	role, _ := pterm.DefaultInteractiveSelect.
		WithOptions([]string{"Server: broadcast offers and serve transfers", "Client: discover a server and measure"}).
		WithDefaultText("Select your role").
		Show()

	pterm.Println()

	if strings.HasPrefix(role, "Server") {
		return config.RoleServer
	}
	return config.RoleClient
}

func ask(prompt string) (string, error) {
	raw, err := pterm.DefaultInteractiveTextInput.
		WithDefaultText(prompt).
		Show()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(raw), nil
}

func orZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}

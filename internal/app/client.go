package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/1ureka/lanspeed/internal/config"
	"github.com/1ureka/lanspeed/internal/discovery"
	"github.com/1ureka/lanspeed/internal/transfer"
	"github.com/1ureka/lanspeed/internal/util"
)

var clientLog = util.Scope("client")

// Plan is the operator's input for one cycle.
type Plan struct {
	Size      uint64 // bytes per transfer
	Streams   int    // concurrent TCP transfers
	Datagrams int    // concurrent UDP transfers
}

// ParsePlan validates the three operator inputs.
func ParsePlan(size, streams, datagrams string) (Plan, error) {
	var p Plan
	var err error

	if p.Size, err = strconv.ParseUint(strings.TrimSpace(size), 10, 64); err != nil {
		return Plan{}, fmt.Errorf("invalid file size %q: must be a non-negative integer", size)
	}
	if p.Streams, err = parseCount(streams); err != nil {
		return Plan{}, fmt.Errorf("invalid number of TCP connections: %w", err)
	}
	if p.Datagrams, err = parseCount(datagrams); err != nil {
		return Plan{}, fmt.Errorf("invalid number of UDP connections: %w", err)
	}
	return p, nil
}

func parseCount(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%q is not a non-negative integer", raw)
	}
	return n, nil
}

// ErrNoInput is wrapped by a Prompter whose input source is gone (closed
// stdin, detached terminal); the client stops instead of asking again.
var ErrNoInput = errors.New("no operator input")

// Prompter collects operator input between cycles.
type Prompter interface {
	// Plan returns the next cycle's plan. An error is shown to the operator
	// and the cycle does not start; one wrapping ErrNoInput ends the client.
	Plan() (Plan, error)
	// Continue reports whether to run another cycle.
	Continue() bool
}

// RunClient repeats discover → transfer → report cycles until the prompter
// declines to continue or ctx is cancelled.
func RunClient(ctx context.Context, cfg config.Config, p Prompter) error {
	opts := transfer.OptionsFrom(cfg)

	for {
		plan, err := p.Plan()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			clientLog.Warn("%v", err)
			if errors.Is(err, ErrNoInput) {
				return nil
			}
			continue
		}

		clientLog.Info("listening for server offers on UDP %d...", cfg.OfferPort)
		ep, err := discovery.Discover(ctx, cfg.OfferPort)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("discovery failed: %w", err)
		}
		clientLog.Info("offer received from %s", ep)

		results := RunCycle(ctx, ep, plan, opts, func(r transfer.Result) {
			if r.Err != nil {
				clientLog.Error("%s", r)
			} else {
				clientLog.Success("%s", r)
			}
		})
		PrintSummary(results)

		if ctx.Err() != nil {
			return nil
		}
		clientLog.Info("all transfers complete")
		if !p.Continue() {
			return nil
		}
	}
}

// RunCycle launches one goroutine per requested transfer against ep and
// waits for all of them. done, if non-nil, is called once per finished
// transfer, never concurrently. Results are ordered streams first, then
// datagrams, each by ID.
func RunCycle(ctx context.Context, ep discovery.Endpoint, plan Plan, opts transfer.Options, done func(transfer.Result)) []transfer.Result {
	results := make([]transfer.Result, plan.Streams+plan.Datagrams)

	var mu sync.Mutex
	var wg sync.WaitGroup
	launch := func(slot int, kind transfer.Kind, id int, run func() transfer.Result) {
		wg.Add(1)
		go clientLog.Guard(fmt.Sprintf("%s transfer #%d", kind, id), func() {
			defer wg.Done()
			// A panicking transfer still leaves a result behind.
			results[slot] = transfer.Result{Kind: kind, ID: id, Size: plan.Size,
				Err: fmt.Errorf("transfer aborted")}
			r := run()
			results[slot] = r
			if done != nil {
				mu.Lock()
				done(r)
				mu.Unlock()
			}
		})
	}

	for i := 0; i < plan.Streams; i++ {
		id := i + 1
		launch(i, transfer.KindStream, id, func() transfer.Result {
			return transfer.RunStream(ctx, ep.StreamAddr(), plan.Size, id, opts)
		})
	}
	for i := 0; i < plan.Datagrams; i++ {
		id := i + 1
		launch(plan.Streams+i, transfer.KindDatagram, id, func() transfer.Result {
			return transfer.RunDatagram(ctx, ep.DatagramAddr(), plan.Size, id, opts)
		})
	}

	wg.Wait()
	return results
}

package main

import (
	"flag"
	"log"
	"time"

	pyroscope "github.com/grafana/pyroscope-go"
	"github.com/shopspring/decimal"

	"main/internal/broker"
	"main/internal/exec"
	"main/internal/journal"
	"main/internal/mdg"
	"main/internal/obs"
	"main/internal/ops"
	"main/internal/pricing"
	"main/internal/schema"
	"main/internal/session"
	"main/internal/sizing"
	"main/internal/state"
)

type staticMargin struct {
	remaining decimal.Decimal
}

func (m staticMargin) MarginRemaining() decimal.Decimal {
	return m.remaining
}

func main() {
	configPath := flag.String("config", "", "Path to JSON config")
	cycles := flag.Int("cycles", 500, "Number of scheduling cycles to simulate")
	rebalanceEvery := flag.Int("rebalance-every", 30, "Emit new targets every N cycles")
	targetLots := flag.Int64("target-lots", 5, "Target size in lots per instrument")
	basePrice := flag.String("base-price", "100.00", "Base mid price for the quote generator")
	spreadTicks := flag.Int64("spread-ticks", 5, "Half-spread in ticks for the quote generator")
	margin := flag.String("margin", "", "Static margin remaining (negative triggers the panic lot)")
	pyroscopeServer := flag.String("pyroscope-server", "", "Pyroscope server address (empty=disabled)")
	flag.Parse()

	if *configPath == "" {
		log.Fatalf("config is required")
	}
	if *cycles <= 0 || *rebalanceEvery <= 0 {
		log.Fatalf("cycles and rebalance-every must be > 0")
	}

	loaded, err := ops.Load(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	if *pyroscopeServer != "" {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: "converge/sim",
			ServerAddress:   *pyroscopeServer,
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileAllocSpace,
				pyroscope.ProfileInuseObjects,
				pyroscope.ProfileInuseSpace,
			},
		})
		if err != nil {
			log.Fatalf("pyroscope start failed: %v", err)
		}
		defer func() {
			_ = profiler.Stop()
		}()
	}

	base, err := decimal.NewFromString(*basePrice)
	if err != nil || !base.IsPositive() {
		log.Fatalf("base-price must be a positive decimal: %q", *basePrice)
	}

	var marginSource sizing.MarginSource
	if *margin != "" {
		remaining, err := decimal.NewFromString(*margin)
		if err != nil {
			log.Fatalf("margin must be a decimal: %q", *margin)
		}
		marginSource = staticMargin{remaining: remaining}
	}

	if err := run(loaded, *cycles, *rebalanceEvery, *targetLots, base, *spreadTicks, marginSource); err != nil {
		log.Fatalf("simulation failed: %v", err)
	}
}

func run(loaded ops.Loaded, cycles, rebalanceEvery int, targetLots int64, base decimal.Decimal, spreadTicks int64, marginSource sizing.MarginSource) error {
	feed := mdg.NewFeed()
	generator, err := mdg.NewGenerator(loaded.Registry, base, spreadTicks)
	if err != nil {
		return err
	}

	book := state.NewBook()
	sim := broker.NewSim(broker.SimConfig{Session: "SIM"}, book)

	var writer *journal.Writer
	if loaded.Journal.Enabled() {
		writer, err = journal.Open(journal.Option{
			Host:       loaded.Journal.Host,
			Port:       loaded.Journal.Port,
			User:       loaded.Journal.User,
			Password:   loaded.Journal.Password,
			Database:   loaded.Journal.Database,
			SSLMode:    loaded.Journal.SSLMode,
			ConnString: loaded.Journal.ConnString,
		}, loaded.Registry)
		if err != nil {
			return err
		}
		defer func() {
			_ = writer.Close()
		}()
		sim.SetEventHook(func(ev broker.Event) {
			if err := writer.Record(ev); err != nil {
				log.Printf("journal write failed: %v", err)
			}
		})
	}

	now := loaded.Hours.NextOpen(time.Now().UTC())
	clock, err := session.NewClock(loaded.Resolution, func() time.Time { return now })
	if err != nil {
		return err
	}

	metrics := obs.NewMetrics()
	scheduler, err := exec.NewScheduler(exec.Options{
		Meta:          loaded.Registry,
		Clock:         clock,
		Hours:         loaded.Hours,
		Prices:        pricing.NewSelector(feed, feed, loaded.Registry, loaded.Greed),
		Rounder:       sizing.NewRounder(loaded.Registry, loaded.LotSize, loaded.PanicLot, marginSource),
		Gateway:       sim,
		Positions:     book,
		Metrics:       metrics,
		ExtendedHours: loaded.ExtendedHours,
	})
	if err != nil {
		return err
	}

	wasOpen := false
	for cycle := 0; cycle < cycles; cycle++ {
		isOpen := loaded.Hours.IsOpen(0, now, loaded.ExtendedHours)
		if wasOpen && !isOpen {
			sim.CloseAuction()
		}
		wasOpen = isOpen

		generator.Publish(feed)
		for i := 0; i < loaded.Registry.InstrumentCount(); i++ {
			inst, ok := loaded.Registry.InstrumentAt(i)
			if !ok {
				continue
			}
			if quote, ok := feed.Quote(inst.ID); ok {
				sim.Mark(inst.ID, quote)
			}
		}

		var targets []schema.PortfolioTarget
		if cycle%rebalanceEvery == 0 {
			targets = nextTargets(loaded, cycle/rebalanceEvery, targetLots)
		}
		scheduler.Execute(targets)

		now = now.Add(clock.Period())
	}

	snap := metrics.Snapshot()
	log.Printf("simulation done: cycles=%d placed=%d updated=%d repriced=%d canceled=%d close_outs=%d deferred=%d rejected=%d stale=%d positions=%d pending=%d cycle_avg=%s cycle_max=%s",
		snap.Cycles, snap.Placed, snap.Updated, snap.Repriced, snap.Canceled, snap.CloseOuts,
		snap.Deferred, snap.Rejected, snap.Stale, book.Count(), scheduler.PendingCount(),
		snap.CycleAvg, snap.CycleMax)
	return nil
}

// nextTargets alternates every instrument between a long position and flat,
// so each rebalance exercises both build-up and unwind paths.
func nextTargets(loaded ops.Loaded, round int, targetLots int64) []schema.PortfolioTarget {
	targets := make([]schema.PortfolioTarget, 0, loaded.Registry.InstrumentCount())
	size := loaded.LotSize.Mul(decimal.NewFromInt(targetLots))
	for i := 0; i < loaded.Registry.InstrumentCount(); i++ {
		inst, ok := loaded.Registry.InstrumentAt(i)
		if !ok {
			continue
		}
		desired := size
		if (round+i)%2 == 1 {
			desired = decimal.Zero
		}
		targets = append(targets, schema.PortfolioTarget{Symbol: inst.ID, Quantity: desired})
	}
	return targets
}

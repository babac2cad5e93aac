// command commandstation runs a DCC command station: it drives one main
// operations track and one programming track, accepts commands over a
// serial port (or, for bench testing, a TCP listener), and persists
// turnout/sensor/output registries to a JSON state file.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"time"

	"trackstation.dev/command"
	"trackstation.dev/dcc"
	"trackstation.dev/driver/dcctrack"
	"trackstation.dev/registry"
	"trackstation.dev/track"
	"trackstation.dev/transport"
)

var (
	serialDev  = flag.String("device", "", "serial device for command input (empty: probe defaults)")
	bench      = flag.String("bench", "", "listen on this address instead of a serial device, for bench testing (e.g. :4826)")
	statePath  = flag.String("state", "trackstation.json", "path to the turnout/sensor/output state file")
	trackName  = flag.String("name", "TRACKSTATION", "station name reported by the <s> command")
	version    = "dev"
)

func main() {
	log.SetFlags(log.Flags() &^ (log.Ldate | log.Ltime))
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "commandstation: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flag.Parse()

	reg := registry.New(*statePath)
	if err := reg.Load(); err != nil {
		return fmt.Errorf("load state: %w", err)
	}

	mainHW, progHW, err := openHardware()
	if err != nil {
		return fmt.Errorf("open hardware: %w", err)
	}
	mainTrack := track.New(mainHW, 64)
	progTrack := track.New(progHW, 1)

	broadcaster := transport.NewBroadcaster()
	st := &command.Station{
		Main:    mainTrack,
		Prog:    progTrack,
		Reg:     reg,
		Out:     broadcaster,
		Name:    *trackName,
		Version: version,
	}

	commands := make(chan string, 16)
	if err := openTransport(broadcaster, commands); err != nil {
		return fmt.Errorf("open transport: %w", err)
	}

	stop := make(chan struct{})
	defer close(stop)
	mainTicker, err := startWaveform(mainTrack, stop)
	if err != nil {
		return fmt.Errorf("start main track waveform: %w", err)
	}
	defer mainTicker.Stop()
	progTicker, err := startWaveform(progTrack, stop)
	if err != nil {
		return fmt.Errorf("start programming track waveform: %w", err)
	}
	defer progTicker.Stop()

	log.Printf("commandstation: listening, state file %s", *statePath)
	return foreground(st, mainTrack, progTrack, commands)
}

// startWaveform wires trk's Ticker to its RunWaveform goroutine, at the
// half-bit base period of 58us (the '1'-bit half period; '0' bits consume
// two ticks per half instead of one).
func startWaveform(trk *track.Track, stop <-chan struct{}) (track.Ticker, error) {
	ticker, err := track.NewPreciseTicker(58 * time.Microsecond)
	if err != nil {
		return nil, err
	}
	go track.RunWaveform(trk, ticker.C(), stop)
	return ticker, nil
}

// foreground is the single-threaded command loop: it dispatches parsed
// commands and interleaves both tracks' Power Supervisor ticks, so no
// track state ever needs a lock beyond the packet engine's single atomic
// pending-packet flag.
func foreground(st *command.Station, mainTrack, progTrack *track.Track, commands <-chan string) error {
	ctx := context.Background()
	supervise := time.NewTicker(dcc.CurrentSampleTime * time.Millisecond)
	defer supervise.Stop()
	var pending string
	for {
		select {
		case raw := <-commands:
			pending += raw
			cmds, rest := command.ExtractCommands(pending)
			pending = rest
			for _, c := range cmds {
				st.Dispatch(ctx, c)
			}
		case now := <-supervise.C:
			mainTrack.CheckPower(now)
			progTrack.CheckPower(now)
		}
	}
}

// openHardware wires the main and programming tracks' physical pins. Under
// -bench it returns all-software pins (simHardware, below) on any platform;
// otherwise it uses openPlatformHardware, which fails off Linux/ARM.
func openHardware() (main, prog track.Hardware, err error) {
	if *bench != "" {
		return simHardware("main"), simHardware("prog"), nil
	}
	return openPlatformHardware()
}

// openTransport wires either a serial port or, under -bench, a TCP
// listener into broadcaster and commands.
func openTransport(broadcaster *transport.Broadcaster, commands chan<- string) error {
	logger := log.Default()
	if *bench != "" {
		ln, err := net.Listen("tcp", *bench)
		if err != nil {
			return err
		}
		go func() {
			if err := transport.ServeListener(ln, broadcaster, commands, logger); err != nil {
				logger.Printf("commandstation: bench listener stopped: %v", err)
			}
		}()
		return nil
	}

	port, err := transport.OpenSerial(*serialDev)
	if err != nil {
		return err
	}
	lr := transport.NewLineReader(port, commands, logger)
	broadcaster.Register(lr)
	go lr.Run()
	return nil
}

// simHardware builds an all-software Hardware for -bench runs, with the
// station's fixed calibration values.
func simHardware(name string) track.Hardware {
	return track.Hardware{
		Name: name,
		Pins: track.Pins{
			SignalA:      &dcctrack.SimPin{},
			SignalB:      &dcctrack.SimPin{},
			Enable:       &dcctrack.SimPin{},
			CurrentSense: &dcctrack.SimCurrentSense{},
		},
		Scheme:           dcc.DualDirection,
		CurrentFactor:    1.0,
		TriggerMilliamps: 2500,
	}
}

// Package command implements the bracketed ASCII command grammar: parsing
// one command line at a time and dispatching it against a Station's main
// and programming tracks, accessory registries, and broadcast printer.
//
// Every command the original grammar defines is a case here; unrecognized
// leading characters are silently ignored, matching the original parser's
// switch statement with no default case.
package command

import (
	"context"
	"fmt"

	"trackstation.dev/registry"
	"trackstation.dev/service"
	"trackstation.dev/track"
)

// Printer is the broadcast sink Dispatch writes formatted responses to.
// transport.Broadcaster satisfies this.
type Printer interface {
	Printf(format string, args ...any)
}

// OutputSetter drives a registered Output's physical pin.
type OutputSetter interface {
	Set(pin int, high bool) error
}

// Station threads every dependency a command needs explicitly, rather than
// reaching for package-level globals the way the original firmware's
// CommParser (a set of static methods over file-scope CommManager state)
// did; see the design note on this in the project's grounding ledger.
type Station struct {
	Main *track.Track
	Prog *track.Track
	Reg  *registry.Registries
	Out  Printer
	Pins OutputSetter

	Name    string
	Version string
}

// Dispatch parses and executes one command line, with the leading '<' and
// trailing '>' already stripped by the caller (see ExtractCommands).
func (st *Station) Dispatch(ctx context.Context, line string) {
	if line == "" {
		return
	}
	switch line[0] {
	case 't':
		st.throttle(line[1:])
	case 'f':
		st.function(line[1:])
	case 'a':
		st.accessory(line[1:])
	case 'T':
		st.turnout(line[1:])
	case 'Z':
		st.output(line[1:])
	case 'S':
		st.sensor(line[1:])
	case 'Q':
		st.sensorStatus()
	case 'w':
		st.writeCvByteMain(line[1:])
	case 'b':
		st.writeCvBitMain(line[1:])
	case 'W':
		st.writeCvByteProg(ctx, line[1:])
	case 'B':
		st.writeCvBitProg(ctx, line[1:])
	case 'R':
		st.readCvProg(ctx, line[1:])
	case '1':
		st.Main.PowerOn()
		st.Prog.PowerOn()
	case '0':
		st.Main.PowerOff()
		st.Prog.PowerOff()
	case 'c':
		st.Out.Printf("<a %d>", int(st.Main.GetLastRead()))
	case 's':
		st.status()
	case 'E':
		st.storeSettings()
	case 'e':
		st.clearSettings()
	case ' ':
		st.Out.Printf("")
	}
}

func (st *Station) throttle(args string) {
	var device, cab int
	var speed int
	var direction int
	if _, err := fmt.Sscanf(args, "%d %d %d %d", &device, &cab, &speed, &direction); err != nil {
		return
	}
	resp, err := st.Main.SetThrottle(device, uint16(cab), int8(speed), direction != 0)
	if err != nil {
		return
	}
	dir := 0
	if resp.Direction {
		dir = 1
	}
	st.Out.Printf("<T %d %d %d>", resp.Device, resp.Speed, dir)
}

func (st *Station) function(args string) {
	var cab, b1, b2 int
	if n, _ := fmt.Sscanf(args, "%d %d %d", &cab, &b1, &b2); n == 2 {
		st.Main.SetFunctionGroup1(uint16(cab), uint8(b1))
	} else {
		st.Main.SetFunctionGroup2(uint16(cab), uint8(b1), uint8(b2))
	}
}

func (st *Station) accessory(args string) {
	var address, number, activate int
	if _, err := fmt.Sscanf(args, "%d %d %d", &address, &number, &activate); err != nil {
		return
	}
	st.Main.SetAccessory(uint16(address), uint8(number), activate != 0)
}

// turnout implements the <T ID THROW|...> family: the 2/3/1/0-argument
// forms select activate/create/remove/show, exactly as the original
// parser's sscanf-return-count switch does.
func (st *Station) turnout(args string) {
	var a, b, c int
	switch n, _ := fmt.Sscanf(args, "%d %d %d", &a, &b, &c); n {
	case 2:
		t, ok := st.Reg.GetTurnout(a)
		if !ok {
			st.Out.Printf("<X>")
			return
		}
		t.Thrown = b != 0
		st.Main.SetAccessory(t.Address, uint8(t.Subaddress), t.Thrown)
		dir := 0
		if t.Thrown {
			dir = 1
		}
		st.Out.Printf("<H %d %d>", t.ID, dir)
	case 3:
		st.Reg.CreateTurnout(a, uint16(b), uint8(c))
	case 1:
		st.Reg.RemoveTurnout(a)
	default:
		for _, t := range st.Reg.ListTurnouts() {
			dir := 0
			if t.Thrown {
				dir = 1
			}
			st.Out.Printf("<H %d %d>", t.ID, dir)
		}
	}
}

// output implements the <Z ID ACTIVATE|...> family. The original firmware
// has a well-known bug here: the 2-argument branch checks a leftover
// turnout pointer (`t != NULL`) instead of the output it just looked up,
// so a nonexistent output ID with an existing turnout of any ID never
// reports <X>. This implementation checks the output lookup's own result.
func (st *Station) output(args string) {
	var a, b, c int
	switch n, _ := fmt.Sscanf(args, "%d %d %d", &a, &b, &c); n {
	case 2:
		o, ok := st.Reg.GetOutput(a)
		if !ok {
			st.Out.Printf("<X>")
			return
		}
		o.Active = b != 0
		high := o.Active != o.Invert
		if st.Pins != nil {
			st.Pins.Set(o.Pin, high)
		}
		active := 0
		if o.Active {
			active = 1
		}
		st.Out.Printf("<Y %d %d>", o.ID, active)
	case 3:
		st.Reg.CreateOutput(a, b, c != 0)
	case 1:
		st.Reg.RemoveOutput(a)
	default:
		for _, o := range st.Reg.ListOutputs() {
			active := 0
			if o.Active {
				active = 1
			}
			st.Out.Printf("<Y %d %d>", o.ID, active)
		}
	}
}

func (st *Station) sensor(args string) {
	var a, b, c int
	switch n, _ := fmt.Sscanf(args, "%d %d %d", &a, &b, &c); n {
	case 3:
		st.Reg.CreateSensor(a, b, c != 0)
	case 1:
		st.Reg.RemoveSensor(a)
	case 2:
		st.Out.Printf("<X>")
	default:
		for _, s := range st.Reg.ListSensors() {
			st.Out.Printf("<Q %d>", s.ID)
		}
	}
}

func (st *Station) sensorStatus() {
	for _, s := range st.Reg.ListSensors() {
		if s.Active {
			st.Out.Printf("<Q %d>", s.ID)
		} else {
			st.Out.Printf("<q %d>", s.ID)
		}
	}
}

func (st *Station) writeCvByteMain(args string) {
	var cab, cv, value int
	if _, err := fmt.Sscanf(args, "%d %d %d", &cab, &cv, &value); err != nil {
		return
	}
	st.Main.WriteCvByteMain(uint16(cab), uint16(cv), uint8(value))
}

func (st *Station) writeCvBitMain(args string) {
	var cab, cv, bit, value int
	if _, err := fmt.Sscanf(args, "%d %d %d %d", &cab, &cv, &bit, &value); err != nil {
		return
	}
	st.Main.WriteCvBitMain(uint16(cab), uint16(cv), uint8(bit), uint8(value))
}

func (st *Station) writeCvByteProg(ctx context.Context, args string) {
	var cv, value, callback, callbackSub int
	if _, err := fmt.Sscanf(args, "%d %d %d %d", &cv, &value, &callback, &callbackSub); err != nil {
		return
	}
	res, err := service.WriteCvByte(ctx, st.Prog, uint16(cv), uint8(value))
	if err != nil {
		return
	}
	st.Out.Printf("<r%d|%d|%d %d>", callback, callbackSub, res.CV, res.Value)
}

func (st *Station) writeCvBitProg(ctx context.Context, args string) {
	var cv, bit, value, callback, callbackSub int
	if _, err := fmt.Sscanf(args, "%d %d %d %d %d", &cv, &bit, &value, &callback, &callbackSub); err != nil {
		return
	}
	res, err := service.WriteCvBit(ctx, st.Prog, uint16(cv), uint8(bit), uint8(value))
	if err != nil {
		return
	}
	st.Out.Printf("<r%d|%d|%d %d %d>", callback, callbackSub, res.CV, res.Bit, res.Value)
}

func (st *Station) readCvProg(ctx context.Context, args string) {
	var cv, callback, callbackSub int
	if _, err := fmt.Sscanf(args, "%d %d %d", &cv, &callback, &callbackSub); err != nil {
		return
	}
	res, err := service.ReadCv(ctx, st.Prog, uint16(cv))
	if err != nil {
		return
	}
	st.Out.Printf("<r%d|%d|%d %d>", callback, callbackSub, res.CV, res.Value)
}

func (st *Station) status() {
	for i := 1; i <= st.Main.NumDev(); i++ {
		speed, ok := st.Main.Speed(i)
		if !ok || speed == 0 {
			continue
		}
		mag, dir := speed, 0
		if speed < 0 {
			mag, dir = -speed, 0
		} else {
			dir = 1
		}
		st.Out.Printf("<T%d %d %d>", i, mag, dir)
	}
	st.Out.Printf("<i%s: V-%s>", st.Name, st.Version)
	for _, t := range st.Reg.ListTurnouts() {
		dir := 0
		if t.Thrown {
			dir = 1
		}
		st.Out.Printf("<H %d %d>", t.ID, dir)
	}
	for _, o := range st.Reg.ListOutputs() {
		active := 0
		if o.Active {
			active = 1
		}
		st.Out.Printf("<Y %d %d>", o.ID, active)
	}
}

func (st *Station) storeSettings() {
	if err := st.Reg.Store(); err != nil {
		return
	}
	nt, ns, no := st.Reg.Counts()
	st.Out.Printf("<e %d %d %d>", nt, ns, no)
}

func (st *Station) clearSettings() {
	st.Reg.Clear()
	st.Out.Printf("<O>")
}

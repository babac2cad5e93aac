// Package registry implements the in-memory, JSON-persisted stores for the
// three accessory kinds the command grammar manages: turnouts, outputs,
// and sensors. Each store supports the same create/remove/get/show shape
// the original firmware's EEPROM-backed accessory tables did, adapted to a
// file on disk instead of a byte-addressed EEPROM image.
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// Turnout is a numbered accessory-decoder switch: thrown or unthrown.
type Turnout struct {
	ID         int
	Address    uint16
	Subaddress uint8
	Thrown     bool
}

// Output is a numbered GPIO output line under command control.
type Output struct {
	ID     int
	Pin    int
	Invert bool
	Active bool
}

// Sensor is a numbered GPIO input line polled for occupancy/state.
type Sensor struct {
	ID     int
	Pin    int
	PullUp bool
	Active bool
}

// OutputSetter drives a registry.Output's physical pin. No implementation
// ships in this module; driver/dcctrack implements only track.Pin and
// track.CurrentSense.
type OutputSetter interface {
	Set(pin int, high bool) error
}

// Data is the full persisted state, serialized to and from the store file
// by Store/Load.
type Data struct {
	Turnouts map[int]*Turnout
	Outputs  map[int]*Output
	Sensors  map[int]*Sensor
}

// Registries holds the three live accessory tables and the path they
// persist to.
type Registries struct {
	mu   sync.Mutex
	path string
	data Data
}

// New returns an empty Registries persisting to path. Call Load to recover
// a prior session's state.
func New(path string) *Registries {
	return &Registries{
		path: path,
		data: Data{
			Turnouts: make(map[int]*Turnout),
			Outputs:  make(map[int]*Output),
			Sensors:  make(map[int]*Sensor),
		},
	}
}

// Load reads previously stored state from disk. A missing file is not an
// error; Registries simply starts empty.
func (r *Registries) Load() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("registry: load %s: %w", r.path, err)
	}
	var d Data
	if err := json.Unmarshal(b, &d); err != nil {
		return fmt.Errorf("registry: decode %s: %w", r.path, err)
	}
	if d.Turnouts == nil {
		d.Turnouts = make(map[int]*Turnout)
	}
	if d.Outputs == nil {
		d.Outputs = make(map[int]*Output)
	}
	if d.Sensors == nil {
		d.Sensors = make(map[int]*Sensor)
	}
	r.data = d
	return nil
}

// Store persists the current state to disk, overwriting any prior file.
func (r *Registries) Store() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, err := json.MarshalIndent(r.data, "", "  ")
	if err != nil {
		return fmt.Errorf("registry: encode: %w", err)
	}
	if err := os.WriteFile(r.path, b, 0o644); err != nil {
		return fmt.Errorf("registry: write %s: %w", r.path, err)
	}
	return nil
}

// Clear discards all turnout and sensor records, matching the original
// firmware's <e> command which wipes the EEPROM turnout/sensor image.
func (r *Registries) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data.Turnouts = make(map[int]*Turnout)
	r.data.Sensors = make(map[int]*Sensor)
}

// Counts returns the number of turnouts, sensors, and outputs currently
// registered, for the <e nT nS nO> store-acknowledgement response.
func (r *Registries) Counts() (turnouts, sensors, outputs int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.data.Turnouts), len(r.data.Sensors), len(r.data.Outputs)
}

// CreateTurnout registers or overwrites turnout id.
func (r *Registries) CreateTurnout(id int, address uint16, subaddress uint8) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data.Turnouts[id] = &Turnout{ID: id, Address: address, Subaddress: subaddress}
}

// GetTurnout returns turnout id, or (nil, false) if it is not registered.
func (r *Registries) GetTurnout(id int) (*Turnout, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.data.Turnouts[id]
	return t, ok
}

// RemoveTurnout deregisters turnout id; a no-op if it is not registered.
func (r *Registries) RemoveTurnout(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.data.Turnouts, id)
}

// ListTurnouts returns all registered turnouts in no particular order.
func (r *Registries) ListTurnouts() []*Turnout {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Turnout, 0, len(r.data.Turnouts))
	for _, t := range r.data.Turnouts {
		out = append(out, t)
	}
	return out
}

// CreateOutput registers or overwrites output id.
func (r *Registries) CreateOutput(id, pin int, invert bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data.Outputs[id] = &Output{ID: id, Pin: pin, Invert: invert}
}

// GetOutput returns output id, or (nil, false) if it is not registered.
func (r *Registries) GetOutput(id int) (*Output, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.data.Outputs[id]
	return o, ok
}

// RemoveOutput deregisters output id; a no-op if it is not registered.
func (r *Registries) RemoveOutput(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.data.Outputs, id)
}

// ListOutputs returns all registered outputs in no particular order.
func (r *Registries) ListOutputs() []*Output {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Output, 0, len(r.data.Outputs))
	for _, o := range r.data.Outputs {
		out = append(out, o)
	}
	return out
}

// CreateSensor registers or overwrites sensor id.
func (r *Registries) CreateSensor(id, pin int, pullUp bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data.Sensors[id] = &Sensor{ID: id, Pin: pin, PullUp: pullUp}
}

// GetSensor returns sensor id, or (nil, false) if it is not registered.
func (r *Registries) GetSensor(id int) (*Sensor, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.data.Sensors[id]
	return s, ok
}

// RemoveSensor deregisters sensor id; a no-op if it is not registered.
func (r *Registries) RemoveSensor(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.data.Sensors, id)
}

// ListSensors returns all registered sensors in no particular order.
func (r *Registries) ListSensors() []*Sensor {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Sensor, 0, len(r.data.Sensors))
	for _, s := range r.data.Sensors {
		out = append(out, s)
	}
	return out
}

// SetSensorActive records the last-polled state of sensor id.
func (r *Registries) SetSensorActive(id int, active bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.data.Sensors[id]; ok {
		s.Active = active
	}
}

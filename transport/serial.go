package transport

import (
	"errors"
	"io"

	"github.com/tarm/serial"
)

// OpenSerial opens dev (or, if dev is empty, the platform's usual USB-serial
// device names) at the host application's fixed baud rate, matching the
// way real DCC command-station interfaces are wired to a PC over USB.
func OpenSerial(dev string) (io.ReadWriteCloser, error) {
	const baudRate = 115200

	var devices []string
	if dev != "" {
		devices = append(devices, dev)
	} else {
		devices = append(devices, "/dev/ttyUSB0", "/dev/ttyACM0", "/dev/ttyUSB1")
	}

	var firstErr error
	for _, d := range devices {
		c := &serial.Config{Name: d, Baud: baudRate}
		s, err := serial.OpenPort(c)
		if err == nil {
			return s, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	if firstErr == nil {
		firstErr = errors.New("transport: no serial device specified")
	}
	return nil, firstErr
}

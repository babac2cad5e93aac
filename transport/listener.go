package transport

import (
	"log"
	"net"
)

// ServeListener accepts connections on ln forever, wrapping each as a
// LineReader registered with b and fed into commands. Used on the bench
// (a TCP or Unix-socket listener) in place of a physical serial port.
func ServeListener(ln net.Listener, b *Broadcaster, commands chan<- string, logger *log.Logger) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return err
		}
		lr := NewLineReader(conn, commands, logger)
		b.Register(lr)
		go lr.Run()
	}
}

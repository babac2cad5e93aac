//go:build !(linux && arm)

package main

import (
	"errors"

	"trackstation.dev/track"
)

func openPlatformHardware() (main, prog track.Hardware, err error) {
	return track.Hardware{}, track.Hardware{}, errors.New("commandstation: no GPIO track driver on this platform; run with -bench")
}

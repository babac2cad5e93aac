package dcctrack

import "testing"

func TestSimPin(t *testing.T) {
	p := &SimPin{}
	p.Set(true)
	if !p.High() {
		t.Fatal("SimPin did not record high")
	}
	p.Set(false)
	if p.High() {
		t.Fatal("SimPin did not record low")
	}
}

func TestSimCurrentSense(t *testing.T) {
	s := &SimCurrentSense{}
	s.SetReading(42)
	if got := s.Read(); got != 42 {
		t.Fatalf("Read() = %d, want 42", got)
	}
}

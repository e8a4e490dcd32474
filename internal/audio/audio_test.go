package audio

import (
	"context"
	"testing"
)

func TestSimulatedCaptureStartStop(t *testing.T) {
	c := NewSimulatedCapture(Options{}, false)
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !c.IsRunning() {
		t.Error("expected capture to be running after Start")
	}
	if err := c.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if c.IsRunning() {
		t.Error("expected capture to be stopped after Stop")
	}
}

func TestSimulatedCaptureMicPermissionDenied(t *testing.T) {
	c := NewSimulatedCapture(Options{}, true)
	if err := c.Start(context.Background()); err != ErrMicPermissionDenied {
		t.Fatalf("Start() error = %v, want ErrMicPermissionDenied", err)
	}
	if c.IsRunning() {
		t.Error("capture should not be running after a failed Start")
	}
}

func TestSimulatedCaptureEmitDropsWhenStopped(t *testing.T) {
	c := NewSimulatedCapture(Options{}, false)
	received := 0
	c.OnAudioChunk(func(Frame) { received++ })
	c.Emit(Frame{})
	if received != 0 {
		t.Error("expected frame to be dropped before Start")
	}
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	c.Emit(Frame{})
	if received != 1 {
		t.Errorf("received = %d, want 1", received)
	}
	c.Stop()
	c.Emit(Frame{})
	if received != 1 {
		t.Error("expected no frame delivered after Stop")
	}
}

func TestSimulatedCaptureDefaultSampleRate(t *testing.T) {
	c := NewSimulatedCapture(Options{}, false)
	if rate := c.SampleRate(); rate != 16000 {
		t.Errorf("SampleRate() = %d, want 16000", rate)
	}
	c2 := NewSimulatedCapture(Options{SampleRate: 48000}, false)
	if rate := c2.SampleRate(); rate != 48000 {
		t.Errorf("SampleRate() = %d, want 48000", rate)
	}
}

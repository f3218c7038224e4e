package rlog

import (
	"testing"

	"go.uber.org/zap"
)

func TestNewReturnsUsableLogger(t *testing.T) {
	log := New(Options{})
	if log == nil {
		t.Fatal("expected non-nil logger")
	}
	log.Infow("smoke test", "ok", true)
}

func TestNewDebugEnablesDebugLevel(t *testing.T) {
	log := New(Options{Debug: true})
	if log == nil {
		t.Fatal("expected non-nil logger")
	}
	if !log.Desugar().Core().Enabled(zap.DebugLevel) {
		t.Error("expected debug level to be enabled")
	}
}

func TestNop(t *testing.T) {
	log := Nop()
	if log == nil {
		t.Fatal("expected non-nil logger")
	}
	log.Debugw("discarded")
}

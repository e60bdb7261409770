package main

import "testing"

func TestParseCLIFlags_Defaults(t *testing.T) {
	f, err := parseCLIFlags([]string{})
	if err != nil {
		t.Fatalf("parseCLIFlags: %v", err)
	}
	if f.configPath != "" {
		t.Errorf("configPath = %q, want empty", f.configPath)
	}
	if f.rpcPort != 8545 {
		t.Errorf("rpcPort = %d, want 8545", f.rpcPort)
	}
	if f.slotDurationMs != 0 {
		t.Errorf("slotDurationMs = %d, want 0", f.slotDurationMs)
	}
	if f.slotMode != "manual" {
		t.Errorf("slotMode = %q, want manual", f.slotMode)
	}
	if f.metrics {
		t.Error("metrics should be false by default")
	}
	if f.version {
		t.Error("version should be false by default")
	}
}

func TestParseCLIFlags_AllFlags(t *testing.T) {
	args := []string{
		"-config", "/tmp/units.toml",
		"-datadir", "/tmp/units-data",
		"-rpc.port", "9545",
		"-slot.duration-ms", "500",
		"-slot.mode", "auto",
		"-metrics",
	}
	f, err := parseCLIFlags(args)
	if err != nil {
		t.Fatalf("parseCLIFlags: %v", err)
	}
	if f.configPath != "/tmp/units.toml" {
		t.Errorf("configPath = %q, want /tmp/units.toml", f.configPath)
	}
	if f.dataDir != "/tmp/units-data" {
		t.Errorf("dataDir = %q, want /tmp/units-data", f.dataDir)
	}
	if f.rpcPort != 9545 {
		t.Errorf("rpcPort = %d, want 9545", f.rpcPort)
	}
	if f.slotDurationMs != 500 {
		t.Errorf("slotDurationMs = %d, want 500", f.slotDurationMs)
	}
	if f.slotMode != "auto" {
		t.Errorf("slotMode = %q, want auto", f.slotMode)
	}
	if !f.metrics {
		t.Error("metrics should be true")
	}
}

func TestParseCLIFlags_Version(t *testing.T) {
	f, err := parseCLIFlags([]string{"-version"})
	if err != nil {
		t.Fatalf("parseCLIFlags: %v", err)
	}
	if !f.version {
		t.Error("version should be true")
	}
}

func TestParseCLIFlags_InvalidFlag(t *testing.T) {
	if _, err := parseCLIFlags([]string{"-nope"}); err == nil {
		t.Fatal("expected error for unknown flag")
	}
}

func TestRun_VersionExitsZero(t *testing.T) {
	if code := run([]string{"-version"}); code != 0 {
		t.Fatalf("run(-version) = %d, want 0", code)
	}
}

func TestRun_InvalidSlotModeExitsNonZero(t *testing.T) {
	if code := run([]string{"-slot.mode", "bogus"}); code == 0 {
		t.Fatal("expected non-zero exit for invalid slot.mode")
	}
}

func TestRun_AutoModeRequiresDuration(t *testing.T) {
	if code := run([]string{"-slot.mode", "auto"}); code == 0 {
		t.Fatal("expected non-zero exit when slot.mode=auto has no duration")
	}
}

package daemon

import (
	"context"
	"strings"
	"testing"

	"captiond/internal/logging"
	"captiond/internal/testsupport"
)

func newDaemon(t *testing.T) *Daemon {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	d, err := New(cfg, testsupport.MustOpenArtifacts(t), logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	return d
}

func TestNewRequiresDependencies(t *testing.T) {
	if _, err := New(nil, nil, nil); err == nil {
		t.Fatal("expected error for missing dependencies")
	}
}

func TestStartStop(t *testing.T) {
	d := newDaemon(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer d.Stop()

	if d.Addr() == "" {
		t.Fatal("expected a bound api address")
	}
	if err := d.Start(ctx); err == nil || !strings.Contains(err.Error(), "already running") {
		t.Fatalf("expected already-running error, got %v", err)
	}

	d.Stop()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("restart after stop: %v", err)
	}
}

func TestInstanceLockConflict(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	first, err := New(cfg, testsupport.MustOpenArtifacts(t), logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	second, err := New(cfg, testsupport.MustOpenArtifacts(t), logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := first.Start(ctx); err != nil {
		t.Fatalf("start first: %v", err)
	}
	defer first.Stop()

	if err := second.Start(ctx); err == nil {
		second.Stop()
		t.Fatal("second instance should fail to acquire the lock")
	}
}

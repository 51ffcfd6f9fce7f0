package storage

import (
	"context"
	"encoding/json"
	"fmt"
)

// IsSwitching reports whether a project switch is in progress. The auto-save
// listener skips saves while it is set.
func (g *Gateway) IsSwitching(ctx context.Context) (bool, error) {
	vals, err := g.kv.Get(ctx, KeySwitching)
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", KeySwitching, err)
	}
	raw, ok := vals[KeySwitching]
	if !ok {
		return false, nil
	}
	var on bool
	if err := json.Unmarshal(raw, &on); err != nil {
		return false, fmt.Errorf("decoding %s: %w", KeySwitching, err)
	}
	return on, nil
}

func (g *Gateway) setSwitching(ctx context.Context, on bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	raw, _ := json.Marshal(on)
	if err := g.kv.Set(ctx, map[string][]byte{KeySwitching: raw}); err != nil {
		return fmt.Errorf("writing %s: %w", KeySwitching, err)
	}
	return nil
}

// BeginSwitch sets the switching flag and returns the function that clears
// it. The release runs on a context that ignores ctx's cancellation, so a
// cancelled switch still clears the flag.
func (g *Gateway) BeginSwitch(ctx context.Context) (release func() error, err error) {
	if err := g.setSwitching(ctx, true); err != nil {
		return nil, err
	}
	releaseCtx := context.WithoutCancel(ctx)
	return func() error { return g.setSwitching(releaseCtx, false) }, nil
}

// WithSwitching runs fn with the switching flag set and clears it on every
// exit path, including a panic in fn. A release failure is reported only when
// fn itself succeeded.
func (g *Gateway) WithSwitching(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	release, err := g.BeginSwitch(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if rerr := release(); rerr != nil && err == nil {
			err = rerr
		}
	}()
	return fn(ctx)
}

// ResetSwitching clears a flag left behind by a process that died mid-switch.
// It reports whether a stale flag was found.
func (g *Gateway) ResetSwitching(ctx context.Context) (bool, error) {
	on, err := g.IsSwitching(ctx)
	if err != nil || !on {
		return false, err
	}
	return true, g.setSwitching(ctx, false)
}

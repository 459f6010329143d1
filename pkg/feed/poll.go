package feed

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"f1livetiming/pkg/lapstore"
	"f1livetiming/pkg/model"
	"f1livetiming/pkg/openf1"
)

func (h *Handle) runPolling(ctx context.Context) {
	h.setHealth(model.HealthPolling)
	if !h.bootstrap(ctx) {
		return
	}
	ticker := time.NewTicker(h.c.opts.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !h.enqueue(ctx, h.fetchSnapshot(ctx)) {
				return
			}
		}
	}
}

// bootstrap loads the roster and a full REST snapshot. It returns false when the context
// ended.
func (h *Handle) bootstrap(ctx context.Context) bool {
	var events []lapstore.Event
	drivers, err := h.c.src.Drivers(ctx, h.Session.Key)
	if err != nil {
		h.logFetchError("drivers", err)
	} else {
		roster := lapstore.RosterEvent{Drivers: make([]model.Driver, 0, len(drivers))}
		for _, d := range drivers {
			roster.Drivers = append(roster.Drivers, openf1.ToDriver(d))
		}
		events = append(events, roster)
	}
	events = append(events, h.fetchSnapshot(ctx)...)
	return h.enqueue(ctx, events)
}

// fetchSnapshot collects every resource that could be fetched. Stints come before laps so
// new laps pick up their compound.
func (h *Handle) fetchSnapshot(ctx context.Context) []lapstore.Event {
	key := h.Session.Key
	var events []lapstore.Event

	if stints, err := h.c.src.Stints(ctx, key); err != nil {
		h.logFetchError("stints", err)
	} else {
		events = append(events, convertAll(stints, stintEvent)...)
	}
	if laps, err := h.c.src.Laps(ctx, key); err != nil {
		h.logFetchError("laps", err)
	} else {
		events = append(events, convertAll(laps, lapEvent)...)
	}
	if positions, err := h.c.src.Positions(ctx, key); err != nil {
		h.logFetchError("positions", err)
	} else {
		events = append(events, convertAll(positions, positionEvent)...)
	}
	if intervals, err := h.c.src.Intervals(ctx, key); err != nil {
		h.logFetchError("intervals", err)
	} else {
		events = append(events, convertAll(intervals, intervalEvent)...)
	}
	if results, err := h.c.src.Results(ctx, key); err != nil {
		h.logFetchError("results", err)
	} else {
		events = append(events, convertAll(results, resultEvent)...)
	}
	return events
}

func (h *Handle) logFetchError(resource string, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	h.logger.Warn("fetch failed, retrying next cycle", "resource", resource, "kind", string(openf1.KindOf(err)), "error", err)
}

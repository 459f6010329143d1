package locator

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"f1livetiming/pkg/logging"
	"f1livetiming/pkg/model"
	"f1livetiming/pkg/openf1"
)

const (
	DefaultDuration  = 3 * time.Hour
	DefaultLookahead = 24 * time.Hour
)

// SessionSource is the provider query the locator needs.
type SessionSource interface {
	Sessions(ctx context.Context, q openf1.SessionQuery) ([]openf1.Session, error)
}

type Options struct {
	// DefaultDuration is the assumed length of a session whose end is unknown.
	DefaultDuration time.Duration
	// Lookahead bounds the search for the next upcoming session. Zero disables it.
	Lookahead time.Duration
}

type Locator struct {
	src    SessionSource
	opts   Options
	logger *slog.Logger
}

func New(src SessionSource, opts Options, logger *slog.Logger) *Locator {
	if opts.DefaultDuration <= 0 {
		opts.DefaultDuration = DefaultDuration
	}
	if opts.Lookahead < 0 {
		opts.Lookahead = 0
	}
	return &Locator{
		src:    src,
		opts:   opts,
		logger: logging.NewComponentLogger(logger, "locator"),
	}
}

// Status classifies a session window against now. A session without an end is assumed to
// last defaultDuration from its start.
func Status(now, start time.Time, end *time.Time, defaultDuration time.Duration) model.Status {
	if start.IsZero() {
		return model.StatusUnknown
	}
	if now.Before(start) {
		return model.StatusUpcoming
	}
	effectiveEnd := start.Add(defaultDuration)
	if end != nil {
		effectiveEnd = *end
	}
	if !now.After(effectiveEnd) {
		return model.StatusLive
	}
	return model.StatusCompleted
}

// Refresh recomputes Status and Countdown of s for now.
func Refresh(s model.Session, now time.Time, defaultDuration time.Duration) model.Session {
	s.Status = Status(now, s.Start, s.End, defaultDuration)
	s.Countdown = 0
	if s.Status == model.StatusUpcoming {
		s.Countdown = s.Start.Sub(now)
	}
	return s
}

// Locate returns the live session at now or, failing that, the next upcoming one.
// It returns (nil, nil) when there is neither and (nil, err) when the provider fails.
func (l *Locator) Locate(ctx context.Context, now time.Time) (*model.Session, error) {
	now = now.UTC()

	explicit, err := l.src.Sessions(ctx, openf1.SessionQuery{StartBefore: now, EndAfter: now})
	if err != nil {
		return nil, errors.Wrap(err, "query active sessions")
	}
	// sessions published without an end never match date_end>=now
	recent, err := l.src.Sessions(ctx, openf1.SessionQuery{StartAfter: now.Add(-l.opts.DefaultDuration), StartBefore: now})
	if err != nil {
		return nil, errors.Wrap(err, "query recent sessions")
	}

	if live := l.pickLive(now, append(explicit, recent...)); live != nil {
		l.logger.Debug("live session located", "session_key", live.Key, "name", live.Name)
		return live, nil
	}

	if l.opts.Lookahead == 0 {
		return nil, nil
	}
	upcoming, err := l.src.Sessions(ctx, openf1.SessionQuery{StartAfter: now, StartBefore: now.Add(l.opts.Lookahead)})
	if err != nil {
		return nil, errors.Wrap(err, "query upcoming sessions")
	}
	next := l.pickUpcoming(now, upcoming)
	if next != nil {
		l.logger.Debug("upcoming session located", "session_key", next.Key, "countdown", next.Countdown)
	}
	return next, nil
}

func (l *Locator) pickLive(now time.Time, candidates []openf1.Session) *model.Session {
	var best *model.Session
	for _, c := range candidates {
		s := Refresh(openf1.ToSession(c), now, l.opts.DefaultDuration)
		if s.Status != model.StatusLive {
			continue
		}
		if best == nil || s.Start.After(best.Start) || (s.Start.Equal(best.Start) && s.Key > best.Key) {
			best = &s
		}
	}
	return best
}

func (l *Locator) pickUpcoming(now time.Time, candidates []openf1.Session) *model.Session {
	var best *model.Session
	for _, c := range candidates {
		s := Refresh(openf1.ToSession(c), now, l.opts.DefaultDuration)
		if s.Status != model.StatusUpcoming {
			continue
		}
		if best == nil || s.Start.Before(best.Start) || (s.Start.Equal(best.Start) && s.Key > best.Key) {
			best = &s
		}
	}
	return best
}

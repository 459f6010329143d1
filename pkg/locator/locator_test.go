package locator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"f1livetiming/pkg/logging"
	"f1livetiming/pkg/model"
	"f1livetiming/pkg/openf1"
	"f1livetiming/pkg/openf1/openf1test"
)

var now = time.Date(2024, 3, 2, 15, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func TestStatus(t *testing.T) {
	tests := []struct {
		name     string
		start    time.Time
		end      *time.Time
		duration time.Duration
		want     model.Status
	}{
		{"no start", time.Time{}, nil, 3 * time.Hour, model.StatusUnknown},
		{"future", now.Add(time.Minute), nil, 3 * time.Hour, model.StatusUpcoming},
		{"started an hour ago, no end", now.Add(-time.Hour), nil, 3 * time.Hour, model.StatusLive},
		{"started an hour ago, short default", now.Add(-time.Hour), nil, 30 * time.Minute, model.StatusCompleted},
		{"explicit end reached exactly", now.Add(-time.Hour), ptr(now), time.Minute, model.StatusLive},
		{"explicit end passed", now.Add(-2 * time.Hour), ptr(now.Add(-time.Second)), 3 * time.Hour, model.StatusCompleted},
		{"explicit end overrides default", now.Add(-5 * time.Hour), ptr(now.Add(time.Hour)), 3 * time.Hour, model.StatusLive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Status(now, tt.start, tt.end, tt.duration))
		})
	}
}

type stubSource struct {
	sessions []openf1.Session
	err      error
	calls    int
}

func (s *stubSource) Sessions(_ context.Context, q openf1.SessionQuery) ([]openf1.Session, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	var out []openf1.Session
	for _, sess := range s.sessions {
		if sess.DateStart == nil {
			continue
		}
		start := *sess.DateStart
		if !q.StartAfter.IsZero() && start.Before(q.StartAfter) {
			continue
		}
		if !q.StartBefore.IsZero() && start.After(q.StartBefore) {
			continue
		}
		if !q.EndAfter.IsZero() && (sess.DateEnd == nil || sess.DateEnd.Before(q.EndAfter)) {
			continue
		}
		out = append(out, sess)
	}
	return out, nil
}

func TestLocateLiveWithoutEnd(t *testing.T) {
	src := &stubSource{sessions: []openf1.Session{
		{SessionKey: 10, SessionName: "Race", DateStart: ptr(now.Add(-time.Hour))},
	}}

	s, err := New(src, Options{DefaultDuration: 3 * time.Hour}, logging.NewNop()).Locate(context.Background(), now)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, model.StatusLive, s.Status)
	assert.Equal(t, model.Race, s.Type)

	s, err = New(src, Options{DefaultDuration: 30 * time.Minute}, logging.NewNop()).Locate(context.Background(), now)
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestLocatePrefersLatestStart(t *testing.T) {
	src := &stubSource{sessions: []openf1.Session{
		{SessionKey: 1, SessionName: "Practice 3", DateStart: ptr(now.Add(-2 * time.Hour)), DateEnd: ptr(now.Add(time.Hour))},
		{SessionKey: 2, SessionName: "Qualifying", DateStart: ptr(now.Add(-30 * time.Minute))},
		{SessionKey: 3, SessionName: "F2 Sprint", DateStart: ptr(now.Add(-30 * time.Minute)), DateEnd: ptr(now.Add(time.Hour))},
	}}
	s, err := New(src, Options{}, logging.NewNop()).Locate(context.Background(), now)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, 3, s.Key, "equal starts break on the higher key")
}

func TestLocateUpcoming(t *testing.T) {
	src := &stubSource{sessions: []openf1.Session{
		{SessionKey: 1, SessionName: "Race", DateStart: ptr(now.Add(-6 * time.Hour)), DateEnd: ptr(now.Add(-4 * time.Hour))},
		{SessionKey: 5, SessionName: "Practice 2", DateStart: ptr(now.Add(5 * time.Hour))},
		{SessionKey: 4, SessionName: "Practice 1", DateStart: ptr(now.Add(90 * time.Minute))},
	}}
	s, err := New(src, Options{Lookahead: 24 * time.Hour}, logging.NewNop()).Locate(context.Background(), now)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, 4, s.Key)
	assert.Equal(t, model.StatusUpcoming, s.Status)
	assert.Equal(t, 90*time.Minute, s.Countdown)
}

func TestLocateNothing(t *testing.T) {
	src := &stubSource{}
	s, err := New(src, Options{Lookahead: time.Hour}, logging.NewNop()).Locate(context.Background(), now)
	assert.NoError(t, err)
	assert.Nil(t, s)
	assert.Equal(t, 3, src.calls)
}

func TestLocateProviderFailureIsNotNoSession(t *testing.T) {
	src := &stubSource{err: errors.New("boom")}
	s, err := New(src, Options{}, logging.NewNop()).Locate(context.Background(), now)
	assert.Error(t, err)
	assert.Nil(t, s)
}

func TestLocateAgainstFakeProvider(t *testing.T) {
	fake := openf1test.New(t)
	fake.SetSessions(openf1.Session{SessionKey: 9158, SessionName: "Race", CircuitShortName: "Sakhir", DateStart: ptr(now.Add(-20 * time.Minute)), DateEnd: ptr(now.Add(100 * time.Minute))})
	client := openf1.NewClient(fake.BaseURL(), time.Second, logging.NewNop())

	s, err := New(client, Options{}, logging.NewNop()).Locate(context.Background(), now)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, 9158, s.Key)
	assert.Equal(t, "Sakhir", s.Circuit)

	fake.FailWith("sessions", 503)
	s, err = New(client, Options{}, logging.NewNop()).Locate(context.Background(), now)
	require.Error(t, err)
	assert.Nil(t, s)
	assert.Equal(t, openf1.KindNetwork, openf1.KindOf(err))
}

func TestRefreshCountdown(t *testing.T) {
	s := Refresh(model.Session{Start: now.Add(time.Hour)}, now, time.Hour)
	assert.Equal(t, model.StatusUpcoming, s.Status)
	assert.Equal(t, time.Hour, s.Countdown)

	s = Refresh(s, now.Add(90*time.Minute), time.Hour)
	assert.Equal(t, model.StatusLive, s.Status)
	assert.Zero(t, s.Countdown)
}

package settings

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"f1livetiming/pkg/model"
)

func newManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(filepath.Join(t.TempDir(), "nested", "settings.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestUnknownChatHasNothingEnabled(t *testing.T) {
	m := newManager(t)
	s, err := m.Subscriptions(42)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(AllDisabled(), s))
}

func TestSubscribeAndList(t *testing.T) {
	m := newManager(t)
	require.NoError(t, m.Subscribe(200, "pit wall", model.Race, model.Sprint))
	require.NoError(t, m.Subscribe(100, "garage", model.Race))
	require.NoError(t, m.Subscribe(100, "", model.Qualifying))

	race, err := m.ListSubscribers(model.Race)
	require.NoError(t, err)
	assert.Equal(t, []Subscriber{{ChatID: 100, Name: "garage"}, {ChatID: 200, Name: "pit wall"}}, race)

	quali, err := m.ListSubscribers(model.Qualifying)
	require.NoError(t, err)
	assert.Equal(t, []Subscriber{{ChatID: 100, Name: "garage"}}, quali)

	practice, err := m.ListSubscribers(model.Practice)
	require.NoError(t, err)
	assert.Empty(t, practice)

	s, err := m.Subscriptions(100)
	require.NoError(t, err)
	want := Subscriptions{model.Practice: false, model.Qualifying: true, model.Sprint: false, model.Race: true}
	assert.Empty(t, cmp.Diff(want, s))
}

func TestToggle(t *testing.T) {
	m := newManager(t)
	require.NoError(t, m.Subscribe(7, "paddock", model.Race))

	on, err := m.Toggle(7, model.Race)
	require.NoError(t, err)
	assert.False(t, on)

	on, err = m.Toggle(7, model.Practice)
	require.NoError(t, err)
	assert.True(t, on)

	subs, err := m.ListSubscribers(model.Practice)
	require.NoError(t, err)
	assert.Equal(t, []Subscriber{{ChatID: 7, Name: "paddock"}}, subs)

	// toggling a chat that never subscribed creates it
	on, err = m.Toggle(8, model.Sprint)
	require.NoError(t, err)
	assert.True(t, on)
}

func TestUnknownSessionTypeIsRejected(t *testing.T) {
	m := newManager(t)
	assert.Error(t, m.Subscribe(1, "x", model.SessionType("race; DROP TABLE subscribers")))
	_, err := m.Toggle(1, "testday")
	assert.Error(t, err)
	_, err = m.ListSubscribers("testday")
	assert.Error(t, err)
}

func TestSubscriptionsPersistAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.db")
	m, err := NewManager(path)
	require.NoError(t, err)
	require.NoError(t, m.Subscribe(5, "box", Types...))
	require.NoError(t, m.Close())

	m, err = NewManager(path)
	require.NoError(t, err)
	defer m.Close()
	s, err := m.Subscriptions(5)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(AllEnabled(), s))
}

func TestSubscriptionsString(t *testing.T) {
	s := AllDisabled()
	s[model.Race] = true
	assert.Equal(t, "🔕 practice\n🔕 qualifying\n🔕 sprint\n🔔 race", s.String())
}

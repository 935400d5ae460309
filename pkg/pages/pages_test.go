package pages

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNext(t *testing.T) {
	allowed := map[Page]map[Action]Page{
		Landing:    {ActionHost: Setup},
		Setup:      {ActionBack: Landing, ActionStartMeeting: Meeting},
		Meeting:    {ActionBack: Setup, ActionShowConclusion: Conclusion},
		Conclusion: {ActionBack: Meeting},
	}
	actions := []Action{ActionHost, ActionBack, ActionStartMeeting, ActionShowConclusion}

	for page, edges := range allowed {
		for _, a := range actions {
			got, err := Next(page, a)
			if want, ok := edges[a]; ok {
				require.NoError(t, err, "%s on %s", a, page)
				assert.Equal(t, want, got)
			} else {
				require.ErrorIs(t, err, ErrInvalidTransition, "%s on %s", a, page)
				assert.Equal(t, page, got)
			}
		}
	}
}

func TestRouterStartsOnLanding(t *testing.T) {
	assert.Equal(t, Landing, NewRouter().Current())
}

func TestRouterLeaveHooks(t *testing.T) {
	r := NewRouter()
	var left [][2]Page
	r.OnLeave(Meeting, func(from, to Page) {
		left = append(left, [2]Page{from, to})
		assert.Equal(t, to, r.Current(), "hook runs after the page changed")
	})

	for _, a := range []Action{ActionHost, ActionStartMeeting, ActionShowConclusion, ActionBack, ActionBack} {
		_, err := r.Dispatch(a)
		require.NoError(t, err)
	}
	assert.Equal(t, Setup, r.Current())
	assert.Equal(t, [][2]Page{{Meeting, Conclusion}, {Meeting, Setup}}, left)
}

func TestRouterRejectsInvalid(t *testing.T) {
	r := NewRouter()
	p, err := r.Dispatch(ActionShowConclusion)
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, Landing, p)
	assert.Equal(t, Landing, r.Current())
}

package visitor

import (
	"errors"
	"testing"

	"github.com/aretw0/atlas/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gated() *domain.Document {
	return &domain.Document{
		RootID: "start",
		Tokens: domain.Tokens{Chrono: domain.Chrono{Start: 3}},
		Nodes: []domain.Node{
			{
				ID:     "start",
				Grants: []string{"mission_started"},
				Choices: []domain.Choice{
					{ID: "open", Label: "Open", NextID: "vault", Cost: 1},
					{ID: "secret", Label: "Secret", NextID: "ending_secret", Requires: []string{"token_x"}},
					{ID: "key", Label: "Take key", NextID: "keyroom"},
				},
			},
			{
				ID:      "keyroom",
				Grants:  []string{"token_x"},
				Choices: []domain.Choice{{ID: "back", Label: "Back", NextID: "start"}},
			},
			{ID: "vault", Cost: 5, Choices: []domain.Choice{{ID: "out", Label: "Out", NextID: "ending_secret"}}},
			{ID: "ending_secret", Choices: []domain.Choice{}},
		},
	}
}

func ids(choices []domain.Choice) []string {
	var out []string
	for _, c := range choices {
		out = append(out, c.ID)
	}
	return out
}

func TestStart(t *testing.T) {
	s, err := Start(gated())
	require.NoError(t, err)
	assert.Equal(t, "start", s.Current)
	assert.Equal(t, 3, s.Tokens)
	assert.True(t, s.Has("mission_started"))
	assert.Equal(t, []string{"start"}, s.Path)

	_, err = Start(&domain.Document{RootID: "ghost"})
	var missing *domain.MissingRootError
	assert.True(t, errors.As(err, &missing))
}

func TestAvailable_FiltersByRequires(t *testing.T) {
	doc := gated()
	start, _ := doc.Node("start")

	s, err := Start(doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"open", "key"}, ids(Available(doc, start, s)))

	s, err = Select(doc, s, "key")
	require.NoError(t, err)
	assert.True(t, s.Has("token_x"))

	s, err = Select(doc, s, "back")
	require.NoError(t, err)
	assert.Equal(t, []string{"open", "secret", "key"}, ids(Available(doc, start, s)))
}

func TestSelect_GatedChoiceRefused(t *testing.T) {
	doc := gated()
	s, _ := Start(doc)

	_, err := Select(doc, s, "secret")
	var unavailable *ChoiceUnavailableError
	require.True(t, errors.As(err, &unavailable))
	assert.Equal(t, []string{"token_x"}, unavailable.Missing)

	_, err = Select(doc, s, "nope")
	require.True(t, errors.As(err, &unavailable))
	assert.Empty(t, unavailable.Missing)
}

func TestSelect_CostsAndTerminal(t *testing.T) {
	doc := gated()
	s, _ := Start(doc)

	// Choice cost 1 plus vault arrival cost 5 exceeds the balance of 3.
	_, err := Select(doc, s, "open")
	var poor *InsufficientTokensError
	require.True(t, errors.As(err, &poor))
	assert.Equal(t, 6, poor.Cost)

	s.Tokens = 10
	s, err = Select(doc, s, "open")
	require.NoError(t, err)
	assert.Equal(t, 4, s.Tokens)

	s, err = Select(doc, s, "out")
	require.NoError(t, err)
	end, _ := doc.Node(s.Current)
	assert.True(t, IsTerminal(end))
	assert.Equal(t, []string{"start", "vault", "ending_secret"}, s.Path)

	_, err = Select(doc, s, "anything")
	assert.ErrorIs(t, err, ErrTerminal)
}

func TestSelect_DoesNotMutateInput(t *testing.T) {
	doc := gated()
	s, _ := Start(doc)

	next, err := Select(doc, s, "key")
	require.NoError(t, err)
	assert.False(t, s.Has("token_x"))
	assert.Equal(t, "start", s.Current)
	assert.Equal(t, []string{"mission_started", "token_x"}, next.Flags())
}

func TestNodeRequires_GateIncomingChoices(t *testing.T) {
	doc := &domain.Document{
		RootID: "lobby",
		Nodes: []domain.Node{
			{ID: "lobby", Choices: []domain.Choice{
				{ID: "walk_in", Label: "Walk in", NextID: "lab"},
				{ID: "swipe", Label: "Swipe badge", NextID: "lab", Grants: []string{"badge"}},
				{ID: "leave", Label: "Leave", NextID: "ending_out"},
			}},
			{ID: "lab", Requires: []string{"badge"}, Choices: []domain.Choice{}},
			{ID: "ending_out", Choices: []domain.Choice{}},
		},
	}
	lobby, _ := doc.Node("lobby")

	s, err := Start(doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"swipe", "leave"}, ids(Available(doc, lobby, s)))

	_, err = Select(doc, s, "walk_in")
	var unavailable *ChoiceUnavailableError
	require.True(t, errors.As(err, &unavailable))
	assert.Equal(t, []string{"badge"}, unavailable.Missing)

	next, err := Select(doc, s, "swipe")
	require.NoError(t, err)
	assert.Equal(t, "lab", next.Current)

	s.Grants["badge"] = true
	assert.Equal(t, []string{"walk_in", "swipe", "leave"}, ids(Available(doc, lobby, s)))
}

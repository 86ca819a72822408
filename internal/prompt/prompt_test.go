package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/orange-copywriter/internal/models"
)

func baseFields() Fields {
	return Fields{
		Client:          "Luxofy",
		Brand:           "Luxofy curates luxury villas in Goa.",
		Agenda:          "launch announcement",
		Mood:            "excited",
		AdditionalInput: "sea-facing villas",
	}
}

func TestNew_AllKindsHaveTemplates(t *testing.T) {
	t.Parallel()

	lib, err := New()
	require.NoError(t, err)

	for _, k := range models.Kinds() {
		p, err := lib.Build(k, baseFields())
		require.NoError(t, err, k)
		require.NotEmpty(t, p.System, k)
		require.Equal(t, k, p.Kind)
	}
}

func TestBuild_UnknownKind(t *testing.T) {
	t.Parallel()

	_, err := MustNew().Build("tweet", baseFields())
	require.ErrorIs(t, err, ErrUnknownKind)
}

func TestBuild_GeneralKinds_InterpolateFields(t *testing.T) {
	t.Parallel()

	lib := MustNew()

	for _, k := range []models.Kind{models.KindReel, models.KindPost, models.KindPoll, models.KindStrategy} {
		p, err := lib.Build(k, baseFields())
		require.NoError(t, err)

		require.Contains(t, p.User, "Agenda: launch announcement", k)
		require.Contains(t, p.User, "Mood: excited", k)
		require.Contains(t, p.User, "About Our Company: Luxofy curates luxury villas in Goa.", k)
		require.Contains(t, p.User, "Additional Input: sea-facing villas", k)
		require.Contains(t, p.System, "Client: Luxofy", k)
		require.Equal(t, int64(1024), p.MaxTokens, k)
		require.Nil(t, p.Temperature, k)
		require.NotContains(t, p.System+p.User, "<no value>", k)
	}
}

func TestBuild_OutputContracts(t *testing.T) {
	t.Parallel()

	lib := MustNew()

	reel, err := lib.Build(models.KindReel, baseFields())
	require.NoError(t, err)
	require.Contains(t, reel.System, "no longer than 100 words")

	poll, err := lib.Build(models.KindPoll, baseFields())
	require.NoError(t, err)
	require.Contains(t, poll.System, "1 social media post of 4-6 lines")

	post, err := lib.Build(models.KindPost, baseFields())
	require.NoError(t, err)
	require.Contains(t, post.System, "2-3 sentences")
}

func TestBuild_Email(t *testing.T) {
	t.Parallel()

	f := baseFields()
	f.Client = "Montaigne"
	f.Receiver = "Priya Rao"
	f.ClientCompany = "Coastline Homes"
	f.TargetIndustry = "Luxury rentals are outpacing sales in Goa"

	p, err := MustNew().Build(models.KindEmail, f)
	require.NoError(t, err)

	require.Contains(t, p.System, "100-150 words")
	require.Contains(t, p.User, "Recipient: Priya Rao")
	require.Contains(t, p.User, "Receiver Company: Coastline Homes")
	require.Contains(t, p.User, "Latest Industry Development: Luxury rentals are outpacing sales in Goa")
	require.NotContains(t, p.User, "Recent market developments")

	f.Insights = []string{"REIT listings up 12%"}
	p, err = MustNew().Build(models.KindEmail, f)
	require.NoError(t, err)
	require.Contains(t, p.User, "Recent market developments:\n- REIT listings up 12%")
}

func TestBuild_Chat_HistoryAndInsights(t *testing.T) {
	t.Parallel()

	f := Fields{
		Client:    "1acre",
		Brand:     "1acre is a land marketplace.",
		Industry:  "real estate",
		Purpose:   "grow seller signups",
		UserInput: "What should we focus on this quarter?",
		Insights:  []string{"Farmland prices rose 8%", "No Analysis Found"},
		History: []models.Message{
			{Role: models.RoleUser, Content: "How is the market?"},
			{Role: models.RoleAssistant, Content: "Buoyant in the south."},
		},
	}

	p, err := MustNew().Build(models.KindChat, f)
	require.NoError(t, err)

	require.Equal(t, "What should we focus on this quarter?", p.User)
	require.Contains(t, p.System, "about the real estate industry")
	require.Contains(t, p.System, "grow seller signups")
	require.Contains(t, p.System, "Latest market developments:\n- Farmland prices rose 8%\n- No Analysis Found")
	require.Contains(t, p.System, "Our conversation so far:\nUser: How is the market?\nOrange: Buoyant in the south.")

	// История рендерится от старых к новым.
	require.Less(t, strings.Index(p.System, "How is the market?"), strings.Index(p.System, "Buoyant in the south."))
}

func TestBuild_Chat_EmptyHistory(t *testing.T) {
	t.Parallel()

	f := Fields{Client: "1acre", Brand: "b", Industry: "i", Purpose: "p", UserInput: "hi"}

	p, err := MustNew().Build(models.KindChat, f)
	require.NoError(t, err)
	require.Contains(t, p.System, "(no previous conversation)")
	require.Contains(t, p.System, "No recent developments available.")
}

func TestBuild_Script_Params(t *testing.T) {
	t.Parallel()

	f := Fields{
		Client:   "Montaigne",
		Brand:    "Montaigne is a strategy studio.",
		Industry: "fintech",
		Purpose:  "thought leadership",
		Insights: []string{"Embedded finance adoption doubled"},
	}

	p, err := MustNew().Build(models.KindScript, f)
	require.NoError(t, err)

	require.Equal(t, int64(1000), p.MaxTokens)
	require.NotNil(t, p.Temperature)
	require.InDelta(t, 0.5, *p.Temperature, 1e-9)

	require.Contains(t, p.System, "60-80 words")
	require.Contains(t, p.System, "3-5 background stock video ideas")
	require.Contains(t, p.System, "Industry: fintech\n- Embedded finance adoption doubled")
	require.Contains(t, p.User, "Purpose: thought leadership")
}

func TestPrompt_InputChars(t *testing.T) {
	t.Parallel()

	p := Prompt{System: "abc", User: "дом"}
	require.Equal(t, 6, p.InputChars())
}

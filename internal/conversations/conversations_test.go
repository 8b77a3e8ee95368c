package conversations

import (
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoMudEngine/npcchat/internal/configs"
)

func newTestStore(window int) *Store {
	return NewStore(configs.NewSettings(configs.LLMChat{
		MaxHistory:          configs.ConfigInt(window),
		DefaultSystemPrompt: `default prompt`,
	}))
}

func TestKeyString(t *testing.T) {
	r := uuid.MustParse(`11111111-1111-1111-1111-111111111111`)
	s := uuid.MustParse(`22222222-2222-2222-2222-222222222222`)

	require.Equal(t, `11111111-1111-1111-1111-111111111111|22222222-2222-2222-2222-222222222222`, Key{r, s}.String())
	require.NotEqual(t, Key{r, s}.String(), Key{s, r}.String())
}

func TestHistoryForUnknownIsEmpty(t *testing.T) {
	store := newTestStore(10)

	h := store.HistoryFor(uuid.New(), uuid.New())
	require.NotNil(t, h)
	require.Empty(t, h)
	require.Equal(t, 0, store.ActiveConversationCount())
}

func TestConversationsAreIsolated(t *testing.T) {
	store := newTestStore(10)

	a, b, c := uuid.New(), uuid.New(), uuid.New()

	store.Append(a, b, ChatMessage{Role: RoleUser, Content: `to b`})
	store.Append(a, c, ChatMessage{Role: RoleUser, Content: `to c`})
	store.Append(b, a, ChatMessage{Role: RoleUser, Content: `reversed`})

	require.Equal(t, []ChatMessage{{Role: RoleUser, Content: `to b`}}, store.HistoryFor(a, b))
	require.Equal(t, []ChatMessage{{Role: RoleUser, Content: `to c`}}, store.HistoryFor(a, c))
	require.Equal(t, []ChatMessage{{Role: RoleUser, Content: `reversed`}}, store.HistoryFor(b, a))
	require.Empty(t, store.HistoryFor(c, a))
	require.Equal(t, 3, store.ActiveConversationCount())
}

func TestAppendKeepsMostRecentWindow(t *testing.T) {
	tests := []struct {
		window  int
		appends int
	}{
		{1, 1},
		{1, 5},
		{3, 6},
		{3, 7},
		{10, 45},
	}

	for _, test := range tests {
		t.Run(fmt.Sprintf("window=%d appends=%d", test.window, test.appends), func(t *testing.T) {
			store := newTestStore(test.window)
			r, s := uuid.New(), uuid.New()

			for i := 1; i <= test.appends; i++ {
				store.Append(r, s, ChatMessage{Role: RoleUser, Content: fmt.Sprint(i)})
				require.LessOrEqual(t, len(store.HistoryFor(r, s)), 2*test.window)
			}

			h := store.HistoryFor(r, s)
			expectedLen := min(test.appends, 2*test.window)
			require.Len(t, h, expectedLen)

			first := test.appends - expectedLen + 1
			for i, msg := range h {
				require.Equal(t, fmt.Sprint(first+i), msg.Content)
			}
		})
	}
}

func TestWindowFollowsReload(t *testing.T) {
	settings := configs.NewSettings(configs.LLMChat{MaxHistory: 5})
	store := NewStore(settings)
	r, s := uuid.New(), uuid.New()

	for i := 0; i < 10; i++ {
		store.Append(r, s, ChatMessage{Role: RoleUser, Content: fmt.Sprint(i)})
	}
	require.Len(t, store.HistoryFor(r, s), 10)

	settings.Reload(configs.LLMChat{MaxHistory: 2})
	store.Append(r, s, ChatMessage{Role: RoleUser, Content: `last`})

	h := store.HistoryFor(r, s)
	require.Len(t, h, 4)
	require.Equal(t, `last`, h[3].Content)
}

func TestBuildRequestMessages(t *testing.T) {
	store := newTestStore(10)
	r, s := uuid.New(), uuid.New()

	store.Append(r, s, ChatMessage{Role: RoleUser, Content: `hi`})
	store.Append(r, s, ChatMessage{Role: RoleAssistant, Content: `well met`})

	msgs := store.BuildRequestMessages(r, s, `you are a blacksmith`, `any swords?`)

	require.Equal(t, []ChatMessage{
		{Role: RoleSystem, Content: `you are a blacksmith`},
		{Role: RoleUser, Content: `hi`},
		{Role: RoleAssistant, Content: `well met`},
		{Role: RoleUser, Content: `any swords?`},
	}, msgs)

	// The user message was recorded as a side effect
	h := store.HistoryFor(r, s)
	require.Len(t, h, 3)
	require.Equal(t, ChatMessage{Role: RoleUser, Content: `any swords?`}, h[2])
}

func TestBuildRequestMessagesBlankPromptUsesDefault(t *testing.T) {
	store := newTestStore(10)

	for _, prompt := range []string{``, `   `, "\n\t"} {
		msgs := store.BuildRequestMessages(uuid.New(), uuid.New(), prompt, `hello`)
		require.Len(t, msgs, 2)
		require.Equal(t, RoleSystem, msgs[0].Role)
		require.Equal(t, `default prompt`, msgs[0].Content)
		require.Equal(t, RoleUser, msgs[1].Role)
		require.Equal(t, `hello`, msgs[1].Content)
	}
}

func TestBuildRequestMessagesShape(t *testing.T) {
	store := newTestStore(2)
	r, s := uuid.New(), uuid.New()

	for i := 0; i < 20; i++ {
		text := fmt.Sprintf(`question %d`, i)
		msgs := store.BuildRequestMessages(r, s, `prompt`, text)

		require.Equal(t, RoleSystem, msgs[0].Role)
		require.Equal(t, RoleUser, msgs[len(msgs)-1].Role)
		require.Equal(t, text, msgs[len(msgs)-1].Content)
		require.LessOrEqual(t, len(msgs), 2+4)

		if i%3 != 0 {
			store.RecordReply(r, s, `answer`)
		}
	}
}

func TestTwentyFiveTurnsKeepsLastTen(t *testing.T) {
	store := newTestStore(10)
	p1, n1 := uuid.New(), uuid.New()

	for turn := 1; turn <= 25; turn++ {
		store.BuildRequestMessages(p1, n1, ``, fmt.Sprintf(`user %d`, turn))
		store.RecordReply(p1, n1, fmt.Sprintf(`npc %d`, turn))
	}

	h := store.HistoryFor(p1, n1)
	require.Len(t, h, 20)

	for i := 0; i < 10; i++ {
		turn := 16 + i
		require.Equal(t, ChatMessage{Role: RoleUser, Content: fmt.Sprintf(`user %d`, turn)}, h[i*2])
		require.Equal(t, ChatMessage{Role: RoleAssistant, Content: fmt.Sprintf(`npc %d`, turn)}, h[i*2+1])
	}
}

func TestClearForRequesterAndSubject(t *testing.T) {
	store := newTestStore(10)
	p1, p2 := uuid.New(), uuid.New()
	n1, n2 := uuid.New(), uuid.New()

	for _, p := range []uuid.UUID{p1, p2} {
		for _, n := range []uuid.UUID{n1, n2} {
			store.Append(p, n, ChatMessage{Role: RoleUser, Content: `hello`})
		}
	}
	require.Equal(t, 4, store.ActiveConversationCount())

	require.Equal(t, 2, store.ClearForRequester(p1))
	assert.Empty(t, store.HistoryFor(p1, n1))
	assert.Empty(t, store.HistoryFor(p1, n2))
	assert.Len(t, store.HistoryFor(p2, n1), 1)

	require.Equal(t, 1, store.ClearForSubject(n2))
	assert.Empty(t, store.HistoryFor(p2, n2))
	assert.Len(t, store.HistoryFor(p2, n1), 1)

	require.Equal(t, 0, store.ClearForSubject(n2))
	require.Equal(t, 1, store.ActiveConversationCount())
}

func TestConcurrentAppendAndClear(t *testing.T) {
	store := newTestStore(5)
	subject := uuid.New()
	keep := uuid.New()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			requester := uuid.New()
			for i := 0; i < 200; i++ {
				store.Append(requester, subject, ChatMessage{Role: RoleUser, Content: `x`})
				store.Append(keep, uuid.New(), ChatMessage{Role: RoleUser, Content: `y`})
				if i%20 == 0 {
					store.ClearForRequester(requester)
				}
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			store.ClearForSubject(subject)
		}
	}()

	wg.Wait()

	store.ClearForSubject(subject)
	require.Equal(t, 8*200, store.ActiveConversationCount())
}

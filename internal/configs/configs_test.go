package configs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
Server:
  ListenAddress: ":9090"
LLMChat:
  EndpointURL: "http://example.com/v1/"
  Model: gpt-test
  APIKey: hunter2
  MaxHistory: 4
`

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), `config.yaml`)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestLoad(t *testing.T) {
	c, err := Load(writeConfig(t, testConfig))
	require.NoError(t, err)

	assert.Equal(t, ConfigString(`:9090`), c.Server.ListenAddress)
	assert.Equal(t, ConfigInt(100), c.Server.TickMilliseconds)
	assert.Equal(t, ConfigString(`info`), c.Logging.Level)
	assert.Equal(t, `_datafiles/npcs`, c.NPCPath())
	assert.Equal(t, `_datafiles/localize`, c.LocalizePath())

	assert.True(t, bool(c.LLMChat.Enabled), "enabled unless switched off")
	assert.Equal(t, ConfigString(`http://example.com/v1`), c.LLMChat.EndpointURL)
	assert.Equal(t, ConfigString(`gpt-test`), c.LLMChat.Model)
	assert.Equal(t, ConfigInt(4), c.LLMChat.MaxHistory)
	assert.Equal(t, 30*time.Second, c.LLMChat.RequestTimeout())
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), `missing.yaml`))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "LLMChat: [not, a, map"))
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(`NPCCHAT_LLM_ENABLED`, `false`)
	t.Setenv(`NPCCHAT_LLM_MODEL`, `llama3`)
	t.Setenv(`NPCCHAT_LLM_MAX_HISTORY`, `7`)
	t.Setenv(`NPCCHAT_LISTEN_ADDRESS`, `127.0.0.1:7000`)

	c, err := Load(writeConfig(t, testConfig))
	require.NoError(t, err)

	assert.False(t, bool(c.LLMChat.Enabled))
	assert.Equal(t, ConfigString(`llama3`), c.LLMChat.Model)
	assert.Equal(t, ConfigInt(7), c.LLMChat.MaxHistory)
	assert.Equal(t, ConfigString(`127.0.0.1:7000`), c.Server.ListenAddress)
}

func TestEnvOverridesPoolAndLimits(t *testing.T) {
	t.Setenv(`NPCCHAT_LLM_WORKERS`, `4`)
	t.Setenv(`NPCCHAT_LLM_REQUESTS_PER_MINUTE`, `12`)
	t.Setenv(`NPCCHAT_LLM_FAILURE_BACKOFF_SECONDS`, `30`)
	t.Setenv(`NPCCHAT_TICK_MILLISECONDS`, `50`)

	c, err := Load(writeConfig(t, testConfig+"  RequestsPerMinute: 3\n"))
	require.NoError(t, err)

	assert.Equal(t, ConfigInt(4), c.LLMChat.Workers)
	assert.Equal(t, ConfigInt(12), c.LLMChat.RequestsPerMinute)
	assert.Equal(t, ConfigInt(30), c.LLMChat.FailureBackoffSeconds)
	assert.Equal(t, ConfigInt(50), c.Server.TickMilliseconds)
}

func TestEnvOverrideExplicitZero(t *testing.T) {
	t.Setenv(`NPCCHAT_LLM_REQUESTS_PER_MINUTE`, `0`)

	c, err := Load(writeConfig(t, testConfig+"  RequestsPerMinute: 3\n"))
	require.NoError(t, err)
	assert.Equal(t, ConfigInt(0), c.LLMChat.RequestsPerMinute)

	// Unset leaves the file's value alone
	os.Unsetenv(`NPCCHAT_LLM_REQUESTS_PER_MINUTE`)
	c, err = Load(writeConfig(t, testConfig+"  RequestsPerMinute: 3\n"))
	require.NoError(t, err)
	assert.Equal(t, ConfigInt(3), c.LLMChat.RequestsPerMinute)
}

func TestEnvOverrideBadValue(t *testing.T) {
	t.Setenv(`NPCCHAT_LLM_MAX_HISTORY`, `lots`)

	_, err := Load(writeConfig(t, testConfig))
	assert.ErrorContains(t, err, `environment overrides`)
	assert.ErrorContains(t, err, `MaxHistory`)
}

func TestSecretIsRedacted(t *testing.T) {
	assert.Equal(t, `*** REDACTED ***`, ConfigSecret(`hunter2`).String())
	assert.Equal(t, ``, ConfigSecret(``).String())
}

func TestLLMChatValidate(t *testing.T) {
	tests := []struct {
		name  string
		input LLMChat
		check func(t *testing.T, l LLMChat)
	}{
		{"defaults", LLMChat{}, func(t *testing.T, l LLMChat) {
			assert.Equal(t, ConfigString(`http://localhost:11434/v1`), l.EndpointURL)
			assert.Equal(t, ConfigString(ModelAuto), l.Model)
			assert.Equal(t, ConfigInt(10), l.MaxHistory)
			assert.Equal(t, ConfigInt(30000), l.RequestTimeoutMs)
			assert.Equal(t, ConfigInt(2), l.Workers)
			assert.Equal(t, ConfigString(`en`), l.Language)
			assert.Equal(t, ConfigString(DefaultSystemPrompt), l.DefaultSystemPrompt)
		}},
		{"history capped", LLMChat{MaxHistory: 500}, func(t *testing.T, l LLMChat) {
			assert.Equal(t, ConfigInt(50), l.MaxHistory)
		}},
		{"timeout too short", LLMChat{RequestTimeoutMs: 999}, func(t *testing.T, l LLMChat) {
			assert.Equal(t, ConfigInt(30000), l.RequestTimeoutMs)
		}},
		{"timeout too long", LLMChat{RequestTimeoutMs: 1_000_000}, func(t *testing.T, l LLMChat) {
			assert.Equal(t, ConfigInt(300000), l.RequestTimeoutMs)
		}},
		{"workers capped", LLMChat{Workers: 100}, func(t *testing.T, l LLMChat) {
			assert.Equal(t, ConfigInt(8), l.Workers)
		}},
		{"negatives zeroed", LLMChat{RequestsPerMinute: -1, FailureBackoffSeconds: -5}, func(t *testing.T, l LLMChat) {
			assert.Equal(t, ConfigInt(0), l.RequestsPerMinute)
			assert.Equal(t, ConfigInt(0), l.FailureBackoffSeconds)
		}},
		{"blank prompt", LLMChat{DefaultSystemPrompt: "  \n"}, func(t *testing.T, l LLMChat) {
			assert.Equal(t, ConfigString(DefaultSystemPrompt), l.DefaultSystemPrompt)
		}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			l := test.input
			l.Validate()
			test.check(t, l)
		})
	}
}

func TestSettingsReload(t *testing.T) {
	s := NewSettings(LLMChat{Model: ModelAuto, MaxHistory: 3})
	assert.Equal(t, ModelAuto, s.EffectiveModel())

	s.SetDetectedModel(`llama3`)
	assert.Equal(t, `llama3`, s.EffectiveModel())

	var seen []LLMChat
	s.OnReload(func(c LLMChat) { seen = append(seen, c) })

	s.Reload(LLMChat{Model: ModelAuto, MaxHistory: 6})

	// The detected model belonged to the old endpoint
	assert.Equal(t, ``, s.DetectedModel())
	assert.Equal(t, ModelAuto, s.EffectiveModel())
	assert.Equal(t, ConfigInt(6), s.Get().MaxHistory)

	require.Len(t, seen, 1)
	assert.Equal(t, ConfigInt(6), seen[0].MaxHistory)
}

func TestExplicitModelIgnoresDetection(t *testing.T) {
	s := NewSettings(LLMChat{Model: `gpt-test`})
	s.SetDetectedModel(`llama3`)
	assert.Equal(t, `gpt-test`, s.EffectiveModel())
}

func TestSettingsGetIsACopy(t *testing.T) {
	s := NewSettings(LLMChat{MaxHistory: 3})
	c := s.Get()
	c.MaxHistory = 40
	assert.Equal(t, ConfigInt(3), s.Get().MaxHistory)
}

func TestWatchFile(t *testing.T) {
	path := writeConfig(t, testConfig)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan string, 8)
	require.NoError(t, Watch(ctx, func(p string) { changed <- p }, path))

	require.NoError(t, os.WriteFile(path, []byte(testConfig+"\n# edited\n"), 0644))

	select {
	case p := <-changed:
		abs, _ := filepath.Abs(path)
		assert.Equal(t, abs, p)
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
}

func TestWatchDirectoryDebounces(t *testing.T) {
	dir := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan string, 8)
	require.NoError(t, Watch(ctx, func(p string) { changed <- p }, dir))

	require.NoError(t, os.MkdirAll(filepath.Join(dir, `frostfang`), 0755))
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(dir, `frostfang`, `1.yaml`), []byte(`mobid: 1`), 0644))
	}

	select {
	case p := <-changed:
		abs, _ := filepath.Abs(dir)
		assert.Equal(t, abs, p)
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}

	// One burst, one call
	select {
	case <-changed:
		t.Fatal("burst was not debounced")
	case <-time.After(3 * watchDebounce):
	}
}

func TestWatchMissingPath(t *testing.T) {
	err := Watch(context.Background(), func(string) {}, filepath.Join(t.TempDir(), `nope`))
	assert.Error(t, err)
}

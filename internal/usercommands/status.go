package usercommands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/GoMudEngine/npcchat/internal/users"
)

// Status shows how the LLM chat feature is doing
func Status(rest string, user *users.UserRecord, env *Env) (bool, error) {

	cfg := env.Settings.Get()

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("<ansi fg=\"yellow\">LLM chat:</ansi> enabled=%t model=%s\n", bool(cfg.Enabled), env.Settings.EffectiveModel()))
	sb.WriteString(fmt.Sprintf("Active conversations: %d\n", env.Chat.ActiveConversationCount()))
	sb.WriteString(fmt.Sprintf("Your AI replies: %s", map[bool]string{true: `off`, false: `on`}[user.LLMDisabled()]))

	if env.TokenUsage != nil {
		usage := env.TokenUsage()
		models := make([]string, 0, len(usage))
		for model := range usage {
			models = append(models, model)
		}
		sort.Strings(models)

		for _, model := range models {
			u := usage[model]
			sb.WriteString(fmt.Sprintf("\n  %s: %d calls, %d in / %d out tokens", model, u.TotalCalls, u.InputTokens, u.OutputTokens))
		}
	}

	user.SendText(sb.String())

	return true, nil
}

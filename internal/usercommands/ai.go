package usercommands

import (
	"github.com/GoMudEngine/npcchat/internal/mudlog"
	"github.com/GoMudEngine/npcchat/internal/users"
)

// AI handles the command to toggle AI/LLM features for a player
func AI(rest string, user *users.UserRecord, env *Env) (bool, error) {

	// Toggle the setting
	if user.LLMDisabled() {
		user.SetSetting(users.SettingLLMDisabled, ``)
		user.SendText(env.Translator.T(`AIEnabled`))
	} else {
		user.SetSetting(users.SettingLLMDisabled, `true`)
		user.SendText(env.Translator.T(`AIDisabled`))
	}

	mudlog.Info("ai-command", "userId", user.UserId, "llm_disabled", user.LLMDisabled())

	return true, nil
}

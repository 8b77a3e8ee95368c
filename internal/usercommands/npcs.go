package usercommands

import (
	"fmt"
	"strings"

	"github.com/GoMudEngine/npcchat/internal/language"
	"github.com/GoMudEngine/npcchat/internal/users"
)

// NPCs lists everyone a player could talk to
func NPCs(rest string, user *users.UserRecord, env *Env) (bool, error) {

	all := env.Mobs.GetAll()
	if len(all) == 0 {
		user.SendText(env.Translator.T(`NoNPCs`))
		return true, nil
	}

	noun := `npc`
	if len(all) != 1 {
		noun = language.Pluralize(noun)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<ansi fg="yellow">%d %s:</ansi>`, len(all), noun))

	for _, mob := range all {
		sb.WriteString(fmt.Sprintf("\n  <ansi fg=\"mobname\">%s</ansi> <ansi fg=\"black-bold\">%s</ansi>", mob.GetName(), mob.InstanceId))
		if mob.Spec.ChatEnabled() {
			if greeting := strings.TrimSpace(mob.Spec.LLMConfig.Greeting); greeting != `` {
				sb.WriteString(fmt.Sprintf(` - "<ansi fg="saytext">%s</ansi>"`, greeting))
			}
		}
	}

	user.SendText(sb.String())

	return true, nil
}

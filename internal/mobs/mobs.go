package mobs

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/GoMudEngine/npcchat/internal/conversations"
)

// MobSpec is one NPC definition, loaded from <DataFiles>/npcs/<zone>/<mobid>.yaml
type MobSpec struct {
	MobId       int                                  `yaml:"mobid"`
	Name        string                               `yaml:"name"`
	Zone        string                               `yaml:"zone"`
	Description string                               `yaml:"description,omitempty"`
	Aliases     []string                             `yaml:"aliases,omitempty"` // Other names players may use
	LLMConfig   *conversations.LLMConversationConfig `yaml:"llmconfig,omitempty"`
}

func (m MobSpec) Id() int {
	return m.MobId
}

func (m MobSpec) Validate() error {
	if m.MobId < 1 {
		return errors.New(fmt.Sprintf(`invalid mobid %d`, m.MobId))
	}
	if strings.TrimSpace(m.Name) == `` {
		return errors.New(fmt.Sprintf(`mob %d has no name`, m.MobId))
	}
	if strings.TrimSpace(m.Zone) == `` {
		return errors.New(fmt.Sprintf(`mob %d has no zone`, m.MobId))
	}
	return nil
}

func (m MobSpec) Filepath() string {
	return filepath.Join(ZoneNameSanitize(m.Zone), fmt.Sprintf(`%d.yaml`, m.MobId))
}

// ChatEnabled is true when the NPC has opted in to LLM replies
func (m MobSpec) ChatEnabled() bool {
	return m.LLMConfig != nil && m.LLMConfig.Enabled
}

func ZoneNameSanitize(zone string) string {
	// Convert spaces to underscores
	zone = strings.ReplaceAll(strings.TrimSpace(zone), " ", "_")
	// Lowercase it all
	return strings.ToLower(zone)
}

package mobs

import (
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/GoMudEngine/npcchat/internal/conversations"
	"github.com/GoMudEngine/npcchat/internal/fileloader"
	"github.com/GoMudEngine/npcchat/internal/mobinterfaces"
	"github.com/GoMudEngine/npcchat/internal/mudlog"
	"github.com/GoMudEngine/npcchat/internal/scripting"
)

// Mob is a spawned instance of a MobSpec
type Mob struct {
	InstanceId uuid.UUID
	Spec       MobSpec
	script     *scripting.ChatScript
}

func (m *Mob) GetInstanceId() uuid.UUID {
	return m.InstanceId
}

func (m *Mob) GetName() string {
	return m.Spec.Name
}

func (m *Mob) GetChatConfig() *conversations.LLMConversationConfig {
	return m.Spec.LLMConfig
}

func (m *Mob) OnChat(player scripting.PlayerInfo, text string) (bool, string, error) {
	if m.script == nil {
		return true, ``, nil
	}
	return m.script.OnChat(player, text)
}

// Registry holds every live mob instance.
type Registry struct {
	lock       sync.RWMutex
	byInstance map[uuid.UUID]*Mob
	byMobId    map[int]*Mob
}

func NewRegistry() *Registry {
	return &Registry{
		byInstance: map[uuid.UUID]*Mob{},
		byMobId:    map[int]*Mob{},
	}
}

// LoadSpecs reads every NPC definition under npcPath.
// Files that fail to load are reported in the error; the rest are still returned.
func LoadSpecs(npcPath string) (map[int]MobSpec, error) {
	return fileloader.LoadAllFlatFiles[int, MobSpec](npcPath, fileloader.FileTypeYaml)
}

// Sync makes the live roster match specs. New definitions spawn, missing ones despawn, and
// changed ones are updated in place so their conversations carry on.
// The despawned mobs are returned so the caller can announce them.
func (r *Registry) Sync(specs map[int]MobSpec) (spawned []*Mob, despawned []*Mob) {
	return r.sync(specs, true)
}

// Update is Sync without the despawning. Use it when specs may be missing definitions
// that failed to load, so those NPCs keep their instance and their conversations.
func (r *Registry) Update(specs map[int]MobSpec) (spawned []*Mob) {
	spawned, _ = r.sync(specs, false)
	return spawned
}

func (r *Registry) sync(specs map[int]MobSpec, despawnMissing bool) (spawned []*Mob, despawned []*Mob) {

	r.lock.Lock()
	defer r.lock.Unlock()

	if despawnMissing {
		for mobId, mob := range r.byMobId {
			if _, ok := specs[mobId]; ok {
				continue
			}
			delete(r.byMobId, mobId)
			delete(r.byInstance, mob.InstanceId)
			despawned = append(despawned, mob)
		}
	}

	for mobId, spec := range specs {
		if mob, ok := r.byMobId[mobId]; ok {
			updated := &Mob{
				InstanceId: mob.InstanceId,
				Spec:       spec,
				script:     mob.script,
			}
			if scriptSource(spec) != scriptSource(mob.Spec) {
				updated.script = compileScript(spec)
			}
			r.byMobId[mobId] = updated
			r.byInstance[updated.InstanceId] = updated
			continue
		}

		mob := &Mob{
			InstanceId: uuid.New(),
			Spec:       spec,
			script:     compileScript(spec),
		}
		r.byMobId[mobId] = mob
		r.byInstance[mob.InstanceId] = mob
		spawned = append(spawned, mob)
	}

	mudlog.Info("Mobs", "spawned", len(spawned), "despawned", len(despawned), "total", len(r.byInstance))

	return spawned, despawned
}

// Despawn removes one instance. Returns nil if it wasn't live.
func (r *Registry) Despawn(instanceId uuid.UUID) *Mob {
	r.lock.Lock()
	defer r.lock.Unlock()

	mob, ok := r.byInstance[instanceId]
	if !ok {
		return nil
	}
	delete(r.byInstance, instanceId)
	delete(r.byMobId, mob.Spec.MobId)
	return mob
}

func (r *Registry) GetInstance(instanceId uuid.UUID) *Mob {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.byInstance[instanceId]
}

// GetSubject satisfies mobinterfaces.GetInstanceFunc
func (r *Registry) GetSubject(instanceId uuid.UUID) mobinterfaces.Subject {
	if mob := r.GetInstance(instanceId); mob != nil {
		return mob
	}
	return nil
}

// GetAll returns every live mob sorted by name
func (r *Registry) GetAll() []*Mob {
	r.lock.RLock()
	all := make([]*Mob, 0, len(r.byInstance))
	for _, mob := range r.byInstance {
		all = append(all, mob)
	}
	r.lock.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].Spec.Name == all[j].Spec.Name {
			return all[i].Spec.MobId < all[j].Spec.MobId
		}
		return all[i].Spec.Name < all[j].Spec.Name
	})
	return all
}

func (r *Registry) Count() int {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return len(r.byInstance)
}

// FindByName returns mobs whose name matches exactly (ignoring case).
// If there are none, mobs with a matching alias or a name starting with name are returned.
func (r *Registry) FindByName(name string) []*Mob {
	nameLower := strings.ToLower(strings.TrimSpace(name))
	if nameLower == `` {
		return nil
	}

	all := r.GetAll()

	var matches []*Mob
	for _, mob := range all {
		if strings.ToLower(mob.Spec.Name) == nameLower {
			matches = append(matches, mob)
		}
	}
	if len(matches) > 0 {
		return matches
	}

	for _, mob := range all {
		if strings.HasPrefix(strings.ToLower(mob.Spec.Name), nameLower) {
			matches = append(matches, mob)
			continue
		}
		for _, alias := range mob.Spec.Aliases {
			if strings.ToLower(alias) == nameLower {
				matches = append(matches, mob)
				break
			}
		}
	}

	return matches
}

func scriptSource(spec MobSpec) string {
	if spec.LLMConfig == nil {
		return ``
	}
	return spec.LLMConfig.Script
}

func compileScript(spec MobSpec) *scripting.ChatScript {
	src := scriptSource(spec)
	if strings.TrimSpace(src) == `` {
		return nil
	}

	script, err := scripting.Compile(spec.Filepath(), src)
	if err != nil {
		mudlog.Error("Mobs", "mobId", spec.MobId, "script", spec.Filepath(), "error", err)
		return nil
	}
	return script
}

package scripting

import (
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"
	"github.com/pkg/errors"

	"github.com/GoMudEngine/npcchat/internal/mudlog"
)

const (
	chatFunctionName = `onChat`
	scriptTimeout    = 50 * time.Millisecond
)

var ErrNoChatFunction = errors.New(`script does not define onChat(player, text)`)

// PlayerInfo is what a script sees as its first argument
type PlayerInfo struct {
	Id   string `json:"id"`
	Name string `json:"name"`
}

// ChatScript is one NPC's compiled onChat hook.
// Scripts run one call at a time and are interrupted if they run too long.
type ChatScript struct {
	name   string
	lock   sync.Mutex
	vm     *goja.Runtime
	onChat goja.Callable
}

// Compile loads the source and finds its onChat function.
func Compile(name string, source string) (*ChatScript, error) {

	prog, err := goja.Compile(name, source, true)
	if err != nil {
		return nil, errors.Wrap(err, `compile `+name)
	}

	vm := goja.New()
	vm.SetFieldNameMapper(goja.TagFieldNameMapper(`json`, true))
	vm.Set(`log`, func(msg string) {
		mudlog.Info("Script", "name", name, "log", msg)
	})

	if _, err := runWithTimeout(vm, func() (goja.Value, error) { return vm.RunProgram(prog) }); err != nil {
		return nil, errors.Wrap(err, `run `+name)
	}

	fn, ok := goja.AssertFunction(vm.Get(chatFunctionName))
	if !ok {
		return nil, errors.Wrap(ErrNoChatFunction, name)
	}

	return &ChatScript{
		name:   name,
		vm:     vm,
		onChat: fn,
	}, nil
}

func (s *ChatScript) Name() string {
	return s.name
}

// OnChat asks the script about one chat turn.
// Returning false from the script vetoes the turn. Returning a string adds it to the
// system prompt for this turn only. Anything else lets the turn through unchanged.
// A script error or timeout lets the turn through and is returned for logging.
func (s *ChatScript) OnChat(player PlayerInfo, text string) (allow bool, extraPrompt string, err error) {

	s.lock.Lock()
	defer s.lock.Unlock()

	res, err := runWithTimeout(s.vm, func() (goja.Value, error) {
		return s.onChat(goja.Undefined(), s.vm.ToValue(player), s.vm.ToValue(text))
	})
	if err != nil {
		return true, ``, errors.Wrap(err, s.name+`.`+chatFunctionName)
	}

	if res == nil || goja.IsUndefined(res) || goja.IsNull(res) {
		return true, ``, nil
	}

	switch v := res.Export().(type) {
	case bool:
		return v, ``, nil
	case string:
		return true, strings.TrimSpace(v), nil
	}

	return true, ``, nil
}

func runWithTimeout(vm *goja.Runtime, fn func() (goja.Value, error)) (goja.Value, error) {

	timer := time.AfterFunc(scriptTimeout, func() {
		vm.Interrupt(`script timeout`)
	})
	defer func() {
		timer.Stop()
		vm.ClearInterrupt()
	}()

	return fn()
}

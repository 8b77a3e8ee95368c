package language

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pkg/errors"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v2"

	"github.com/GoMudEngine/npcchat/internal/mudlog"
)

const (
	MsgFallbackReply = `FallbackReply`
)

// English text for every message the server sends. Translation files only need to
// contain the ids they override.
var defaultMessages = map[string]string{
	MsgFallbackReply: `I'm having trouble responding right now.`,
	`AIEnabled`:      `<ansi fg="green">AI-powered features enabled!</ansi> NPCs will answer you in their own words again.`,
	`AIDisabled`:     `<ansi fg="yellow">AI-powered features disabled!</ansi> NPCs will no longer answer your chat.`,
	`NoSuchNPC`:      `There is nobody called "{{.Name}}" here.`,
	`NoNPCs`:         `There is nobody here to talk to.`,
	`TalkUsage`:      `Usage: talk <name> <message>`,
	`UnknownCommand`: `Unknown command "{{.Command}}". Try: talk, npcs, ai, status`,
	`YouSay`:         `You say to <ansi fg="mobname">{{.Name}}</ansi>, "<ansi fg="saytext">{{.Text}}</ansi>"`,
}

// Translator hands out localized text. It is safe for concurrent use.
type Translator struct {
	lock      sync.RWMutex
	bundle    *i18n.Bundle
	localizer *i18n.Localizer
	lang      string
}

func NewTranslator(lang string) *Translator {
	t := &Translator{}
	t.reset(lang)
	return t
}

func (t *Translator) reset(lang string) {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc(`yaml`, yaml.Unmarshal)

	t.bundle = bundle
	t.lang = lang
	t.localizer = i18n.NewLocalizer(bundle, lang, language.English.String())
}

// LoadDir reads every *.yaml translation file in dir, replacing anything loaded before.
// A missing directory is not an error. Files that fail to parse are skipped and reported together.
func (t *Translator) LoadDir(dir string) error {

	t.lock.Lock()
	defer t.lock.Unlock()

	t.reset(t.lang)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(err, `localize: `+dir)
	}

	var result *multierror.Error
	loaded := 0

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), `.yaml`) {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		if _, err := t.bundle.LoadMessageFile(path); err != nil {
			result = multierror.Append(result, errors.Wrap(err, `filepath: `+path))
			continue
		}
		loaded++
	}

	t.localizer = i18n.NewLocalizer(t.bundle, t.lang, language.English.String())

	mudlog.Info("Language", "loaded", loaded, "dir", dir, "language", t.lang)

	return result.ErrorOrNil()
}

// SetLanguage switches the preferred language. English is always the last resort.
func (t *Translator) SetLanguage(lang string) {
	t.lock.Lock()
	defer t.lock.Unlock()

	if lang == t.lang {
		return
	}
	t.lang = lang
	t.localizer = i18n.NewLocalizer(t.bundle, lang, language.English.String())
}

func (t *Translator) Language() string {
	t.lock.RLock()
	defer t.lock.RUnlock()
	return t.lang
}

// T returns the message in the preferred language, filling in templateData.
func (t *Translator) T(messageId string, templateData ...map[string]any) string {

	var data map[string]any
	if len(templateData) > 0 {
		data = templateData[0]
	}

	defaultMsg := &i18n.Message{ID: messageId, Other: defaultMessages[messageId]}
	if defaultMsg.Other == `` {
		defaultMsg.Other = messageId
	}

	t.lock.RLock()
	localizer := t.localizer
	t.lock.RUnlock()

	text, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:      messageId,
		DefaultMessage: defaultMsg,
		TemplateData:   data,
	})

	if err != nil {
		mudlog.Debug("Language", "message", messageId, "error", err)
		if text == `` {
			return defaultMsg.Other
		}
	}

	return text
}

// Fallback is the localized text used when an NPC can't come up with a reply
func (t *Translator) Fallback() string {
	return t.T(MsgFallbackReply)
}

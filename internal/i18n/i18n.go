// Package i18n resolves user-facing strings from the embedded yaml
// catalogs. Keys are the English source strings, so an untranslated
// language falls back to readable English.
package i18n

import (
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"github.com/iamwavecut/tubetool/resources"
)

var state = struct {
	mu           sync.RWMutex
	translations map[string]map[string]string
}{
	translations: make(map[string]map[string]string),
}

func load(lang string) map[string]string {
	translations := make(map[string]string)
	i18n, err := resources.FS.ReadFile(fmt.Sprintf("i18n/%s.yml", lang))
	if err != nil {
		log.WithError(err).Errorln("cant load i18n")
		return translations
	}
	if err := yaml.Unmarshal(i18n, &translations); err != nil {
		log.WithError(err).Errorln("cant unmarshal i18n")
	}
	return translations
}

// Get returns the lang translation for the English source string key,
// or the key itself when no catalog entry exists.
func Get(key, lang string) string {
	if "en" == lang {
		return key
	}
	state.mu.RLock()
	translations, loaded := state.translations[lang]
	state.mu.RUnlock()
	if !loaded {
		state.mu.Lock()
		translations, loaded = state.translations[lang]
		if !loaded {
			translations = load(lang)
			state.translations[lang] = translations
		}
		state.mu.Unlock()
	}
	if res, ok := translations[key]; ok {
		return res
	}
	log.Tracef(`no translation for key %q`, key)
	return key
}

// Package i18n хранит переводы интерфейса бота (en, ru) и выбирает язык
// по language_code из Telegram.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/language"

	"serotonyl.ru/fitmates-bot/internal/common"
)

// Поддерживаемые языки. Первый — язык по умолчанию.
const (
	LangEN = "en"
	LangRU = "ru"
)

//go:embed translations/*.json
var translationsFS embed.FS

var supported = []language.Tag{language.English, language.Russian}

// Bundle — набор переводов. После Load только читается.
type Bundle struct {
	messages map[string]map[string]string
	matcher  language.Matcher
}

// Load читает встроенные файлы переводов.
// Ключи всех языков должны совпадать с ключами английского.
func Load() (*Bundle, error) {
	b := &Bundle{
		messages: make(map[string]map[string]string, len(supported)),
		matcher:  language.NewMatcher(supported),
	}
	for _, lang := range Languages() {
		data, err := translationsFS.ReadFile("translations/" + lang + ".json")
		if err != nil {
			return nil, fmt.Errorf("чтение переводов %s: %w", lang, err)
		}
		m := make(map[string]string)
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("разбор переводов %s: %w", lang, err)
		}
		b.messages[lang] = m
	}

	for key := range b.messages[LangEN] {
		for _, lang := range Languages() {
			if _, ok := b.messages[lang][key]; !ok {
				return nil, fmt.Errorf("перевод %s: нет ключа %q", lang, key)
			}
		}
	}
	return b, nil
}

// Languages возвращает коды поддерживаемых языков.
func Languages() []string {
	return []string{LangEN, LangRU}
}

// Supported сообщает, есть ли переводы для lang.
func Supported(lang string) bool {
	return lang == LangEN || lang == LangRU
}

// Match подбирает ближайший поддерживаемый язык для language_code Telegram
// ("ru", "ru-RU", "uk", "en-GB", ""). Неизвестное → en.
func (b *Bundle) Match(code string) string {
	if code == "" {
		return LangEN
	}
	_, idx, conf := b.matcher.Match(language.Make(code))
	if conf == language.No {
		return LangEN
	}
	base, _ := supported[idx].Base()
	return base.String()
}

// T возвращает перевод key с подставленными параметрами.
// args — пары имя/значение: T("ru", "profile", "name", "Вася", "points", "10").
// Неизвестный язык заменяется на en, неизвестный ключ возвращается как есть.
func (b *Bundle) T(lang, key string, args ...string) string {
	msgs, ok := b.messages[lang]
	if !ok {
		msgs = b.messages[LangEN]
	}
	text, ok := msgs[key]
	if !ok {
		return key
	}
	if len(args) == 0 {
		return text
	}

	pairs := make([]string, 0, len(args))
	for i := 0; i+1 < len(args); i += 2 {
		pairs = append(pairs, "{"+args[i]+"}", args[i+1])
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

// Plural выбирает форму слова из ключа вида "одна|две|пять" для числа n.
func (b *Bundle) Plural(lang, key string, n int64) string {
	forms := strings.Split(b.T(lang, key), "|")
	if lang == LangRU && len(forms) == 3 {
		return common.PluralRU(n, [3]string{forms[0], forms[1], forms[2]})
	}
	if len(forms) >= 2 {
		return common.PluralEN(n, forms[0], forms[1])
	}
	return forms[0]
}

package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// QuestKind distinguishes the quest variants that can sit on a card.
type QuestKind string

const (
	// QuestItem is satisfied by acquiring an item of a given material.
	QuestItem QuestKind = "item"
	// QuestAdvancement is satisfied by unlocking an advancement key.
	QuestAdvancement QuestKind = "advancement"
)

// Enchantment is a required enchantment on an item quest.
type Enchantment struct {
	Name  string
	Level int
}

// Quest is one objective on a card. Quests are comparable values and can be
// used directly as map keys; two quests are equal when their kind, key and
// required enchantments match.
type Quest struct {
	Kind QuestKind
	Key  string

	// enchantments is a canonical "name:level,name:level" string sorted by
	// name so structurally equal quests compare equal with ==.
	enchantments string
}

// NewItemQuest builds an item quest. Duplicate enchantment names keep the
// highest level.
func NewItemQuest(material string, enchantments ...Enchantment) Quest {
	return Quest{
		Kind:         QuestItem,
		Key:          material,
		enchantments: canonicalEnchantments(enchantments),
	}
}

// NewAdvancementQuest builds an advancement quest for the given key.
func NewAdvancementQuest(key string) Quest {
	return Quest{Kind: QuestAdvancement, Key: key}
}

// Enchantments returns the required enchantments sorted by name.
func (q Quest) Enchantments() []Enchantment {
	if q.enchantments == "" {
		return nil
	}
	parts := strings.Split(q.enchantments, ",")
	out := make([]Enchantment, 0, len(parts))
	for _, part := range parts {
		name, level, _ := strings.Cut(part, ":")
		lvl, _ := strconv.Atoi(level)
		out = append(out, Enchantment{Name: name, Level: lvl})
	}
	return out
}

// IsZero reports whether q is the zero quest.
func (q Quest) IsZero() bool {
	return q.Kind == "" && q.Key == ""
}

// Satisfies reports whether an acquired quest fulfils the card quest q.
// Item quests match on material and require every enchantment of q at an
// equal or higher level on the acquired item; extra enchantments are fine.
func (q Quest) Satisfies(acquired Quest) bool {
	if q.Kind != acquired.Kind || q.Key != acquired.Key {
		return false
	}
	if q.enchantments == "" {
		return true
	}
	have := make(map[string]int)
	for _, e := range acquired.Enchantments() {
		have[e.Name] = e.Level
	}
	for _, want := range q.Enchantments() {
		if have[want.Name] < want.Level {
			return false
		}
	}
	return true
}

func (q Quest) String() string {
	if q.enchantments == "" {
		return fmt.Sprintf("%s:%s", q.Kind, q.Key)
	}
	return fmt.Sprintf("%s:%s[%s]", q.Kind, q.Key, q.enchantments)
}

// ValidEnchantmentName reports whether name can be stored on a quest. Names
// must be non-empty and free of the ':' and ',' separators.
func ValidEnchantmentName(name string) bool {
	return name != "" && !strings.ContainsAny(name, ":,")
}

// canonicalEnchantments drops entries whose name is not valid.
func canonicalEnchantments(list []Enchantment) string {
	if len(list) == 0 {
		return ""
	}
	levels := make(map[string]int, len(list))
	for _, e := range list {
		if !ValidEnchantmentName(e.Name) {
			continue
		}
		if cur, ok := levels[e.Name]; !ok || e.Level > cur {
			levels[e.Name] = e.Level
		}
	}
	names := make([]string, 0, len(levels))
	for name := range levels {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + ":" + strconv.Itoa(levels[name])
	}
	return strings.Join(parts, ",")
}

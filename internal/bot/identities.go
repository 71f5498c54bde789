package bot

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
)

type BotIdentity struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Level    string `json:"level"` // "good", "smart", "god"
}

// defaultNames seeds generated identities when no roster file is given.
var defaultNames = []string{
	"Steve", "Alex", "Herobrine", "Notch", "Jeb", "Dinnerbone",
	"Grumm", "Sparky", "Creeper", "Ender", "Blaze", "Piglin",
}

// LoadIdentities reads a JSON roster of bot profiles. Entries without a user
// id get a random one.
func LoadIdentities(path string) ([]BotIdentity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read bot identities: %w", err)
	}
	var identities []BotIdentity
	if err := json.Unmarshal(data, &identities); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bot identities: %w", err)
	}
	for i := range identities {
		if identities[i].UserID == "" {
			identities[i].UserID = uuid.NewString()
		}
		if identities[i].Username == "" {
			identities[i].Username = fmt.Sprintf("bot-%d", i+1)
		}
	}
	return identities, nil
}

// Roster returns n identities, cycling through pool and making names unique
// with a numeric suffix. An empty pool uses generated identities.
func Roster(n int, pool []BotIdentity) []BotIdentity {
	out := make([]BotIdentity, n)
	for i := range out {
		out[i] = GetBotIdentity(i, pool)
	}
	return out
}

// GetBotIdentity returns an identity for a bot by index (mod pool size).
func GetBotIdentity(index int, pool []BotIdentity) BotIdentity {
	if len(pool) == 0 {
		name := defaultNames[index%len(defaultNames)]
		if round := index / len(defaultNames); round > 0 {
			name = fmt.Sprintf("%s%d", name, round+1)
		}
		return BotIdentity{UserID: uuid.NewString(), Username: name}
	}
	identity := pool[index%len(pool)]
	if round := index / len(pool); round > 0 {
		identity.UserID = uuid.NewString()
		identity.Username = fmt.Sprintf("%s%d", identity.Username, round+1)
	}
	return identity
}

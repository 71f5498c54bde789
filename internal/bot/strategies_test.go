package bot

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"bingo/internal/domain"
)

func testView(t *testing.T, mode domain.GameMode) (View, *domain.Team, *domain.Team) {
	t.Helper()
	quests := make([]domain.Quest, 25)
	for i := range quests {
		quests[i] = domain.NewItemQuest(fmt.Sprintf("item_%02d", i))
	}
	card, err := domain.NewCard(5, quests)
	if err != nil {
		t.Fatalf("NewCard: %v", err)
	}
	reg := domain.NewTeamRegistry(rand.New(rand.NewSource(1)), 5)
	red, _ := reg.Create("Red")
	blue, _ := reg.Create("Blue")
	return View{Card: card, Mode: mode, Team: red, Teams: reg.Teams()}, red, blue
}

func complete(team *domain.Team, card *domain.Card, cells ...int) {
	for _, c := range cells {
		_ = team.Ledger().Complete(card.Cell(c), time.Now())
	}
}

func TestNewBrain(t *testing.T) {
	for _, level := range []BotLevel{BotLevelGood, BotLevelSmart, BotLevelGod} {
		if _, err := NewBrain(level, nil); err != nil {
			t.Fatalf("NewBrain(%s) error: %v", level, err)
		}
	}
	if _, err := NewBrain(BotLevel(99), nil); err == nil {
		t.Fatalf("unknown level should fail")
	}
}

func TestParseBotLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    BotLevel
		wantErr bool
	}{
		{"good", BotLevelGood, false},
		{"Smart", BotLevelSmart, false},
		{"GOD", BotLevelGod, false},
		{"grandmaster", 0, true},
	}
	for _, test := range tests {
		got, err := ParseBotLevel(test.in)
		if (err != nil) != test.wantErr || got != test.want {
			t.Fatalf("ParseBotLevel(%q) = %v, %v", test.in, got, err)
		}
	}
}

func TestSmartBot_FinishesNearestLine(t *testing.T) {
	view, red, _ := testView(t, domain.ModeStandard)
	// Four of row 2, two of column 0.
	complete(red, view.Card, 10, 11, 12, 13, 5, 15)

	brain, _ := NewBrain(BotLevelSmart, nil)
	got, ok := brain.Target(view)
	if !ok || got != view.Card.Cell(14) {
		t.Fatalf("Target() = %v, want the last cell of row 2", got)
	}
}

func TestSmartBot_SkipsClaimedInLocked(t *testing.T) {
	view, red, blue := testView(t, domain.ModeLocked)
	complete(blue, view.Card, 0, 1, 2)
	complete(red, view.Card, 3)

	brain, _ := NewBrain(BotLevelGod, nil)
	got, ok := brain.Target(view)
	if !ok {
		t.Fatalf("Target() found nothing")
	}
	if got == view.Card.Cell(0) || got == view.Card.Cell(1) || got == view.Card.Cell(2) || got == view.Card.Cell(3) {
		t.Fatalf("Target() = %v, a claimed or completed cell", got)
	}
}

func TestSelectTarget_NothingLeft(t *testing.T) {
	view, red, _ := testView(t, domain.ModeBlackout)
	for i := 0; i < view.Card.Len(); i++ {
		complete(red, view.Card, i)
	}
	if _, ok := selectTarget(view, smartRules(TuningFor(BotLevelSmart))); ok {
		t.Fatalf("a full card should leave nothing to hunt")
	}
	good := &GoodBot{Rand: rand.New(rand.NewSource(3))}
	if _, ok := good.Target(view); ok {
		t.Fatalf("GoodBot should find nothing on a full card")
	}
}

func TestGoodBot_KeepsTargetUntilDone(t *testing.T) {
	view, red, blue := testView(t, domain.ModeLocked)
	good := &GoodBot{Rand: rand.New(rand.NewSource(5))}

	first, ok := good.Target(view)
	if !ok {
		t.Fatalf("Target() found nothing")
	}
	if again, _ := good.Target(view); again != first {
		t.Fatalf("target changed from %v to %v without progress", first, again)
	}

	idx, _ := view.Card.IndexOf(first)
	complete(blue, view.Card, idx)
	next, _ := good.Target(view)
	if next == first {
		t.Fatalf("target claimed by another team in locked mode should be dropped")
	}

	idx, _ = view.Card.IndexOf(next)
	complete(red, view.Card, idx)
	if last, _ := good.Target(view); last == next {
		t.Fatalf("completed target should be dropped")
	}
}

func TestAgentAct(t *testing.T) {
	view, red, _ := testView(t, domain.ModeStandard)
	agent, err := NewAgent(BotIdentity{UserID: "bot-1", Username: "Steve"}, BotLevelSmart, rand.New(rand.NewSource(9)))
	if err != nil {
		t.Fatalf("NewAgent: %v", err)
	}
	if agent.Player().Name != "Steve" {
		t.Fatalf("Player() = %+v", agent.Player())
	}

	agent.Tuning = Tuning{FindChance: 1}
	if action := agent.Act(View{}); action.Kind != ActionIdle {
		t.Fatalf("agent without a team should idle")
	}
	action := agent.Act(view)
	if action.Kind != ActionAcquire || !view.Card.Contains(action.Quest) {
		t.Fatalf("Act() = %+v, want an acquisition on the card", action)
	}

	agent.Tuning = Tuning{}
	if action := agent.Act(view); action.Kind != ActionIdle {
		t.Fatalf("zero find chance should idle, got %+v", action)
	}

	complete(red, view.Card, 7)
	view.Robbers = true
	agent.Tuning = Tuning{LoseChance: 1}
	if action := agent.Act(view); action.Kind != ActionLose || action.Quest != view.Card.Cell(7) {
		t.Fatalf("Act() = %+v, want losing the completed cell", action)
	}
}

func TestRoster(t *testing.T) {
	roster := Roster(len(defaultNames)+2, nil)
	seenIDs := make(map[string]bool)
	seenNames := make(map[string]bool)
	for _, id := range roster {
		if seenIDs[id.UserID] || seenNames[id.Username] {
			t.Fatalf("duplicate identity %+v", id)
		}
		seenIDs[id.UserID] = true
		seenNames[id.Username] = true
	}

	pool := []BotIdentity{{UserID: "a", Username: "Ann"}}
	if got := Roster(2, pool); got[0].UserID != "a" || got[1].Username != "Ann2" || got[1].UserID == "a" {
		t.Fatalf("Roster(pool) = %+v", got)
	}
}

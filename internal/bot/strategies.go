package bot

import (
	"math/rand"
	"time"

	"bingo/internal/domain"
)

// GoodBot hunts a random open cell and sticks with it until it is done.
type GoodBot struct {
	Rand   *rand.Rand
	target domain.Quest
}

func (b *GoodBot) Target(view View) (domain.Quest, bool) {
	if b.Rand == nil {
		b.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if b.stillOpen(view) {
		return b.target, true
	}
	open := filterClaimed(view, openCandidates(view))
	if len(open) == 0 {
		b.target = domain.Quest{}
		return domain.Quest{}, false
	}
	b.target = open[b.Rand.Intn(len(open))].Quest
	return b.target, true
}

func (b *GoodBot) stillOpen(view View) bool {
	switch {
	case b.target.IsZero(), !view.Card.Contains(b.target), view.Team.Ledger().Has(b.target):
		return false
	case view.Mode == domain.ModeLocked:
		return !heldByOther(view, b.target)
	default:
		return true
	}
}

func filterClaimed(view View, cs []Candidate) []Candidate {
	ctx := &SelectionContext{View: view, Candidates: cs}
	(&SkipClaimedRule{}).Apply(ctx)
	return ctx.Candidates
}

// SmartBot scores every open cell through its rules and hunts the best one.
type SmartBot struct {
	Rules []SelectionRule
}

func (b *SmartBot) Target(view View) (domain.Quest, bool) {
	c, ok := selectTarget(view, b.Rules)
	return c.Quest, ok
}

func smartRules(t Tuning) []SelectionRule {
	return []SelectionRule{
		&SkipClaimedRule{},
		&FavorNearLineRule{Weight: t.LineWeight},
		&FavorUnclaimedRule{Weight: t.CountWeight},
	}
}

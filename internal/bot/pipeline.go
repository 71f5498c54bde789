package bot

import (
	"bingo/internal/domain"
)

// Candidate is one card cell a bot could hunt.
type Candidate struct {
	Index int
	Quest domain.Quest
	Score float64
}

// SelectionContext holds the state for the target selection pipeline.
type SelectionContext struct {
	View       View
	Candidates []Candidate
}

// SelectionRule represents a logic unit that can influence which target is chosen.
type SelectionRule interface {
	Name() string
	Apply(ctx *SelectionContext)
}

// openCandidates lists the cells the bot's team has not completed yet.
func openCandidates(view View) []Candidate {
	var out []Candidate
	for i, q := range view.Card.Quests() {
		if !view.Team.Ledger().Has(q) {
			out = append(out, Candidate{Index: i, Quest: q})
		}
	}
	return out
}

// selectTarget runs rules in order and returns the highest scored candidate.
// Ties go to the lowest cell index.
func selectTarget(view View, rules []SelectionRule) (Candidate, bool) {
	ctx := &SelectionContext{View: view, Candidates: openCandidates(view)}
	for _, rule := range rules {
		rule.Apply(ctx)
	}
	if len(ctx.Candidates) == 0 {
		return Candidate{}, false
	}
	best := ctx.Candidates[0]
	for _, c := range ctx.Candidates[1:] {
		if c.Score > best.Score {
			best = c
		}
	}
	return best, true
}

// SkipClaimedRule drops cells another team holds in locked mode, where they
// can no longer be scored.
type SkipClaimedRule struct{}

func (r *SkipClaimedRule) Name() string { return "SkipClaimed" }

func (r *SkipClaimedRule) Apply(ctx *SelectionContext) {
	if ctx.View.Mode != domain.ModeLocked {
		return
	}
	kept := ctx.Candidates[:0]
	for _, c := range ctx.Candidates {
		if !heldByOther(ctx.View, c.Quest) {
			kept = append(kept, c)
		}
	}
	ctx.Candidates = kept
}

// FavorNearLineRule prefers cells on the lines the team is closest to
// finishing. It only applies in standard mode.
type FavorNearLineRule struct {
	Weight float64
}

func (r *FavorNearLineRule) Name() string { return "FavorNearLine" }

func (r *FavorNearLineRule) Apply(ctx *SelectionContext) {
	if ctx.View.Mode != domain.ModeStandard || r.Weight == 0 {
		return
	}
	card := ctx.View.Card
	ledger := ctx.View.Team.Ledger()
	best := make(map[int]int, card.Len())
	for _, line := range card.Lines() {
		done := 0
		for _, i := range line {
			if ledger.Has(card.Cell(i)) {
				done++
			}
		}
		for _, i := range line {
			if done > best[i] {
				best[i] = done
			}
		}
	}
	for i := range ctx.Candidates {
		ctx.Candidates[i].Score += r.Weight * float64(best[ctx.Candidates[i].Index])
	}
}

// FavorUnclaimedRule prefers cells no other team has in count-based modes,
// so a locked race is not spent on contested cells.
type FavorUnclaimedRule struct {
	Weight float64
}

func (r *FavorUnclaimedRule) Name() string { return "FavorUnclaimed" }

func (r *FavorUnclaimedRule) Apply(ctx *SelectionContext) {
	if ctx.View.Mode == domain.ModeStandard || r.Weight == 0 {
		return
	}
	for i := range ctx.Candidates {
		if !heldByOther(ctx.View, ctx.Candidates[i].Quest) {
			ctx.Candidates[i].Score += r.Weight
		}
	}
}

func heldByOther(view View, q domain.Quest) bool {
	for _, t := range view.Teams {
		if t != view.Team && t.Ledger().Has(q) {
			return true
		}
	}
	return false
}

package domain

// LockedQuota is the number of completions a team needs to win in locked
// mode: floor(cells/teamCount)+1. It returns 0 when teamCount is not
// positive, meaning nobody can win.
func LockedQuota(cells, teamCount int) int {
	if teamCount <= 0 {
		return 0
	}
	return cells/teamCount + 1
}

// Evaluate returns the winners produced by team's ledger under mode. It has
// no side effects. Timed mode never yields incremental winners; see
// TimedWinners.
func Evaluate(mode GameMode, card *Card, team *Team, teamCount int) []*Team {
	if card == nil || team == nil {
		return nil
	}
	var won bool
	switch mode {
	case ModeStandard:
		won = hasCompleteLine(card, team.ledger)
	case ModeBlackout:
		won = team.ledger.CountOn(card) == card.Len()
	case ModeLocked:
		quota := LockedQuota(card.Len(), teamCount)
		won = quota > 0 && team.ledger.CountOn(card) >= quota
	}
	if !won {
		return nil
	}
	return []*Team{team}
}

// TimedWinners returns every team tied for the highest number of completed
// card quests. All teams are returned when nobody completed anything.
func TimedWinners(card *Card, teams []*Team) []*Team {
	best := -1
	var winners []*Team
	for _, t := range teams {
		n := t.ledger.CountOn(card)
		switch {
		case n > best:
			best = n
			winners = []*Team{t}
		case n == best:
			winners = append(winners, t)
		}
	}
	return winners
}

func hasCompleteLine(card *Card, ledger *Ledger) bool {
	for _, line := range card.Lines() {
		complete := true
		for _, cell := range line {
			if !ledger.Has(card.Cell(cell)) {
				complete = false
				break
			}
		}
		if complete {
			return true
		}
	}
	return false
}

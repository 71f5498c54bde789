package app

// RandomTeamNameFormat names the teams dealt in random team mode, numbered from 1.
const RandomTeamNameFormat = "Team %d"

// MinTeamsToStart is the number of non-empty teams a match needs to start.
const MinTeamsToStart = 1

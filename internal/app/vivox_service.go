package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/form3tech-oss/jwt-go"
	"github.com/google/uuid"
)

const (
	VivoxTokenActionLogin = "login"
	VivoxTokenActionJoin  = "join"

	// vivoxTokenTTL bounds how long a voice token may be presented.
	vivoxTokenTTL = 90 * time.Second
)

var ErrVivoxNotConfigured = errors.New("vivox config is incomplete")

// VivoxService issues Vivox access tokens so each bingo team can share a
// private voice channel for the length of a match.
type VivoxService struct {
	secret string
	issuer string
	domain string
	now    func() time.Time
}

func NewVivoxService(secret, issuer, domain string) *VivoxService {
	return &VivoxService{secret: secret, issuer: issuer, domain: domain, now: time.Now}
}

// TeamChannel names the voice channel of one team in one match. Vivox channel
// names only allow a restricted alphabet, so anything else becomes '_' in the
// readable part and a name-based UUID of the raw team name keeps distinct
// teams on distinct channels.
func TeamChannel(matchID, teamName string) string {
	clean := func(s string) string {
		return strings.Map(func(r rune) rune {
			switch {
			case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
				return r
			default:
				return '_'
			}
		}, s)
	}
	if i := strings.IndexByte(matchID, '.'); i >= 0 {
		matchID = matchID[:i]
	}
	return "bingo-" + clean(matchID) + "-" + clean(teamName) + "-" + uuid.NewSHA1(uuid.NameSpaceOID, []byte(teamName)).String()
}

// LoginToken lets user sign in to Vivox.
func (s *VivoxService) LoginToken(user string) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}
	return s.sign(user, VivoxTokenActionLogin, s.userURI(user))
}

// JoinToken lets user join a channel created by TeamChannel.
func (s *VivoxService) JoinToken(user, channel string) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}
	if channel == "" {
		return "", fmt.Errorf("channel name is required for join tokens")
	}
	return s.sign(user, VivoxTokenActionJoin, s.channelURI(channel))
}

func (s *VivoxService) ready() error {
	if s == nil || s.secret == "" || s.issuer == "" || s.domain == "" {
		return ErrVivoxNotConfigured
	}
	return nil
}

func (s *VivoxService) sign(user, action, target string) (string, error) {
	if user == "" {
		return "", fmt.Errorf("user is required")
	}
	now := s.now()
	claims := jwt.MapClaims{
		"iss": s.issuer,
		"sub": user,
		"exp": now.Add(vivoxTokenTTL).Unix(),
		"vxa": action,
		"vxi": uuid.NewString(),
		"f":   s.userURI(user),
		"t":   target,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.secret))
}

func (s *VivoxService) userURI(user string) string {
	return "sip:." + s.issuer + "." + user + ".@" + s.domain
}

func (s *VivoxService) channelURI(channel string) string {
	return "sip:confctl-g-" + channel + "@" + s.domain
}

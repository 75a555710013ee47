package ingest

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const (
	keyPrefix = "sessions/"
	keySuffix = ".json"
	keySep    = '_'
)

// KeyGenerator derives storage keys of the form
//
//	sessions/<escaped sessionId>_<commit unix millis>_<uuid v4>.json
//
// The session id is percent-encoded so it never contains the separator or a
// path delimiter. The uuid alone makes keys unique across identical session
// ids and identical milliseconds.
type KeyGenerator struct {
	clock    Clock
	newToken func() string
}

func NewKeyGenerator(clock Clock) *KeyGenerator {
	return &KeyGenerator{clock: clock, newToken: uuid.NewString}
}

func (g *KeyGenerator) Generate(sessionID string) string {
	var b strings.Builder
	b.Grow(len(keyPrefix) + 3*len(sessionID) + 64)
	b.WriteString(keyPrefix)
	b.WriteString(escapeSessionID(sessionID))
	b.WriteByte(keySep)
	b.WriteString(strconv.FormatInt(g.clock.Now().UnixMilli(), 10))
	b.WriteByte(keySep)
	b.WriteString(g.newToken())
	b.WriteString(keySuffix)
	return b.String()
}

// escapeSessionID keeps [A-Za-z0-9.~-] and percent-encodes every other byte.
// Input longer than MaxSessionIDLen is cut at a rune boundary.
func escapeSessionID(s string) string {
	if len(s) > MaxSessionIDLen {
		cut := MaxSessionIDLen
		for cut > 0 && !isRuneStart(s[cut]) {
			cut--
		}
		s = s[:cut]
	}

	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	case c == '-' || c == '.' || c == '~':
		return true
	}
	return false
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }

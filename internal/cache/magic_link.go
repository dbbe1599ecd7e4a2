package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"
)

// MagicLinkState is the server-side record behind an outstanding
// sign-in token. Tokens are single use: the first redemption consumes
// the record.
type MagicLinkState struct {
	Email     string `json:"email"`
	Name      string `json:"name"`
	CreatedAt int64  `json:"created_at"`
}

func magicLinkTokenKey(token string) string {
	return fmt.Sprintf("magiclink:token:%s", token)
}

// MagicLinkEmailCounterKey is the fixed-window counter behind the
// per-address request cap.
func MagicLinkEmailCounterKey(email string) string {
	return fmt.Sprintf("magiclink:email:%s", strings.ToLower(strings.TrimSpace(email)))
}

// MagicLinkIPCounterKey is the fixed-window counter behind the per-IP
// request cap.
func MagicLinkIPCounterKey(ip string) string {
	return fmt.Sprintf("magiclink:ip:%s", strings.TrimSpace(ip))
}

// memoryMagicLinks backs magic links when Redis is disabled so local
// development still signs in. Entries expire lazily on read.
var memoryMagicLinks = struct {
	sync.Mutex
	entries map[string]memoryMagicLinkEntry
}{entries: make(map[string]memoryMagicLinkEntry)}

type memoryMagicLinkEntry struct {
	payload   []byte
	expiresAt time.Time
}

// StoreMagicLink persists a token record with the configured TTL.
func StoreMagicLink(ctx context.Context, token string, state *MagicLinkState, ttl time.Duration) error {
	token = strings.TrimSpace(token)
	if token == "" || state == nil {
		return nil
	}
	if Enabled() {
		return SetJSON(ctx, magicLinkTokenKey(token), state, ttl)
	}
	payload, err := json.Marshal(state)
	if err != nil {
		return err
	}
	memoryMagicLinks.Lock()
	memoryMagicLinks.entries[token] = memoryMagicLinkEntry{payload: payload, expiresAt: time.Now().Add(ttl)}
	memoryMagicLinks.Unlock()
	return nil
}

// TakeMagicLink consumes a token record. The bool reports whether a
// live record existed; a second call with the same token misses.
func TakeMagicLink(ctx context.Context, token string) (*MagicLinkState, bool, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, false, nil
	}
	if Enabled() {
		raw, hit, err := TakeString(ctx, magicLinkTokenKey(token))
		if err != nil || !hit {
			return nil, false, err
		}
		var state MagicLinkState
		if err := json.Unmarshal([]byte(raw), &state); err != nil {
			return nil, false, err
		}
		return &state, true, nil
	}

	memoryMagicLinks.Lock()
	entry, ok := memoryMagicLinks.entries[token]
	if ok {
		delete(memoryMagicLinks.entries, token)
	}
	memoryMagicLinks.Unlock()
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false, nil
	}
	var state MagicLinkState
	if err := json.Unmarshal(entry.payload, &state); err != nil {
		return nil, false, err
	}
	return &state, true, nil
}

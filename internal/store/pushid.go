package store

import (
	"crypto/rand"
	"sync"
	"time"
)

// Push ids: 20 characters, 8 encoding the creation time in milliseconds and
// 12 of random entropy. Lexicographic order therefore matches allocation
// order, which is what gives message ids their sort-by-creation property.
// Ids created in the same millisecond increment the previous entropy so the
// order still holds.

const pushChars = "-0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ_abcdefghijklmnopqrstuvwxyz"

type pushIDGen struct {
	mu       sync.Mutex
	lastTime int64
	lastRand [12]byte
}

func (g *pushIDGen) next(now time.Time) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := now.UnixMilli()
	var id [20]byte

	for i := 7; i >= 0; i-- {
		id[i] = pushChars[ms%64]
		ms /= 64
	}

	if now.UnixMilli() == g.lastTime {
		// Same millisecond: bump the previous entropy instead of rolling
		// new bytes, so the id still sorts after the last one.
		for i := 11; i >= 0; i-- {
			g.lastRand[i]++
			if g.lastRand[i] < 64 {
				break
			}
			g.lastRand[i] = 0
		}
	} else {
		var buf [12]byte
		if _, err := rand.Read(buf[:]); err != nil {
			// crypto/rand never fails on supported platforms; fall back to
			// the clock so allocation still succeeds.
			for i := range buf {
				buf[i] = byte(now.UnixNano() >> (uint(i) * 5))
			}
		}
		for i := range buf {
			g.lastRand[i] = buf[i] % 64
		}
	}
	g.lastTime = now.UnixMilli()

	for i := 0; i < 12; i++ {
		id[8+i] = pushChars[g.lastRand[i]]
	}
	return string(id[:])
}

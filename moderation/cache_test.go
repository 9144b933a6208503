package moderation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"streamchat/domain"
)

func TestVerdictCache_TTL(t *testing.T) {
	req := require.New(t)

	// Given: a controllable clock
	base := time.Now().UTC()
	clock := base
	c := newVerdictCache(time.Minute, 10)
	c.now = func() time.Time { return clock }

	c.put("k", domain.Screening{Action: domain.RecommendFlag})

	// Then: a fresh entry hits
	got, ok := c.get("k")
	req.True(ok)
	req.Equal(domain.RecommendFlag, got.Action)

	// When: the TTL elapses
	clock = base.Add(time.Minute)
	_, ok = c.get("k")
	req.False(ok)

	// And: the expired entry was dropped, not resurrected
	_, ok = c.get("k")
	req.False(ok)
}

func TestVerdictCache_EvictsOldest(t *testing.T) {
	req := require.New(t)
	c := newVerdictCache(time.Hour, 2)

	c.put("a", domain.Screening{})
	c.put("b", domain.Screening{})
	c.put("c", domain.Screening{})

	// The size bound drops the oldest entry.
	_, ok := c.get("a")
	req.False(ok)
	_, ok = c.get("b")
	req.True(ok)
	_, ok = c.get("c")
	req.True(ok)
}

func TestVerdictCache_PutRefreshesPosition(t *testing.T) {
	req := require.New(t)
	c := newVerdictCache(time.Hour, 2)

	c.put("a", domain.Screening{})
	c.put("b", domain.Screening{})

	// When: "a" is re-put, it becomes the newest entry
	c.put("a", domain.Screening{Action: domain.RecommendReview})
	c.put("c", domain.Screening{})

	// Then: "b" is now the oldest and got evicted
	_, ok := c.get("b")
	req.False(ok)
	got, ok := c.get("a")
	req.True(ok)
	req.Equal(domain.RecommendReview, got.Action)
}

func TestContentHash_NormalizesWhitespaceAndCase(t *testing.T) {
	req := require.New(t)

	req.Equal(contentHash("Hello   World"), contentHash("hello world"))
	req.Equal(contentHash("  BUY NOW  "), contentHash("buy now"))
	req.NotEqual(contentHash("hello world"), contentHash("hello there"))
}

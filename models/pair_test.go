package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCanonicalPair(t *testing.T) {
	p := CanonicalPair("b", "a")
	require.Equal(t, Pair{Low: "a", High: "b"}, p)
	require.Equal(t, p, CanonicalPair("a", "b"))

	require.True(t, p.Contains("a"))
	require.False(t, p.Contains("c"))
	require.Equal(t, "b", p.Other("a"))
	require.Equal(t, "a", p.Other("b"))
	require.Equal(t, []string{"a", "b"}, p.Users())
}

func TestFriendshipAddressee(t *testing.T) {
	f := Friendship{UserLow: "a", UserHigh: "b", RequesterID: "b"}
	require.Equal(t, "a", f.AddresseeID())
	require.Equal(t, Pair{Low: "a", High: "b"}, f.Pair())
}

func TestMessageBefore(t *testing.T) {
	now := time.Now()
	first := Message{SentAt: now, Sequence: 1}
	second := Message{SentAt: now, Sequence: 2}
	earlier := Message{SentAt: now.Add(-time.Millisecond), Sequence: 3}

	require.True(t, first.Before(&second))
	require.False(t, second.Before(&first))
	require.True(t, earlier.Before(&first))
	require.False(t, first.Before(&first))
}

package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSuspensionActiveIsReadTime(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	u := User{}
	require.False(t, u.SuspensionActive(now))

	// open-ended suspension
	u = User{IsSuspended: true}
	require.True(t, u.SuspensionActive(now))

	future := now.Add(48 * time.Hour)
	u = User{IsSuspended: true, SuspensionExpires: &future}
	require.True(t, u.SuspensionActive(now))

	// an elapsed suspension stops counting without any write
	past := now.Add(-time.Minute)
	u = User{IsSuspended: true, SuspensionExpires: &past}
	require.False(t, u.SuspensionActive(now))
}

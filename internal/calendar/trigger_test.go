package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTriggerSpec_Validate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		spec    TriggerSpec
		wantErr bool
	}{
		{"interval ok", TriggerSpec{Name: "frequent", Kind: KindInterval, Every: 5 * time.Minute}, false},
		{"interval zero", TriggerSpec{Name: "frequent", Kind: KindInterval, Every: 0}, true},
		{"at ok", TriggerSpec{Name: "comprehensive", Kind: KindAt, At: []string{"10:00", "14:00"}}, false},
		{"at empty", TriggerSpec{Name: "comprehensive", Kind: KindAt}, true},
		{"at malformed", TriggerSpec{Name: "comprehensive", Kind: KindAt, At: []string{"25:99"}}, true},
		{"after close ok", TriggerSpec{Name: "daily", Kind: KindAfterClose, Offset: 30 * time.Minute}, false},
		{"after close negative", TriggerSpec{Name: "daily", Kind: KindAfterClose, Offset: -time.Minute}, true},
		{"no name", TriggerSpec{Kind: KindInterval, Every: time.Minute}, true},
		{"unknown kind", TriggerSpec{Name: "x", Kind: "bogus"}, true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := c.spec.Validate()
			if c.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTriggerSpec_NextFire_Interval(t *testing.T) {
	t.Parallel()
	sess := mustSession(t)
	spec := TriggerSpec{Name: "frequent", Kind: KindInterval, Every: 5 * time.Minute}

	t.Run("before open jumps to open", func(t *testing.T) {
		after, err := time.Parse(time.RFC3339, "2024-01-08T08:00:00+05:30")
		require.NoError(t, err)
		next, err := spec.NextFire(sess, after)
		require.NoError(t, err)
		assert.Equal(t, "09:15", next.Format("15:04"))
	})

	t.Run("mid-session advances to next tick", func(t *testing.T) {
		after, err := time.Parse(time.RFC3339, "2024-01-08T10:02:30+05:30")
		require.NoError(t, err)
		next, err := spec.NextFire(sess, after)
		require.NoError(t, err)
		assert.Equal(t, "10:05", next.Format("15:04"))
	})

	t.Run("after close rolls to next trading day open", func(t *testing.T) {
		after, err := time.Parse(time.RFC3339, "2024-01-08T16:00:00+05:30") // Monday after close
		require.NoError(t, err)
		next, err := spec.NextFire(sess, after)
		require.NoError(t, err)
		assert.Equal(t, time.Tuesday, next.Weekday())
		assert.Equal(t, "09:15", next.Format("15:04"))
	})

	t.Run("friday evening skips weekend", func(t *testing.T) {
		after, err := time.Parse(time.RFC3339, "2024-01-05T16:00:00+05:30") // Friday after close
		require.NoError(t, err)
		next, err := spec.NextFire(sess, after)
		require.NoError(t, err)
		assert.Equal(t, time.Monday, next.Weekday())
	})
}

func TestTriggerSpec_NextFire_At(t *testing.T) {
	t.Parallel()
	sess := mustSession(t)
	spec := TriggerSpec{Name: "comprehensive", Kind: KindAt, At: []string{"10:00", "14:00"}}

	after, err := time.Parse(time.RFC3339, "2024-01-08T09:00:00+05:30")
	require.NoError(t, err)
	next, err := spec.NextFire(sess, after)
	require.NoError(t, err)
	assert.Equal(t, "10:00", next.Format("15:04"))

	after2, err := time.Parse(time.RFC3339, "2024-01-08T10:00:00+05:30")
	require.NoError(t, err)
	next2, err := spec.NextFire(sess, after2)
	require.NoError(t, err)
	assert.Equal(t, "14:00", next2.Format("15:04"))

	after3, err := time.Parse(time.RFC3339, "2024-01-08T14:00:00+05:30")
	require.NoError(t, err)
	next3, err := spec.NextFire(sess, after3)
	require.NoError(t, err)
	assert.Equal(t, time.Tuesday, next3.Weekday())
	assert.Equal(t, "10:00", next3.Format("15:04"))
}

func TestTriggerSpec_NextFire_AfterClose(t *testing.T) {
	t.Parallel()
	sess := mustSession(t)
	spec := TriggerSpec{Name: "daily", Kind: KindAfterClose, Offset: 30 * time.Minute}

	after, err := time.Parse(time.RFC3339, "2024-01-08T09:00:00+05:30")
	require.NoError(t, err)
	next, err := spec.NextFire(sess, after)
	require.NoError(t, err)
	assert.Equal(t, "16:00", next.Format("15:04"))
}

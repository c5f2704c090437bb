package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestScheduler(t *testing.T) {
	t.Run("registered job starts idle", func(t *testing.T) {
		s := New()
		s.Register(Job{Name: "noop", Interval: time.Hour, Fn: func(context.Context) error { return nil }})

		res, err := s.Status("noop")
		require.NoError(t, err)
		require.Equal(t, StatusIdle, res.Status)
		require.Nil(t, res.LastRunAt)
	})

	t.Run("manual run records fulfill", func(t *testing.T) {
		s := New()
		ran := false
		s.Register(Job{Name: "ok", Interval: time.Hour, Fn: func(context.Context) error {
			ran = true
			return nil
		}})

		require.NoError(t, s.Run(context.Background(), "ok"))
		require.True(t, ran)

		res, err := s.Status("ok")
		require.NoError(t, err)
		require.Equal(t, StatusFulfill, res.Status)
		require.Empty(t, res.Message)
		require.NotNil(t, res.LastRunAt)
	})

	t.Run("failing run records reject with message", func(t *testing.T) {
		s := New()
		s.Register(Job{Name: "boom", Interval: time.Hour, Fn: func(context.Context) error {
			return errors.New("db gone")
		}})

		require.NoError(t, s.Run(context.Background(), "boom"))

		res, err := s.Status("boom")
		require.NoError(t, err)
		require.Equal(t, StatusReject, res.Status)
		require.Equal(t, "db gone", res.Message)
	})

	t.Run("unknown job name", func(t *testing.T) {
		s := New()
		require.Error(t, s.Run(context.Background(), "ghost"))

		_, err := s.Status("ghost")
		require.Error(t, err)
	})
}

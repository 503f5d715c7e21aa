package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadTranslation_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	want := Translation{
		ID:           "t-1",
		RequestID:    "req-1",
		Fingerprint:  "fp-1",
		IR:           `{"tables":["users"]}`,
		Outcome:      OutcomeRejected,
		ErrorCode:    "E201",
		ErrorMessage: "Unknown table: users",
	}
	seq, _, err := s.WriteTranslation(ctx, want)
	require.NoError(t, err)
	want.Seq = seq

	got, err := s.ReadTranslation(ctx, "t-1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestReadTranslation_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadTranslation(context.Background(), "missing")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestReadTranslations_Limit(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	for _, id := range []string{"t-1", "t-2", "t-3", "t-4"} {
		_, _, err := s.WriteTranslation(ctx, createTestTranslation(id, "fp"))
		require.NoError(t, err)
	}

	all, err := s.ReadTranslations(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"t-1", "t-2", "t-3", "t-4"}, ids(all))

	recent, err := s.ReadTranslations(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"t-3", "t-4"}, ids(recent))
}

func TestReadTranslations_EmptyIsNotNil(t *testing.T) {
	s := createTestStore(t)

	got, err := s.ReadTranslations(context.Background(), 0)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestReadByFingerprint(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	for _, tr := range []Translation{
		createTestTranslation("t-1", "fp-a"),
		createTestTranslation("t-2", "fp-b"),
		createTestTranslation("t-3", "fp-a"),
	} {
		_, _, err := s.WriteTranslation(ctx, tr)
		require.NoError(t, err)
	}

	got, err := s.ReadByFingerprint(ctx, "fp-a")
	require.NoError(t, err)
	assert.Equal(t, []string{"t-1", "t-3"}, ids(got))
}

func TestCountByOutcome(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	rejected := createTestTranslation("t-2", "fp")
	rejected.Outcome = OutcomeRejected
	rejected.SQL = ""
	for _, tr := range []Translation{createTestTranslation("t-1", "fp"), rejected, createTestTranslation("t-3", "fp")} {
		_, _, err := s.WriteTranslation(ctx, tr)
		require.NoError(t, err)
	}

	counts, err := s.CountByOutcome(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[Outcome]int{OutcomeCompiled: 2, OutcomeRejected: 1}, counts)
}

func ids(ts []Translation) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.ID
	}
	return out
}

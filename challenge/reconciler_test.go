package challenge_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/topcoder-platform/submissions-api-sub000/challenge"
	"github.com/topcoder-platform/submissions-api-sub000/internal/apperr"
	"github.com/topcoder-platform/submissions-api-sub000/internal/model"
)

const mappedScoreCard = "c56a4180-65aa-42ec-a945-5fd21dec0501"

type fakeGetter struct {
	byID  map[string]*challenge.Challenge
	err   error
	calls int
}

func (f *fakeGetter) GetChallenge(_ context.Context, id string) (*challenge.Challenge, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	ch, ok := f.byID[id]
	if !ok {
		return nil, challenge.ErrNotFound
	}
	return ch, nil
}

func TestReconciler_ResolveV5ID(t *testing.T) {
	getter := &fakeGetter{byID: map[string]*challenge.Challenge{
		"30054163": {ID: v5ID, LegacyID: 30054163},
	}}
	r := challenge.NewReconciler(getter, nil)
	ctx := context.Background()

	t.Run("uuid is returned unchanged without a lookup", func(t *testing.T) {
		id, err := r.ResolveV5ID(ctx, v5ID)
		require.NoError(t, err)
		assert.Equal(t, v5ID, id)
		assert.Zero(t, getter.calls)
	})

	t.Run("legacy id is idempotent", func(t *testing.T) {
		first, err := r.ResolveV5ID(ctx, "30054163")
		require.NoError(t, err)
		second, err := r.ResolveV5ID(ctx, "30054163")
		require.NoError(t, err)
		assert.Equal(t, v5ID, first)
		assert.Equal(t, first, second)
	})

	t.Run("unknown legacy id resolves to empty", func(t *testing.T) {
		id, err := r.ResolveV5ID(ctx, "999")
		require.NoError(t, err)
		assert.Empty(t, id)
	})

	t.Run("upstream failure is returned", func(t *testing.T) {
		failing := challenge.NewReconciler(&fakeGetter{err: errors.New("timeout")}, nil)
		_, err := failing.ResolveV5ID(ctx, "30054163")
		assert.Error(t, err)
	})
}

func TestAdjustChallengeIDFields(t *testing.T) {
	s := &model.Submission{ChallengeID: model.ID(v5ID), LegacyChallengeID: "30054163"}
	challenge.AdjustChallengeIDFields(s)
	assert.Equal(t, model.ID("30054163"), s.ChallengeID)
	assert.Equal(t, model.ID(v5ID), s.V5ChallengeID)

	plain := &model.Submission{ChallengeID: model.ID(v5ID)}
	challenge.AdjustChallengeIDFields(plain)
	assert.Equal(t, model.ID(v5ID), plain.ChallengeID)
	assert.Empty(t, plain.V5ChallengeID)
}

func TestReconciler_LegacyScoreCardID(t *testing.T) {
	r := challenge.NewReconciler(nil, map[string]int64{v5ID: 42})

	legacy, ok := r.LegacyScoreCardID(mappedScoreCard)
	assert.True(t, ok)
	assert.Equal(t, int64(30001363), legacy)

	legacy, ok = r.LegacyScoreCardID(v5ID)
	assert.True(t, ok)
	assert.Equal(t, int64(42), legacy)

	_, ok = r.LegacyScoreCardID("00000000-0000-4000-8000-000000000000")
	assert.False(t, ok)

	_, ok = r.LegacyScoreCardID("30001363")
	assert.False(t, ok)
}

func TestReconciler_TranslateScoreCard(t *testing.T) {
	r := challenge.NewReconciler(nil, nil)

	tests := []struct {
		name       string
		supplied   model.ID
		storedV5   string
		wantLegacy model.ID
		wantV5     string
		wantErr    string
	}{
		{
			name:       "v5 id is translated",
			supplied:   mappedScoreCard,
			wantLegacy: "30001363",
			wantV5:     mappedScoreCard,
		},
		{
			name:     "unmapped v5 id is rejected",
			supplied: "00000000-0000-4000-8000-000000000000",
			wantErr:  "Legacy scorecard id not found for the provided v5 scorecard id",
		},
		{
			name:       "legacy id passes through",
			supplied:   "30001000",
			wantLegacy: "30001000",
		},
		{
			name:       "matching legacy id keeps stored v5 id",
			supplied:   "30001363",
			storedV5:   mappedScoreCard,
			wantLegacy: "30001363",
			wantV5:     mappedScoreCard,
		},
		{
			name:     "different legacy id after translation is rejected",
			supplied: "30001000",
			storedV5: mappedScoreCard,
			wantErr:  "does not match",
		},
		{
			name:     "different v5 id after translation is rejected",
			supplied: mappedScoreCard,
			storedV5: v5ID,
			wantErr:  "does not match",
		},
		{
			name:     "non numeric legacy id is rejected",
			supplied: "abc",
			wantErr:  "scoreCardId",
		},
		{
			name:     "zero padded legacy id is rejected",
			supplied: "007",
			wantErr:  "scoreCardId",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			legacy, v5, err := r.TranslateScoreCard(tt.supplied, tt.storedV5)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLegacy, legacy)
			assert.Equal(t, tt.wantV5, v5)
		})
	}
}

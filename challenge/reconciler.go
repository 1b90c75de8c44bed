package challenge

import (
	"context"
	"errors"
	"maps"

	"github.com/topcoder-platform/submissions-api-sub000/internal/apperr"
	"github.com/topcoder-platform/submissions-api-sub000/internal/model"
)

// v5ToLegacyScoreCard maps v5 scorecard uuids to legacy numeric ids.
var v5ToLegacyScoreCard = map[string]int64{
	"c56a4180-65aa-42ec-a945-5fd21dec0501": 30001363,
}

// Getter fetches a challenge by v5 or legacy id. *Client satisfies it.
type Getter interface {
	GetChallenge(ctx context.Context, id string) (*Challenge, error)
}

// Reconciler translates between legacy and v5 challenge and scorecard ids.
type Reconciler struct {
	challenges Getter
	scoreCards map[string]int64
}

// NewReconciler creates a reconciler. extraScoreCards entries are added to,
// and override, the built-in scorecard table.
func NewReconciler(challenges Getter, extraScoreCards map[string]int64) *Reconciler {
	scoreCards := maps.Clone(v5ToLegacyScoreCard)
	maps.Copy(scoreCards, extraScoreCards)
	return &Reconciler{challenges: challenges, scoreCards: scoreCards}
}

// ResolveV5ID returns the v5 uuid for id. A uuid is returned unchanged; a
// legacy id is looked up and yields "" when no challenge matches.
func (r *Reconciler) ResolveV5ID(ctx context.Context, id string) (string, error) {
	if IsUUID(id) {
		return id, nil
	}
	ch, err := r.challenges.GetChallenge(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return ch.ID, nil
}

// AdjustChallengeIDFields rewrites a submission for API output: the legacy
// id moves into challengeId and the stored v5 id is exposed as v5ChallengeId.
func AdjustChallengeIDFields(s *model.Submission) {
	if s.ChallengeID == "" || s.LegacyChallengeID == "" {
		return
	}
	s.V5ChallengeID = s.ChallengeID
	s.ChallengeID = s.LegacyChallengeID
}

// LegacyScoreCardID maps a v5 scorecard uuid to its legacy id.
func (r *Reconciler) LegacyScoreCardID(scoreCardID string) (int64, bool) {
	if !IsUUID(scoreCardID) {
		return 0, false
	}
	legacy, ok := r.scoreCards[scoreCardID]
	return legacy, ok
}

// TranslateScoreCard normalises a caller supplied scorecard id into the
// stored legacy id and v5 id. storedV5 is the v5 id already on the record,
// if any; a supplied id that maps elsewhere is rejected.
func (r *Reconciler) TranslateScoreCard(supplied model.ID, storedV5 string) (model.ID, string, error) {
	id := supplied.String()

	if IsUUID(id) {
		legacy, ok := r.LegacyScoreCardID(id)
		if !ok {
			return "", "", apperr.Validation("Legacy scorecard id not found for the provided v5 scorecard id")
		}
		if storedV5 != "" && storedV5 != id {
			return "", "", divergentScoreCard()
		}
		return model.IDFromInt(legacy), id, nil
	}

	if !supplied.IsNumeric() {
		return "", "", apperr.Validation("scoreCardId must be a legacy numeric id or a v5 uuid")
	}
	if storedV5 != "" {
		if legacy, ok := r.scoreCards[storedV5]; !ok || model.IDFromInt(legacy) != supplied {
			return "", "", divergentScoreCard()
		}
	}
	return supplied, storedV5, nil
}

func divergentScoreCard() error {
	return apperr.Validation("The provided scoreCardId does not match the v5 scorecard id stored on this record")
}

package model_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/topcoder-platform/submissions-api-sub000/internal/model"
)

func TestID_UnmarshalNumberAndString(t *testing.T) {
	var body struct {
		A model.ID `json:"a"`
		B model.ID `json:"b"`
		C model.ID `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":30054740,"b":"c56a4180-65aa-42ec-a945-5fd21dec0501","c":null}`), &body))

	assert.Equal(t, model.ID("30054740"), body.A)
	assert.True(t, body.A.IsNumeric())
	assert.Equal(t, model.ID("c56a4180-65aa-42ec-a945-5fd21dec0501"), body.B)
	assert.False(t, body.B.IsNumeric())
	assert.Equal(t, model.ID(""), body.C)
}

func TestID_UnmarshalRejectsObjects(t *testing.T) {
	var id model.ID
	assert.Error(t, json.Unmarshal([]byte(`{"x":1}`), &id))
}

func TestID_MarshalKeepsNumbersNumeric(t *testing.T) {
	out, err := json.Marshal(map[string]model.ID{"legacy": "30054740", "v5": "abc"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"legacy":30054740,"v5":"abc"}`, string(out))
}

func TestID_NonCanonicalNumbersStayStrings(t *testing.T) {
	for _, raw := range []string{"007", "0030001363", "+5", "-0"} {
		t.Run(raw, func(t *testing.T) {
			id := model.ID(raw)
			assert.False(t, id.IsNumeric())

			out, err := json.Marshal(map[string]model.ID{"id": id})
			require.NoError(t, err)
			assert.True(t, json.Valid(out))

			var back map[string]model.ID
			require.NoError(t, json.Unmarshal(out, &back))
			assert.Equal(t, id, back["id"])
		})
	}
}

func TestID_ReviewWithPaddedScoreCardRoundTrips(t *testing.T) {
	var review model.Review
	require.NoError(t, json.Unmarshal([]byte(`{"scoreCardId":"007","submissionId":"0042"}`), &review))

	out, err := json.Marshal(review)
	require.NoError(t, err)

	var back model.Review
	require.NoError(t, json.Unmarshal(out, &back))
	assert.Equal(t, model.ID("007"), back.ScoreCardID)
}

func TestID_Int64(t *testing.T) {
	n, ok := model.ID("30001363").Int64()
	assert.True(t, ok)
	assert.Equal(t, int64(30001363), n)

	_, ok = model.ID("nope").Int64()
	assert.False(t, ok)
	_, ok = model.ID("0042").Int64()
	assert.False(t, ok)
	assert.Equal(t, model.ID("42"), model.IDFromInt(42))
}

func TestStripPrivateMetadata(t *testing.T) {
	meta := map[string]any{"private": map[string]any{"note": "x"}, "public": 1}

	stripped := model.StripPrivateMetadata(meta)

	assert.NotContains(t, stripped, "private")
	assert.Equal(t, 1, stripped["public"])
	assert.Contains(t, meta, "private", "input must not be mutated")
	assert.Nil(t, model.StripPrivateMetadata(nil))
}

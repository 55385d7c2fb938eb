package repository

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lbryio/comment-server/internal/model"
)

func TestMatch_PrefixForShortIdentifiers(t *testing.T) {
	assert.Equal(t, OpPrefix, Match(FieldClaimID, "abc").Op)
	assert.Equal(t, OpEq, Match(FieldClaimID, strings.Repeat("a", model.ClaimIDLength)).Op)
	assert.Equal(t, OpEq, Match(FieldChannelName, "@a").Op, "non-identifier fields never use prefix")
}

func TestQuery_Compile(t *testing.T) {
	q := Query{}.Where(
		Eq(FieldClaimID, "c"),
		Prefix(FieldCommentID, "ab_"),
		Range(FieldTimestamp, OpGte, int64(10)),
		In(FieldParentID, "p1", "p2"),
		IsNull(FieldChannelID),
	)

	where, args, err := q.compile()
	require.NoError(t, err)
	assert.Equal(t,
		` WHERE claim_id = ? AND comment_id LIKE ? ESCAPE '\' AND timestamp >= ? AND parent_id IN (?, ?) AND channel_id IS NULL`,
		where)
	assert.Equal(t, []any{"c", `ab\_%`, int64(10), "p1", "p2"}, args)
}

func TestQuery_CompileEmpty(t *testing.T) {
	where, args, err := Query{}.compile()
	require.NoError(t, err)
	assert.Empty(t, where)
	assert.Empty(t, args)

	where, _, err = Query{}.Where(In[string](FieldCommentID)).compile()
	require.NoError(t, err)
	assert.Equal(t, " WHERE 0", where)
}

func TestQuery_RejectsUnknownField(t *testing.T) {
	_, _, err := Query{}.Where(Eq(Field("1; DROP TABLE COMMENT"), 1)).compile()
	assert.ErrorIs(t, err, model.ErrInvalidParams)
}

func TestQuery_WhereDoesNotAlias(t *testing.T) {
	base := Query{Predicates: make([]Predicate, 1, 4)}
	a := base.Where(Eq(FieldClaimID, "a"))
	b := base.Where(Eq(FieldClaimID, "b"))
	assert.Equal(t, "a", a.Predicates[1].Value)
	assert.Equal(t, "b", b.Predicates[1].Value)
}

func TestParseConstraints(t *testing.T) {
	tests := []struct {
		name  string
		input map[string]any
		want  Predicate
	}{
		{"plural id list", map[string]any{"comment_ids": []any{"a", "b"}}, Predicate{Field: FieldCommentID, Op: OpIn, Values: []any{"a", "b"}}},
		{"short claim id", map[string]any{"claim_id": "ABC"}, Predicate{Field: FieldClaimID, Op: OpPrefix, Value: "abc"}},
		{"null parent", map[string]any{"parent_id": nil}, Predicate{Field: FieldParentID, Op: OpIsNull}},
		{"timestamp range", map[string]any{"timestamp": ">=100"}, Predicate{Field: FieldTimestamp, Op: OpGte, Value: int64(100)}},
		{"timestamp less", map[string]any{"timestamp": "<5"}, Predicate{Field: FieldTimestamp, Op: OpLt, Value: int64(5)}},
		{"timestamp number", map[string]any{"timestamp": float64(7)}, Predicate{Field: FieldTimestamp, Op: OpEq, Value: int64(7)}},
		{"anonymous only", map[string]any{"channel_is_null": true}, Predicate{Field: FieldChannelID, Op: OpIsNull}},
		{"attributed only", map[string]any{"channel_is_null": false}, Predicate{Field: FieldChannelID, Op: OpNotNull}},
		{"hidden", map[string]any{"is_hidden": true}, Predicate{Field: FieldIsHidden, Op: OpEq, Value: true}},
		{"channel name", map[string]any{"channel_name": "@bob"}, Predicate{Field: FieldChannelName, Op: OpEq, Value: "@bob"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			preds, err := ParseConstraints(tt.input)
			require.NoError(t, err)
			require.Len(t, preds, 1)
			assert.Equal(t, tt.want, preds[0])
		})
	}
}

func TestParseConstraints_Errors(t *testing.T) {
	inputs := []map[string]any{
		{"unknown": "x"},
		{"comment_ids": "not-a-list"},
		{"comment_ids": []any{1, 2}},
		{"timestamp": ">=abc"},
		{"is_hidden": "yes"},
		{"claim_id": 42},
	}
	for _, in := range inputs {
		_, err := ParseConstraints(in)
		assert.ErrorIs(t, err, model.ErrInvalidParams, "%v", in)
	}
}

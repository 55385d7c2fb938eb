package repository

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lbryio/comment-server/internal/model"
)

// Field is a filterable column of the COMMENTS_ON_CLAIMS view. Only the
// constants below ever reach generated SQL.
type Field string

const (
	FieldCommentID   Field = "comment_id"
	FieldClaimID     Field = "claim_id"
	FieldParentID    Field = "parent_id"
	FieldChannelID   Field = "channel_id"
	FieldChannelName Field = "channel_name"
	FieldChannelURL  Field = "channel_url"
	FieldSignature   Field = "signature"
	FieldSigningTS   Field = "signing_ts"
	FieldTimestamp   Field = "timestamp"
	FieldIsHidden    Field = "is_hidden"
	FieldBody        Field = "comment"
)

// canonical lengths of identifier fields; shorter values match by prefix
var identifierLengths = map[Field]int{
	FieldCommentID: model.CommentIDLength,
	FieldParentID:  model.CommentIDLength,
	FieldClaimID:   model.ClaimIDLength,
	FieldChannelID: model.ClaimIDLength,
	FieldSignature: model.SignatureLength,
}

var knownFields = map[Field]bool{
	FieldCommentID:   true,
	FieldClaimID:     true,
	FieldParentID:    true,
	FieldChannelID:   true,
	FieldChannelName: true,
	FieldChannelURL:  true,
	FieldSignature:   true,
	FieldSigningTS:   true,
	FieldTimestamp:   true,
	FieldIsHidden:    true,
	FieldBody:        true,
}

// Op is one of the supported predicate operators.
type Op int

const (
	OpEq Op = iota
	OpPrefix
	OpLt
	OpLte
	OpGt
	OpGte
	OpIn
	OpIsNull
	OpNotNull
)

var opSQL = map[Op]string{
	OpEq:  "=",
	OpLt:  "<",
	OpLte: "<=",
	OpGt:  ">",
	OpGte: ">=",
}

// Predicate is a single filter condition.
type Predicate struct {
	Field  Field
	Op     Op
	Value  any
	Values []any
}

func Eq(f Field, v any) Predicate { return Predicate{Field: f, Op: OpEq, Value: v} }

func Prefix(f Field, p string) Predicate { return Predicate{Field: f, Op: OpPrefix, Value: p} }

func IsNull(f Field) Predicate { return Predicate{Field: f, Op: OpIsNull} }

func NotNull(f Field) Predicate { return Predicate{Field: f, Op: OpNotNull} }

// Range compares f against v with one of OpLt, OpLte, OpGt, OpGte.
func Range(f Field, op Op, v any) Predicate { return Predicate{Field: f, Op: op, Value: v} }

// In matches any of values.
func In[T any](f Field, values ...T) Predicate {
	vs := make([]any, len(values))
	for i, v := range values {
		vs[i] = v
	}
	return Predicate{Field: f, Op: OpIn, Values: vs}
}

// Match is equality for full-length identifiers and prefix match for
// shorter ones.
func Match(f Field, v string) Predicate {
	if n, ok := identifierLengths[f]; ok && len(v) < n {
		return Prefix(f, v)
	}
	return Eq(f, v)
}

// Query is a filtered, optionally paginated read of the comments view.
// PageSize 0 means unpaginated.
type Query struct {
	Predicates []Predicate
	Page       int
	PageSize   int
}

// Where appends predicates and returns the query.
func (q Query) Where(p ...Predicate) Query {
	q.Predicates = append(append([]Predicate(nil), q.Predicates...), p...)
	return q
}

// compile renders the WHERE clause (empty when there are no predicates).
func (q Query) compile() (string, []any, error) {
	if len(q.Predicates) == 0 {
		return "", nil, nil
	}

	clauses := make([]string, 0, len(q.Predicates))
	var args []any
	for _, p := range q.Predicates {
		if !knownFields[p.Field] {
			return "", nil, fmt.Errorf("%w: unknown field %q", model.ErrInvalidParams, p.Field)
		}
		col := string(p.Field)

		switch p.Op {
		case OpEq, OpLt, OpLte, OpGt, OpGte:
			clauses = append(clauses, col+" "+opSQL[p.Op]+" ?")
			args = append(args, p.Value)
		case OpPrefix:
			s, ok := p.Value.(string)
			if !ok {
				return "", nil, fmt.Errorf("%w: prefix on %s must be a string", model.ErrInvalidParams, col)
			}
			clauses = append(clauses, col+` LIKE ? ESCAPE '\'`)
			args = append(args, escapeLike(s)+"%")
		case OpIn:
			if len(p.Values) == 0 {
				clauses = append(clauses, "0")
				continue
			}
			clauses = append(clauses, col+" IN ("+placeholders(len(p.Values))+")")
			args = append(args, p.Values...)
		case OpIsNull:
			clauses = append(clauses, col+" IS NULL")
		case OpNotNull:
			clauses = append(clauses, col+" IS NOT NULL")
		default:
			return "", nil, fmt.Errorf("%w: unsupported operator on %s", model.ErrInvalidParams, col)
		}
	}

	return " WHERE " + strings.Join(clauses, " AND "), args, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// groupable fields accept a pluralized key holding a list, e.g. comment_ids.
var groupable = map[string]Field{
	"comment_ids":   FieldCommentID,
	"claim_ids":     FieldClaimID,
	"parent_ids":    FieldParentID,
	"channel_ids":   FieldChannelID,
	"signatures":    FieldSignature,
	"channel_names": FieldChannelName,
	"channel_urls":  FieldChannelURL,
}

var rangeOps = []struct {
	prefix string
	op     Op
}{
	{">=", OpGte},
	{"<=", OpLte},
	{">", OpGt},
	{"<", OpLt},
}

// ParseConstraints turns keyword constraints into predicates:
//
//	comment_ids: [...]      set membership
//	claim_id: "abc"         prefix when shorter than 40, equality otherwise
//	parent_id: nil          IS NULL
//	timestamp: ">=1583272089" or 1583272089
//	channel_is_null: true
//	is_hidden: false
func ParseConstraints(constraints map[string]any) ([]Predicate, error) {
	preds := make([]Predicate, 0, len(constraints))
	for key, value := range constraints {
		if f, ok := groupable[key]; ok {
			values, err := toStrings(value)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %v", model.ErrInvalidParams, key, err)
			}
			preds = append(preds, In(f, values...))
			continue
		}

		f := Field(key)
		switch {
		case key == "channel_is_null":
			b, ok := value.(bool)
			if !ok {
				return nil, fmt.Errorf("%w: channel_is_null must be a boolean", model.ErrInvalidParams)
			}
			if b {
				preds = append(preds, IsNull(FieldChannelID))
			} else {
				preds = append(preds, NotNull(FieldChannelID))
			}
		case identifierLengths[f] > 0:
			switch v := value.(type) {
			case nil:
				preds = append(preds, IsNull(f))
			case string:
				preds = append(preds, Match(f, strings.ToLower(v)))
			default:
				return nil, fmt.Errorf("%w: %s must be a string", model.ErrInvalidParams, key)
			}
		case f == FieldTimestamp:
			p, err := parseTimestamp(value)
			if err != nil {
				return nil, err
			}
			preds = append(preds, p)
		case f == FieldIsHidden:
			b, ok := value.(bool)
			if !ok {
				return nil, fmt.Errorf("%w: is_hidden must be a boolean", model.ErrInvalidParams)
			}
			preds = append(preds, Eq(FieldIsHidden, b))
		case f == FieldSigningTS && value == nil:
			preds = append(preds, IsNull(FieldSigningTS))
		case knownFields[f]:
			s, ok := value.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s must be a string", model.ErrInvalidParams, key)
			}
			preds = append(preds, Eq(f, s))
		default:
			return nil, fmt.Errorf("%w: unknown constraint %q", model.ErrInvalidParams, key)
		}
	}
	return preds, nil
}

func parseTimestamp(value any) (Predicate, error) {
	switch v := value.(type) {
	case int:
		return Eq(FieldTimestamp, int64(v)), nil
	case int64:
		return Eq(FieldTimestamp, v), nil
	case float64:
		return Eq(FieldTimestamp, int64(v)), nil
	case string:
		op, rest := OpEq, v
		for _, r := range rangeOps {
			if strings.HasPrefix(v, r.prefix) {
				op, rest = r.op, v[len(r.prefix):]
				break
			}
		}
		ts, err := strconv.ParseInt(strings.TrimSpace(rest), 10, 64)
		if err != nil {
			return Predicate{}, fmt.Errorf("%w: invalid timestamp %q", model.ErrInvalidParams, v)
		}
		if op == OpEq {
			return Eq(FieldTimestamp, ts), nil
		}
		return Range(FieldTimestamp, op, ts), nil
	}
	return Predicate{}, fmt.Errorf("%w: invalid timestamp", model.ErrInvalidParams)
}

func toStrings(value any) ([]string, error) {
	switch v := value.(type) {
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected a list of strings")
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, fmt.Errorf("expected a list of strings")
}

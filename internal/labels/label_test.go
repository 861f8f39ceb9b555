package labels

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiffMissing(t *testing.T) {
	bug := Label{Name: "bug", Color: "d73a4a"}
	feature := Label{Name: "feature", Color: "a2eeef"}
	docs := Label{Name: "docs", Color: "0075ca"}

	t.Run("returns base labels absent from target in base order", func(t *testing.T) {
		missing := DiffMissing([]Label{bug, feature, docs}, []Label{feature})
		assert.Equal(t, []Label{bug, docs}, missing)
	})

	t.Run("empty base yields empty result", func(t *testing.T) {
		assert.Empty(t, DiffMissing(nil, []Label{bug}))
	})

	t.Run("empty target yields base", func(t *testing.T) {
		assert.Equal(t, []Label{bug, feature}, DiffMissing([]Label{bug, feature}, nil))
	})

	t.Run("diff against itself is empty", func(t *testing.T) {
		set := []Label{bug, feature, docs}
		assert.Empty(t, DiffMissing(set, set))
	})

	t.Run("compares by name only", func(t *testing.T) {
		recolored := Label{Name: "bug", Color: "000000", Description: "different"}
		assert.Empty(t, DiffMissing([]Label{bug}, []Label{recolored}))
	})

	t.Run("comparison is case sensitive", func(t *testing.T) {
		upper := Label{Name: "Bug", Color: "d73a4a"}
		assert.Equal(t, []Label{bug}, DiffMissing([]Label{bug}, []Label{upper}))
	})

	t.Run("result is a subsequence of base with no name in target", func(t *testing.T) {
		base := []Label{bug, feature, docs}
		target := []Label{docs, {Name: "extra", Color: "fff"}}
		missing := DiffMissing(base, target)

		targetNames := map[string]bool{}
		for _, l := range target {
			targetNames[l.Name] = true
		}
		for _, l := range missing {
			assert.False(t, targetNames[l.Name])
			assert.Contains(t, base, l)
		}
	})

	t.Run("does not modify its inputs", func(t *testing.T) {
		base := []Label{bug, feature}
		target := []Label{feature}
		DiffMissing(base, target)
		assert.Equal(t, []Label{bug, feature}, base)
		assert.Equal(t, []Label{feature}, target)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		label   Label
		wantErr bool
	}{
		{"six digit color", Label{Name: "bug", Color: "d73a4a"}, false},
		{"three digit color", Label{Name: "bug", Color: "FFF"}, false},
		{"empty description", Label{Name: "bug", Color: "000000", Description: ""}, false},
		{"description at limit", Label{Name: "bug", Color: "000000", Description: strings.Repeat("a", 100)}, false},
		{"description over limit", Label{Name: "bug", Color: "000000", Description: strings.Repeat("a", 101)}, true},
		{"multibyte description at limit", Label{Name: "bug", Color: "000000", Description: strings.Repeat("é", 100)}, false},
		{"multibyte description over limit", Label{Name: "bug", Color: "000000", Description: strings.Repeat("é", 101)}, true},
		{"emoji description", Label{Name: "bug", Color: "000000", Description: strings.Repeat("🐛", 60)}, false},
		{"non hex color", Label{Name: "bug", Color: "12G456"}, true},
		{"color with hash", Label{Name: "bug", Color: "#d73a4a"}, true},
		{"four digit color", Label{Name: "bug", Color: "abcd"}, true},
		{"empty color", Label{Name: "bug"}, true},
		{"empty name", Label{Name: "  ", Color: "fff"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.label)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidationFailed))
			assert.Equal(t, KindValidationFailed, KindOf(err))
		})
	}
}

func TestParseRepositoryRef(t *testing.T) {
	t.Run("parses owner and name", func(t *testing.T) {
		ref, err := ParseRepositoryRef(" acme/widgets ")
		require.NoError(t, err)
		assert.Equal(t, RepositoryRef{Owner: "acme", Name: "widgets"}, ref)
		assert.Equal(t, "acme/widgets", ref.String())
	})

	for _, input := range []string{"", "acme", "acme/", "/widgets", "acme/widgets/extra"} {
		t.Run("rejects "+input, func(t *testing.T) {
			_, err := ParseRepositoryRef(input)
			assert.Error(t, err)
		})
	}

	t.Run("parses lists skipping blanks", func(t *testing.T) {
		refs, err := ParseRepositoryRefs([]string{"acme/a", "", " ", "acme/b"})
		require.NoError(t, err)
		assert.Equal(t, []RepositoryRef{{"acme", "a"}, {"acme", "b"}}, refs)
	})
}

func TestError(t *testing.T) {
	t.Run("matches sentinel of its kind only", func(t *testing.T) {
		err := &Error{Kind: KindNotFound, Repo: RepositoryRef{"acme", "a"}, Label: "bug"}
		assert.True(t, errors.Is(err, ErrNotFound))
		assert.False(t, errors.Is(err, ErrAlreadyExists))
		assert.Equal(t, `not found in acme/a for label "bug"`, err.Error())
	})

	t.Run("unknown errors are remote unavailable", func(t *testing.T) {
		assert.Equal(t, KindRemoteUnavailable, KindOf(errors.New("boom")))
	})

	t.Run("batch unwraps to every member", func(t *testing.T) {
		err := batchError([]*Error{
			{Kind: KindAlreadyExists, Label: "bug"},
			{Kind: KindValidationFailed, Label: "docs"},
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrAlreadyExists))
		assert.True(t, errors.Is(err, ErrValidationFailed))
		assert.False(t, errors.Is(err, ErrNotFound))
		assert.Len(t, Failures(err), 2)
		assert.Contains(t, err.Error(), "2 label operations failed")
	})

	t.Run("empty batch is nil", func(t *testing.T) {
		assert.NoError(t, batchError(nil))
		assert.Nil(t, Failures(nil))
	})
}

package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talesmith/talesmith-server/internal/auth"
	"github.com/talesmith/talesmith-server/internal/domain"
	domainerrors "github.com/talesmith/talesmith-server/internal/errors"
)

var (
	author   = &auth.Principal{ID: "user-author"}
	stranger = &auth.Principal{ID: "user-stranger"}
)

func tale(public bool) *domain.Tale {
	return &domain.Tale{ID: "tale-1", AuthorID: author.ID, IsPublic: public, Title: "T"}
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name      string
		op        Operation
		public    bool
		principal *auth.Principal
		liked     bool
		wantCode  domainerrors.Code // empty means allowed
	}{
		{"read public anonymous", Read, true, nil, false, ""},
		{"read public stranger", Read, true, stranger, false, ""},
		{"read private author", Read, false, author, false, ""},
		{"read private stranger", Read, false, stranger, false, domainerrors.CodeAccessDenied},
		{"read private anonymous", Read, false, nil, false, domainerrors.CodeAccessDenied},

		{"update by author", Update, true, author, false, ""},
		{"update public by stranger", Update, true, stranger, false, domainerrors.CodeAccessDenied},
		{"update private by stranger", Update, false, stranger, false, domainerrors.CodeAccessDenied},
		{"update anonymous", Update, true, nil, false, domainerrors.CodeMissingCredential},
		{"delete by author", Delete, false, author, false, ""},
		{"delete public by stranger", Delete, true, stranger, false, domainerrors.CodeAccessDenied},
		{"delete private by stranger", Delete, false, stranger, false, domainerrors.CodeAccessDenied},

		{"like public", Like, true, stranger, false, ""},
		{"like own public", Like, true, author, false, ""},
		{"like private", Like, false, stranger, false, domainerrors.CodeAccessDenied},
		{"like private even by author", Like, false, author, false, domainerrors.CodeAccessDenied},
		{"like already liked", Like, true, stranger, true, domainerrors.CodeAlreadyLiked},
		{"like anonymous", Like, true, nil, false, domainerrors.CodeMissingCredential},

		{"unlike liked public", Unlike, true, stranger, true, ""},
		{"unlike liked private", Unlike, false, stranger, true, ""},
		{"unlike not liked", Unlike, true, stranger, false, domainerrors.CodeNotLiked},
		{"unlike anonymous", Unlike, true, nil, true, domainerrors.CodeMissingCredential},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Decide(tt.op, tale(tt.public), tt.principal, tt.liked)
			if tt.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, domainerrors.CodeOf(err))
		})
	}
}

func TestDecide_LikeErrorsAreDistinct(t *testing.T) {
	private := Decide(Like, tale(false), stranger, true)
	liked := Decide(Like, tale(true), stranger, true)

	assert.ErrorIs(t, private, domainerrors.ErrAccessDenied)
	assert.NotErrorIs(t, private, domainerrors.ErrAlreadyLiked)
	assert.ErrorIs(t, liked, domainerrors.ErrAlreadyLiked)
}

func TestDecide_UnknownOperation(t *testing.T) {
	err := Decide(Operation(42), tale(true), author, false)
	assert.ErrorIs(t, err, domainerrors.ErrAccessDenied)
	assert.Equal(t, "unknown", Operation(42).String())
}

func TestEnrich(t *testing.T) {
	anon := Enrich(tale(true), nil, true)
	assert.Nil(t, anon.IsLiked)
	assert.Equal(t, "tale-1", anon.ID)

	view := Enrich(tale(true), stranger, true)
	require.NotNil(t, view.IsLiked)
	assert.True(t, *view.IsLiked)

	view = Enrich(tale(true), stranger, false)
	require.NotNil(t, view.IsLiked)
	assert.False(t, *view.IsLiked)
}

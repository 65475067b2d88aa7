// Package domain contains the core entities of the Talesmith server.
package domain

// AgeRange is the target reader age band of a tale.
type AgeRange string

// Supported age bands.
const (
	AgeRange3to5  AgeRange = "3-5"
	AgeRange6to8  AgeRange = "6-8"
	AgeRange9to12 AgeRange = "9-12"
)

// AgeRanges lists every supported age band, youngest first.
var AgeRanges = []AgeRange{AgeRange3to5, AgeRange6to8, AgeRange9to12}

// Valid reports whether a is one of the supported age bands.
func (a AgeRange) Valid() bool {
	switch a {
	case AgeRange3to5, AgeRange6to8, AgeRange9to12:
		return true
	}
	return false
}

// Tale is a short story owned by its author.
//
// Likes is a denormalized counter. After every committed mutation it equals the
// number of users whose liked set contains the tale's ID; only the engagement
// transaction in the store may change it.
type Tale struct {
	Timestamps
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	AgeRange   AgeRange `json:"ageRange"`
	Topic      string   `json:"topic"`
	IsPublic   bool     `json:"isPublic"`
	Likes      int      `json:"likes"`
	AuthorID   string   `json:"authorId"`
	AuthorName string   `json:"authorName,omitempty"`
}

// IsAuthoredBy reports whether userID owns the tale.
func (t *Tale) IsAuthoredBy(userID string) bool {
	return userID != "" && t.AuthorID == userID
}

// TalePatch carries the author-mutable fields of a tale. Nil means unchanged.
type TalePatch struct {
	Title    *string
	Content  *string
	IsPublic *bool
}

// IsEmpty reports whether the patch changes nothing.
func (p TalePatch) IsEmpty() bool {
	return p.Title == nil && p.Content == nil && p.IsPublic == nil
}

// Apply copies the set fields of the patch onto the tale and touches it.
func (p TalePatch) Apply(t *Tale) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Content != nil {
		t.Content = *p.Content
	}
	if p.IsPublic != nil {
		t.IsPublic = *p.IsPublic
	}
	t.Touch()
}

// Visibility filters tales by their public flag.
type Visibility string

// Visibility filters.
const (
	VisibilityAll     Visibility = "all"
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// IsPublicFilter converts the visibility to an optional IsPublic filter value.
func (v Visibility) IsPublicFilter() *bool {
	switch v {
	case VisibilityPublic:
		b := true
		return &b
	case VisibilityPrivate:
		b := false
		return &b
	}
	return nil
}

// TaleSort orders tale listings.
type TaleSort string

// Sort orders.
const (
	SortNewest    TaleSort = "newest"
	SortOldest    TaleSort = "oldest"
	SortMostLiked TaleSort = "mostLiked"
)

// ParseTaleSort returns the sort order for s, defaulting to newest first.
func ParseTaleSort(s string) TaleSort {
	switch TaleSort(s) {
	case SortOldest:
		return SortOldest
	case SortMostLiked:
		return SortMostLiked
	}
	return SortNewest
}

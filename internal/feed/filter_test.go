package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/milhonews/milho/internal/types"
)

func samplePosts() []types.Post {
	return []types.Post{
		{ID: "1", Text: "I love React", AuthorHandle: "ana.bsky.social", AuthorDisplayName: "Ana"},
		{ID: "2", Text: "unrelated", AuthorHandle: "bruno.bsky.social", AuthorDisplayName: "Bruno"},
		{ID: "3", Text: "Go generics", AuthorHandle: "reactdev.bsky.social", AuthorDisplayName: "Carla"},
		{ID: "4", Text: "weekend plans", AuthorHandle: "dani.bsky.social", AuthorDisplayName: "Dani REACTS"},
	}
}

func ids(posts []types.Post) []string {
	out := make([]string, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.ID)
	}
	return out
}

func TestFilterEmptyQueryReturnsAll(t *testing.T) {
	posts := samplePosts()
	got := Filter("", posts)
	assert.Equal(t, posts, got)
}

func TestFilterByText(t *testing.T) {
	posts := []types.Post{
		{ID: "1", Text: "I love React"},
		{ID: "2", Text: "unrelated"},
	}
	assert.Equal(t, []string{"1"}, ids(Filter("react", posts)))
}

func TestFilterIsCaseInsensitive(t *testing.T) {
	posts := samplePosts()
	assert.Equal(t, Filter("react", posts), Filter("REACT", posts))
	assert.Equal(t, Filter("react", posts), Filter("ReAcT", posts))
}

func TestFilterMatchesAllThreeFields(t *testing.T) {
	got := Filter("react", samplePosts())
	// text, handle and display name matches, in input order
	assert.Equal(t, []string{"1", "3", "4"}, ids(got))
}

func TestFilterNoMatch(t *testing.T) {
	got := Filter("rust", samplePosts())
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	posts := samplePosts()
	before := append([]types.Post(nil), posts...)

	_ = Filter("bruno", posts)

	assert.Equal(t, before, posts)
}

func TestMatches(t *testing.T) {
	p := types.Post{Text: "Olá Mundo", AuthorHandle: "milho.dev", AuthorDisplayName: "Milho"}
	assert.True(t, Matches("MUNDO", p))
	assert.True(t, Matches("milho.dev", p))
	assert.True(t, Matches("", p))
	assert.False(t, Matches("news", p))
}

func TestSearchText(t *testing.T) {
	p := types.Post{Text: "Hello", AuthorHandle: "Ana.Bsky", AuthorDisplayName: "Ana B"}
	assert.Equal(t, "Hello\nAna B\nAna.Bsky", SearchText(p))
}

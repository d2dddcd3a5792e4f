package bot_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/florianilch/postbot/internal/bot"
	"github.com/florianilch/postbot/internal/social"
)

type fakeGenerator struct {
	prompts []string
	text    string
	err     error
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	return g.text, g.err
}

type quoteCall struct {
	text     string
	quotedID string
}

type fakePublisher struct {
	posts    []string
	quotes   []quoteCall
	timeline map[string][]social.Post
	err      error
}

func (p *fakePublisher) Post(_ context.Context, text string) (social.Post, error) {
	if p.err != nil {
		return social.Post{}, p.err
	}
	p.posts = append(p.posts, text)
	return social.Post{ID: "new-post", Text: text}, nil
}

func (p *fakePublisher) Quote(_ context.Context, text, quotedID string) (social.Post, error) {
	if p.err != nil {
		return social.Post{}, p.err
	}
	p.quotes = append(p.quotes, quoteCall{text: text, quotedID: quotedID})
	return social.Post{ID: "new-quote", Text: text}, nil
}

func (p *fakePublisher) UserPosts(_ context.Context, userID string, _ int) ([]social.Post, error) {
	return p.timeline[userID], nil
}

func first(int) int { return 0 }

func last(n int) int { return n - 1 }

func TestNew_Validation(t *testing.T) {
	_, err := bot.New(nil, &fakeGenerator{})
	assert.Error(t, err)

	_, err = bot.New(&fakePublisher{}, nil)
	assert.Error(t, err)
}

func TestPostGenerated(t *testing.T) {
	pub := &fakePublisher{}
	gen := &fakeGenerator{text: "  \"Shipping beats polishing.\"\n"}

	b, err := bot.New(pub, gen, bot.WithTopics([]string{"first topic", "second topic"}), bot.WithPicker(last))
	require.NoError(t, err)

	post, err := b.PostGenerated(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "new-post", post.ID)

	require.Len(t, gen.prompts, 1)
	assert.Equal(t, "Write an engaging and authentic tweet about: second topic. reply the tweet only without any hashtags", gen.prompts[0])
	assert.Equal(t, []string{"Shipping beats polishing."}, pub.posts)
}

func TestPostGenerated_DefaultTopics(t *testing.T) {
	gen := &fakeGenerator{text: "hello"}
	b, err := bot.New(&fakePublisher{}, gen, bot.WithTopics(nil), bot.WithPicker(first))
	require.NoError(t, err)

	_, err = b.PostGenerated(context.Background())
	require.NoError(t, err)
	assert.Contains(t, gen.prompts[0], bot.DefaultTopics[0])
}

func TestPostGenerated_Errors(t *testing.T) {
	errGenerate := errors.New("model offline")
	errPublish := errors.New("rate limited")

	tests := []struct {
		name    string
		gen     *fakeGenerator
		pub     *fakePublisher
		wantErr error
	}{
		{name: "generator fails", gen: &fakeGenerator{err: errGenerate}, pub: &fakePublisher{}, wantErr: errGenerate},
		{name: "blank generation", gen: &fakeGenerator{text: "   "}, pub: &fakePublisher{}, wantErr: bot.ErrEmptyPost},
		{name: "publisher fails", gen: &fakeGenerator{text: "hi"}, pub: &fakePublisher{err: errPublish}, wantErr: errPublish},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := bot.New(tt.pub, tt.gen)
			require.NoError(t, err)

			_, err = b.PostGenerated(context.Background())
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, tt.pub.posts)
		})
	}
}

func TestPostText(t *testing.T) {
	pub := &fakePublisher{}
	b, err := bot.New(pub, &fakeGenerator{})
	require.NoError(t, err)

	_, err = b.PostText(context.Background(), "  Hello, World!  ")
	require.NoError(t, err)
	assert.Equal(t, []string{"Hello, World!"}, pub.posts)

	_, err = b.PostText(context.Background(), "")
	assert.ErrorIs(t, err, bot.ErrEmptyPost)
}

func TestQuoteLatest(t *testing.T) {
	pub := &fakePublisher{timeline: map[string][]social.Post{
		"creator-b": {
			{ID: "900", Text: "Ship it on Friday"},
			{ID: "899", Text: "older"},
		},
	}}
	gen := &fakeGenerator{text: "Bold move."}

	b, err := bot.New(pub, gen, bot.WithCreators([]string{"creator-a", "creator-b"}), bot.WithPicker(last))
	require.NoError(t, err)

	post, err := b.QuoteLatest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "new-quote", post.ID)

	assert.Equal(t, []quoteCall{{text: "Bold move.", quotedID: "900"}}, pub.quotes)
	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], `"Ship it on Friday"`)
}

func TestQuoteLatest_Errors(t *testing.T) {
	t.Run("no creators", func(t *testing.T) {
		b, err := bot.New(&fakePublisher{}, &fakeGenerator{text: "x"})
		require.NoError(t, err)

		_, err = b.QuoteLatest(context.Background())
		assert.ErrorIs(t, err, bot.ErrNoCreators)
	})

	t.Run("empty timeline", func(t *testing.T) {
		pub := &fakePublisher{}
		gen := &fakeGenerator{text: "x"}
		b, err := bot.New(pub, gen, bot.WithCreators([]string{"quiet"}))
		require.NoError(t, err)

		_, err = b.QuoteLatest(context.Background())
		assert.ErrorIs(t, err, bot.ErrNoPosts)
		assert.Empty(t, gen.prompts)
		assert.Empty(t, pub.quotes)
	})
}

func TestFit(t *testing.T) {
	long := strings.Repeat("word ", 100)

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "short", input: "hello", want: "hello"},
		{name: "whitespace", input: "\n  hello \t", want: "hello"},
		{name: "wrapping quotes", input: `"hello"`, want: "hello"},
		{name: "inner quotes kept", input: `say "hi" now`, want: `say "hi" now`},
		{name: "exactly max", input: strings.Repeat("a", bot.MaxPostLength), want: strings.Repeat("a", bot.MaxPostLength)},
		{name: "no spaces", input: strings.Repeat("a", 300), want: strings.Repeat("a", bot.MaxPostLength)},
		{name: "word boundary", input: long, want: strings.TrimSpace(long[:280])},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, bot.Fit(tt.input))
		})
	}
}

func TestFit_CountsCharactersNotBytes(t *testing.T) {
	input := strings.Repeat("é", 300)
	got := bot.Fit(input)
	assert.Equal(t, bot.MaxPostLength, utf8.RuneCountInString(got))
}

package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/florianilch/postbot/internal/llm"
	"github.com/florianilch/postbot/internal/social"
)

// MaxPostLength is the longest post X accepts, in characters.
const MaxPostLength = 280

// timelineDepth is how many recent posts are fetched when looking for one to quote.
const timelineDepth = 5

var (
	// ErrEmptyPost is returned when there is nothing to post.
	ErrEmptyPost = errors.New("post text is empty")

	// ErrNoCreators is returned by QuoteLatest when no creators are configured.
	ErrNoCreators = errors.New("no favourite creators configured")

	// ErrNoPosts is returned by QuoteLatest when the chosen creator has no posts.
	ErrNoPosts = errors.New("creator has no posts")
)

// Publisher is the slice of the social API the bot uses.
type Publisher interface {
	Post(ctx context.Context, text string) (social.Post, error)
	Quote(ctx context.Context, text, quotedID string) (social.Post, error)
	UserPosts(ctx context.Context, userID string, limit int) ([]social.Post, error)
}

// Compile-time check to ensure social.Client implements Publisher
var _ Publisher = (*social.Client)(nil)

// Option configures a Bot.
type Option func(*Bot)

// WithTopics replaces the topics generated posts are written about.
func WithTopics(topics []string) Option {
	return func(b *Bot) {
		if len(topics) > 0 {
			b.topics = topics
		}
	}
}

// WithCreators sets the user IDs whose posts get quoted.
func WithCreators(userIDs []string) Option {
	return func(b *Bot) {
		b.creators = userIDs
	}
}

// WithPicker replaces the random index picker. pick(n) must return a value in [0, n).
func WithPicker(pick func(n int) int) Option {
	return func(b *Bot) {
		b.pick = pick
	}
}

// Bot composes and publishes posts.
type Bot struct {
	publisher Publisher
	generator llm.Generator
	topics    []string
	creators  []string
	pick      func(n int) int
}

// New creates a Bot.
func New(publisher Publisher, generator llm.Generator, opts ...Option) (*Bot, error) {
	if publisher == nil {
		return nil, fmt.Errorf("missing publisher")
	}
	if generator == nil {
		return nil, fmt.Errorf("missing text generator")
	}

	b := &Bot{
		publisher: publisher,
		generator: generator,
		topics:    DefaultTopics,
		pick:      rand.IntN,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// PostText publishes text as is, trimmed to fit a post.
func (b *Bot) PostText(ctx context.Context, text string) (social.Post, error) {
	text = Fit(text)
	if text == "" {
		return social.Post{}, ErrEmptyPost
	}

	post, err := b.publisher.Post(ctx, text)
	if err != nil {
		return social.Post{}, err
	}

	slog.InfoContext(ctx, "posted", "post_id", post.ID)
	return post, nil
}

// PostGenerated writes a post about a random topic and publishes it.
func (b *Bot) PostGenerated(ctx context.Context) (social.Post, error) {
	topic := b.topics[b.pick(len(b.topics))]

	text, err := b.generator.Generate(ctx, postPrompt(topic))
	if err != nil {
		return social.Post{}, fmt.Errorf("generating post: %w", err)
	}

	slog.DebugContext(ctx, "generated post", "topic", topic)
	return b.PostText(ctx, text)
}

// QuoteLatest quotes the newest post of a random favourite creator with generated commentary.
func (b *Bot) QuoteLatest(ctx context.Context) (social.Post, error) {
	if len(b.creators) == 0 {
		return social.Post{}, ErrNoCreators
	}
	creator := b.creators[b.pick(len(b.creators))]

	posts, err := b.publisher.UserPosts(ctx, creator, timelineDepth)
	if err != nil {
		return social.Post{}, fmt.Errorf("fetching latest posts: %w", err)
	}
	if len(posts) == 0 {
		return social.Post{}, fmt.Errorf("%w: %s", ErrNoPosts, creator)
	}
	latest := posts[0]

	text, err := b.generator.Generate(ctx, quotePrompt(latest.Text))
	if err != nil {
		return social.Post{}, fmt.Errorf("generating quote: %w", err)
	}
	text = Fit(text)
	if text == "" {
		return social.Post{}, ErrEmptyPost
	}

	post, err := b.publisher.Quote(ctx, text, latest.ID)
	if err != nil {
		return social.Post{}, err
	}

	slog.InfoContext(ctx, "quoted", "post_id", post.ID, "quoted_id", latest.ID, "creator", creator)
	return post, nil
}

func postPrompt(topic string) string {
	return fmt.Sprintf("Write an engaging and authentic tweet about: %s. reply the tweet only without any hashtags", topic)
}

func quotePrompt(quoted string) string {
	return fmt.Sprintf("Write an engaging and authentic quote tweet reacting to this tweet: %q. reply the tweet only without any hashtags", quoted)
}

// Fit trims whitespace and wrapping quotes from text and cuts it to
// MaxPostLength characters, preferring a word boundary.
func Fit(text string) string {
	text = strings.TrimSpace(text)
	if len(text) >= 2 && strings.HasPrefix(text, `"`) && strings.HasSuffix(text, `"`) {
		text = strings.TrimSpace(text[1 : len(text)-1])
	}
	if utf8.RuneCountInString(text) <= MaxPostLength {
		return text
	}

	runes := []rune(text)[:MaxPostLength]
	cut := len(runes)
	for i := len(runes) - 1; i > MaxPostLength*3/4; i-- {
		if unicode.IsSpace(runes[i]) {
			cut = i
			break
		}
	}
	return strings.TrimRightFunc(string(runes[:cut]), unicode.IsSpace)
}

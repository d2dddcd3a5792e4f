package social_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/florianilch/postbot/internal/social"
)

var errNoToken = errors.New("not logged in")

type staticTokens string

func (s staticTokens) TokenSource(context.Context) oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: string(s), TokenType: "Bearer"})
}

type failingTokens struct{}

func (failingTokens) TokenSource(context.Context) oauth2.TokenSource {
	return failingSource{}
}

type failingSource struct{}

func (failingSource) Token() (*oauth2.Token, error) { return nil, errNoToken }

func newTestClient(t *testing.T, handler http.HandlerFunc) *social.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := social.New(staticTokens("access-1"), social.WithBaseURL(server.URL+"/"))
	require.NoError(t, err)
	return client
}

func TestNew_RequiresTokens(t *testing.T) {
	_, err := social.New(nil)
	assert.Error(t, err)
}

func TestMe(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/2/users/me", r.URL.Path)
		assert.Equal(t, "Bearer access-1", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"id":"42","name":"Post Bot","username":"postbot"}}`))
	})

	user, err := client.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, social.User{ID: "42", Name: "Post Bot", Username: "postbot"}, user)
}

func TestPostAndQuote(t *testing.T) {
	tests := []struct {
		name      string
		call      func(*social.Client) (social.Post, error)
		wantBody  map[string]string
		wantError bool
	}{
		{
			name:     "post",
			call:     func(c *social.Client) (social.Post, error) { return c.Post(context.Background(), "hello") },
			wantBody: map[string]string{"text": "hello"},
		},
		{
			name:     "quote",
			call:     func(c *social.Client) (social.Post, error) { return c.Quote(context.Background(), "so true", "1001") },
			wantBody: map[string]string{"text": "so true", "quote_tweet_id": "1001"},
		},
		{
			name:      "quote without id",
			call:      func(c *social.Client) (social.Post, error) { return c.Quote(context.Background(), "so true", "") },
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotBody map[string]string
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/2/tweets", r.URL.Path)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
				require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

				w.WriteHeader(http.StatusCreated)
				_, _ = w.Write([]byte(`{"data":{"id":"2002","text":"posted"}}`))
			})

			post, err := tt.call(client)
			if tt.wantError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, social.Post{ID: "2002", Text: "posted"}, post)
			assert.Equal(t, tt.wantBody, gotBody)
		})
	}
}

func TestUserPosts(t *testing.T) {
	tests := []struct {
		name      string
		limit     int
		wantLimit string
	}{
		{name: "in range", limit: 10, wantLimit: "10"},
		{name: "below minimum", limit: 1, wantLimit: "5"},
		{name: "above maximum", limit: 500, wantLimit: "100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/2/users/44196397/tweets", r.URL.Path)
				assert.Equal(t, tt.wantLimit, r.URL.Query().Get("max_results"))
				_, _ = w.Write([]byte(`{"data":[{"id":"3","text":"newest"},{"id":"2","text":"older"}],"meta":{"result_count":2}}`))
			})

			posts, err := client.UserPosts(context.Background(), "44196397", tt.limit)
			require.NoError(t, err)
			require.Len(t, posts, 2)
			assert.Equal(t, "3", posts[0].ID)
		})
	}
}

func TestUserPosts_EmptyTimeline(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"meta":{"result_count":0}}`))
	})

	posts, err := client.UserPosts(context.Background(), "1", 5)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestAPIError(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantDetail string
	}{
		{
			name:       "problem details",
			status:     http.StatusForbidden,
			body:       `{"title":"Forbidden","detail":"You are not permitted to perform this action.","status":403}`,
			wantDetail: "You are not permitted to perform this action.",
		},
		{
			name:       "errors array",
			status:     http.StatusBadRequest,
			body:       `{"errors":[{"message":"text is too long"},{"message":"duplicate content"}]}`,
			wantDetail: "text is too long; duplicate content",
		},
		{
			name:       "plain text",
			status:     http.StatusBadGateway,
			body:       "upstream down\n",
			wantDetail: "upstream down",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.Post(context.Background(), "hello")

			var apiErr *social.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.wantDetail, apiErr.Detail)
		})
	}
}

func TestAPIError_Unauthorized(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.Me(context.Background())

	var apiErr *social.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.Unauthorized())
}

func TestTokenErrorIsPropagated(t *testing.T) {
	var called bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	client, err := social.New(failingTokens{}, social.WithBaseURL(server.URL))
	require.NoError(t, err)

	_, err = client.Post(context.Background(), "hello")
	assert.ErrorIs(t, err, errNoToken)
	assert.False(t, called, "no request may be sent without a token")
}

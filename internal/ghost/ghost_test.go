package ghost

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"grocery-planner/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchRecipes(t *testing.T) {
	t.Run("Paginates", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			assert.Equal(t, "test_key", q.Get("key"))
			assert.Equal(t, "tag:recipe", q.Get("filter"))

			w.WriteHeader(http.StatusOK)
			switch q.Get("page") {
			case "1":
				fmt.Fprintln(w, `{
					"posts": [
						{"id": "1", "title": "Recipe 1", "html": "<h1>Recipe 1</h1>", "updated_at": "2023-10-27T10:00:00Z"},
						{"id": "2", "title": "Recipe 2", "html": "<h1>Recipe 2</h1>", "updated_at": "2023-10-28T10:00:00Z"}
					],
					"meta": {"pagination": {"page": 1, "pages": 2, "next": 2}}
				}`)
			default:
				fmt.Fprintln(w, `{
					"posts": [{"id": "3", "title": "Recipe 3", "html": "<p>3</p>", "updated_at": "2023-10-29T10:00:00Z"}],
					"meta": {"pagination": {"page": 2, "pages": 2, "next": null}}
				}`)
			}
		}))
		defer server.Close()

		client := NewClient(&config.Config{GhostURL: server.URL, GhostContentKey: "test_key"})

		posts, err := client.FetchRecipes(context.Background())
		require.NoError(t, err)
		require.Len(t, posts, 3)
		assert.Equal(t, "3", posts[2].ID)
	})

	t.Run("ServerError", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		client := NewClient(&config.Config{GhostURL: server.URL, GhostContentKey: "test_key"})

		_, err := client.FetchRecipes(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 500")
	})
}

func TestCreatePost(t *testing.T) {
	secret := []byte("0123456789abcdef0123456789abcdef")
	adminKey := "key-id:" + hex.EncodeToString(secret)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "html", r.URL.Query().Get("source"))

		auth := r.Header.Get("Authorization")
		require.True(t, strings.HasPrefix(auth, "Ghost "))
		token, err := jwt.Parse(strings.TrimPrefix(auth, "Ghost "), func(tok *jwt.Token) (any, error) {
			assert.Equal(t, "key-id", tok.Header["kid"])
			return secret, nil
		}, jwt.WithAudience("/v3/admin/"))
		require.NoError(t, err)
		assert.True(t, token.Valid)

		var body struct {
			Posts []map[string]string `json:"posts"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Grocery list", body.Posts[0]["title"])
		assert.Equal(t, "published", body.Posts[0]["status"])

		w.WriteHeader(http.StatusCreated)
		fmt.Fprintln(w, `{"posts": [{"id": "p1", "title": "Grocery list", "url": "https://blog.test/grocery-list/"}]}`)
	}))
	defer server.Close()

	client := NewClient(&config.Config{GhostURL: server.URL, GhostAdminKey: adminKey})

	post, err := client.CreatePost(context.Background(), "Grocery list", "<ul><li>Tomato</li></ul>", true)
	require.NoError(t, err)
	assert.Equal(t, "p1", post.ID)
	assert.Equal(t, "https://blog.test/grocery-list/", post.URL)
}

func TestCreateAdminToken_InvalidKey(t *testing.T) {
	for _, key := range []string{"", "no-colon", "id:nothex", "a:b:c"} {
		c := NewClient(&config.Config{GhostAdminKey: key})
		_, err := c.createAdminToken()
		assert.Error(t, err, key)
	}
}

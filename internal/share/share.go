// Package share turns a built grocery list into a stored, linkable snapshot.
package share

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/url"
	"strings"
	"time"

	"grocery-planner/internal/ghost"
	"grocery-planner/internal/grocery"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrNotFound is returned for an unknown shared-list id.
var ErrNotFound = errors.New("shared grocery list not found")

const previewSize = 3

// Record is a stored snapshot of a grocery list.
type Record struct {
	ID                string         `json:"id"`
	Owner             string         `json:"owner"`
	GroceryItems      []grocery.Item `json:"groceryItems"`
	CustomIngredients []grocery.Item `json:"customIngredients"`
	CreatedAt         time.Time      `json:"createdAt"`
}

// Result is what the user sends to others.
type Result struct {
	ID      string
	Link    string
	Message string
}

// Publisher posts a rendered list to a public page.
type Publisher interface {
	CreatePost(ctx context.Context, title, html string, publish bool) (*ghost.Post, error)
}

// Service stores shared lists and produces their links.
type Service struct {
	repo      *Repository
	baseURL   string
	publisher Publisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewService creates a Service. publisher may be nil.
func NewService(repo *Repository, baseURL string, publisher Publisher, logger *zap.Logger) *Service {
	return &Service{
		repo:      repo,
		baseURL:   baseURL,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Share snapshots list under a new id and returns the link and preview message.
// When a publisher is configured the list is also published and its page URL
// becomes the link; a failed publish falls back to the stored-record link.
func (s *Service) Share(ctx context.Context, owner string, list *grocery.List) (*Result, error) {
	if list.Empty() {
		return nil, fmt.Errorf("cannot share an empty grocery list")
	}

	rec := Record{
		ID:        uuid.NewString(),
		Owner:     owner,
		CreatedAt: s.now().UTC(),
	}
	for _, it := range grocery.Items(list.Sections) {
		if it.IsCustom {
			rec.CustomIngredients = append(rec.CustomIngredients, it)
		} else {
			rec.GroceryItems = append(rec.GroceryItems, it)
		}
	}

	if err := s.repo.Save(ctx, rec); err != nil {
		return nil, err
	}

	link, err := Link(s.baseURL, rec.ID)
	if err != nil {
		return nil, err
	}

	if s.publisher != nil {
		post, err := s.publisher.CreatePost(ctx, title(list), RenderHTML(list), true)
		if err != nil {
			s.logger.Warn("failed to publish shared grocery list", zap.String("id", rec.ID), zap.Error(err))
		} else if post.URL != "" {
			link = post.URL
		}
	}

	s.logger.Info("grocery list shared", zap.String("id", rec.ID), zap.String("owner", owner))
	return &Result{ID: rec.ID, Link: link, Message: Message(rec, link)}, nil
}

// Get returns a shared list.
func (s *Service) Get(ctx context.Context, id string) (*Record, error) {
	return s.repo.Get(ctx, id)
}

// Link builds the public URL of a shared list.
func Link(baseURL, id string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid share base url: %w", err)
	}
	q := u.Query()
	q.Set("groceryListId", id)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Message previews the first few items, recipe rows first.
func Message(rec Record, link string) string {
	var preview []string
	for _, it := range append(append([]grocery.Item{}, rec.GroceryItems...), rec.CustomIngredients...) {
		if len(preview) == previewSize {
			break
		}
		preview = append(preview, it.Line())
	}

	var b strings.Builder
	b.WriteString("Here's a preview of my grocery list:\n")
	b.WriteString(strings.Join(preview, "\n"))
	b.WriteString("\n\nClick here to see the full list:\n")
	b.WriteString(link)
	return b.String()
}

func title(list *grocery.List) string {
	return fmt.Sprintf("Grocery list %s to %s", list.Window.Start, list.Window.End)
}

// RenderHTML renders the list as aisle headings with item lists.
func RenderHTML(list *grocery.List) string {
	var b strings.Builder
	for _, sec := range list.Sections {
		fmt.Fprintf(&b, "<h2>%s</h2>\n<ul>\n", html.EscapeString(string(sec.Title)))
		for _, it := range sec.Items {
			fmt.Fprintf(&b, "<li>%s</li>\n", html.EscapeString(it.Line()))
		}
		b.WriteString("</ul>\n")
	}
	return b.String()
}

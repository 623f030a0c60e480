// Package clipper imports a recipe from an arbitrary web page into the catalog.
package clipper

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"grocery-planner/internal/ghost"
	"grocery-planner/internal/llm"
	"grocery-planner/internal/recipe"
	"grocery-planner/internal/shared"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
)

// RecipeSaver persists a clipped recipe.
type RecipeSaver interface {
	Save(ctx context.Context, rec recipe.Recipe) error
}

// PostCreator publishes the clipped recipe as a post.
type PostCreator interface {
	CreatePost(ctx context.Context, title, html string, publish bool) (*ghost.Post, error)
}

// Clipper handles fetching and extracting recipes from URLs.
type Clipper struct {
	recipes    RecipeSaver
	posts      PostCreator
	textGen    llm.TextGenerator
	httpClient *http.Client
}

// NewClipper creates a new Clipper. posts may be nil, in which case clipped
// recipes are only stored in the catalog.
func NewClipper(recipes RecipeSaver, posts PostCreator, textGen llm.TextGenerator) *Clipper {
	return &Clipper{
		recipes:    recipes,
		posts:      posts,
		textGen:    textGen,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// IDPrefix marks catalog recipes that came from the clipper rather than Ghost.
const IDPrefix = "clip-"

// RecipeID derives a stable catalog id from the page URL, so clipping the same page twice updates one recipe.
func RecipeID(pageURL string) string {
	return IDPrefix + uuid.NewSHA1(uuid.NameSpaceURL, []byte(pageURL)).String()
}

// ClipURL fetches the URL, extracts the recipe with the LLM and saves it to the catalog.
func (c *Clipper) ClipURL(ctx context.Context, pageURL string) (*recipe.Recipe, shared.AgentMeta, error) {
	// 1. Fetch and clean HTML
	title, content, err := c.fetchAndCleanHTML(ctx, pageURL)
	if err != nil {
		return nil, shared.AgentMeta{}, fmt.Errorf("failed to fetch content: %w", err)
	}

	// 2. Extract structured ingredients
	rec, meta, err := recipe.Extract(ctx, c.textGen, recipe.Source{
		ID:        RecipeID(pageURL),
		Title:     title,
		HTML:      content,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, meta, fmt.Errorf("ai extraction failed: %w", err)
	}
	meta.AgentName = "Clipper"

	// 3. Save to the catalog
	if err := c.recipes.Save(ctx, rec); err != nil {
		return nil, meta, fmt.Errorf("failed to save recipe: %w", err)
	}

	// 4. Optionally publish to Ghost
	if c.posts != nil {
		if _, err := c.posts.CreatePost(ctx, rec.Title, formatToHTML(rec, pageURL), true); err != nil {
			return &rec, meta, fmt.Errorf("failed to save to ghost: %w", err)
		}
	}

	return &rec, meta, nil
}

func (c *Clipper) fetchAndCleanHTML(ctx context.Context, pageURL string) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", "", err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("failed to fetch URL: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", "", err
	}

	// Remove noise to save LLM tokens
	doc.Find("script, style, nav, footer, iframe, ads, .ads, #ads").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}
	return title, strings.Join(strings.Fields(doc.Find("body").Text()), " "), nil
}

func formatToHTML(r recipe.Recipe, sourceURL string) string {
	var sb strings.Builder
	src := html.EscapeString(sourceURL)
	sb.WriteString(fmt.Sprintf("<p><i>Imported from: <a href=\"%s\">%s</a></i></p>", src, src))

	sb.WriteString("<h2>Ingredients</h2><ul>")
	for _, ing := range r.Ingredients {
		line := strings.Join(strings.Fields(string(ing.Quantity)+" "+ing.Unit+" "+ing.DisplayName()), " ")
		sb.WriteString(fmt.Sprintf("<li>%s</li>", html.EscapeString(line)))
	}
	sb.WriteString("</ul>")

	sb.WriteString("<hr>")
	sb.WriteString(fmt.Sprintf("<p><strong>Prep Time:</strong> %s | <strong>Servings:</strong> %s</p>",
		html.EscapeString(r.PrepTime), html.EscapeString(r.Servings)))

	return sb.String()
}

package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/spiderhome/internal/utils"
)

// Spec is one row of a product's technical specification table.
type Spec struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Download is a document attached to a product (datasheet, manual).
type Download struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Product mirrors the `products` table.  Structured lists are stored as
// JSON columns.
type Product struct {
	Meta
	Slug             string             `json:"slug"`
	Title            string             `json:"title"`
	Reference        string             `json:"reference"`
	Category         string             `json:"category"`
	ShortDescription string             `json:"short_description"`
	Description      string             `json:"description"`
	Image            string             `json:"image"`
	Specifications   JSONList[Spec]     `json:"specifications"`
	Benefits         JSONList[string]   `json:"benefits"`
	Downloads        JSONList[Download] `json:"downloads"`
	Compatibility    JSONList[string]   `json:"compatibility"`
	RelatedProducts  JSONList[uint64]   `json:"related_products"`
	IsNew            bool               `json:"is_new"`
	Featured         bool               `json:"featured"`
	MetaTitle        string             `json:"meta_title"`
	MetaDescription  string             `json:"meta_description"`
}

// BeforeSave trims identifiers, derives a missing slug and replaces nil
// lists.
func (p *Product) BeforeSave(time.Time) {
	p.Title = strings.TrimSpace(p.Title)
	p.Reference = strings.TrimSpace(p.Reference)
	p.Category = strings.TrimSpace(p.Category)
	p.Slug = slugOr(p.Slug, p.Title)
	p.Specifications = orEmpty(p.Specifications)
	p.Benefits = orEmpty(p.Benefits)
	p.Downloads = orEmpty(p.Downloads)
	p.Compatibility = orEmpty(p.Compatibility)
	p.RelatedProducts = orEmpty(p.RelatedProducts)
}

// Validate checks required fields.
func (p *Product) Validate() error {
	switch {
	case p.Title == "":
		return missing("title")
	case p.Reference == "":
		return missing("reference")
	case p.Category == "":
		return missing("category")
	case p.Slug == "":
		return missing("slug")
	}
	return nil
}

// Slide mirrors the `slides` table (homepage hero carousel).
type Slide struct {
	Meta
	Title     string `json:"title"`
	Subtitle  string `json:"subtitle"`
	CTAText   string `json:"cta_text"`
	CTALink   string `json:"cta_link"`
	Image     string `json:"image"`
	SortOrder int    `json:"sort_order"`
	IsActive  bool   `json:"is_active"`
}

func (s *Slide) BeforeSave(time.Time) { s.Title = strings.TrimSpace(s.Title) }

func (s *Slide) Validate() error {
	if s.Title == "" {
		return missing("title")
	}
	return nil
}

// Blog post statuses.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// BlogPost mirrors the `blog_posts` table.
type BlogPost struct {
	Meta
	Slug            string     `json:"slug"`
	Title           string     `json:"title"`
	Content         string     `json:"content"`
	Excerpt         string     `json:"excerpt"`
	Image           string     `json:"image"`
	Author          string     `json:"author"`
	Status          string     `json:"status"`
	MetaTitle       string     `json:"meta_title"`
	MetaDescription string     `json:"meta_description"`
	PublishedAt     *time.Time `json:"published_at"`
}

// BeforeSave sanitizes the HTML body and stamps PublishedAt the first time
// the post is saved as published.
func (b *BlogPost) BeforeSave(now time.Time) {
	b.Title = strings.TrimSpace(b.Title)
	b.Slug = slugOr(b.Slug, b.Title)
	b.Content = utils.SanitizeHTML(b.Content)
	b.Status = strings.ToLower(strings.TrimSpace(b.Status))
	if b.Status == "" {
		b.Status = StatusDraft
	}
	if b.Status == StatusPublished && b.PublishedAt == nil {
		t := now
		b.PublishedAt = &t
	}
}

func (b *BlogPost) Validate() error {
	if b.Title == "" {
		return missing("title")
	}
	if b.Slug == "" {
		return missing("slug")
	}
	if b.Status != StatusDraft && b.Status != StatusPublished {
		return fmt.Errorf("%w: status must be %q or %q", ErrValidation, StatusDraft, StatusPublished)
	}
	return nil
}

// Feature mirrors the `features` table (homepage highlights).
type Feature struct {
	Meta
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	SortOrder   int    `json:"sort_order"`
	IsActive    bool   `json:"is_active"`
}

func (f *Feature) BeforeSave(time.Time) { f.Title = strings.TrimSpace(f.Title) }

func (f *Feature) Validate() error {
	if f.Title == "" {
		return missing("title")
	}
	return nil
}

// DashboardStats is the admin dashboard aggregate.
type DashboardStats struct {
	Products       int    `json:"products"`
	Slides         int    `json:"slides"`
	Blogs          int    `json:"blogs"`
	Features       int    `json:"features"`
	ActiveSlides   int    `json:"active_slides"`
	PublishedBlogs int    `json:"published_blogs"`
	ActiveFeatures int    `json:"active_features"`
	Backend        string `json:"backend"`
}

// slugOr normalizes an explicit slug, or derives one from the title.
func slugOr(slug, title string) string {
	if s := utils.Slugify(slug); s != "" {
		return s
	}
	return utils.Slugify(title)
}

// Package importer loads a YAML recipe catalog into the store.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/eleven-am/pantry/internal/logger"
	"github.com/eleven-am/pantry/internal/model"
	"github.com/eleven-am/pantry/internal/orm"
	"github.com/eleven-am/pantry/internal/store"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Store is the part of the store contract an import needs.
type Store interface {
	GetTagByName(ctx context.Context, name string) (*model.Tag, error)
	CreateTag(ctx context.Context, in model.NewTag) (*model.Tag, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*model.Category, error)
	CreateCategory(ctx context.Context, in model.NewCategory) (*model.Category, error)
	CreateRecipe(ctx context.Context, in model.NewRecipe) (*model.RecipeDetail, error)
	GetRecipeDetail(ctx context.Context, id string) (*model.RecipeDetail, error)
}

// Catalog is the import file layout.
type Catalog struct {
	Tags       []string            `yaml:"tags"`
	Categories []model.NewCategory `yaml:"categories"`
	Recipes    []Recipe            `yaml:"recipes"`
}

// Recipe is a NewRecipe that names its tags and categories instead of
// referring to them by id. Categories are matched by slug.
type Recipe struct {
	model.NewRecipe `yaml:",inline"`
	Tags            []string `yaml:"tags"`
	Categories      []string `yaml:"categories"`
}

// Result counts what an import wrote.
type Result struct {
	TagsCreated       int
	TagsReused        int
	CategoriesCreated int
	CategoriesReused  int
	Recipes           []string
}

// Importer writes catalogs through a Store.
type Importer struct {
	store  Store
	policy store.RetryPolicy
	log    logger.Logger
	newID  func() string
}

func New(s Store, policy store.RetryPolicy) *Importer {
	return &Importer{
		store:  s,
		policy: policy,
		log:    logger.Import(),
		newID:  func() string { return uuid.Must(uuid.NewV7()).String() },
	}
}

// Parse decodes a catalog. Unknown keys are rejected.
func Parse(r io.Reader) (*Catalog, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var c Catalog
	if err := dec.Decode(&c); err != nil {
		if errors.Is(err, io.EOF) {
			return &c, nil
		}
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return &c, nil
}

// LoadFile reads and parses a catalog file.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Import writes tags, then categories, then recipes. Existing tags and
// categories are reused; each recipe is one family write under an id chosen
// here, so a retried write finds a recipe that already committed instead of
// writing it twice. The first failure stops the import and the result
// reports what was written so far.
func (im *Importer) Import(ctx context.Context, c *Catalog) (*Result, error) {
	res := &Result{}
	tags := make(map[string]string)
	categories := make(map[string]string)

	for _, name := range c.Tags {
		if _, err := im.tag(ctx, name, tags, res); err != nil {
			return res, err
		}
	}

	for _, in := range c.Categories {
		if _, err := im.category(ctx, in, categories, res); err != nil {
			return res, err
		}
	}

	for i, r := range c.Recipes {
		in := r.NewRecipe
		in.TagIDs = nil
		in.CategoryIDs = nil

		for _, name := range r.Tags {
			id, err := im.tag(ctx, name, tags, res)
			if err != nil {
				return res, fmt.Errorf("recipe %d (%s): %w", i+1, r.Title, err)
			}
			in.TagIDs = append(in.TagIDs, id)
		}
		for _, slug := range r.Categories {
			id, err := im.categoryID(ctx, slug, categories)
			if err != nil {
				return res, fmt.Errorf("recipe %d (%s): %w", i+1, r.Title, err)
			}
			in.CategoryIDs = append(in.CategoryIDs, id)
		}

		in.ID = im.newID()
		detail, err := createOnce(ctx, im.policy,
			func(ctx context.Context) (*model.RecipeDetail, error) { return im.store.GetRecipeDetail(ctx, in.ID) },
			func(ctx context.Context) (*model.RecipeDetail, error) { return im.store.CreateRecipe(ctx, in) },
		)
		if err != nil {
			return res, fmt.Errorf("recipe %d (%s): %w", i+1, r.Title, err)
		}
		res.Recipes = append(res.Recipes, detail.ID)
		im.log.Debug("Imported recipe", "id", detail.ID, "title", detail.Title)
	}

	im.log.Info("Catalog imported",
		"tags_created", res.TagsCreated,
		"categories_created", res.CategoriesCreated,
		"recipes", len(res.Recipes))
	return res, nil
}

func (im *Importer) tag(ctx context.Context, name string, seen map[string]string, res *Result) (string, error) {
	name = strings.TrimSpace(name)
	if id, ok := seen[name]; ok {
		return id, nil
	}

	var tag *model.Tag
	err := store.Retry(ctx, im.policy, func(ctx context.Context) error {
		var err error
		tag, err = im.store.GetTagByName(ctx, name)
		return err
	})
	switch {
	case err == nil:
		res.TagsReused++
	case errors.Is(err, orm.ErrNotFound):
		tag, err = createOnce(ctx, im.policy,
			func(ctx context.Context) (*model.Tag, error) { return im.store.GetTagByName(ctx, name) },
			func(ctx context.Context) (*model.Tag, error) {
				return im.store.CreateTag(ctx, model.NewTag{Name: name})
			},
		)
		if err != nil {
			return "", fmt.Errorf("tag %q: %w", name, err)
		}
		res.TagsCreated++
	default:
		return "", fmt.Errorf("tag %q: %w", name, err)
	}

	seen[name] = tag.ID
	return tag.ID, nil
}

func (im *Importer) category(ctx context.Context, in model.NewCategory, seen map[string]string, res *Result) (string, error) {
	if id, ok := seen[in.Slug]; ok {
		return id, nil
	}

	var category *model.Category
	err := store.Retry(ctx, im.policy, func(ctx context.Context) error {
		var err error
		category, err = im.store.GetCategoryBySlug(ctx, in.Slug)
		return err
	})
	switch {
	case err == nil:
		res.CategoriesReused++
	case errors.Is(err, orm.ErrNotFound):
		category, err = createOnce(ctx, im.policy,
			func(ctx context.Context) (*model.Category, error) { return im.store.GetCategoryBySlug(ctx, in.Slug) },
			func(ctx context.Context) (*model.Category, error) { return im.store.CreateCategory(ctx, in) },
		)
		if err != nil {
			return "", fmt.Errorf("category %q: %w", in.Slug, err)
		}
		res.CategoriesCreated++
	default:
		return "", fmt.Errorf("category %q: %w", in.Slug, err)
	}

	seen[in.Slug] = category.ID
	return category.ID, nil
}

// categoryID resolves a slug a recipe refers to. Unlike tags, categories
// carry required fields, so a recipe cannot create one by naming it.
func (im *Importer) categoryID(ctx context.Context, slug string, seen map[string]string) (string, error) {
	if id, ok := seen[slug]; ok {
		return id, nil
	}

	var category *model.Category
	err := store.Retry(ctx, im.policy, func(ctx context.Context) error {
		var err error
		category, err = im.store.GetCategoryBySlug(ctx, slug)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("category %q: %w", slug, err)
	}
	seen[slug] = category.ID
	return category.ID, nil
}

// createOnce retries create under policy. Every attempt after the first
// looks the row up before writing, since a create whose commit landed but
// whose reply was lost must not run twice.
func createOnce[T any](ctx context.Context, policy store.RetryPolicy, find, create func(ctx context.Context) (*T, error)) (*T, error) {
	var out *T
	attempt := 0
	err := store.Retry(ctx, policy, func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			found, err := find(ctx)
			if err == nil {
				out = found
				return nil
			}
			if !errors.Is(err, orm.ErrNotFound) {
				return err
			}
		}
		var err error
		out, err = create(ctx)
		return err
	})
	return out, err
}

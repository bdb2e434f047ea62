package schema

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/eleven-am/pantry/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testAuthor struct {
	_ struct{} `dbdef:"table:authors"`

	ID    string `db:"id" dbdef:"type:uuid;primary_key"`
	Email string `db:"email" dbdef:"type:varchar(255);not_null;unique"`
}

type testBook struct {
	_ struct{} `dbdef:"table:books;index:idx_books_author,author_id;unique:uk_books_author_title,author_id,title"`

	ID        string    `db:"id" dbdef:"type:uuid;primary_key"`
	AuthorID  string    `db:"author_id" dbdef:"type:uuid;not_null;foreign_key:authors.id;on_delete:CASCADE"`
	Title     string    `db:"title" dbdef:"type:text;not_null"`
	Published bool      `db:"published" dbdef:"type:boolean;not_null;default:false"`
	CreatedAt time.Time `db:"created_at" dbdef:"type:timestamptz;not_null;default:now()"`
	Scratch   string    `db:"-"`
}

func TestParseDBDefTag(t *testing.T) {
	attrs := ParseDBDefTag("type:uuid;primary_key;default:gen_random_uuid();not_null")
	assert.Equal(t, map[string]string{
		"type":        "uuid",
		"primary_key": "",
		"default":     "gen_random_uuid()",
		"not_null":    "",
	}, attrs)

	attrs = ParseDBDefTag("table:t;index:a,x;index:b,y")
	assert.Equal(t, "a,x;b,y", attrs["index"])
	assert.Empty(t, ParseDBDefTag(""))
}

func TestValidateColumnTag(t *testing.T) {
	tests := []struct {
		name    string
		tag     string
		wantErr string
	}{
		{"valid", "type:varchar(255);not_null;unique", ""},
		{"unknown type", "type:money", "unsupported PostgreSQL type"},
		{"unknown attribute", "type:text;sparkly", "unknown dbdef attribute"},
		{"flag with value", "type:text;not_null:yes", "should not have a value"},
		{"bad reference", "type:uuid;foreign_key:users", "expected format table.column"},
		{"bad action", "type:uuid;foreign_key:users.id;on_delete:EXPLODE", "invalid on_delete"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateColumnTag(tt.tag)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestBuildCatalog(t *testing.T) {
	c, err := Build(testAuthor{}, &testBook{})
	require.NoError(t, err)

	books, ok := c.Table("books")
	require.True(t, ok)
	assert.Equal(t, []string{"id", "author_id", "title", "published", "created_at"}, books.ColumnNames())
	assert.Equal(t, "id", books.PrimaryKey.Name)
	assert.Equal(t, []Constraint{{Name: "uk_books_author_title", Columns: []string{"author_id", "title"}}}, books.Uniques)
	assert.Equal(t, []Constraint{{Name: "idx_books_author", Columns: []string{"author_id"}}}, books.Indexes)

	fk, ok := books.ForeignKeyFor("author_id")
	require.True(t, ok)
	assert.Equal(t, "books_author_id_fkey", fk.Name)
	assert.Equal(t, "authors", fk.RefTable)
	assert.Equal(t, "CASCADE", fk.OnDelete)

	byType, ok := c.TableFor(reflect.TypeOf(&testBook{}))
	require.True(t, ok)
	assert.Same(t, books, byType)

	authors, _ := c.Table("authors")
	assert.Equal(t, []Constraint{{Name: "authors_email_key", Columns: []string{"email"}}}, authors.Uniques)
	assert.Len(t, c.Referencing("authors"), 1)
}

func TestBuildRejectsBrokenModels(t *testing.T) {
	type noTable struct {
		ID string `db:"id" dbdef:"type:uuid;primary_key"`
	}
	type noKey struct {
		_    struct{} `dbdef:"table:nokey"`
		Name string   `db:"name" dbdef:"type:text"`
	}
	type dangling struct {
		_       struct{} `dbdef:"table:dangling"`
		ID      string   `db:"id" dbdef:"type:uuid;primary_key"`
		OwnerID string   `db:"owner_id" dbdef:"type:uuid;foreign_key:owners.id"`
	}

	_, err := Build(noTable{})
	assert.ErrorContains(t, err, "missing table-level dbdef tag")

	_, err = Build(noKey{})
	assert.ErrorContains(t, err, "no primary key")

	_, err = Build(dangling{})
	assert.ErrorContains(t, err, "unknown table owners")

	_, err = Build(testAuthor{}, testAuthor{})
	assert.ErrorContains(t, err, "registered twice")

	_, err = Build("not a struct")
	assert.Error(t, err)
}

func TestSortedPutsParentsFirst(t *testing.T) {
	c, err := Build(testBook{}, testAuthor{})
	require.NoError(t, err)

	sorted, err := c.Sorted()
	require.NoError(t, err)
	require.Len(t, sorted, 2)
	assert.Equal(t, "authors", sorted[0].Name)
	assert.Equal(t, "books", sorted[1].Name)
}

func TestSortedDetectsCycles(t *testing.T) {
	type a struct {
		_   struct{} `dbdef:"table:a"`
		ID  string   `db:"id" dbdef:"type:uuid;primary_key"`
		BID string   `db:"b_id" dbdef:"type:uuid;foreign_key:b.id"`
	}
	type b struct {
		_   struct{} `dbdef:"table:b"`
		ID  string   `db:"id" dbdef:"type:uuid;primary_key"`
		AID string   `db:"a_id" dbdef:"type:uuid;foreign_key:a.id"`
	}
	c, err := Build(a{}, b{})
	require.NoError(t, err)
	_, err = c.Sorted()
	assert.ErrorContains(t, err, "circular dependency")
}

func TestCreateSQL(t *testing.T) {
	c, err := Build(testBook{}, testAuthor{})
	require.NoError(t, err)

	ddl, err := c.CreateSQL()
	require.NoError(t, err)

	assert.Less(t, strings.Index(ddl, `CREATE TABLE IF NOT EXISTS "authors"`), strings.Index(ddl, `CREATE TABLE IF NOT EXISTS "books"`))
	assert.Contains(t, ddl, `"published" boolean NOT NULL DEFAULT false`)
	assert.Contains(t, ddl, `CONSTRAINT "books_pkey" PRIMARY KEY ("id")`)
	assert.Contains(t, ddl, `CONSTRAINT "authors_email_key" UNIQUE ("email")`)
	assert.Contains(t, ddl, `CONSTRAINT "uk_books_author_title" UNIQUE ("author_id", "title")`)
	assert.Contains(t, ddl, `CONSTRAINT "books_author_id_fkey" FOREIGN KEY ("author_id") REFERENCES "authors" ("id") ON DELETE CASCADE`)
	assert.Contains(t, ddl, `CREATE INDEX IF NOT EXISTS "idx_books_author" ON "books" ("author_id");`)

	drop, err := c.DropSQL()
	require.NoError(t, err)
	assert.Less(t, strings.Index(drop, `"books"`), strings.Index(drop, `"authors"`))
}

func TestDomainCatalog(t *testing.T) {
	c, err := Build(model.Tables()...)
	require.NoError(t, err)
	require.Len(t, c.Tables(), 17)

	for _, table := range c.Tables() {
		for _, fk := range table.ForeignKeys {
			assert.Equal(t, "CASCADE", fk.OnDelete, "%s.%s must cascade", table.Name, fk.Column)
		}
	}

	uniques := map[string]bool{}
	for _, table := range c.Tables() {
		for _, u := range table.Uniques {
			uniques[table.Name+"."+strings.Join(u.Columns, ",")] = true
		}
	}
	assert.Equal(t, map[string]bool{
		"users.email":                true,
		"tags.name":                  true,
		"categories.name":            true,
		"categories.slug":            true,
		"nutritional_info.recipe_id": true,
	}, uniques)

	instructions, ok := c.Table("instructions")
	require.True(t, ok)
	assert.True(t, instructions.HasColumn("order"))

	ddl, err := c.CreateSQL()
	require.NoError(t, err)
	assert.Contains(t, ddl, `"order" integer NOT NULL`)
	assert.Contains(t, ddl, `"category" text NOT NULL DEFAULT 'Other'`)
	assert.Contains(t, ddl, `"servings" integer NOT NULL DEFAULT 1`)
	assert.Contains(t, ddl, `"subscription_status" varchar(255) NOT NULL DEFAULT 'inactive'`)
	assert.Contains(t, ddl, `"auth_provider" varchar(255) NOT NULL DEFAULT 'email'`)
	assert.Equal(t, 17, strings.Count(ddl, "ON DELETE CASCADE"))
}

package store

import (
	"fmt"

	"github.com/redbco/redb-indexmeta/internal/indexdef"
)

// Layout names the tables and columns of the attribute store and tells the
// engine how to name index tables.
type Layout struct {
	TablePrefix string `yaml:"table_prefix"`
	Namespace   string `yaml:"namespace"`

	PostsTable string `yaml:"posts_table"`
	PostsID    string `yaml:"posts_id"`
	PostsType  string `yaml:"posts_type"`
	MetaTable  string `yaml:"meta_table"`
	MetaOwner  string `yaml:"meta_owner"`
	MetaKey    string `yaml:"meta_key"`
	MetaValue  string `yaml:"meta_value"`
}

// DefaultLayout returns the WordPress table layout.
func DefaultLayout() Layout {
	return Layout{
		TablePrefix: "wp_",
		Namespace:   "wpu_index_meta__",
		PostsTable:  "posts",
		PostsID:     "ID",
		PostsType:   "post_type",
		MetaTable:   "postmeta",
		MetaOwner:   "post_id",
		MetaKey:     "meta_key",
		MetaValue:   "meta_value",
	}
}

// Posts returns the physical name of the primary entity table.
func (l Layout) Posts() string { return l.TablePrefix + l.PostsTable }

// Postmeta returns the physical name of the attribute table.
func (l Layout) Postmeta() string { return l.TablePrefix + l.MetaTable }

// IndexTable returns the physical table name for an index.
func (l Layout) IndexTable(index string) string {
	return l.TablePrefix + l.Namespace + index
}

// Resolve maps a field source token to a physical table name.
// Anything other than posts/postmeta is taken literally.
func (l Layout) Resolve(source string) string {
	switch source {
	case indexdef.SourcePosts:
		return l.Posts()
	case indexdef.SourcePostmeta:
		return l.Postmeta()
	default:
		return source
	}
}

// Validate checks every configured name against the identifier allow-list.
func (l Layout) Validate() error {
	names := map[string]string{
		"posts table":  l.Posts(),
		"posts id":     l.PostsID,
		"posts type":   l.PostsType,
		"meta table":   l.Postmeta(),
		"meta owner":   l.MetaOwner,
		"meta key":     l.MetaKey,
		"meta value":   l.MetaValue,
		"index prefix": l.IndexTable("x"),
	}
	for what, name := range names {
		if !indexdef.ValidIdentifier(name) {
			return fmt.Errorf("invalid %s %q", what, name)
		}
	}
	return nil
}

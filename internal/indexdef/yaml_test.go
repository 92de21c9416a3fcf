package indexdef

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const sampleDefinitions = `
film: film_id
personne:
  personne_id:
    kind: index
  post_title:
    source_table: posts
    join_key: ID
  role:
    source_table: postmeta
    join_key: post_id
    init_if_missing: true
    entity_type_filter: film
  nickname:
`

func TestUnmarshalDefinitionsKeepsOrder(t *testing.T) {
	var raw RawSet
	require.NoError(t, yaml.Unmarshal([]byte(sampleDefinitions), &raw))

	require.Contains(t, raw, "film")
	assert.False(t, raw["film"].IsComposite())
	assert.Equal(t, "film_id", raw["film"].Attribute)

	p := raw["personne"]
	require.True(t, p.IsComposite())
	require.Len(t, p.Columns, 4)
	assert.Equal(t, "personne_id", p.Columns[0].Column)
	assert.Equal(t, "index", p.Columns[0].Field.Kind)
	assert.Equal(t, "post_title", p.Columns[1].Column)
	assert.Equal(t, "role", p.Columns[2].Column)
	require.NotNil(t, p.Columns[2].Field.InitIfMissing)
	assert.True(t, *p.Columns[2].Field.InitIfMissing)
	assert.Equal(t, "nickname", p.Columns[3].Column)
	assert.Equal(t, RawField{}, p.Columns[3].Field)
}

func TestNullDefinitionIsRejected(t *testing.T) {
	var raw RawSet
	require.NoError(t, yaml.Unmarshal([]byte("film:\nactor: actor_id\n"), &raw))

	set, rejections := Validate(raw)
	assert.Equal(t, []string{"actor"}, set.Names())
	assert.Equal(t, []Rejection{{Index: "film", Reason: ReasonEmptyAttribute}}, rejections)
}

func TestUnmarshalRejectsSequences(t *testing.T) {
	var raw RawSet
	err := yaml.Unmarshal([]byte("film: [a, b]\n"), &raw)
	assert.ErrorContains(t, err, "must be a string or a mapping")
}

func TestMarshalRoundTripsCanonicalSet(t *testing.T) {
	var raw RawSet
	require.NoError(t, yaml.Unmarshal([]byte(sampleDefinitions), &raw))
	set, _ := Validate(raw)

	out, err := yaml.Marshal(set.Raw())
	require.NoError(t, err)

	var again RawSet
	require.NoError(t, yaml.Unmarshal(out, &again))
	reparsed, rejections := Validate(again)
	assert.Empty(t, rejections)
	assert.Equal(t, set.All(), reparsed.All())
}

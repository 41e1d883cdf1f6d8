package yamlrows

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storeskema "github.com/kioskcart/storeskema"
)

func TestRecords_SequenceAndDocuments(t *testing.T) {
	in := `
- id: p1
  name: Latte
  price: 4.5
  stock_quantity: 12
  is_active: true
  description: ~
  created_at: 2024-01-01T00:00:00Z
---
id: p2
name: Bagel
price: "3"
`
	recs, err := NewReader(strings.NewReader(in)).Records()
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, storeskema.RawRecord{
		"id": "p1", "name": "Latte", "price": 4.5, "stock_quantity": int64(12),
		"is_active": true, "description": nil, "created_at": "2024-01-01T00:00:00Z",
	}, recs[0])
	assert.Equal(t, "3", recs[1]["price"])
}

func TestRecords_DuplicateKey(t *testing.T) {
	in := "id: p1\nname: A\nname: B\n"
	_, err := NewReader(strings.NewReader(in)).Records()
	var dup *DuplicateKeyError
	require.True(t, errors.As(err, &dup), "got %v", err)
	assert.Equal(t, "name", dup.Key)
	assert.Equal(t, 2, dup.FirstLine)
	assert.Equal(t, 3, dup.Line)
}

func TestRecords_NonObjectElement(t *testing.T) {
	recs, err := NewReader(strings.NewReader("- id: a\n- 42\n")).Records()
	iss, ok := storeskema.AsIssues(err)
	require.True(t, ok)
	require.Len(t, iss, 1)
	assert.Equal(t, "/1", iss[0].Path)
	assert.Len(t, recs, 2)
	assert.Nil(t, recs[1])
}

func TestRecords_Empty(t *testing.T) {
	recs, err := NewReader(strings.NewReader("")).Records()
	require.NoError(t, err)
	assert.Empty(t, recs)
}

package middleware_test

import (
	"testing"

	"github.com/aretw0/cardflow/pkg/persistence/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMasker_MaskJSON(t *testing.T) {
	m, err := middleware.NewMasker([]string{"^contacts$", "(?i)phone"})
	require.NoError(t, err)

	in := `{
		"profile": {"name": "Ana", "contacts": "ana@example.com"},
		"cards": [{"id": "c1", "fields": {"Phone": "555-0100", "preco": "R$ 50"}}]
	}`
	out, err := m.MaskJSON([]byte(in))
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"profile": {"name": "Ana", "contacts": "***"},
		"cards": [{"id": "c1", "fields": {"Phone": "***", "preco": "R$ 50"}}]
	}`, string(out))
}

func TestMasker_PassThrough(t *testing.T) {
	m, err := middleware.NewMasker(nil)
	require.NoError(t, err)
	out, err := m.MaskJSON([]byte(`{"contacts":"x"}`))
	require.NoError(t, err)
	assert.Equal(t, `{"contacts":"x"}`, string(out))

	m, err = middleware.NewMasker([]string{"contacts"})
	require.NoError(t, err)
	out, err = m.MaskJSON([]byte("not json"))
	require.NoError(t, err)
	assert.Equal(t, "not json", string(out))
}

func TestNewMasker_InvalidPattern(t *testing.T) {
	_, err := middleware.NewMasker([]string{"("})
	assert.Error(t, err)
}

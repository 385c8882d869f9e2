package schema_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	contractx "github.com/tanpawarit/storage-chat-agent/agent/contract"
	schemax "github.com/tanpawarit/storage-chat-agent/agent/schema"
)

func TestRegistryBuiltByCallerValidates(t *testing.T) {
	t.Parallel()

	r := schemax.MustNewRegistry(
		schemax.Entry{Key: "volume", Type: schemax.TypeNumber},
		schemax.Entry{Key: "mode", Type: schemax.TypeEnum, SupportedValues: []string{"eco", "boost"}},
		schemax.Entry{Key: "label", Type: schemax.TypeText},
	)

	assert.False(t, r.Validate("volume", "abc"))
	_, err := r.Normalize("volume", "abc")
	require.ErrorIs(t, err, contractx.ErrSchemaViolation)

	got, err := r.Normalize("volume", " 7 ")
	require.NoError(t, err)
	assert.Equal(t, "7", got)

	assert.False(t, r.Validate("mode", "turbo"))
	got, err = r.Normalize("mode", "BOOST")
	require.NoError(t, err)
	assert.Equal(t, "boost", got)

	got, err = r.Normalize("label", "  hi ")
	require.NoError(t, err)
	assert.Equal(t, "hi", got)
	assert.False(t, r.Validate("label", "   "))
}

func TestRegistryCustomNormalizer(t *testing.T) {
	t.Parallel()

	r := schemax.MustNewRegistry(schemax.Entry{
		Key:  "shout",
		Type: schemax.TypeText,
		Normalizer: func(raw string) (string, error) {
			return strings.ToUpper(strings.TrimSpace(raw)), nil
		},
	})

	got, err := r.Normalize("shout", " hey ")
	require.NoError(t, err)
	assert.Equal(t, "HEY", got)
}

package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	contractx "github.com/tanpawarit/storage-chat-agent/agent/contract"
)

func TestDefaultRegistryKeys(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{KeyCalculation, KeyFlag, KeyNote, KeyTheme}, Default.Keys())
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	cases := []struct {
		key  string
		raw  string
		want string
	}{
		{KeyFlag, "yes", "true"},
		{KeyFlag, "off", "false"},
		{KeyFlag, " ON ", "true"},
		{KeyFlag, "0", "false"},
		{KeyCalculation, " 100 ", "100"},
		{KeyCalculation, "3.14", "3.14"},
		{KeyCalculation, "-5.7", "-5.7"},
		{KeyCalculation, "1e3", "1000"},
		{KeyNote, "  Meeting at 3pm ", "Meeting at 3pm"},
		{KeyTheme, "LIGHT", "light"},
		{KeyTheme, "Dark", "dark"},
	}

	for _, tc := range cases {
		got, err := Default.Normalize(tc.key, tc.raw)
		require.NoError(t, err, "key=%s raw=%q", tc.key, tc.raw)
		assert.Equal(t, tc.want, got, "key=%s raw=%q", tc.key, tc.raw)
	}
}

func TestNormalizeRejects(t *testing.T) {
	t.Parallel()

	cases := []struct {
		key string
		raw string
	}{
		{KeyTheme, "blue"},
		{KeyFlag, "maybe"},
		{KeyCalculation, "abc"},
		{KeyCalculation, "   "},
		{KeyCalculation, "NaN"},
		{KeyCalculation, "Inf"},
		{KeyNote, "   "},
		{"password", "hunter2"},
	}

	for _, tc := range cases {
		_, err := Default.Normalize(tc.key, tc.raw)
		require.Error(t, err, "key=%s raw=%q", tc.key, tc.raw)
		assert.True(t, errors.Is(err, contractx.ErrSchemaViolation), "key=%s raw=%q err=%v", tc.key, tc.raw, err)
		assert.False(t, Default.Validate(tc.key, tc.raw))
	}
}

func TestValidateIsDeterministic(t *testing.T) {
	t.Parallel()

	inputs := []string{"", " ", "yes", "LIGHT", "42", "blue", "note text", "1e309"}
	for _, entry := range Default.Entries() {
		for _, in := range inputs {
			first := entry.Validate(in)
			for i := 0; i < 5; i++ {
				assert.Equal(t, first, entry.Validate(in), "key=%s raw=%q", entry.Key, in)
			}
		}
	}
}

func TestNewRegistryRejectsDuplicates(t *testing.T) {
	t.Parallel()

	_, err := NewRegistry(Entry{Key: "a", Type: TypeText}, Entry{Key: "a", Type: TypeText})
	require.ErrorIs(t, err, contractx.ErrValidation)

	_, err = NewRegistry(Entry{Key: "  "})
	require.ErrorIs(t, err, contractx.ErrValidation)
}

func TestAddedEntryIsPickedUp(t *testing.T) {
	t.Parallel()

	r := MustNewRegistry(append(Default.Entries(), Entry{
		Key:           "volume",
		Type:          TypeNumber,
		BehaviorNotes: "Numeric volume level",
		Default:       "5",
	})...)

	got, err := r.Normalize("volume", " 7 ")
	require.NoError(t, err)
	assert.Equal(t, "7", got)
	assert.Contains(t, r.Keys(), "volume")
}

func TestNewRegistryRequiresNormalizer(t *testing.T) {
	t.Parallel()

	_, err := NewRegistry(Entry{Key: "mode", Type: "color"})
	require.ErrorIs(t, err, contractx.ErrValidation)

	_, err = NewRegistry(Entry{Key: "mode", Type: TypeEnum})
	require.ErrorIs(t, err, contractx.ErrValidation)

	var zero Entry
	_, err = zero.Normalize("x")
	require.ErrorIs(t, err, contractx.ErrSchemaViolation)
}

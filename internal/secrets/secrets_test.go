package secrets

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnv(t *testing.T) {
	t.Setenv("DQ_TEST_KEY", " sk-123 ")
	t.Setenv("DQ_TEST_BLANK", "  ")

	s, err := Env{}.Get(context.Background(), "DQ_TEST_KEY")
	require.NoError(t, err)
	assert.Equal(t, "sk-123", s.Text())

	_, err = Env{}.Get(context.Background(), "DQ_TEST_BLANK")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = Env{}.Get(context.Background(), "DQ_TEST_UNSET_KEY")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStatic(t *testing.T) {
	store := Static{"OPENAI_API_KEY": "sk-abc"}

	s, err := store.Get(context.Background(), "OPENAI_API_KEY")
	require.NoError(t, err)
	assert.Equal(t, "sk-abc", s.Text())

	_, err = store.Get(context.Background(), "ANTHROPIC_API_KEY")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSecretIsRedactedWhenFormatted(t *testing.T) {
	s := NewSecret("sk-live")
	assert.Equal(t, "[redacted]", fmt.Sprint(s))
	assert.Equal(t, "[redacted]", fmt.Sprintf("%v", s))
}

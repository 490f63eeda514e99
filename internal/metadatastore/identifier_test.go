package metadatastore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitIdentifiers_CamelCase(t *testing.T) {
	assert.Equal(t, []string{"get", "user", "by", "id"}, SplitIdentifiers("getUserByID"))
}

func TestSplitIdentifiers_SnakeCase(t *testing.T) {
	assert.Equal(t, []string{"get", "user", "by", "id"}, SplitIdentifiers("get_user_by_id"))
}

func TestSplitIdentifiers_AcronymRun(t *testing.T) {
	assert.Equal(t, []string{"http", "server"}, SplitIdentifiers("HTTPServer"))
}

func TestSplitIdentifiers_DigitsSplit(t *testing.T) {
	assert.Equal(t, []string{"chunk", "id", "v", "2"}, SplitIdentifiers("chunkIdV2"))
}

func TestSplitIdentifiers_Empty(t *testing.T) {
	assert.Empty(t, SplitIdentifiers(""))
}

func TestSplitIdentifiers_CaseFolded(t *testing.T) {
	assert.Equal(t, []string{"total"}, SplitIdentifiers("TOTAL"))
}

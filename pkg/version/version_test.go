package version_test

import (
	"encoding/json"
	"testing"

	// Packages
	version "github.com/mutablelogic/go-agentstream/pkg/version"
	assert "github.com/stretchr/testify/assert"
)

func Test_version_001(t *testing.T) {
	assert := assert.New(t)

	metadata := version.Get("agentstream")
	assert.Equal("agentstream", metadata.Name)
	assert.NotEmpty(metadata.Compiler)
	assert.Equal(version.Version(), metadata.Version)

	var decoded version.Metadata
	if assert.NoError(json.Unmarshal([]byte(metadata.String()), &decoded)) {
		assert.Equal(metadata, decoded)
	}
}

func Test_version_002(t *testing.T) {
	assert := assert.New(t)
	defer func(tag string) { version.GitTag = tag }(version.GitTag)

	version.GitTag = "v1.2.3"
	assert.Equal("v1.2.3", version.Version())
	assert.Equal("v1.2.3", version.Get("x").Tag)
}

// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package langregistry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupByExtension_CaseInsensitive(t *testing.T) {
	lang, ok := LookupByExtension(".GO")
	require.True(t, ok)
	assert.Equal(t, "go", lang.ID)
}

func TestLookupByExtension_Unknown(t *testing.T) {
	_, ok := LookupByExtension(".notareallanguage")
	assert.False(t, ok)
}

func TestLookupByName(t *testing.T) {
	lang, ok := LookupByName("python")
	require.True(t, ok)
	assert.Equal(t, ".py", lang.Extensions[0])
}

func TestSupportedExtensions_IsDefensiveCopy(t *testing.T) {
	exts := SupportedExtensions()
	exts[0] = "tampered"
	again := SupportedExtensions()
	assert.NotEqual(t, "tampered", again[0])
}

func TestAll_CoversAtLeastTwentyFiveLanguages(t *testing.T) {
	langs := All()
	assert.GreaterOrEqual(t, len(langs), 25)
}

func TestEveryLanguage_HasID(t *testing.T) {
	for _, lang := range All() {
		assert.NotEmpty(t, lang.ID)
		assert.NotEmpty(t, lang.Extensions)
	}
}

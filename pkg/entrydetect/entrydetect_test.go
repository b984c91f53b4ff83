// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package entrydetect

import (
	"testing"

	"github.com/kraklabs/codegraph/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect_ScoresNodeNearMainGuard(t *testing.T) {
	text := "import sys\n\ndef run():\n    pass\n\nif __name__ == \"__main__\":\n    run()\n"
	nodes := []graph.Node{
		{Name: "run", Language: "python", Location: graph.Location{FilePath: "app.py", StartLine: 3}, Complexity: 1},
	}

	candidates := Detect(nodes, map[string]string{"app.py": text})
	require.Len(t, candidates, 1)
	assert.Equal(t, "run", candidates[0].Node.Name)
	assert.Greater(t, candidates[0].Score, 1.0)
}

func TestDetect_FiltersNodesFarFromAnyMatch(t *testing.T) {
	lines := make([]string, 0, 30)
	for i := 0; i < 25; i++ {
		lines = append(lines, "x = 1")
	}
	lines = append(lines, "if __name__ == \"__main__\":")
	text := ""
	for _, l := range lines {
		text += l + "\n"
	}

	nodes := []graph.Node{
		{Name: "far", Language: "python", Location: graph.Location{FilePath: "app.py", StartLine: 1}, Complexity: 1},
	}
	candidates := Detect(nodes, map[string]string{"app.py": text})
	assert.Empty(t, candidates)
}

func TestDetect_FiltersStdlibPrefixedNodes(t *testing.T) {
	text := "func main() {\n}\n"
	nodes := []graph.Node{
		{Name: "fmt.Println", Language: "go", Location: graph.Location{FilePath: "main.go", StartLine: 1}},
	}
	candidates := Detect(nodes, map[string]string{"main.go": text})
	assert.Empty(t, candidates)
}

func TestDetect_SortsDescendingByScore(t *testing.T) {
	text := "func main() {\n}\n"
	nodes := []graph.Node{
		{Name: "complexOne", Language: "go", Location: graph.Location{FilePath: "main.go", StartLine: 1}, Complexity: 40},
		{Name: "simpleOne", Language: "go", Location: graph.Location{FilePath: "main.go", StartLine: 1}, Complexity: 1},
	}
	candidates := Detect(nodes, map[string]string{"main.go": text})
	require.Len(t, candidates, 2)
	assert.GreaterOrEqual(t, candidates[0].Score, candidates[1].Score)
}

func TestDetect_UnknownLineIsAlwaysCandidate(t *testing.T) {
	text := "func main() {\n}\n"
	nodes := []graph.Node{
		{Name: "unknownLine", Language: "go", Location: graph.Location{FilePath: "main.go", StartLine: 0}},
	}
	candidates := Detect(nodes, map[string]string{"main.go": text})
	require.Len(t, candidates, 1)
}

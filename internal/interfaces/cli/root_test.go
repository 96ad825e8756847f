package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestConfig(t *testing.T, dir, spawns, builds, output string) string {
	t.Helper()
	content := fmt.Sprintf(`map:
  width: 100
  height: 100
position_clustering:
  eps: 5
  min_samples: 3
build_clustering:
  min_cluster_size: 3
  max_clusters: 3
  max_sequence_length: 20
skill:
  high_threshold: 35
  mid_threshold: 20
io:
  spawns_path: %s
  builds_path: %s
  output_dir: %s
log:
  level: error
  format: console
`, spawns, builds, output)
	path := filepath.Join(dir, "buildsight.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// Two spatial groups of five spawns each plus builds for every player.
// The near group shares an economy opening, the far group a military
// one, so the full pipeline produces two positions with one archetype
// each.
func writeTestInputs(t *testing.T, dir string) (string, string) {
	t.Helper()

	var spawns string
	near := [][2]float64{{10, 10}, {11, 10}, {10, 11}, {9, 10}, {10, 9}}
	far := [][2]float64{{80, 20}, {81, 20}, {80, 21}, {81, 21}, {80, 19}}
	for i, p := range near {
		spawns += fmt.Sprintf(`{"matchId":"m%d","playerId":"p%d","allyTeamId":0,"skill":30,"wonGame":true,"rawX":%g,"rawZ":%g}`+"\n", i, i, p[0], p[1])
	}
	for i, p := range far {
		spawns += fmt.Sprintf(`{"matchId":"m%d","playerId":"p%d","allyTeamId":1,"skill":25,"wonGame":false,"rawX":%g,"rawZ":%g}`+"\n", i+5, i+5, p[0], p[1])
	}

	var builds string
	for i := 0; i < 5; i++ {
		builds += fmt.Sprintf(`{"matchId":"m%d","playerId":"p%d","skill":30,"wonGame":true,"orderedSteps":[{"unitToken":"Mex","timeMs":1000,"stepIndex":0},{"unitToken":"Solar","timeMs":2000,"stepIndex":1}]}`+"\n", i, i)
	}
	for i := 5; i < 10; i++ {
		builds += fmt.Sprintf(`{"matchId":"m%d","playerId":"p%d","skill":25,"wonGame":false,"orderedSteps":[{"unitToken":"Tank","timeMs":1500,"stepIndex":0},{"unitToken":"Radar","timeMs":2500,"stepIndex":1}]}`+"\n", i, i)
	}

	spawnsPath := filepath.Join(dir, "spawns.jsonl")
	buildsPath := filepath.Join(dir, "builds.jsonl")
	require.NoError(t, os.WriteFile(spawnsPath, []byte(spawns), 0o644))
	require.NoError(t, os.WriteFile(buildsPath, []byte(builds), 0o644))
	return spawnsPath, buildsPath
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	return cmd.Execute()
}

func TestAnalyzeCommand_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "out")
	spawns, builds := writeTestInputs(t, dir)
	cfgPath := writeTestConfig(t, dir, spawns, builds, output)

	require.NoError(t, execute(t, "analyze", "--config", cfgPath))

	for _, name := range []string{clustersFile, assignmentsFile, archetypesFile, successFile, summaryFile} {
		_, err := os.Stat(filepath.Join(output, name))
		assert.NoError(t, err, name)
	}

	data, err := os.ReadFile(filepath.Join(output, summaryFile))
	require.NoError(t, err)
	var summary runSummary
	require.NoError(t, json.Unmarshal(data, &summary))
	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, 2, summary.Positions.ClustersFound)
	require.NotNil(t, summary.Builds)
	assert.Equal(t, 2, summary.Builds.ArchetypesFound)
}

func TestPositionsCommand_WritesClusterOutputs(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "out")
	spawns, builds := writeTestInputs(t, dir)
	cfgPath := writeTestConfig(t, dir, spawns, builds, output)

	require.NoError(t, execute(t, "positions", "--config", cfgPath))

	data, err := os.ReadFile(filepath.Join(output, clustersFile))
	require.NoError(t, err)
	var clusters []map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &clusters))
	require.Len(t, clusters, 2)
	assert.Equal(t, "front-1", clusters[0]["positionName"])
	assert.Equal(t, "front-2", clusters[1]["positionName"])
}

func TestRootCommand_OutputFlagOverridesConfig(t *testing.T) {
	dir := t.TempDir()
	configured := filepath.Join(dir, "configured")
	overridden := filepath.Join(dir, "overridden")
	spawns, builds := writeTestInputs(t, dir)
	cfgPath := writeTestConfig(t, dir, spawns, builds, configured)

	require.NoError(t, execute(t, "positions", "--config", cfgPath, "--output", overridden))

	_, err := os.Stat(filepath.Join(overridden, clustersFile))
	assert.NoError(t, err)
	_, err = os.Stat(configured)
	assert.True(t, os.IsNotExist(err))
}

func TestRootCommand_MissingInputFails(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeTestConfig(t, dir,
		filepath.Join(dir, "absent.jsonl"),
		filepath.Join(dir, "absent-builds.jsonl"),
		filepath.Join(dir, "out"))

	err := execute(t, "positions", "--config", cfgPath)
	require.Error(t, err)
}

func TestGetCLIContext_Uninitialized(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	_, err := GetCLIContext(cmd)
	assert.Error(t, err)
}

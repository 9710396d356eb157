package buildinfo

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrintBuildData(t *testing.T) {
	old := []string{buildVersion, buildDate, buildCommit}
	t.Cleanup(func() { buildVersion, buildDate, buildCommit = old[0], old[1], old[2] })

	buildVersion, buildDate, buildCommit = "v1.2.3", "", "abc"

	var out bytes.Buffer
	PrintBuildData(&out)

	assert.Equal(t, "Build version: v1.2.3\nBuild date: N/A\nBuild commit: abc\n", out.String())
}

func TestVersion(t *testing.T) {
	old := buildVersion
	t.Cleanup(func() { buildVersion = old })

	buildVersion = ""
	assert.Equal(t, "N/A", Version())
	buildVersion = "v2.0.0"
	assert.Equal(t, "v2.0.0", Version())
}

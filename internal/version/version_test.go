package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	old := Version
	t.Cleanup(func() { Version = old })
	Version = "v1.0.0"

	v, commit, date := Info()
	assert.Equal(t, "v1.0.0", v)
	assert.Equal(t, "imgstats v1.0.0 (commit: "+commit+", built: "+date+")", String())
}

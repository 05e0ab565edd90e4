package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetOutputRoutesComponentLogger(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)

	log := Get("queue")
	log.Info().Msg("drained")

	out := buf.String()
	assert.Contains(t, out, `"component":"queue"`)
	assert.Contains(t, out, "drained")
}

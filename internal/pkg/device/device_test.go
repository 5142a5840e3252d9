package device

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDescriptor_Empty(t *testing.T) {
	assert.Equal(t, "Unknown device", Descriptor("   "))
}

func TestDescriptor_PassThrough(t *testing.T) {
	assert.Equal(t, "Mozilla/5.0", Descriptor(" Mozilla/5.0 "))
}

func TestDescriptor_Truncates(t *testing.T) {
	got := Descriptor(strings.Repeat("a", 300))
	assert.Len(t, got, 255)
}

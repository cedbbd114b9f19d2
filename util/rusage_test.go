package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetProcessCPUTimes(t *testing.T) {
	sum := 0
	for i := 0; i < 10000000; i++ {
		sum += i % 7
	}
	user, system, err := GetProcessCPUTimes()
	assert.Nil(t, err)
	assert.Greater(t, int64(user+system), int64(0), sum)
}

package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/mywatercloset/api/infra/eventbus"
	"github.com/mywatercloset/api/pkg/testutils"
	"github.com/stretchr/testify/assert"
)

type failingCloser struct{ closed bool }

func (f *failingCloser) Close() error {
	f.closed = true
	return errors.New("broker gone")
}

func TestCloseBus(t *testing.T) {
	logger := testutils.Logger()

	assert.NotPanics(t, func() { closeBus(eventbus.NewWithMemoryAsync(logger), logger) })

	f := &failingCloser{}
	closeBus(f, logger)
	assert.True(t, f.closed)

	assert.NotPanics(t, func() { closeBus(&bytes.Buffer{}, logger) })
}

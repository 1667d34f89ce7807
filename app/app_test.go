// ABOUTME: Tests for service wiring and the configured identity
package app

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victor-4502/naova-mvp-sub002/apperr"
	"github.com/victor-4502/naova-mvp-sub002/auth"
	"github.com/victor-4502/naova-mvp-sub002/config"
	"github.com/victor-4502/naova-mvp-sub002/db/dbtest"
	"github.com/victor-4502/naova-mvp-sub002/notify"
)

func TestNew(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	a, err := New(dbtest.Open(t), &config.Config{AutoSendRFQ: false}, logger, nil)
	require.NoError(t, err)

	assert.IsType(t, &notify.LogNotifier{}, a.Notifier)
	assert.False(t, a.Settings.AutoSendRFQ())
	assert.NotNil(t, a.Automation)
	assert.NotNil(t, a.Tracking)
	assert.NotNil(t, a.Pipeline)
	assert.NotNil(t, a.Export)
}

func TestIdentity(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	cfg := &config.Config{Role: "client", ClientID: "acme"}
	a, err := New(dbtest.Open(t), cfg, logger, &notify.Recorder{})
	require.NoError(t, err)

	id, err := a.Identity()
	require.NoError(t, err)
	assert.Equal(t, auth.Identity{Role: auth.RoleClient, ClientID: "acme"}, id)

	cfg.Role = ""
	_, err = a.Identity()
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

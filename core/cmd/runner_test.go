package cmd

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreconfig "github.com/m3rciful/topicbot/core/config"
	coretelegram "github.com/m3rciful/topicbot/core/telegram"
)

type carrier struct{ cfg *coreconfig.Config }

func (c carrier) CoreConfig() *coreconfig.Config { return c.cfg }

type fakeApp struct {
	closed bool
}

func (a *fakeApp) TelegramRunOptions() (coretelegram.RunOptions, error) {
	return coretelegram.RunOptions{}, nil
}

func (a *fakeApp) Close() error {
	a.closed = true
	return nil
}

func TestConfigPath(t *testing.T) {
	t.Setenv("TOPICBOT_CONFIG", "")
	p, err := ConfigPath("TOPICBOT_CONFIG", "config.yaml")
	require.NoError(t, err)
	assert.Equal(t, "config.yaml", p)

	t.Setenv("TOPICBOT_CONFIG", "/etc/topicbot.yaml")
	p, err = ConfigPath("TOPICBOT_CONFIG", "config.yaml")
	require.NoError(t, err)
	assert.Equal(t, "/etc/topicbot.yaml", p)

	t.Setenv("TOPICBOT_CONFIG", "")
	_, err = ConfigPath("TOPICBOT_CONFIG", "")
	require.Error(t, err)
}

func TestRunWiresHooksAndCloses(t *testing.T) {
	t.Setenv("TOPICBOT_TEST_CONFIG", "")
	app := &fakeApp{}
	var loggerClosed bool
	err := Run(Options{
		DefaultConfigPath: "config.yaml",
		ConfigEnvVar:      "TOPICBOT_TEST_CONFIG",
		LoadConfig: func(path string) (ConfigCarrier, error) {
			assert.Equal(t, "config.yaml", path)
			return carrier{cfg: &coreconfig.Config{}}, nil
		},
		Bootstrap: func(context.Context, ConfigCarrier) (TelegramApp, error) { return app, nil },
		ShutdownLogger: func() error {
			loggerClosed = true
			return nil
		},
		RunTelegram: func(ctx context.Context, opts coretelegram.RunOptions) error {
			require.NotNil(t, opts.OnStart)
			require.NotNil(t, opts.OnStop)
			require.NoError(t, opts.OnStart(ctx, coretelegram.Runtime{}))
			return opts.OnStop(ctx, coretelegram.Runtime{})
		},
	})
	require.NoError(t, err)
	assert.True(t, app.closed)
	assert.True(t, loggerClosed)
}

func TestRunReportsBootstrapFailure(t *testing.T) {
	t.Setenv("TOPICBOT_TEST_CONFIG", "")
	boom := errors.New("no database")
	err := Run(Options{
		DefaultConfigPath: "config.yaml",
		ConfigEnvVar:      "TOPICBOT_TEST_CONFIG",
		LoadConfig: func(string) (ConfigCarrier, error) {
			return carrier{cfg: &coreconfig.Config{}}, nil
		},
		Bootstrap: func(context.Context, ConfigCarrier) (TelegramApp, error) { return nil, boom },
		RunTelegram: func(context.Context, coretelegram.RunOptions) error {
			t.Fatal("bot must not start")
			return nil
		},
	})
	require.ErrorIs(t, err, boom)
}

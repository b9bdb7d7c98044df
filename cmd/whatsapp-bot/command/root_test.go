package command

import (
	"context"
	"os"
	"syscall"
	"testing"
	"time"

	"whatsappbot/internal/config"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().StringVar(&host, "host", "0.0.0.0", "")
	cmd.Flags().IntVar(&port, "port", 5000, "")
	return cmd
}

func TestApplyFlags_Unset(t *testing.T) {
	cmd := newTestCommand()
	require.NoError(t, cmd.ParseFlags(nil))

	cfg := &config.Config{Host: "127.0.0.1", Port: 8080}
	applyFlags(cmd, cfg)

	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, 8080, cfg.Port)
}

func TestApplyFlags_Set(t *testing.T) {
	cmd := newTestCommand()
	require.NoError(t, cmd.ParseFlags([]string{"--host", "10.0.0.1", "--port", "9000"}))

	cfg := &config.Config{Host: "127.0.0.1", Port: 8080}
	applyFlags(cmd, cfg)

	assert.Equal(t, "10.0.0.1", cfg.Host)
	assert.Equal(t, 9000, cfg.Port)
}

func TestRootCommand_Flags(t *testing.T) {
	hostFlag := rootCmd.Flags().Lookup("host")
	portFlag := rootCmd.Flags().Lookup("port")

	require.NotNil(t, hostFlag)
	require.NotNil(t, portFlag)
	assert.Equal(t, "0.0.0.0", hostFlag.DefValue)
	assert.Equal(t, "5000", portFlag.DefValue)
	assert.False(t, rootCmd.HasSubCommands())
}

func TestReleaseOnDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	released := make(chan struct{})

	releaseOnDone(ctx, func() { close(released) })

	select {
	case <-released:
		t.Fatal("released before the context was done")
	case <-time.After(20 * time.Millisecond):
	}

	cancel()

	select {
	case <-released:
	case <-time.After(time.Second):
		t.Fatal("signal handling was not released after shutdown started")
	}
}

func TestShutdownContext_CancelledBySignal(t *testing.T) {
	ctx, stop := shutdownContext(context.Background())
	defer stop()

	proc, err := os.FindProcess(os.Getpid())
	require.NoError(t, err)
	require.NoError(t, proc.Signal(syscall.SIGTERM))

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context not cancelled by SIGTERM")
	}
}

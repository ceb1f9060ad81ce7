package schedule

import (
	"bytes"
	"context"
	"path/filepath"
	goSync "sync"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/jonboulle/clockwork"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidkik/mirror/pkg/config"
	"github.com/sidkik/mirror/pkg/errors"
	"github.com/sidkik/mirror/pkg/sync"
)

type mockSynchronizer struct {
	lock  goSync.Mutex
	calls []string
	errs  []error

	called chan struct{}
}

func newMockSynchronizer(errs ...error) *mockSynchronizer {
	return &mockSynchronizer{errs: errs, called: make(chan struct{}, 16)}
}

func (s *mockSynchronizer) Synchronize(source, replica string) (sync.Stats, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	var err error
	if i := len(s.calls); i < len(s.errs) {
		err = s.errs[i]
	}
	s.calls = append(s.calls, source+" -> "+replica)
	s.called <- struct{}{}
	return sync.Stats{FilesCopied: 1, BytesCopied: 2048}, err
}

func (s *mockSynchronizer) getCalls() []string {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]string{}, s.calls...)
}

func testConfig(t *testing.T) config.Config {
	root := t.TempDir()
	return config.Config{
		Source:   filepath.Join(root, "src"),
		Replica:  filepath.Join(root, "dst"),
		LogFile:  filepath.Join(root, "mirror.log"),
		Interval: 10 * time.Second,
	}
}

func waitForCall(t *testing.T, s *mockSynchronizer) {
	select {
	case <-s.called:
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for a sync pass")
	}
}

func TestRunRepeatsOnInterval(t *testing.T) {
	cfg := testConfig(t)
	clock := clockwork.NewFakeClock()
	logger, _ := logtest.NewNullLogger()

	// The first pass fails. That mustn't stop the loop.
	synchronizer := newMockSynchronizer(errors.DirectoryNotFound{Path: cfg.Source})
	var out bytes.Buffer
	runner := Runner{Clock: clock, Synchronizer: synchronizer, Out: &out, Log: logger}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- runner.Run(ctx, cfg)
	}()

	waitForCall(t, synchronizer)
	clock.BlockUntil(1)
	assert.Len(t, synchronizer.getCalls(), 1)

	// Nothing happens until the full interval has passed.
	clock.Advance(cfg.Interval - time.Second)
	select {
	case <-synchronizer.called:
		t.Fatal("Pass started before the interval elapsed")
	case <-time.After(50 * time.Millisecond):
	}

	clock.Advance(time.Second)
	waitForCall(t, synchronizer)
	clock.BlockUntil(1)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run didn't return after the context was cancelled")
	}

	expCall := cfg.Source + " -> " + cfg.Replica
	assert.Equal(t, []string{expCall, expCall}, synchronizer.getCalls())
	assert.Equal(t, "Synchronization started\n", out.String())
}

func TestRunOnce(t *testing.T) {
	cfg := testConfig(t)
	cfg.Once = true
	logger, _ := logtest.NewNullLogger()

	passErr := errors.DirectoryNotFound{Path: cfg.Source}
	synchronizer := newMockSynchronizer(passErr)
	runner := Runner{
		Clock:        clockwork.NewFakeClock(),
		Synchronizer: synchronizer,
		Out:          &bytes.Buffer{},
		Log:          logger,
	}

	err := runner.Run(context.Background(), cfg)
	assert.Equal(t, passErr, err)
	assert.Len(t, synchronizer.getCalls(), 1)

	// The lock is released once Run returns.
	lock := flock.New(LockPath(cfg.Replica))
	locked, err := lock.TryLock()
	assert.NoError(t, err)
	assert.True(t, locked)
	assert.NoError(t, lock.Unlock())
}

func TestRunReplicaLocked(t *testing.T) {
	cfg := testConfig(t)
	cfg.Once = true
	logger, _ := logtest.NewNullLogger()

	lock := flock.New(LockPath(cfg.Replica))
	locked, err := lock.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer lock.Unlock()

	synchronizer := newMockSynchronizer()
	var out bytes.Buffer
	runner := Runner{
		Clock:        clockwork.NewFakeClock(),
		Synchronizer: synchronizer,
		Out:          &out,
		Log:          logger,
	}

	err = runner.Run(context.Background(), cfg)
	assert.Equal(t, errors.ReplicaLocked{Path: cfg.Replica}, err)
	assert.Empty(t, synchronizer.getCalls())
	assert.Empty(t, out.String())
}

func TestLockPath(t *testing.T) {
	assert.Equal(t, "/backup/.dst.mirror.lock", LockPath("/backup/dst"))
	assert.Equal(t, "/.dst.mirror.lock", LockPath("/dst"))
}

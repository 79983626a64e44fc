package service

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/consoleauth/internal/console/domain"
	"github.com/aussiebroadwan/consoleauth/internal/console/store"
	"github.com/aussiebroadwan/consoleauth/internal/console/store/drivers/file"
	"github.com/aussiebroadwan/consoleauth/pkg/authsdk"
)

func newWatchedController(t *testing.T, st store.Store) *FlowController {
	t.Helper()

	idp := newFakeIdP(t)
	client := authsdk.NewSDKClient(idp.URL)
	session := newTestSessionStore(t, st, "test-master-key")
	ctrl := NewFlowController(FlowConfig{}, client, client.Cookies, session, newFakeClock(testNow),
		discardLogger(), NewMetrics(prometheus.NewRegistry()))
	t.Cleanup(ctrl.Close)
	return ctrl
}

func TestSessionWatchdogWatchesStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	st, err := file.NewStore(t.TempDir())
	require.NoError(t, err)

	ctrl := newWatchedController(t, st)
	w := NewSessionWatchdog(st, ctrl, discardLogger(), time.Hour)
	w.Start()
	t.Cleanup(w.Stop)

	other := newTestSessionStore(t, st, "test-master-key")
	access := accessToken(t, time.Hour)

	// The watch is set up asynchronously; keep writing until it is seen.
	require.Eventually(t, func() bool {
		if _, err := other.SetCredentials(ctx, access, "refresh-1"); err != nil {
			return false
		}
		return ctrl.Session.AccessToken() == access
	}, 5*time.Second, 50*time.Millisecond)
	require.Equal(t, domain.StateAuthenticated, ctrl.State())

	require.NoError(t, st.Delete(ctx, SessionKey))
	require.Eventually(t, func() bool {
		return ctrl.State() == domain.StateLoggedOut
	}, 5*time.Second, 20*time.Millisecond)
}

func TestSessionWatchdogPolls(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	h := newHarness(t)
	require.NoError(t, h.ctrl.InstallCredentials(ctx, accessToken(t, time.Hour), "refresh-1"))

	w := NewSessionWatchdog(h.store, h.ctrl, discardLogger(), 10*time.Millisecond)
	w.Start()
	t.Cleanup(w.Stop)

	require.NoError(t, h.store.Delete(ctx, SessionKey))
	require.Eventually(t, func() bool {
		return h.ctrl.State() == domain.StateLoggedOut
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSessionWatchdogStopWithoutStart(t *testing.T) {
	t.Parallel()

	w := NewSessionWatchdog(nil, nil, nil, 0)
	require.Equal(t, time.Second, w.Interval)
	w.Stop()
}

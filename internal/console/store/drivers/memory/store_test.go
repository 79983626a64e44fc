package memory_test

import (
	"testing"

	"github.com/aussiebroadwan/consoleauth/internal/console/store/drivers/memory"
	"github.com/aussiebroadwan/consoleauth/internal/console/store/storetest"
)

func TestStore(t *testing.T) {
	t.Parallel()
	storetest.Run(t, memory.NewStore())
}

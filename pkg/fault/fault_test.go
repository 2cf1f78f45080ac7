package fault_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dkoosis/sax/pkg/fault"
)

func TestError_MessageIncludesContext(t *testing.T) {
	t.Parallel()

	err := fault.New(fault.KindStoreAccess, "set", "/files/a/Monitor/Identifier", errors.New("too many matches"))

	assert.Equal(t, "store-access set /files/a/Monitor/Identifier: too many matches", err.Error())
}

func TestNew_NilCauseUsesKind(t *testing.T) {
	t.Parallel()

	err := fault.New(fault.KindAborted, "", "", nil)

	assert.Equal(t, "aborted: aborted", err.Error())
}

func TestIs_FindsKindThroughWrapping(t *testing.T) {
	t.Parallel()

	inner := fault.New(fault.KindToolTimeout, "compute", "", errors.New("deadline"))
	wrapped := fmt.Errorf("monitor: %w", inner)

	assert.True(t, fault.Is(wrapped, fault.KindToolTimeout))
	assert.False(t, fault.Is(wrapped, fault.KindPersist))
	assert.Equal(t, fault.KindToolTimeout, fault.KindOf(wrapped))
}

func TestIs_FindsKindInJoinedErrors(t *testing.T) {
	t.Parallel()

	joined := errors.Join(
		fault.New(fault.KindStoreAccess, "set", "/x", nil),
		fault.New(fault.KindToolInvocation, "compute", "", nil),
	)

	assert.True(t, fault.Is(joined, fault.KindStoreAccess))
	assert.True(t, fault.Is(joined, fault.KindToolInvocation))
	assert.False(t, fault.Is(joined, fault.KindPersist))
}

func TestIs_NestedKinds(t *testing.T) {
	t.Parallel()

	err := fault.New(fault.KindPersist, "save", "", fault.New(fault.KindStoreAccess, "render", "", nil))

	assert.True(t, fault.Is(err, fault.KindPersist))
	assert.True(t, fault.Is(err, fault.KindStoreAccess))
	assert.False(t, fault.Is(nil, fault.KindPersist))
}

package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActions_ClosedSet(t *testing.T) {
	var names []string
	for _, a := range AllActions() {
		assert.True(t, a.Valid(), a)
		names = append(names, string(a))
	}
	assert.Equal(t, []string{"insert", "update", "delete", "restore"}, names)

	for _, a := range []Action{"", "create", "approve", "reject", "INSERT"} {
		assert.False(t, a.Valid(), a)
	}
}

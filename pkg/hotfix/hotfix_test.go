package hotfix

import (
	"testing"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
)

func TestParseInstalledOn(t *testing.T) {
	assert.Equal(t, civil.Date{Year: 2024, Month: 1, Day: 9}, ParseInstalledOn("1/9/2024"))
	assert.Equal(t, civil.Date{Year: 2023, Month: 11, Day: 14}, ParseInstalledOn(" 11/14/2023 "))
	assert.Equal(t, civil.Date{Year: 2009, Month: 7, Day: 14}, ParseInstalledOn("1ca04437c3a5e00"))
	assert.True(t, ParseInstalledOn("").IsZero())
	assert.True(t, ParseInstalledOn("yesterday").IsZero())
}

func TestFindAndSort(t *testing.T) {
	hotfixes := []Hotfix{{HotFixID: "KB5034441"}, {HotFixID: "KB5011048"}}
	Sort(hotfixes)
	assert.Equal(t, "KB5011048", hotfixes[0].HotFixID)

	h, ok := Find(hotfixes, "kb5034441")
	assert.True(t, ok)
	assert.Equal(t, "KB5034441", h.HotFixID)

	_, ok = Find(hotfixes, "KB1")
	assert.False(t, ok)
}

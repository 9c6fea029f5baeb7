package tests

import (
	"os"
	"testing"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
)

func TestMain(m *testing.M) {
	core.InitValidators()
	course.InitValidators()
	os.Exit(m.Run())
}

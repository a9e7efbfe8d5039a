package testing

import (
	"os"
	"path"
	"runtime"
)

func init() {
	// cd to the project root so tests write logs/ and read testdata/ from a fixed place
	// usage is
	//
	//   in some_test.go,
	//   import (
	//     _ "liyu1981.xyz/solar-telemetry-service/pkg/testing"
	//   )

	_, filename, _, _ := runtime.Caller(0)
	dir := path.Join(path.Dir(filename), "..", "..")
	if err := os.Chdir(dir); err != nil {
		panic(err)
	}
}

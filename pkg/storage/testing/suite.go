package testing

import (
	"context"
	"testing"

	"github.com/marmos91/dittosync/pkg/storage"
)

// StorageTestSuite is a conformance suite for storage.Directory backends.
// It tests the capability contract, not implementation details, so every
// backend (billy, s3, badger, ...) runs the same checks.
//
// Usage:
//
//	func TestMyBackend(t *testing.T) {
//	    suite := &storagetesting.StorageTestSuite{
//	        NewDirectory: func(t *testing.T) storage.Directory {
//	            return mybackend.New(t.TempDir())
//	        },
//	    }
//	    suite.Run(t)
//	}
type StorageTestSuite struct {
	// NewDirectory returns a fresh, empty directory for each test.
	NewDirectory func(t *testing.T) storage.Directory
}

// Run executes all tests in the suite.
func (suite *StorageTestSuite) Run(t *testing.T) {
	t.Run("Directory", suite.RunDirectoryTests)
	t.Run("Streams", suite.RunStreamTests)
	t.Run("Rename", suite.RunRenameTests)
	t.Run("Remove", suite.RunRemoveTests)
	t.Run("Contract", suite.RunContractTests)
}

func testContext() context.Context {
	return context.Background()
}

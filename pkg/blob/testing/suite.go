// Package testing provides a reusable conformance suite for blob.Store
// implementations. It tests the interface contract, not implementation
// details, so the same suite runs against the memory, badger, and s3
// backends.
package testing

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zotdav/zotdav/pkg/blob"
)

// StoreTestSuite exercises the blob.Store contract.
//
// Usage:
//
//	func TestMemoryStore(t *testing.T) {
//	    suite := &blobtesting.StoreTestSuite{
//	        NewStore: func(t *testing.T) blob.Store {
//	            store, err := memory.NewMemoryStore(context.Background())
//	            require.NoError(t, err)
//	            return store
//	        },
//	    }
//	    suite.Run(t)
//	}
type StoreTestSuite struct {
	// NewStore creates a fresh, empty store for each test, ensuring
	// isolation between test cases.
	NewStore func(t *testing.T) blob.Store
}

// Run executes all tests in the suite.
func (suite *StoreTestSuite) Run(t *testing.T) {
	t.Run("Get", suite.RunGetTests)
	t.Run("Put", suite.RunPutTests)
	t.Run("Delete", suite.RunDeleteTests)
	t.Run("List", suite.RunListTests)
}

func testContext() context.Context {
	return context.Background()
}

// mustPut writes an object and fails the test if it errors.
func mustPut(t *testing.T, store blob.Store, key string, data []byte) *blob.ObjectInfo {
	t.Helper()
	info, err := store.Put(testContext(), key, bytes.NewReader(data), int64(len(data)), "application/octet-stream")
	require.NoError(t, err, "Put should succeed")
	return info
}

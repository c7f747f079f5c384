package storeerr

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"path/filepath"
	"testing"

	"github.com/jonwraymond/catalogops/auth"
	"github.com/jonwraymond/catalogops/docstore"
	"github.com/jonwraymond/catalogops/docstore/sqlite"
	"github.com/jonwraymond/catalogops/resilience"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"table sentinel", docstore.ErrTableNotFound, ResourceMissing},
		{"wrapped table sentinel", fmt.Errorf("scan: %w", docstore.ErrTableNotFound), ResourceMissing},
		{"sqlite no such table text", errors.New("SQL logic error: no such table: catalog_items (1)"), ResourceMissing},
		{"remote resource not found", errors.New("ResourceNotFoundException: Requested resource not found"), ResourceMissing},
		{"invalid credentials sentinel", auth.ErrInvalidCredentials, CredentialsInvalid},
		{"missing credentials sentinel", fmt.Errorf("proxy: %w", auth.ErrMissingCredentials), CredentialsInvalid},
		{"invalid signature text", errors.New("The request signature we calculated does not match: invalid signature"), CredentialsInvalid},
		{"security token text", errors.New("The security token included in the request is invalid"), CredentialsInvalid},
		{"unrecognized client", errors.New("UnrecognizedClientException"), CredentialsInvalid},
		{"deadline", context.DeadlineExceeded, Network},
		{"circuit open", resilience.ErrCircuitOpen, Network},
		{"bulkhead full", fmt.Errorf("scan: %w", resilience.ErrBulkheadFull), Network},
		{"net error", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("boom")}, Network},
		{"connection refused text", errors.New("dial tcp 127.0.0.1:1: connect: connection refused"), Network},
		{"invalid input sentinel", docstore.ErrInvalidInput, Validation},
		{"condition failed", docstore.ErrConditionFailed, Validation},
		{"required text", errors.New("title is required"), Validation},
		{"validation exception", errors.New("ValidationException: bad key"), Validation},
		{"not found sentinel", docstore.ErrNotFound, NotFound},
		{"no rows", sql.ErrNoRows, NotFound},
		{"not found text", errors.New("item not found"), NotFound},
		{"anything else", errors.New("disk on fire"), Unknown},
		{"canceled", context.Canceled, Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Kind)
			assert.ErrorIs(t, got, tt.err, "cause must be preserved")
		})
	}
}

func TestClassify_Nil(t *testing.T) {
	assert.Nil(t, Classify(nil))
	assert.False(t, IsRetryable(nil))
}

func TestClassify_Idempotent(t *testing.T) {
	first := ClassifyOp("query", errors.New("connection reset by peer"))
	wrapped := fmt.Errorf("outer: %w", first)

	second := Classify(wrapped)
	assert.Same(t, first, second)
	assert.Equal(t, "query", second.Op)
}

func TestClassify_PriorityOrder(t *testing.T) {
	// A message matching several kinds resolves to the earliest one.
	err := errors.New("table does not exist: access denied")
	assert.Equal(t, ResourceMissing, KindOf(err))

	err = errors.New("invalid credentials: not found")
	assert.Equal(t, CredentialsInvalid, KindOf(err))
}

func TestClassify_SQLiteMissingTable(t *testing.T) {
	store, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "bare.db"), sqlite.Options{SkipMigrations: true})
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Query(context.Background(), docstore.QueryInput{Index: docstore.IndexCategory, Key: "x"})
	require.Error(t, err)
	assert.Equal(t, ResourceMissing, KindOf(err))
	assert.Equal(t, EmptyResult, KindOf(err).ReadRecovery())
}

func TestStoreError_IsByKind(t *testing.T) {
	err := fmt.Errorf("wrap: %w", ClassifyOp("create", errors.New("i/o timeout")))

	assert.ErrorIs(t, err, ErrNetwork)
	assert.NotErrorIs(t, err, ErrValidation)
	assert.Equal(t, "storeerr: create: network: i/o timeout", errors.Unwrap(err).Error())
}

func TestRecovery(t *testing.T) {
	tests := []struct {
		kind  Kind
		read  Recovery
		write Recovery
	}{
		{NotFound, EmptyResult, Propagate},
		{ResourceMissing, EmptyResult, Propagate},
		{CredentialsInvalid, Propagate, Propagate},
		{Network, Propagate, Retry},
		{Validation, Propagate, Propagate},
		{Unknown, Propagate, Propagate},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.read, tt.kind.ReadRecovery())
			assert.Equal(t, tt.write, tt.kind.WriteRecovery())
		})
	}
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(errors.New("connection reset")))
	assert.True(t, IsRetryable(resilience.ErrCircuitOpen))
	assert.False(t, IsRetryable(docstore.ErrConditionFailed))
	assert.False(t, IsRetryable(auth.ErrInvalidCredentials))
	assert.False(t, IsRetryable(docstore.ErrNotFound))
}

func TestParseKind(t *testing.T) {
	for k := range kindNames {
		assert.Equal(t, k, ParseKind(k.String()))
	}
	assert.Equal(t, Unknown, ParseKind("bogus"))
	assert.Equal(t, Network, ParseKind(" NETWORK "))
}

package application

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sync"
	"testing"

	"playlink/internal/models"
	"playlink/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Error(format string, v ...interface{}) {}
func (nopLogger) Warn(format string, v ...interface{})  {}
func (nopLogger) Info(format string, v ...interface{})  {}
func (nopLogger) Debug(format string, v ...interface{}) {}

const (
	testOwner   = "owner-1"
	testSupport = "support-1"
)

func newTestService(t *testing.T) (*Service, repository.LinkStore) {
	t.Helper()

	store, err := repository.NewLinkFile(filepath.Join(t.TempDir(), "links.json"))
	require.NoError(t, err)

	svc := NewService(repository.NewFileRepository(store), testOwner, []string{testSupport}, nil, nopLogger{})
	return svc, store
}

func TestIssueCreatesUnlinkedRecord(t *testing.T) {
	svc, _ := newTestService(t)

	code, err := svc.Links.Issue("PF-1", "HW-1", "1.2.3.4")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^\d{6}$`), code)

	rec, err := svc.Links.Lookup(code)
	require.NoError(t, err)
	assert.Equal(t, "PF-1", rec.GameAccountID)
	assert.Equal(t, "HW-1", rec.HardwareID)
	assert.Equal(t, "1.2.3.4", rec.NetworkAddress)
	assert.Equal(t, models.StateUnlinked, rec.State)
	assert.Empty(t, rec.CallerID)
	assert.Nil(t, rec.LinkedAt)
	assert.False(t, rec.CreatedAt.IsZero())
}

func TestIssueRejectsEmptyAccount(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Links.Issue("", "HW-1", "1.2.3.4")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestIssueIsIdempotentBeforeRedemption(t *testing.T) {
	svc, store := newTestService(t)

	first, err := svc.Links.Issue("PF-1", "HW-1", "1.2.3.4")
	require.NoError(t, err)

	second, err := svc.Links.Issue("PF-1", "HW-2", "5.6.7.8")
	require.NoError(t, err)
	assert.Equal(t, first, second, "re-issuance must reuse the pending code")

	all, err := store.All()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "HW-2", all[0].HardwareID, "fingerprint must be refreshed")
	assert.Equal(t, "5.6.7.8", all[0].NetworkAddress)
}

func TestIssueAfterLinkCreatesFreshRecord(t *testing.T) {
	svc, store := newTestService(t)

	first, err := svc.Links.Issue("PF-1", "HW-1", "1.2.3.4")
	require.NoError(t, err)
	_, err = svc.Links.Redeem(first, "U-7")
	require.NoError(t, err)

	second, err := svc.Links.Issue("PF-1", "HW-1", "1.2.3.4")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	all, err := store.All()
	require.NoError(t, err)
	assert.Len(t, all, 2)

	old, err := svc.Links.Lookup(first)
	require.NoError(t, err)
	assert.Equal(t, models.StateLinked, old.State, "linked record must be left untouched")
}

func TestRedeemTransitionsToLinked(t *testing.T) {
	svc, _ := newTestService(t)

	code, err := svc.Links.Issue("PF-1", "HW-1", "1.2.3.4")
	require.NoError(t, err)

	rec, err := svc.Links.Redeem(code, "U-7")
	require.NoError(t, err)
	assert.Equal(t, models.StateLinked, rec.State)
	assert.Equal(t, "U-7", rec.CallerID)
	require.NotNil(t, rec.LinkedAt)

	linked, err := svc.Links.IsLinked("U-7")
	require.NoError(t, err)
	assert.True(t, linked)

	_, err = svc.Links.Redeem(code, "U-8")
	assert.ErrorIs(t, err, ErrNotFound, "a spent code must not redeem twice")
}

func TestRedeemUnknownCode(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Links.Redeem("000000", "U-7")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedeemDuplicatePairConflicts(t *testing.T) {
	svc, _ := newTestService(t)

	first, err := svc.Links.Issue("PF-1", "HW-1", "1.2.3.4")
	require.NoError(t, err)
	_, err = svc.Links.Redeem(first, "U-7")
	require.NoError(t, err)

	second, err := svc.Links.Issue("PF-1", "HW-1", "1.2.3.4")
	require.NoError(t, err)

	_, err = svc.Links.Redeem(second, "U-7")
	assert.ErrorIs(t, err, ErrConflict, "one Linked record per (account, caller) pair")
}

func TestUnlinkScenario(t *testing.T) {
	svc, _ := newTestService(t)

	code, err := svc.Links.Issue("PF-1", "HW-1", "1.2.3.4")
	require.NoError(t, err)
	_, err = svc.Links.Redeem(code, "U-7")
	require.NoError(t, err)

	count, err := svc.Links.Unlink("U-7")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	linked, err := svc.Links.IsLinked("U-7")
	require.NoError(t, err)
	assert.False(t, linked)

	count, err = svc.Links.Unlink("U-7")
	require.NoError(t, err)
	assert.Equal(t, 0, count, "second unlink reports the caller was not linked")

	// The record is back in Unlinked state and its code redeemable again.
	rec, err := svc.Links.Lookup(code)
	require.NoError(t, err)
	assert.Equal(t, models.StateUnlinked, rec.State)
	assert.Empty(t, rec.CallerID)

	_, err = svc.Links.Redeem(code, "U-8")
	require.NoError(t, err)
}

func TestDeleteCodeRequiresSupport(t *testing.T) {
	svc, _ := newTestService(t)

	code, err := svc.Links.Issue("PF-1", "HW-1", "1.2.3.4")
	require.NoError(t, err)

	err = svc.Links.DeleteCode(code, "random-user")
	assert.ErrorIs(t, err, ErrForbidden)

	rec, err := svc.Links.Lookup(code)
	require.NoError(t, err)
	assert.Equal(t, models.StateUnlinked, rec.State, "denied delete must not change the record")

	require.NoError(t, svc.Links.DeleteCode(code, testSupport))

	_, err = svc.Links.Lookup(code)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteCodeByOwner(t *testing.T) {
	svc, _ := newTestService(t)

	code, err := svc.Links.Issue("PF-1", "HW-1", "1.2.3.4")
	require.NoError(t, err)

	require.NoError(t, svc.Links.DeleteCode(code, testOwner))
}

func TestDeleteUnknownCode(t *testing.T) {
	svc, _ := newTestService(t)

	err := svc.Links.DeleteCode("000000", testSupport)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListAllRequiresSupport(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Links.Issue("PF-1", "HW-1", "1.2.3.4")
	require.NoError(t, err)

	_, err = svc.Links.ListAll("random-user")
	assert.ErrorIs(t, err, ErrForbidden)

	recs, err := svc.Links.ListAll(testSupport)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestExportReport(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Links.Issue("PF-1", "HW-1", "1.2.3.4")
	require.NoError(t, err)

	_, err = svc.Links.ExportReport("random-user")
	assert.ErrorIs(t, err, ErrForbidden)

	data, err := svc.Links.ExportReport(testSupport)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestConcurrentIssueDistinctAccounts(t *testing.T) {
	svc, store := newTestService(t)

	const n = 32

	var wg sync.WaitGroup
	codes := make([]string, n)
	errs := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i], errs[i] = svc.Links.Issue(fmt.Sprintf("PF-%d", i), "HW", "10.0.0.1")
		}(i)
	}
	wg.Wait()

	seen := make(map[string]struct{})
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		_, dup := seen[codes[i]]
		assert.False(t, dup, "code %s issued twice", codes[i])
		seen[codes[i]] = struct{}{}
	}

	all, err := store.All()
	require.NoError(t, err)
	assert.Len(t, all, n, "no lost writes under concurrent issuance")
}

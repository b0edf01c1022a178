package uow

import (
	"reflect"
	"testing"

	"github.com/wisbric/skywatch/internal/errs"
	"github.com/wisbric/skywatch/internal/repository"
)

type fakeRepo struct{ tag string }

func newFakeRepo(q repository.Queryer) *fakeRepo { return &fakeRepo{tag: "fake"} }

func TestGetRepositoryCachesAcrossCalls(t *testing.T) {
	u := &UnitOfWork{cache: make(map[reflect.Type]any)}

	first, err := GetRepository(u, newFakeRepo)
	if err != nil {
		t.Fatalf("GetRepository returned error: %v", err)
	}
	second, err := GetRepository(u, newFakeRepo)
	if err != nil {
		t.Fatalf("GetRepository returned error on second call: %v", err)
	}
	if first != second {
		t.Error("GetRepository constructed a new instance instead of returning the cached one")
	}
}

func TestGetRepositoryOnClosedUnitOfWorkFailsWithSessionMisuse(t *testing.T) {
	u := &UnitOfWork{cache: make(map[reflect.Type]any), closed: true}

	_, err := GetRepository(u, newFakeRepo)
	if err == nil {
		t.Fatal("expected an error from a closed UnitOfWork")
	}
	if !errs.Is(err, errs.SessionMisuse) {
		t.Errorf("got error kind %q, want %q", errs.KindOf(err), errs.SessionMisuse)
	}
}

func TestGetRepositoryReturnsCachedValueEvenWhenClosed(t *testing.T) {
	u := &UnitOfWork{cache: make(map[reflect.Type]any)}
	want, err := GetRepository(u, newFakeRepo)
	if err != nil {
		t.Fatalf("GetRepository returned error: %v", err)
	}

	u.closed = true
	got, err := GetRepository(u, newFakeRepo)
	if err != nil {
		t.Fatalf("GetRepository on already-cached type returned error: %v", err)
	}
	if got != want {
		t.Error("GetRepository did not return the previously cached instance")
	}
}

package repository

import (
	"strings"
	"testing"
)

var asteroidCols = map[string]bool{
	"id": true, "designation": true, "albedo": true, "earth_moid_au": true,
}

func TestBuildWhereEquality(t *testing.T) {
	where, args := BuildWhere([]Condition{Eq("designation", "2023 TEST")}, asteroidCols)
	if where != "designation = $1" {
		t.Errorf("where = %q", where)
	}
	if len(args) != 1 || args[0] != "2023 TEST" {
		t.Errorf("args = %v", args)
	}
}

func TestBuildWhereIgnoresUnknownField(t *testing.T) {
	where, args := BuildWhere([]Condition{
		Eq("designation", "2023 TEST"),
		{Field: "not_a_column", Op: OpEq, Value: 1},
	}, asteroidCols)
	if where != "designation = $1" {
		t.Errorf("where = %q, want unknown field dropped", where)
	}
	if len(args) != 1 {
		t.Errorf("args = %v, want len 1", args)
	}
}

func TestBuildWhereLikeWrapsValue(t *testing.T) {
	_, args := BuildWhere([]Condition{{Field: "designation", Op: OpLike, Value: "TEST"}}, asteroidCols)
	if len(args) != 1 || args[0] != "%TEST%" {
		t.Errorf("args = %v, want wrapped like value", args)
	}
}

func TestBuildWhereIsNullConsumesNoArg(t *testing.T) {
	where, args := BuildWhere([]Condition{{Field: "earth_moid_au", Op: OpIsNull}}, asteroidCols)
	if !strings.Contains(where, "IS NULL") {
		t.Errorf("where = %q", where)
	}
	if len(args) != 0 {
		t.Errorf("args = %v, want none", args)
	}
}

func TestBuildWhereCombinesMultipleConditionsWithAnd(t *testing.T) {
	where, args := BuildWhere([]Condition{
		Eq("designation", "2023 TEST"),
		{Field: "albedo", Op: OpGt, Value: 0.1},
	}, asteroidCols)
	if !strings.Contains(where, " AND ") {
		t.Errorf("where = %q, want AND-joined clauses", where)
	}
	if len(args) != 2 {
		t.Errorf("args = %v, want len 2", args)
	}
}

func TestBuildWhereEmptyConditionsYieldsEmptyClause(t *testing.T) {
	where, args := BuildWhere(nil, asteroidCols)
	if where != "" || args != nil {
		t.Errorf("where = %q, args = %v, want empty", where, args)
	}
}

func TestBuildWhereInOperatorUsesAny(t *testing.T) {
	where, args := BuildWhere([]Condition{{Field: "id", Op: OpIn, Value: []int64{1, 2, 3}}}, asteroidCols)
	if !strings.Contains(where, "= ANY(") {
		t.Errorf("where = %q, want ANY() predicate", where)
	}
	if len(args) != 1 {
		t.Errorf("args = %v, want single slice arg", args)
	}
}

package postgres

import (
	"math/big"
	"strings"
	"testing"
)

func TestNumericRoundTrip(t *testing.T) {
	huge, _ := new(big.Int).SetString("115792089237316195423570985008687907853269984665640564039457584007913129639935", 10)
	for _, v := range []*big.Int{big.NewInt(0), big.NewInt(1001), huge} {
		got, err := parseNumeric(numeric(v))
		if err != nil {
			t.Fatalf("parse %s: %v", v, err)
		}
		if got.Cmp(v) != 0 {
			t.Fatalf("round trip %s -> %s", v, got)
		}
	}
	if numeric(nil) != "0" {
		t.Fatalf("nil numeric should encode as 0")
	}
	if _, err := parseNumeric("1.5"); err == nil {
		t.Fatalf("expected error for fractional numeric")
	}
}

func TestSchemaDeclaresTables(t *testing.T) {
	for _, table := range []string{"assets", "pools", "staking_contracts", "storage_cells"} {
		if !strings.Contains(schema, "CREATE TABLE IF NOT EXISTS "+table+" ") {
			t.Fatalf("schema is missing table %s", table)
		}
	}
}

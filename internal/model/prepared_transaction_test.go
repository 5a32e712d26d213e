package model

import (
	"encoding/json"
	"math/big"
	"testing"
)

func TestPreparedTransactionJSONShape(t *testing.T) {
	tx := PreparedTransaction{
		ValidUntil: 1_700_000_300,
		Network:    -239,
		Messages: []PreparedMessage{
			{Address: "EQB3ncyBUTjZUA5EnFKR5_EnOMI9V1tTEAAPaiU71gc4TiUt", Amount: big.NewInt(220_000_000), Payload: "te6cckEBAQEAAgAAAEysuc0="},
			{Address: "EQAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAM9c", Amount: big.NewInt(1)},
		},
	}

	data, err := json.Marshal(tx)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if v, ok := decoded["valid_until"].(float64); !ok || v != 1_700_000_300 {
		t.Fatalf("valid_until = %v", decoded["valid_until"])
	}
	if v, ok := decoded["network"].(float64); !ok || v != -239 {
		t.Fatalf("network = %v", decoded["network"])
	}
	messages, ok := decoded["messages"].([]interface{})
	if !ok || len(messages) != 2 {
		t.Fatalf("messages = %v", decoded["messages"])
	}
	first := messages[0].(map[string]interface{})
	if _, ok := first["amount"].(float64); !ok {
		t.Fatalf("amount should be a number")
	}
	if _, ok := first["payload"].(string); !ok {
		t.Fatalf("payload should be a string")
	}
	second := messages[1].(map[string]interface{})
	if _, ok := second["payload"]; ok {
		t.Fatalf("empty payload should be omitted")
	}
}

func TestPoolUpdateApply(t *testing.T) {
	pool := Pool{Address: "0:01", Reserve0: big.NewInt(1), TotalSupply: big.NewInt(5)}
	update := Pool{Reserve0: big.NewInt(7), Reserve1: big.NewInt(8), LpFee: 20, TotalSupply: big.NewInt(9)}.Update()
	update.Apply(&pool)

	if pool.Address != "0:01" {
		t.Fatalf("address changed: %s", pool.Address)
	}
	if pool.Reserve0.Int64() != 7 || pool.Reserve1.Int64() != 8 || pool.LpFee != 20 || pool.TotalSupply.Int64() != 9 {
		t.Fatalf("update not applied: %+v", pool)
	}
}

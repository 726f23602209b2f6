package store

import (
	"encoding/json"
	"fmt"
)

// GetRecord reads the JSON record stored under key into v
func GetRecord(txn Transaction, table Table, key []byte, v any) error {
	data, err := txn.Get(table, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding %s record %q: %w", table, key, err)
	}
	return nil
}

// PutRecord stores v as a JSON record under key
func PutRecord(txn Transaction, table Table, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s record %q: %w", table, key, err)
	}
	return txn.Set(table, key, data)
}

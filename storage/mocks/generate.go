// Package mocks holds gomock doubles for the storage interfaces.
//
// Regenerate after changing storage.Archive or storage.Latency:
//
//	go generate ./storage/mocks
package mocks

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=storage_mock.go github.com/EEWBot/webhook-benchmark/storage Archive,Latency
